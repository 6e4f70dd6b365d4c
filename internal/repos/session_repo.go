package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"wishlistapp/internal/domain"
	"wishlistapp/internal/security"
)

// SessionRepo stores Shopify sessions with access tokens sealed at rest.
type SessionRepo struct {
	db     *sqlx.DB
	sealer *security.Sealer
}

func NewSessionRepo(db *sqlx.DB, sealer *security.Sealer) *SessionRepo {
	return &SessionRepo{db: db, sealer: sealer}
}

func (r *SessionRepo) Put(ctx context.Context, s domain.Session) error {
	tok, err := r.sealer.Seal(s.AccessToken)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	if s.CreatedAt == "" {
		s.CreatedAt = now()
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO shopify_sessions(id, shop, access_token, scope, is_online, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET
	    shop=excluded.shop, access_token=excluded.access_token,
	    scope=excluded.scope, is_online=excluded.is_online
	`), s.ID, s.Shop, tok, s.Scope, s.IsOnline, s.CreatedAt)
	return err
}

// FindByShop returns all sessions of a shop, oldest first, tokens opened.
func (r *SessionRepo) FindByShop(ctx context.Context, shop string) ([]domain.Session, error) {
	var rows []domain.Session
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
	  SELECT id, shop, access_token, scope, is_online, created_at
	  FROM shopify_sessions WHERE shop=?
	  ORDER BY created_at, id
	`), shop); err != nil {
		return nil, err
	}
	for i := range rows {
		tok, err := r.sealer.Open(rows[i].AccessToken)
		if err != nil {
			return nil, fmt.Errorf("open token for session %s: %w", rows[i].ID, err)
		}
		rows[i].AccessToken = tok
	}
	return rows, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM shopify_sessions WHERE id=?`), id)
	return err
}
