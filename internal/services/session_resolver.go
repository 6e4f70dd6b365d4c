package services

import (
	"context"
	"errors"
	"strings"

	"wishlistapp/internal/domain"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/shopify"
)

// ErrNoSession means the shop has no stored session with an access token.
var ErrNoSession = errors.New("no active session for shop")

type SessionFinder interface {
	FindByShop(ctx context.Context, shop string) ([]domain.Session, error)
}

type SessionResolver struct {
	Sessions SessionFinder
}

func NewSessionResolver(sessions SessionFinder) *SessionResolver {
	return &SessionResolver{Sessions: sessions}
}

// Resolve picks the shop's offline session, falling back to the first one.
// Sessions with an empty token are ignored.
func (r *SessionResolver) Resolve(ctx context.Context, shop string) (*shopify.Credential, error) {
	sessions, err := r.Sessions.FindByShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	var pick *domain.Session
	for i := range sessions {
		s := &sessions[i]
		if s.AccessToken == "" {
			continue
		}
		if strings.Contains(s.ID, "-offline") {
			pick = s
			break
		}
		if pick == nil {
			pick = s
		}
	}
	if pick == nil {
		return nil, ErrNoSession
	}
	return &shopify.Credential{Shop: shop, AccessToken: pick.AccessToken}, nil
}

// tryResolve is Resolve for best-effort paths: any failure is a nil credential.
func (r *SessionResolver) tryResolve(ctx context.Context, shop string) *shopify.Credential {
	cred, err := r.Resolve(ctx, shop)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			applog.Fail("session.resolve.fail", err, map[string]any{"shop": shop})
		}
		return nil
	}
	return cred
}
