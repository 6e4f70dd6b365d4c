package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wishlistapp/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) Exists(ctx context.Context, customerID, productID, shop string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
	  SELECT COUNT(*) FROM wishlist_items
	  WHERE customer_id=? AND product_id=? AND shop=?
	`), customerID, productID, shop)
	return n > 0, err
}

// Add inserts the entry unless it already exists. added is false for a duplicate.
func (r *WishlistRepo) Add(ctx context.Context, customerID, productID, shop string) (added bool, err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO wishlist_items(id, customer_id, product_id, shop, created_at)
	  VALUES(?, ?, ?, ?, ?)
	  ON CONFLICT(customer_id, product_id, shop) DO NOTHING
	`), id.String(), customerID, productID, shop, now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remove deletes every matching row and reports how many went.
func (r *WishlistRepo) Remove(ctx context.Context, customerID, productID, shop string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  DELETE FROM wishlist_items WHERE customer_id=? AND product_id=? AND shop=?
	`), customerID, productID, shop)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByCustomer returns the customer's entries in a shop, newest first.
func (r *WishlistRepo) ListByCustomer(ctx context.Context, customerID, shop string) ([]domain.WishlistEntry, error) {
	out := []domain.WishlistEntry{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT id, customer_id, product_id, shop, created_at
	  FROM wishlist_items
	  WHERE customer_id=? AND shop=?
	  ORDER BY created_at DESC, id DESC
	`), customerID, shop)
	return out, err
}

// ListAll returns every entry, newest first.
func (r *WishlistRepo) ListAll(ctx context.Context) ([]domain.WishlistEntry, error) {
	out := []domain.WishlistEntry{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, customer_id, product_id, shop, created_at
	  FROM wishlist_items
	  ORDER BY created_at DESC, id DESC
	`)
	return out, err
}
