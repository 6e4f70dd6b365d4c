package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"wishlistapp/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// Upsert overwrites or creates the profile keyed by (customer_id, shop).
func (r *CustomerRepo) Upsert(ctx context.Context, p domain.CustomerProfile) error {
	if p.TotalSpent == "" {
		p.TotalSpent = "0"
	}
	p.UpdatedAt = now()
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO customers(customer_id, shop, first_name, last_name, email, phone, orders_count, total_spent, updated_at)
	  VALUES(:customer_id, :shop, :first_name, :last_name, :email, :phone, :orders_count, :total_spent, :updated_at)
	  ON CONFLICT(customer_id, shop) DO UPDATE SET
	    first_name=excluded.first_name,
	    last_name=excluded.last_name,
	    email=excluded.email,
	    phone=excluded.phone,
	    orders_count=excluded.orders_count,
	    total_spent=excluded.total_spent,
	    updated_at=excluded.updated_at
	`, p)
	return err
}

func (r *CustomerRepo) Get(ctx context.Context, customerID, shop string) (*domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
	  SELECT customer_id, shop, first_name, last_name, email, phone, orders_count, total_spent, COALESCE(updated_at,'') AS updated_at
	  FROM customers WHERE customer_id=? AND shop=?
	`), customerID, shop)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
