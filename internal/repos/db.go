package repos

import (
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// tsLayout is fixed width so TEXT ordering matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000Z"

func now() string { return time.Now().UTC().Format(tsLayout) }

// OpenDB opens driver ("sqlite" or "pgx") and ensures the schema exists.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: keeps :memory: databases shared and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Wishlist membership; the unique key makes concurrent adds collapse to one row
CREATE TABLE IF NOT EXISTS wishlist_items(
  id          TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  product_id  TEXT NOT NULL,
  shop        TEXT NOT NULL,
  created_at  TEXT NOT NULL,
  UNIQUE (customer_id, product_id, shop)
);
CREATE INDEX IF NOT EXISTS idx_wishlist_customer ON wishlist_items(customer_id, shop);
CREATE INDEX IF NOT EXISTS idx_wishlist_created_at ON wishlist_items(created_at);

-- Customer profile cache
CREATE TABLE IF NOT EXISTS customers(
  customer_id  TEXT NOT NULL,
  shop         TEXT NOT NULL,
  first_name   TEXT NOT NULL DEFAULT '',
  last_name    TEXT NOT NULL DEFAULT '',
  email        TEXT NOT NULL DEFAULT '',
  phone        TEXT NOT NULL DEFAULT '',
  orders_count INTEGER NOT NULL DEFAULT 0,
  total_spent  TEXT NOT NULL DEFAULT '0',
  updated_at   TEXT,
  PRIMARY KEY (customer_id, shop)
);

-- Shopify Admin API sessions
CREATE TABLE IF NOT EXISTS shopify_sessions(
  id           TEXT PRIMARY KEY,
  shop         TEXT NOT NULL,
  access_token TEXT NOT NULL,
  scope        TEXT NOT NULL DEFAULT '',
  is_online    BOOLEAN NOT NULL DEFAULT FALSE,
  created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_shop ON shopify_sessions(shop);
`
	_, err := db.Exec(schema)
	return err
}
