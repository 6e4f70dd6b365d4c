package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"wishlistapp/internal/domain"
	"wishlistapp/internal/jobs"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/security"
	"wishlistapp/internal/services"
	"wishlistapp/internal/shopify"
	"wishlistapp/internal/shopify/shopifytest"
)

const shopA = "a.myshopify.com"

type env struct {
	db        *sqlx.DB
	fake      *shopifytest.Server
	sessions  *repos.SessionRepo
	items     *repos.WishlistRepo
	customers *repos.CustomerRepo
	jobs      *jobs.Dispatcher

	wishlist *services.WishlistService
	profiles *services.ProfileService
	products *services.ProductService
	email    *services.EmailService
	admin    *services.AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sealer, err := security.NewSealer("")
	require.NoError(t, err)

	fake := shopifytest.New(t)
	client := shopify.NewClient(shopify.Config{APIVersion: "2026-04", BaseURL: fake.URL, Timeout: 2 * time.Second})

	d := jobs.NewDispatcher(jobs.Config{Workers: 2, QueueSize: 64, MaxAttempts: 2, RetryMin: time.Millisecond, RetryMax: 2 * time.Millisecond})
	d.Start(context.Background())
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	e := &env{
		db:        db,
		fake:      fake,
		sessions:  repos.NewSessionRepo(db, sealer),
		items:     repos.NewWishlistRepo(db),
		customers: repos.NewCustomerRepo(db),
		jobs:      d,
	}
	resolver := services.NewSessionResolver(e.sessions)
	sync := services.NewMetafieldSync(e.items, client)
	e.profiles = services.NewProfileService(e.customers, client, resolver)
	e.wishlist = services.NewWishlistService(e.items, e.profiles, sync, resolver, d)
	e.products = services.NewProductService(client, resolver)
	e.email = services.NewEmailService(e.profiles, e.items, client, resolver, services.LogMailer{})
	e.admin = services.NewAdminService(e.items, e.customers, sync, client, resolver)
	return e
}

// install stores an offline session for shop.
func (e *env) install(t *testing.T, shop string) {
	t.Helper()
	require.NoError(t, e.sessions.Put(context.Background(), domain.Session{ID: "offline_" + shop + "-offline", Shop: shop, AccessToken: "shpat_" + shop}))
}

// drain waits for queued background jobs.
func (e *env) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, e.jobs.Close(context.Background()))
}

func customerData(id, first, email string) map[string]any {
	return map[string]any{"customer": map[string]any{
		"id": "gid://shopify/Customer/" + id, "firstName": first, "lastName": "Lovelace",
		"email": email, "phone": nil, "numberOfOrders": "2", "amountSpent": map[string]any{"amount": "40.00"},
	}}
}

func metafieldsSetOK() shopifytest.Responder {
	return shopifytest.Data(map[string]any{"metafieldsSet": map[string]any{"metafields": []any{}, "userErrors": []any{}}})
}
