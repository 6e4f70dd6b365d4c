package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"wishlistapp/internal/config"
	"wishlistapp/internal/domain"
	"wishlistapp/internal/http/handlers"
	"wishlistapp/internal/jobs"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/shopify/shopifytest"
)

const shopA = "a.myshopify.com"

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	fake *shopifytest.Server
	deps *handlers.Deps
	jobs *jobs.Dispatcher
}

// Full app on :memory: sqlite with Shopify pointed at a fake.
func newTestApp(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	fake := shopifytest.New(t)
	cfg := config.Config{
		Environment:     "test",
		DBDriver:        "sqlite",
		DBDSN:           ":memory:",
		TemplatesDir:    "../../web/templates",
		RateLimitPerMin: 1000,
		Shopify:         config.ShopifyConfig{APIVersion: "2026-04", BaseURL: fake.URL, Timeout: 2 * time.Second},
	}
	for _, o := range opts {
		o(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d := jobs.NewDispatcher(jobs.Config{Workers: 1, QueueSize: 64, MaxAttempts: 1, RetryMin: time.Millisecond})
	d.Start(context.Background())
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	deps, err := handlers.NewDeps(db, cfg, d)
	require.NoError(t, err)
	return &testEnv{app: handlers.NewApp(cfg, deps), db: db, fake: fake, deps: deps, jobs: d}
}

func (e *testEnv) install(t *testing.T, shop string) {
	t.Helper()
	require.NoError(t, e.deps.Sessions.Put(context.Background(), domain.Session{ID: "offline_" + shop + "-offline", Shop: shop, AccessToken: "shpat_test"}))
}

func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, e.jobs.Close(context.Background()))
}

// do sends body as JSON (when non-nil) and decodes a JSON object response.
func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}
