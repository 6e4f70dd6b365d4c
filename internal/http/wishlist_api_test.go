package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlistapp/internal/repos"
	"wishlistapp/internal/shopify/shopifytest"
)

func entry(customer, product string) map[string]any {
	return map[string]any{"customerId": customer, "productId": product, "shop": shopA}
}

func TestWishlistAddScenario(t *testing.T) {
	e := newTestApp(t)

	resp, body := e.do(t, "POST", "/wishlist", entry("1", "2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Added to wishlist successfully.", body["message"])
	assert.Equal(t, []any{"gid://shopify/Product/2"}, body["wishlist"])

	// repeat: still one entry
	resp, body = e.do(t, "POST", "/wishlist", entry("1", "2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["wishlist"], 1)

	resp, body = e.do(t, "GET", "/wishlist?customerId=1&shop="+shopA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"gid://shopify/Product/2"}, body["wishlist"])
	assert.EqualValues(t, 1, body["count"])

	// no session: nothing reached Shopify
	e.drain(t)
	assert.Empty(t, e.fake.Calls())
}

func TestWishlistDeleteScenarios(t *testing.T) {
	e := newTestApp(t)

	resp, body := e.do(t, "DELETE", "/wishlist", entry("1", "404"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Removed from wishlist successfully.", body["message"])
	assert.Equal(t, []any{}, body["wishlist"])

	e.do(t, "POST", "/wishlist", entry("1", "2"))
	resp, body = e.do(t, "DELETE", "/wishlist", entry("1", "2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["wishlist"])
}

func TestWishlistMissingFieldsRejected(t *testing.T) {
	e := newTestApp(t)

	for _, b := range []map[string]any{
		{"productId": "2", "shop": shopA},
		{"customerId": "1", "shop": shopA},
		{"customerId": "1", "productId": "2"},
	} {
		for _, method := range []string{"POST", "DELETE"} {
			resp, body := e.do(t, method, "/wishlist", b)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s %v", method, b)
			assert.NotEmpty(t, body["message"])
		}
	}
	resp, _ := e.do(t, "GET", "/wishlist?customerId=1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	all, err := repos.NewWishlistRepo(e.db).ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "rejected requests must not mutate")
}

func TestWishlistMethodNotAllowed(t *testing.T) {
	e := newTestApp(t)

	for _, method := range []string{"PUT", "PATCH"} {
		resp, body := e.do(t, method, "/wishlist", entry("1", "2"))
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "Method not allowed.", body["message"])
	}
}

func TestWishlistViaAppProxyPushesMetafield(t *testing.T) {
	e := newTestApp(t)
	e.install(t, shopA)
	e.fake.Handle("metafieldsSet", shopifytest.Data(map[string]any{"metafieldsSet": map[string]any{"userErrors": []any{}}}))
	e.fake.Handle("getCustomer", shopifytest.Data(map[string]any{"customer": nil}))

	resp, body := e.do(t, "POST", "/apps/wishlist/api/wishlist", entry("1", "2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"gid://shopify/Product/2"}, body["wishlist"])

	e.drain(t)
	pushes := e.fake.CallsMatching("metafieldsSet")
	require.Len(t, pushes, 1)
	assert.Equal(t, "/admin/api/2026-04/graphql.json", pushes[0].Path)
	assert.Equal(t, "shpat_test", pushes[0].Token)
}

func TestWishlistUpstreamDownStillSucceeds(t *testing.T) {
	e := newTestApp(t)
	e.install(t, shopA)
	e.fake.Handle("", func(map[string]any) (int, any) {
		return http.StatusServiceUnavailable, map[string]any{"errors": "maintenance"}
	})

	resp, body := e.do(t, "POST", "/wishlist", entry("1", "2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"gid://shopify/Product/2"}, body["wishlist"])
	e.drain(t)
}

// profile data in the body is best effort: a bad payload never blocks the add
func TestWishlistBadCustomerInfoStillAdds(t *testing.T) {
	logs := captureLogs(t)
	e := newTestApp(t)

	for i, info := range []map[string]any{
		{"firstName": "Ada", "ordersCount": 2.5},
		{"firstName": 7},
	} {
		b := entry("1", []string{"2", "3"}[i])
		b["customerInfo"] = info
		resp, body := e.do(t, "POST", "/wishlist", b)
		require.Equal(t, http.StatusOK, resp.StatusCode, "%v", info)
		assert.Equal(t, "Added to wishlist successfully.", body["message"])
	}

	all, err := repos.NewWishlistRepo(e.db).ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_, err = repos.NewCustomerRepo(e.db).Get(context.Background(), "1", shopA)
	assert.ErrorIs(t, err, repos.ErrNotFound)
	assert.Equal(t, 2, logs.FilterMessage("profile.payload.invalid").Len())
}

func TestWishlistMalformedBody(t *testing.T) {
	e := newTestApp(t)

	req := httptest.NewRequest("POST", "/wishlist", strings.NewReader(`{"customerId":"1",`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Invalid request body.", body["message"])

	// a wrong type on an id is malformed too, a missing id is not
	_, body = e.do(t, "POST", "/wishlist", map[string]any{"customerId": 1, "productId": "2", "shop": shopA})
	assert.Equal(t, "Invalid request body.", body["message"])
	_, body = e.do(t, "POST", "/wishlist", map[string]any{"productId": "2", "shop": shopA})
	assert.Equal(t, "customerId, productId and shop are required.", body["message"])
}
