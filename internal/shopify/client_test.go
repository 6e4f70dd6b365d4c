package shopify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlistapp/internal/shopify"
	"wishlistapp/internal/shopify/shopifytest"
)

var cred = shopify.Credential{Shop: "a.myshopify.com", AccessToken: "shpat_test"}

func newClient(t *testing.T) (*shopify.Client, *shopifytest.Server) {
	t.Helper()
	fake := shopifytest.New(t)
	return shopify.NewClient(shopify.Config{APIVersion: "2026-04", BaseURL: fake.URL, Timeout: 2 * time.Second}), fake
}

func TestCustomer(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("getCustomer", shopifytest.Data(map[string]any{
		"customer": map[string]any{
			"id": "gid://shopify/Customer/1", "firstName": "Ada", "lastName": nil,
			"email": "ada@example.com", "phone": nil, "numberOfOrders": "7",
			"amountSpent": map[string]any{"amount": "120.50"},
		},
	}))

	got, err := c.Customer(context.Background(), cred, "gid://shopify/Customer/1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "", got.LastName)
	assert.Equal(t, shopify.Count(7), got.NumberOfOrders)
	assert.Equal(t, "120.50", got.AmountSpent.Amount)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/admin/api/2026-04/graphql.json", calls[0].Path)
	assert.Equal(t, "shpat_test", calls[0].Token)
	assert.Equal(t, "gid://shopify/Customer/1", calls[0].Variables["id"])
}

func TestCustomerNotFound(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("getCustomer", shopifytest.Data(map[string]any{"customer": nil}))

	_, err := c.Customer(context.Background(), cred, "gid://shopify/Customer/404")
	assert.ErrorIs(t, err, shopify.ErrNotFound)
}

func TestGraphQLErrorsAreUpstreamErrors(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("getCustomer", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"errors": []map[string]any{{"message": "Throttled"}}}
	})

	_, err := c.Customer(context.Background(), cred, "gid://shopify/Customer/1")
	var se *shopify.Error
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Error(), "Throttled")
}

func TestNon200IsError(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("GetProducts", func(map[string]any) (int, any) {
		return http.StatusUnauthorized, map[string]any{"errors": "Invalid API key"}
	})

	_, err := c.Products(context.Background(), cred, []string{"gid://shopify/Product/1"})
	var se *shopify.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestProductsSkipsNullNodes(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("GetProducts", shopifytest.Data(map[string]any{
		"nodes": []any{
			map[string]any{"id": "gid://shopify/Product/1", "title": "Mug", "handle": "mug",
				"variants": map[string]any{"edges": []any{map[string]any{"node": map[string]any{
					"id": "gid://shopify/ProductVariant/11", "price": "9.99", "compareAtPrice": nil, "inventoryQuantity": 3,
				}}}}},
			nil,
			map[string]any{},
		},
	}))

	got, err := c.Products(context.Background(), cred, []string{"gid://shopify/Product/1", "gid://shopify/Product/2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	v := got[0].FirstVariant()
	require.NotNil(t, v)
	assert.Equal(t, "9.99", v.Price)
	assert.Nil(t, v.CompareAtPrice)
}

func TestSetCustomerMetafield(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("metafieldsSet", shopifytest.Data(map[string]any{
		"metafieldsSet": map[string]any{
			"userErrors": []any{map[string]any{"field": []string{"metafields", "0", "value"}, "message": "is invalid"}},
		},
	}))

	uerrs, err := c.SetCustomerMetafield(context.Background(), cred, "gid://shopify/Customer/1", "wishlist", "items", `["gid://shopify/Product/2"]`)
	require.NoError(t, err)
	require.Len(t, uerrs, 1)
	assert.Equal(t, "is invalid", uerrs[0].Message)

	calls := fake.CallsMatching("metafieldsSet")
	require.Len(t, calls, 1)
	mf := calls[0].Variables["metafields"].([]any)[0].(map[string]any)
	assert.Equal(t, "gid://shopify/Customer/1", mf["ownerId"])
	assert.Equal(t, "json", mf["type"])
	var decoded []string
	require.NoError(t, json.Unmarshal([]byte(mf["value"].(string)), &decoded))
	assert.Equal(t, []string{"gid://shopify/Product/2"}, decoded)
}

func TestCustomerMetafield(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("customerMetafield", shopifytest.Data(map[string]any{
		"customer": map[string]any{"id": "gid://shopify/Customer/1", "metafield": nil},
	}))

	_, found, err := c.CustomerMetafield(context.Background(), cred, "gid://shopify/Customer/1", "wishlist", "items")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProductDetailsPrice(t *testing.T) {
	c, fake := newClient(t)
	fake.Handle("getProduct", shopifytest.Data(map[string]any{
		"product": map[string]any{"id": "gid://shopify/Product/1", "title": "Mug", "handle": "mug",
			"priceRangeV2": map[string]any{"minVariantPrice": map[string]any{"amount": "9.99", "currencyCode": "USD"}}},
	}))

	d, err := c.ProductDetails(context.Background(), cred, "gid://shopify/Product/1")
	require.NoError(t, err)
	assert.Equal(t, "9.99 USD", d.Price())
}
