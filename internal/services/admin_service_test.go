package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/domain"
	"wishlistapp/internal/services"
	"wishlistapp/internal/shopify/shopifytest"
)

func TestAdmin_CustomersAggregation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, row := range [][2]string{{"1", "10"}, {"1", "11"}, {"2", "10"}} {
		_, err := e.items.Add(ctx, row[0], row[1], shopA)
		require.NoError(t, err)
	}
	_, err := e.items.Add(ctx, "1", "10", "b.myshopify.com")
	require.NoError(t, err)
	require.NoError(t, e.customers.Upsert(ctx, domain.CustomerProfile{CustomerID: "1", Shop: shopA, FirstName: "Ada", Email: "ada@example.com"}))

	ov, err := e.admin.Customers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, ov.TotalCustomers)
	assert.Equal(t, 4, ov.TotalProducts)

	byKey := map[string]services.CustomerRow{}
	for _, r := range ov.Customers {
		byKey[r.CustomerID+"|"+r.Shop] = r
	}
	ada := byKey["1|"+shopA]
	assert.Equal(t, 2, ada.ProductCount)
	assert.True(t, ada.Cached)
	assert.Equal(t, "Ada", ada.CustomerInfo.FirstName)

	unknown := byKey["2|"+shopA]
	assert.False(t, unknown.Cached)
	assert.Equal(t, "Unknown", unknown.CustomerInfo.FirstName)
	assert.Equal(t, "N/A", unknown.CustomerInfo.Email)
	assert.Equal(t, "N/A", unknown.CustomerInfo.Phone)
	assert.Equal(t, 0, unknown.CustomerInfo.OrdersCount)

	other := byKey["1|b.myshopify.com"]
	assert.Equal(t, 1, other.ProductCount)
	assert.False(t, other.Cached, "profiles are per shop")

	assert.Equal(t, "1", ov.Customers[0].CustomerID, "most recently active first")
	assert.Equal(t, "b.myshopify.com", ov.Customers[0].Shop)
}

func TestAdmin_SendEmail(t *testing.T) {
	e := newEnv(t)
	msg, err := e.admin.SendEmail(context.Background(), "1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Email sent to ada@example.com", msg)

	_, err = e.admin.SendEmail(context.Background(), "1", "N/A")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAdmin_Drift(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.install(t, shopA)
	for _, p := range []string{"2", "3"} {
		_, err := e.items.Add(ctx, "1", p, shopA)
		require.NoError(t, err)
	}
	e.fake.Handle("customerMetafield", shopifytest.Data(map[string]any{"customer": map[string]any{
		"id": "gid://shopify/Customer/1", "metafield": map[string]any{"value": `["gid://shopify/Product/2","gid://shopify/Product/9"]`},
	}}))

	rep, err := e.admin.Drift(ctx, services.ListRequest{CustomerID: "1", Shop: shopA})
	require.NoError(t, err)
	assert.True(t, rep.RemoteSet)
	assert.False(t, rep.InSync)
	assert.Equal(t, []string{"gid://shopify/Product/3"}, rep.Missing)
	assert.Equal(t, []string{"gid://shopify/Product/9"}, rep.Extra)

	_, err = e.admin.Drift(ctx, services.ListRequest{CustomerID: "1", Shop: "b.myshopify.com"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
