package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"wishlistapp/internal/domain"
	"wishlistapp/internal/gid"
	"wishlistapp/internal/jobs"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/shopify"
)

// The customer metafield holding the wishlist projection.
const (
	MetafieldNamespace = "wishlist"
	MetafieldKey       = "items"
)

type WishlistLister interface {
	ListByCustomer(ctx context.Context, customerID, shop string) ([]domain.WishlistEntry, error)
}

// MetafieldSync writes the local wishlist of a customer to their Shopify
// metafield. The local store is authoritative; the metafield is replaced whole.
type MetafieldSync struct {
	Wishlist WishlistLister
	Shopify  *shopify.Client
}

func NewMetafieldSync(wishlist WishlistLister, client *shopify.Client) *MetafieldSync {
	return &MetafieldSync{Wishlist: wishlist, Shopify: client}
}

// Projection lists the customer's product global ids, newest first.
func (m *MetafieldSync) Projection(ctx context.Context, customerID, shop string) ([]string, error) {
	entries, err := m.Wishlist.ListByCustomer(ctx, customerID, shop)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, gid.ToGlobal(gid.Product, e.ProductID))
	}
	return out, nil
}

// Push recomputes the projection and sets it on the customer. A nil cred skips
// the push. userErrors are logged and not returned: retrying the same value
// will not fix them. Transport and API errors are returned.
func (m *MetafieldSync) Push(ctx context.Context, customerID, shop string, cred *shopify.Credential) error {
	if cred == nil {
		applog.Event("metafield.push.skip", map[string]any{"customer": customerID, "shop": shop, "reason": "no session"})
		return nil
	}
	ids, err := m.Projection(ctx, customerID, shop)
	if err != nil {
		return err
	}
	value, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	owner := gid.ToGlobal(gid.Customer, customerID)
	uerrs, err := m.Shopify.SetCustomerMetafield(ctx, *cred, owner, MetafieldNamespace, MetafieldKey, string(value))
	if err != nil {
		return err
	}
	if len(uerrs) > 0 {
		applog.Fail("metafield.push.rejected", errors.New(uerrs[0].Message), map[string]any{
			"customer": customerID, "shop": shop, "user_errors": uerrs,
		})
		return nil
	}
	applog.Event("metafield.push", map[string]any{"customer": customerID, "shop": shop, "count": len(ids)})
	return nil
}

// PushJob returns the background job pushing the projection. Pending pushes
// for the same customer and shop coalesce; the survivor reads the store when it runs.
func (m *MetafieldSync) PushJob(customerID, shop string, cred shopify.Credential) jobs.Job {
	return jobs.Func{
		JobName: "metafield.push",
		JobKey:  "push|" + shop + "|" + customerID,
		Fn: func(ctx context.Context) error {
			return retryable(m.Push(ctx, customerID, shop, &cred))
		},
	}
}

// retryable marks client errors other than throttling as permanent.
func retryable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shopify.ErrNotFound) {
		return jobs.Permanent(err)
	}
	var se *shopify.Error
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests {
		return jobs.Permanent(err)
	}
	return err
}
