package services

import (
	"context"
	"encoding/json"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/jobs"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/shopify"
	"wishlistapp/internal/validate"
)

type WishlistRequest struct {
	CustomerID   string        `json:"customerId" validate:"required,shopid"`
	ProductID    string        `json:"productId" validate:"required,shopid"`
	Shop         string        `json:"shop" validate:"required,shop"`
	// CustomerInfo is decoded separately so bad profile data never rejects the change.
	CustomerInfo json.RawMessage `json:"customerInfo,omitempty"`
}

type ListRequest struct {
	CustomerID string `query:"customerId" json:"customerId" validate:"required,shopid"`
	Shop       string `query:"shop" json:"shop" validate:"required,shop"`
}

// Op is a wishlist mutation.
type Op int

const (
	OpAdd Op = iota + 1
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// WishlistService applies wishlist changes to the local store and keeps the
// Shopify metafield projection following it. Only local store failures fail
// a request; profile refresh and metafield push run in the background.
type WishlistService struct {
	Items    *repos.WishlistRepo
	Profiles *ProfileService
	Sync     *MetafieldSync
	Sessions *SessionResolver
	Jobs     *jobs.Dispatcher
}

func NewWishlistService(items *repos.WishlistRepo, profiles *ProfileService, sync *MetafieldSync, sessions *SessionResolver, d *jobs.Dispatcher) *WishlistService {
	return &WishlistService{Items: items, Profiles: profiles, Sync: sync, Sessions: sessions, Jobs: d}
}

// Result is the outcome of a mutation.
type Result struct {
	// Wishlist is the recomputed projection, product global ids newest first.
	Wishlist []string
	// Changed is false for a duplicate add or a remove that matched nothing.
	Changed bool
	// Synced reports whether a metafield push was queued.
	Synced bool
}

func (s *WishlistService) Add(ctx context.Context, req WishlistRequest) (Result, error) {
	return s.Apply(ctx, OpAdd, req)
}

func (s *WishlistService) Remove(ctx context.Context, req WishlistRequest) (Result, error) {
	return s.Apply(ctx, OpRemove, req)
}

func (s *WishlistService) Apply(ctx context.Context, op Op, req WishlistRequest) (Result, error) {
	if err := validate.Struct(req); err != nil {
		return Result{}, apperr.Validation("customerId, productId and shop are required.")
	}
	if op != OpAdd && op != OpRemove {
		return Result{}, apperr.MethodNotAllowed()
	}
	customerID, _ := validate.ID(req.CustomerID)
	productID, _ := validate.ID(req.ProductID)
	shop, _ := validate.Shop(req.Shop)

	cred := s.Sessions.tryResolve(ctx, shop)

	var res Result
	switch op {
	case OpAdd:
		added, err := s.Items.Add(ctx, customerID, productID, shop)
		if err != nil {
			return Result{}, apperr.Internal("Error managing wishlist.", err)
		}
		res.Changed = added
		s.refreshProfile(ctx, customerID, shop, req.CustomerInfo, cred)
	case OpRemove:
		n, err := s.Items.Remove(ctx, customerID, productID, shop)
		if err != nil {
			return Result{}, apperr.Internal("Error managing wishlist.", err)
		}
		res.Changed = n > 0
	}

	ids, err := s.Sync.Projection(ctx, customerID, shop)
	if err != nil {
		return Result{}, apperr.Internal("Error managing wishlist.", err)
	}
	res.Wishlist = ids

	if cred != nil {
		res.Synced = s.Jobs.Enqueue(s.Sync.PushJob(customerID, shop, *cred))
	}
	return res, nil
}

// refreshProfile caches payload data inline when it decodes, otherwise queues a
// fetch from Shopify. Failures are logged only.
func (s *WishlistService) refreshProfile(ctx context.Context, customerID, shop string, raw json.RawMessage, cred *shopify.Credential) {
	info, err := ParseCustomerInfo(raw)
	if err != nil {
		applog.Warn(nil, "profile.payload.invalid", err, map[string]any{"customer": customerID, "shop": shop})
	}
	if info != nil {
		if err := s.Profiles.UpsertFromPayload(ctx, customerID, shop, *info); err != nil {
			applog.Fail("profile.upsert.fail", err, map[string]any{"customer": customerID, "shop": shop})
		}
		return
	}
	if cred != nil {
		s.Jobs.Enqueue(s.Profiles.RefreshJob(customerID, shop, *cred))
	}
}

// List returns the customer's projection in a shop.
func (s *WishlistService) List(ctx context.Context, req ListRequest) ([]string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("customerId and shop are required.")
	}
	customerID, _ := validate.ID(req.CustomerID)
	shop, _ := validate.Shop(req.Shop)
	ids, err := s.Sync.Projection(ctx, customerID, shop)
	if err != nil {
		return nil, apperr.Internal("Error fetching wishlist.", err)
	}
	return ids, nil
}
