package services

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/domain"
	"wishlistapp/internal/gid"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/shopify"
	"wishlistapp/internal/validate"
)

// CustomerRow is one customer of the admin dashboard.
type CustomerRow struct {
	CustomerID   string                 `json:"customerId"`
	Shop         string                 `json:"shop"`
	ProductCount int                    `json:"productCount"`
	LastAddedAt  string                 `json:"lastAddedAt"`
	CustomerInfo domain.CustomerProfile `json:"customerInfo"`
	Cached       bool                   `json:"cached"`
}

type Overview struct {
	Customers      []CustomerRow `json:"customers"`
	TotalCustomers int           `json:"totalCustomers"`
	TotalProducts  int           `json:"totalProducts"`
}

// DriftReport compares the local wishlist with the Shopify metafield.
type DriftReport struct {
	CustomerID string   `json:"customerId"`
	Shop       string   `json:"shop"`
	Local      []string `json:"local"`
	Remote     []string `json:"remote"`
	RemoteSet  bool     `json:"remoteSet"`
	Missing    []string `json:"missing"` // local, not remote
	Extra      []string `json:"extra"`   // remote, not local
	InSync     bool     `json:"inSync"`
}

type AdminService struct {
	Items     *repos.WishlistRepo
	Profiles  *repos.CustomerRepo
	Sync      *MetafieldSync
	Shopify   *shopify.Client
	Sessions  *SessionResolver
}

func NewAdminService(items *repos.WishlistRepo, customers *repos.CustomerRepo, sync *MetafieldSync, client *shopify.Client, sessions *SessionResolver) *AdminService {
	return &AdminService{Items: items, Profiles: customers, Sync: sync, Shopify: client, Sessions: sessions}
}

func placeholderProfile(customerID, shop string) domain.CustomerProfile {
	return domain.CustomerProfile{
		CustomerID: customerID,
		Shop:       shop,
		FirstName:  "Unknown",
		Email:      "N/A",
		Phone:      "N/A",
	}
}

// Customers groups every wishlist entry by customer and shop, most recently
// active first, joined with the cached profile.
func (s *AdminService) Customers(ctx context.Context) (Overview, error) {
	entries, err := s.Items.ListAll(ctx)
	if err != nil {
		return Overview{}, err
	}
	type key struct{ customer, shop string }
	index := map[key]int{}
	rows := []CustomerRow{}
	for _, e := range entries {
		k := key{e.CustomerID, e.Shop}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, CustomerRow{CustomerID: e.CustomerID, Shop: e.Shop, LastAddedAt: e.CreatedAt})
		}
		rows[i].ProductCount++
	}
	for i := range rows {
		p, err := s.Profiles.Get(ctx, rows[i].CustomerID, rows[i].Shop)
		switch {
		case errors.Is(err, repos.ErrNotFound):
			rows[i].CustomerInfo = placeholderProfile(rows[i].CustomerID, rows[i].Shop)
		case err != nil:
			return Overview{}, err
		default:
			rows[i].CustomerInfo = *p
			rows[i].Cached = true
		}
	}
	return Overview{Customers: rows, TotalCustomers: len(rows), TotalProducts: len(entries)}, nil
}

// SendEmail is the dashboard's reminder action. It only records the request.
func (s *AdminService) SendEmail(ctx context.Context, customerID, email string) (string, error) {
	if _, ok := validate.ID(customerID); !ok {
		return "", apperr.Validation("customerId is required.")
	}
	to, ok := validate.Email(email)
	if !ok {
		return "", apperr.Validation("A valid email is required.")
	}
	applog.Event("admin.email.send", map[string]any{"customer": customerID, "email": to})
	return "Email sent to " + to, nil
}

// Drift reads the customer's metafield and diffs it against the local store.
func (s *AdminService) Drift(ctx context.Context, req ListRequest) (DriftReport, error) {
	if err := validate.Struct(req); err != nil {
		return DriftReport{}, apperr.Validation("customerId and shop are required.")
	}
	customerID, _ := validate.ID(req.CustomerID)
	shop, _ := validate.Shop(req.Shop)

	cred, err := s.Sessions.Resolve(ctx, shop)
	if errors.Is(err, ErrNoSession) {
		return DriftReport{}, apperr.Unauthorized("No active session found for shop: " + shop)
	}
	if err != nil {
		return DriftReport{}, apperr.Internal("Failed to retrieve session.", err)
	}

	local, err := s.Sync.Projection(ctx, customerID, shop)
	if err != nil {
		return DriftReport{}, apperr.Internal("Error reading wishlist.", err)
	}
	value, found, err := s.Shopify.CustomerMetafield(ctx, *cred, gid.ToGlobal(gid.Customer, customerID), MetafieldNamespace, MetafieldKey)
	switch {
	case errors.Is(err, shopify.ErrNotFound):
		return DriftReport{}, apperr.NotFound("Customer not found")
	case err != nil:
		return DriftReport{}, apperr.Upstream("Error reading metafield.", err)
	}

	rep := DriftReport{CustomerID: customerID, Shop: shop, Local: local, Remote: []string{}, RemoteSet: found}
	if found {
		if err := json.Unmarshal([]byte(value), &rep.Remote); err != nil {
			applog.Warn(nil, "admin.drift.decode", err, map[string]any{"customer": customerID, "shop": shop})
			rep.Remote = []string{}
		}
		rep.Remote = gid.ToGlobalAll(gid.Product, rep.Remote)
	}
	rep.Missing = difference(rep.Local, rep.Remote)
	rep.Extra = difference(rep.Remote, rep.Local)
	rep.InSync = len(rep.Missing) == 0 && len(rep.Extra) == 0
	return rep, nil
}

func difference(a, b []string) []string {
	out := []string{}
	for _, x := range a {
		if !slices.Contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}
