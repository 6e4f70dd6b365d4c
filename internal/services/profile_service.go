package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/domain"
	"wishlistapp/internal/gid"
	"wishlistapp/internal/jobs"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/shopify"
	"wishlistapp/internal/validate"
)

// Decimal is a money amount that may arrive as a JSON string or number.
// Anything that does not parse as a number decodes to "0"; null stays empty.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*d = ""
		return nil
	}
	s = strings.Trim(s, `"`)
	if v, err := strconv.ParseFloat(s, 64); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		s = "0"
	}
	*d = Decimal(s)
	return nil
}

// CustomerInfo is profile data a storefront may send along with a wishlist change.
type CustomerInfo struct {
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	OrdersCount shopify.Count `json:"ordersCount"`
	TotalSpent  Decimal       `json:"totalSpent"`
}

// ParseCustomerInfo decodes an optional customerInfo payload. Empty and null
// payloads yield nil.
func ParseCustomerInfo(raw json.RawMessage) (*CustomerInfo, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var info CustomerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type CustomerRequest struct {
	CustomerID string `json:"customerId" validate:"required,shopid"`
	Shop       string `json:"shop" validate:"required,shop"`
}

type ProfileService struct {
	Customers *repos.CustomerRepo
	Shopify   *shopify.Client
	Sessions  *SessionResolver
}

func NewProfileService(customers *repos.CustomerRepo, client *shopify.Client, sessions *SessionResolver) *ProfileService {
	return &ProfileService{Customers: customers, Shopify: client, Sessions: sessions}
}

// Get returns the cached profile, repos.ErrNotFound when there is none.
func (s *ProfileService) Get(ctx context.Context, customerID, shop string) (*domain.CustomerProfile, error) {
	return s.Customers.Get(ctx, gid.ToNumeric(customerID), shop)
}

func (s *ProfileService) UpsertFromPayload(ctx context.Context, customerID, shop string, info CustomerInfo) error {
	return s.Customers.Upsert(ctx, domain.CustomerProfile{
		CustomerID:  gid.ToNumeric(customerID),
		Shop:        shop,
		FirstName:   info.FirstName,
		LastName:    info.LastName,
		Email:       info.Email,
		Phone:       info.Phone,
		OrdersCount: int(info.OrdersCount),
		TotalSpent:  string(info.TotalSpent),
	})
}

// Refresh fetches the customer from Shopify and overwrites the cache.
func (s *ProfileService) Refresh(ctx context.Context, customerID, shop string, cred shopify.Credential) (*shopify.Customer, error) {
	c, err := s.Shopify.Customer(ctx, cred, gid.ToGlobal(gid.Customer, customerID))
	if err != nil {
		return nil, err
	}
	if err := s.Customers.Upsert(ctx, profileFromRemote(gid.ToNumeric(customerID), shop, c)); err != nil {
		return c, err
	}
	return c, nil
}

// RefreshJob runs Refresh in the background. Pending refreshes of one customer coalesce.
func (s *ProfileService) RefreshJob(customerID, shop string, cred shopify.Credential) jobs.Job {
	return jobs.Func{
		JobName: "profile.refresh",
		JobKey:  "profile|" + shop + "|" + customerID,
		Fn: func(ctx context.Context) error {
			_, err := s.Refresh(ctx, customerID, shop, cred)
			return retryable(err)
		},
	}
}

// Fetch serves POST /customer: the remote customer is fetched, cached and returned.
func (s *ProfileService) Fetch(ctx context.Context, req CustomerRequest) (*shopify.Customer, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("Missing customerId or shop")
	}
	shop, _ := validate.Shop(req.Shop)
	cred, err := s.Sessions.Resolve(ctx, shop)
	if errors.Is(err, ErrNoSession) {
		return nil, apperr.Unauthorized("No active session found for shop: " + shop)
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve session.", err)
	}
	c, err := s.Refresh(ctx, req.CustomerID, shop, *cred)
	switch {
	case errors.Is(err, shopify.ErrNotFound):
		return nil, apperr.NotFound("Customer not found")
	case c == nil && err != nil:
		return nil, apperr.Upstream("Error fetching customer.", err)
	case err != nil:
		return nil, apperr.Internal("Error saving customer info.", err)
	}
	applog.Event("customer.cached", map[string]any{"customer": gid.ToNumeric(req.CustomerID), "shop": shop})
	return c, nil
}

func profileFromRemote(customerID, shop string, c *shopify.Customer) domain.CustomerProfile {
	p := domain.CustomerProfile{
		CustomerID:  customerID,
		Shop:        shop,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		OrdersCount: int(c.NumberOfOrders),
		TotalSpent:  "0",
	}
	if c.AmountSpent != nil && c.AmountSpent.Amount != "" {
		if _, err := strconv.ParseFloat(c.AmountSpent.Amount, 64); err == nil {
			p.TotalSpent = c.AmountSpent.Amount
		}
	}
	return p
}
