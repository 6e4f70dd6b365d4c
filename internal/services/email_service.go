package services

import (
	"context"
	"errors"
	"fmt"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/gid"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/shopify"
	"wishlistapp/internal/validate"
)

const (
	EmailSummary = "summary"
	EmailProduct = "product"
)

type EmailRequest struct {
	CustomerID string `json:"customerId"`
	Shop       string `json:"shop"`
	EmailType  string `json:"emailType"`
	ProductID  string `json:"productId"`
}

// Message is a prepared wishlist email.
type Message struct {
	Kind         string
	To           string
	CustomerName string
	Subject      string
	Shop         string
	Products     []shopify.ProductDetails
}

type EmailResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Mailer delivers prepared messages.
type Mailer interface {
	Send(ctx context.Context, m Message) (EmailResult, error)
}

// LogMailer records messages in the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Message) (EmailResult, error) {
	details := map[string]any{"to": m.To, "subject": m.Subject}
	if m.Kind == EmailProduct && len(m.Products) > 0 {
		details["product"] = m.Products[0].Title
	} else {
		details["productCount"] = len(m.Products)
	}
	applog.Event("email.prepared", map[string]any{"kind": m.Kind, "shop": m.Shop, "details": details})
	return EmailResult{Success: true, Message: "Email notification logged", Details: details}, nil
}

type EmailService struct {
	Profiles *ProfileService
	Items    *repos.WishlistRepo
	Shopify  *shopify.Client
	Sessions *SessionResolver
	Mailer   Mailer
}

func NewEmailService(profiles *ProfileService, items *repos.WishlistRepo, client *shopify.Client, sessions *SessionResolver, mailer Mailer) *EmailService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &EmailService{Profiles: profiles, Items: items, Shopify: client, Sessions: sessions, Mailer: mailer}
}

func (s *EmailService) Send(ctx context.Context, req EmailRequest) (EmailResult, error) {
	customerID, okID := validate.ID(req.CustomerID)
	shop, okShop := validate.Shop(req.Shop)
	if !okID || !okShop {
		return EmailResult{}, apperr.Validation("customerId and shop are required.")
	}

	profile, err := s.Profiles.Get(ctx, customerID, shop)
	if err != nil && !errors.Is(err, repos.ErrNotFound) {
		return EmailResult{}, apperr.Internal("Error sending email.", err)
	}
	if profile == nil || profile.Email == "" {
		return EmailResult{}, apperr.NotFound("Customer email not found.")
	}
	to, ok := validate.Email(profile.Email)
	if !ok {
		return EmailResult{}, apperr.NotFound("Customer email not found.")
	}

	cred, err := s.Sessions.Resolve(ctx, shop)
	if errors.Is(err, ErrNoSession) {
		return EmailResult{}, apperr.NotFound("Shop session not found.")
	}
	if err != nil {
		return EmailResult{}, apperr.Internal("Error sending email.", err)
	}

	msg := Message{Kind: req.EmailType, To: to, CustomerName: profile.DisplayName(), Shop: shop}
	switch {
	case req.EmailType == EmailSummary:
		entries, err := s.Items.ListByCustomer(ctx, customerID, shop)
		if err != nil {
			return EmailResult{}, apperr.Internal("Error sending email.", err)
		}
		if len(entries) == 0 {
			return EmailResult{}, apperr.NotFound("No wishlist items found.")
		}
		for _, e := range entries {
			if d := s.details(ctx, *cred, e.ProductID); d != nil {
				msg.Products = append(msg.Products, *d)
			}
		}
		msg.Subject = fmt.Sprintf("Your Wishlist Summary - %d Items", len(msg.Products))
	case req.EmailType == EmailProduct && req.ProductID != "":
		d := s.details(ctx, *cred, req.ProductID)
		if d == nil {
			return EmailResult{}, apperr.NotFound("Product details not found.")
		}
		msg.Products = []shopify.ProductDetails{*d}
		msg.Subject = "Item Added to Your Wishlist"
	default:
		return EmailResult{}, apperr.Validation("Invalid email type or missing parameters.")
	}

	res, err := s.Mailer.Send(ctx, msg)
	if err != nil {
		return EmailResult{}, apperr.Internal("Error sending email.", err)
	}
	return res, nil
}

// details fetches product details for an email; failures read as a missing product.
func (s *EmailService) details(ctx context.Context, cred shopify.Credential, productID string) *shopify.ProductDetails {
	d, err := s.Shopify.ProductDetails(ctx, cred, gid.ToGlobal(gid.Product, productID))
	if err != nil {
		if !errors.Is(err, shopify.ErrNotFound) {
			applog.Warn(nil, "email.product.fail", err, map[string]any{"product": productID, "shop": cred.Shop})
		}
		return nil
	}
	return d
}
