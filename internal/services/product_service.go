package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/gid"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/shopify"
	"wishlistapp/internal/validate"
)

type ProductsRequest struct {
	ProductIDs []string `json:"productIds"`
	Shop       string   `json:"shop"`
}

// ProductView is the storefront shape of a product. Prices are in minor units.
type ProductView struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	Title          string  `json:"title"`
	Vendor         string  `json:"vendor"`
	Handle         string  `json:"handle"`
	URL            string  `json:"url"`
	Image          *string `json:"image"`
	Price          int64   `json:"price"`
	CompareAtPrice *int64  `json:"compareAtPrice"`
	Available      bool    `json:"available"`
	VariantID      *string `json:"variantId"`
}

type ProductService struct {
	Shopify  *shopify.Client
	Sessions *SessionResolver
}

func NewProductService(client *shopify.Client, sessions *SessionResolver) *ProductService {
	return &ProductService{Shopify: client, Sessions: sessions}
}

// Fetch looks products up in Shopify. Unknown ids are left out.
func (s *ProductService) Fetch(ctx context.Context, req ProductsRequest) ([]ProductView, error) {
	if req.ProductIDs == nil {
		return nil, apperr.Validation("productIds array is required.")
	}
	shop, ok := validate.Shop(req.Shop)
	if !ok {
		return nil, apperr.Validation("Shop domain is required.")
	}
	cred, err := s.Sessions.Resolve(ctx, shop)
	if errors.Is(err, ErrNoSession) {
		return nil, apperr.Unauthorized("No active session found for shop: " + shop)
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve session.", err)
	}
	if len(req.ProductIDs) == 0 {
		return []ProductView{}, nil
	}

	nodes, err := s.Shopify.Products(ctx, *cred, gid.ToGlobalAll(gid.Product, req.ProductIDs))
	if err != nil {
		var se *shopify.Error
		if errors.As(err, &se) && se.Status != 0 && se.Status != http.StatusOK {
			return nil, apperr.Upstream("Shopify API request failed.", err)
		}
		return nil, apperr.Upstream("Error fetching products.", err)
	}
	out := make([]ProductView, 0, len(nodes))
	for _, p := range nodes {
		out = append(out, toProductView(p))
	}
	applog.Event("products.fetch", map[string]any{"shop": shop, "requested": len(req.ProductIDs), "found": len(out)})
	return out, nil
}

func toProductView(p shopify.Product) ProductView {
	v := ProductView{
		ID:        p.ID,
		ProductID: gid.ToNumeric(p.ID),
		Title:     p.Title,
		Vendor:    p.Vendor,
		Handle:    p.Handle,
		URL:       "/products/" + p.Handle,
	}
	if p.FeaturedImage != nil && p.FeaturedImage.URL != "" {
		img := p.FeaturedImage.URL
		v.Image = &img
	}
	if variant := p.FirstVariant(); variant != nil {
		v.Price = cents(variant.Price)
		if variant.CompareAtPrice != nil && *variant.CompareAtPrice != "" {
			c := cents(*variant.CompareAtPrice)
			v.CompareAtPrice = &c
		}
		v.Available = variant.InventoryQuantity != nil && *variant.InventoryQuantity > 0
		if variant.ID != "" {
			id := gid.ToNumeric(variant.ID)
			v.VariantID = &id
		}
	}
	return v
}

// cents converts a decimal amount string to minor units; unparseable is 0.
func cents(amount string) int64 {
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
