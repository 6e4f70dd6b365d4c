package handlers

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"wishlistapp/internal/config"
	"wishlistapp/internal/jobs"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/security"
	"wishlistapp/internal/services"
	"wishlistapp/internal/shopify"
)

type Deps struct {
	WishlistHandler *WishlistHandler
	ProductHandler  *ProductHandler
	CustomerHandler *CustomerHandler
	EmailHandler    *EmailHandler
	AdminHandler    *AdminHandler

	Sessions *repos.SessionRepo
}

func NewDeps(db *sqlx.DB, cfg config.Config, d *jobs.Dispatcher) (*Deps, error) {
	sealer, err := security.NewSealer(cfg.TokenKeyB64)
	if err != nil {
		return nil, fmt.Errorf("token key: %w", err)
	}
	client := shopify.NewClient(shopify.Config{
		APIVersion: cfg.Shopify.APIVersion,
		BaseURL:    cfg.Shopify.BaseURL,
		Timeout:    cfg.Shopify.Timeout,
	})

	wishRepo := repos.NewWishlistRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	sessRepo := repos.NewSessionRepo(db, sealer)

	resolver := services.NewSessionResolver(sessRepo)
	sync := services.NewMetafieldSync(wishRepo, client)
	profileSvc := services.NewProfileService(custRepo, client, resolver)
	wishSvc := services.NewWishlistService(wishRepo, profileSvc, sync, resolver, d)
	productSvc := services.NewProductService(client, resolver)
	emailSvc := services.NewEmailService(profileSvc, wishRepo, client, resolver, services.LogMailer{})
	adminSvc := services.NewAdminService(wishRepo, custRepo, sync, client, resolver)

	return &Deps{
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		ProductHandler:  &ProductHandler{Products: productSvc},
		CustomerHandler: &CustomerHandler{Profiles: profileSvc},
		EmailHandler:    &EmailHandler{Email: emailSvc},
		AdminHandler:    &AdminHandler{Admin: adminSvc},
		Sessions:        sessRepo,
	}, nil
}
