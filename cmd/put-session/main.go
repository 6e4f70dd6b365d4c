// Command put-session stores a Shopify Admin API session for a shop, standing
// in for the OAuth install flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"wishlistapp/internal/config"
	"wishlistapp/internal/domain"
	"wishlistapp/internal/repos"
	"wishlistapp/internal/security"
	"wishlistapp/internal/validate"
)

func main() {
	shopFlag := flag.String("shop", "", "shop domain, e.g. example.myshopify.com")
	token := flag.String("token", os.Getenv("SHOPIFY_ACCESS_TOKEN"), "Admin API access token (default $SHOPIFY_ACCESS_TOKEN)")
	scope := flag.String("scope", "read_products,read_customers,write_customers", "granted scopes")
	remove := flag.Bool("delete", false, "delete the shop's offline session instead")
	flag.Parse()

	shop, ok := validate.Shop(*shopFlag)
	if !ok {
		log.Fatalf("invalid -shop %q", *shopFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	sealer, err := security.NewSealer(cfg.TokenKeyB64)
	if err != nil {
		log.Fatal(err)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	sessions := repos.NewSessionRepo(db, sealer)
	id := "offline_" + shop + "-offline"
	ctx := context.Background()

	if *remove {
		if err := sessions.Delete(ctx, id); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("deleted session %s\n", id)
		return
	}
	if *token == "" {
		log.Fatal("-token is required")
	}
	if err := sessions.Put(ctx, domain.Session{ID: id, Shop: shop, AccessToken: *token, Scope: *scope}); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("stored session %s (sealed=%t)\n", id, sealer.Enabled())
}
