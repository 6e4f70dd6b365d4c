package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "wishlistapp/internal/log"
	"wishlistapp/internal/services"
)

type CustomerHandler struct {
	Profiles *services.ProfileService
}

// POST /customer fetches the customer from Shopify and caches the profile.
func (h *CustomerHandler) Fetch(c *fiber.Ctx) error {
	var req services.CustomerRequest
	if err := bindBody(c, &req, nil); err != nil {
		return err
	}
	customer, err := h.Profiles.Fetch(c.UserContext(), req)
	if err != nil {
		return err
	}
	applog.Info(c, "customer.fetch", map[string]any{"customer": req.CustomerID, "shop": req.Shop})
	return c.JSON(fiber.Map{"success": true, "customer": customer})
}
