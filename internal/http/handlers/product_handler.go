package handlers

import (
	"github.com/gofiber/fiber/v2"

	"wishlistapp/internal/services"
)

type ProductHandler struct {
	Products *services.ProductService
}

// POST /products
func (h *ProductHandler) Fetch(c *fiber.Ctx) error {
	var req services.ProductsRequest
	if err := bindBody(c, &req, map[string]string{"productIds": "productIds array is required."}); err != nil {
		return err
	}
	products, err := h.Products.Fetch(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":  "Products fetched successfully.",
		"products": products,
		"count":    len(products),
	})
}
