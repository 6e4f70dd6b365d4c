package handlers

import (
	"github.com/gofiber/fiber/v2"

	"wishlistapp/internal/apperr"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/services"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

// GET /wishlist?customerId&shop
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	var q services.ListRequest
	if err := c.QueryParser(&q); err != nil {
		return apperr.Validation("customerId and shop are required.")
	}
	ids, err := h.Wish.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"wishlist": ids, "count": len(ids)})
}

// POST /wishlist
func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	return h.apply(c, services.OpAdd, "Added to wishlist successfully.")
}

// DELETE /wishlist
func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	return h.apply(c, services.OpRemove, "Removed from wishlist successfully.")
}

func (h *WishlistHandler) MethodNotAllowed(c *fiber.Ctx) error {
	return apperr.MethodNotAllowed()
}

func (h *WishlistHandler) apply(c *fiber.Ctx, op services.Op, okMsg string) error {
	var req services.WishlistRequest
	if err := bindBody(c, &req, nil); err != nil {
		return err
	}
	res, err := h.Wish.Apply(c.UserContext(), op, req)
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Status < fiber.StatusInternalServerError {
			applog.Info(c, "wishlist."+op.String()+".reject", map[string]any{"reason": ae.Message})
		}
		return err
	}
	applog.Audit(c, "wishlist."+op.String(), map[string]any{
		"customer": req.CustomerID,
		"product":  req.ProductID,
		"shop":     req.Shop,
		"changed":  res.Changed,
		"synced":   res.Synced,
	})
	return c.JSON(fiber.Map{"message": okMsg, "wishlist": res.Wishlist})
}
