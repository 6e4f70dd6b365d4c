package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"wishlistapp/internal/apperr"
	applog "wishlistapp/internal/log"
	"wishlistapp/internal/services"
)

type AdminHandler struct {
	Admin *services.AdminService
}

// GET /app/settings
func (h *AdminHandler) Settings(c *fiber.Ctx) error {
	ov, err := h.Admin.Customers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.customers.list.fail", err, nil)
		return renderError(c, fiber.StatusInternalServerError, "Could not load customers")
	}
	return render(c, "settings", fiber.Map{"Overview": ov, "Flash": c.Query("flash")})
}

// GET /app/settings.json
func (h *AdminHandler) SettingsJSON(c *fiber.Ctx) error {
	ov, err := h.Admin.Customers(c.UserContext())
	if err != nil {
		return apperr.Internal("Could not load customers.", err)
	}
	return c.JSON(ov)
}

// POST /app/settings
func (h *AdminHandler) Action(c *fiber.Ctx) error {
	if c.FormValue("actionType") != "sendEmail" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Unknown action."})
	}
	customerID := c.FormValue("customerId")
	msg, err := h.Admin.SendEmail(c.UserContext(), customerID, c.FormValue("email"))
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.email.send", map[string]any{"customer": customerID})
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMETextHTML {
		return c.Redirect("/app/settings?flash=" + url.QueryEscape(msg))
	}
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

// GET /app/drift?customerId&shop
func (h *AdminHandler) Drift(c *fiber.Ctx) error {
	var q services.ListRequest
	if err := c.QueryParser(&q); err != nil {
		return apperr.Validation("customerId and shop are required.")
	}
	rep, err := h.Admin.Drift(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(rep)
}
