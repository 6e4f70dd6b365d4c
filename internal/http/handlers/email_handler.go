package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "wishlistapp/internal/log"
	"wishlistapp/internal/services"
)

type EmailHandler struct {
	Email *services.EmailService
}

// POST /send-email
func (h *EmailHandler) Send(c *fiber.Ctx) error {
	useSuccessEnvelope(c)
	var req services.EmailRequest
	if err := bindBody(c, &req, nil); err != nil {
		return err
	}
	res, err := h.Email.Send(c.UserContext(), req)
	if err != nil {
		return err
	}
	applog.Audit(c, "email.send", map[string]any{"customer": req.CustomerID, "shop": req.Shop, "type": req.EmailType})
	return c.JSON(res)
}
