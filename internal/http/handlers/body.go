package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"wishlistapp/internal/apperr"
)

const invalidBody = "Invalid request body."

// bindBody decodes the request body into out. A field holding the wrong JSON
// type maps to its entry in typeMsgs when present, any other decode failure to
// invalidBody.
func bindBody(c *fiber.Ctx, out any, typeMsgs map[string]string) error {
	err := c.BodyParser(out)
	if err == nil {
		return nil
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		if msg, ok := typeMsgs[te.Field]; ok {
			return apperr.Validation(msg)
		}
	}
	return apperr.Validation(invalidBody)
}
