package handlers

import (
	"errors"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"wishlistapp/internal/apperr"
	applog "wishlistapp/internal/log"
)

const genericMessage = "Something went wrong. Please try again."

// localSuccessEnvelope marks a request whose error body carries success:false.
const localSuccessEnvelope = "errors.success_envelope"

func useSuccessEnvelope(c *fiber.Ctx) { c.Locals(localSuccessEnvelope, true) }

// ErrorHandler renders errors as {message, error?, stack?}, plus success:false
// for handlers that asked for it. Error details and stacks are only included
// in development.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		msg := genericMessage
		var cause error

		var fe *fiber.Error
		if ae, ok := apperr.As(err); ok {
			status, msg, cause = ae.Status, ae.Message, ae.Err
		} else if errors.As(err, &fe) {
			status = fe.Code
			if status < fiber.StatusInternalServerError {
				msg = fe.Message
			} else {
				cause = err
			}
		} else {
			cause = err
		}

		body := fiber.Map{"message": msg}
		if flagged, _ := c.Locals(localSuccessEnvelope).(bool); flagged {
			body["success"] = false
		}
		if status >= fiber.StatusInternalServerError {
			fields := map[string]any{"message": msg}
			if _, known := apperr.As(err); !known {
				fields["stack"] = string(debug.Stack())
			}
			c.Status(status)
			applog.Error(c, "server.error", err, fields)
			if development && cause != nil {
				body["error"] = cause.Error()
				if stack, ok := fields["stack"]; ok {
					body["stack"] = stack
				}
			}
		}
		return c.Status(status).JSON(body)
	}
}
