package handlers_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlistapp/internal/apperr"
	"wishlistapp/internal/http/handlers"
)

func errorApp(development bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(development)})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return errors.New("db timeout: secret trace")
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return apperr.Internal("Error managing wishlist.", errors.New("disk I/O error"))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperr.NotFound("Customer not found")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

// friendly error surface, no internal leakage
func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := errorApp(false)

	status, body := get(t, app, "/err")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, "Something went wrong")
	assert.False(t, strings.Contains(body, "db timeout") || strings.Contains(body, "secret"), "internal details leaked: %s", body)

	status, body = get(t, app, "/wrapped")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, "Error managing wishlist.")
	assert.NotContains(t, body, "disk I/O")

	status, body = get(t, app, "/missing")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.JSONEq(t, `{"message":"Customer not found"}`, body)
}

func TestErrorHandlerDevelopmentDetails(t *testing.T) {
	app := errorApp(true)

	_, body := get(t, app, "/wrapped")
	assert.Contains(t, body, `"error":"disk I/O error"`)

	_, body = get(t, app, "/err")
	assert.Contains(t, body, "db timeout")
	assert.Contains(t, body, `"stack"`)
}

func TestPanicsBecome500(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(false)})
	app.Use(recover.New())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })

	status, body := get(t, app, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body, "kaboom")
}
