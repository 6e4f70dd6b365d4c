package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "wishlistapp/internal/log"
)

const adminCookie = "admin_token"

// RequireAdmin guards the dashboard with a shared token, sent as a bearer
// header or the admin_token cookie. A ?token= query on GET sets the cookie.
// An empty token disables the check.
func RequireAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		if q := c.Query("token"); q != "" && c.Method() == fiber.MethodGet && matches(q, token) {
			c.Cookie(&fiber.Cookie{
				Name:     adminCookie,
				Value:    q,
				Path:     "/app",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Secure:   c.Protocol() == "https",
			})
			return c.Redirect(c.Path())
		}
		got := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if got == "" {
			got = c.Cookies(adminCookie)
		}
		if !matches(got, token) {
			applog.Security(c, "access.denied.admin", map[string]any{"has_credential": got != ""})
			return renderError(c, fiber.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}

func matches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
