package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func renderError(c *fiber.Ctx, status int, msg string) error {
	if err := c.Status(status).Render("notfound", fiber.Map{"Message": msg}); err != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}
