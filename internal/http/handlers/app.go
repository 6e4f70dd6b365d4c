package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wishlistapp/internal/config"
	applog "wishlistapp/internal/log"
)

// ProxyPrefix is where the Shopify app proxy forwards storefront calls.
const ProxyPrefix = "/apps/wishlist/api"

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status",
	},
	[]string{"method", "route", "status"},
)

func init() {
	prometheus.MustRegister(httpRequests)
}

// NewApp builds the fiber app with middleware and all routes.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(cfg.Development())

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler(cfg.Development()),
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(AccessLog())
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Development()}))
	app.Use(helmet.New())

	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMin,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.limit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many requests, retry soon."})
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ---------- Storefront API ----------
	Mount(app, deps)
	Mount(app.Group(ProxyPrefix), deps)

	// ---------- Admin ----------
	admin := app.Group("/app", RequireAdmin(cfg.AdminToken), csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   !cfg.Development(),
		CookieHTTPOnly: true,
		ContextKey:     "csrf",
		Expiration:     time.Hour,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
			return renderError(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	}))
	admin.Get("/settings", deps.AdminHandler.Settings)
	admin.Get("/settings.json", deps.AdminHandler.SettingsJSON)
	admin.Post("/settings", deps.AdminHandler.Action)
	admin.Get("/drift", deps.AdminHandler.Drift)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found."})
	})
	return app
}

// Mount registers the storefront routes on r.
func Mount(r fiber.Router, deps *Deps) {
	r.Get("/wishlist", deps.WishlistHandler.List)
	r.Post("/wishlist", deps.WishlistHandler.Add)
	r.Delete("/wishlist", deps.WishlistHandler.Remove)
	r.All("/wishlist", deps.WishlistHandler.MethodNotAllowed)

	r.Post("/products", deps.ProductHandler.Fetch)
	r.Post("/customer", deps.CustomerHandler.Fetch)
	r.Post("/send-email", deps.EmailHandler.Send)
}

// AccessLog logs each request once, after the error handler has set the status.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		route := c.Route().Path
		if strings.Contains(route, "*") || route == "/" {
			route = "other"
		}
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		applog.Info(c, "http.request", map[string]any{"latency_ms": time.Since(start).Milliseconds()})
		return nil
	}
}
