package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	Environment  string `env:"ENVIRONMENT" envDefault:"production"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN        string `env:"DB_DSN" envDefault:"wishlist.db"`
	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"./web/templates"`

	// TokenKeyB64 seals stored access tokens when set (32 bytes, base64).
	TokenKeyB64 string `env:"TOKEN_ENC_KEY_B64"`

	// AdminToken guards /app. Empty leaves the dashboard open.
	AdminToken string `env:"ADMIN_TOKEN"`

	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`

	Shopify ShopifyConfig
	Sync    SyncConfig
}

type ShopifyConfig struct {
	APIVersion string        `env:"SHOPIFY_API_VERSION" envDefault:"2026-04"`
	BaseURL    string        `env:"SHOPIFY_BASE_URL"` // overrides https://{shop}, tests and proxies only
	Timeout    time.Duration `env:"SHOPIFY_TIMEOUT" envDefault:"15s"`
}

type SyncConfig struct {
	Workers     int           `env:"SYNC_WORKERS" envDefault:"4"`
	QueueSize   int           `env:"SYNC_QUEUE_SIZE" envDefault:"1024"`
	MaxAttempts int           `env:"SYNC_MAX_ATTEMPTS" envDefault:"4"`
	RetryMin    time.Duration `env:"SYNC_RETRY_MIN" envDefault:"500ms"`
	RetryMax    time.Duration `env:"SYNC_RETRY_MAX" envDefault:"10s"`
}

func (c Config) Development() bool { return c.Environment == "development" }

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] could not read .env: %v", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "pgx" {
		return Config{}, fmt.Errorf("DB_DRIVER must be sqlite or pgx, got %q", cfg.DBDriver)
	}
	if cfg.Sync.Workers < 1 {
		cfg.Sync.Workers = 1
	}
	if cfg.Sync.MaxAttempts < 1 {
		cfg.Sync.MaxAttempts = 1
	}
	admin := "open"
	if cfg.AdminToken != "" {
		admin = "token"
	}
	sealed := "off"
	if cfg.TokenKeyB64 != "" {
		sealed = "on"
	}
	log.Printf("[config] PORT=%s ENVIRONMENT=%s DB_DRIVER=%s DB_DSN=%s SHOPIFY_API_VERSION=%s TOKEN_SEALING=%s ADMIN=%s SYNC_WORKERS=%d",
		cfg.Port, cfg.Environment, cfg.DBDriver, redactDSN(cfg.DBDriver, cfg.DBDSN), cfg.Shopify.APIVersion, sealed, admin, cfg.Sync.Workers)
	return cfg, nil
}

func redactDSN(driver, dsn string) string {
	if driver == "sqlite" {
		return dsn
	}
	return "<redacted>"
}
