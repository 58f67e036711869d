package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8080/api"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"15s"`

	// PGDSN enables the admin audit trail when set.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	RememberTTL   time.Duration `envconfig:"REMEMBER_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	CatalogCacheTTL    time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
	AdminPageSize      int           `envconfig:"ADMIN_PAGE_SIZE" default:"10"`
	StorefrontPageSize int           `envconfig:"STOREFRONT_PAGE_SIZE" default:"20"`
	WarmupCron         string        `envconfig:"WARMUP_CRON" default:"*/10 * * * *"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"2"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("api base url must be provided")
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.AdminPageSize <= 0 {
		cfg.AdminPageSize = 10
	}
	if cfg.StorefrontPageSize <= 0 {
		cfg.StorefrontPageSize = 20
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// AdminAPI is the base URL of the admin endpoints.
func (c *Config) AdminAPI() string {
	return c.APIBaseURL + "/admin"
}

// ClientAPI is the base URL of the public storefront endpoints.
func (c *Config) ClientAPI() string {
	return c.APIBaseURL + "/client"
}
