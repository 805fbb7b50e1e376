package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	LogLevel       string

	// Supabase/hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	// PublicBaseURL is the externally reachable URL for this backend (required for webhook registration).
	// Example: https://your-ngrok-subdomain.ngrok-free.app
	PublicBaseURL string

	// CORSOrigins may call the API from a browser (the embedded admin frontend).
	CORSOrigins []string

	DB DBConfig

	Shopify ShopifyConfig

	Billing BillingConfig

	Support SupportConfig
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	// MaxConns caps the runtime pool; 0 keeps pgx's default.
	MaxConns int32
}

type ShopifyConfig struct {
	APIKey      string
	APISecret   string
	Scopes      string
	RedirectURL string

	WebhookSecret string

	APIVersion string

	// AppHandle is the "handle" from shopify.app.toml; it is part of the managed pricing URL.
	AppHandle string
}

type BillingConfig struct {
	// DevStoreDomains get free access without a subscription check.
	DevStoreDomains []string

	// FailOpen lets merchants in when the subscription lookup itself fails.
	// Default is to deny and send them to the pricing page.
	FailOpen bool
}

type SupportConfig struct {
	Email   string
	DocsURL string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		LogLevel:       env("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		PublicBaseURL:  os.Getenv("PUBLIC_BASE_URL"),
		CORSOrigins:    envList("CORS_ALLOWED_ORIGINS", "https://admin.shopify.com"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "ecomkit"),
			User:     env("DB_USER", "ecomkit"),
			Password: env("DB_PASSWORD", "ecomkit"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			APIKey:        os.Getenv("SHOPIFY_API_KEY"),
			APISecret:     os.Getenv("SHOPIFY_API_SECRET"),
			Scopes:        env("SHOPIFY_SCOPES", "read_products,write_products"),
			RedirectURL:   os.Getenv("SHOPIFY_REDIRECT_URL"),
			WebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
			APIVersion:    env("SHOPIFY_API_VERSION", "2025-10"),
			AppHandle:     env("SHOPIFY_APP_HANDLE", "ecom-kit-2"),
		},
		Billing: BillingConfig{
			DevStoreDomains: envList("DEV_STORE_DOMAINS", "ecomkit-demo.myshopify.com"),
			FailOpen:        envBool("BILLING_FAIL_OPEN", false),
		},
		Support: SupportConfig{
			Email:   env("SUPPORT_EMAIL", "support@tonapp.com"),
			DocsURL: env("SUPPORT_DOCS_URL", "https://tonapp.com/docs"),
		},
	}
}

// IsProd reports whether the app runs with production behaviour (terse errors, JSON logs).
func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

// WebhookSigningSecret falls back to the API secret, which is what Shopify signs app webhooks with.
func (c ShopifyConfig) WebhookSigningSecret() string {
	if c.WebhookSecret != "" {
		return c.WebhookSecret
	}
	return c.APISecret
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envInt32(key string, fallback int32) int32 {
	n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 32)
	if err != nil || n <= 0 {
		return fallback
	}
	return int32(n)
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
