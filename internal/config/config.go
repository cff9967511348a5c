package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieDomain    string
	CookieSecure    bool
	CookieSameSite  http.SameSite

	DBMaxOpenConns int
	DBMaxIdleConns int

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	CartTTL        time.Duration
	IdempotencyTTL time.Duration
	LockTTL        time.Duration
	LockRetry      time.Duration

	CurrencyCode string

	DeliveryFlat         pricing.Money
	FreeDeliveryMin      pricing.Money
	PlatformFeeBps       int
	GSTBps               int
	PayoutPlatformFeeBps int
	PayoutGSTBps         int

	WebhookSigningSecret  string
	WebhookRequestTimeout time.Duration
	WebhookMaxAttempts    int

	QueueConcurrency int

	RateLimitPerMinute int
	MaxBodyBytes       int64

	OTLPEndpoint string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL: parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		CookieDomain:    strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:    parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:  parseSameSite(k.String("COOKIE_SAMESITE")),

		DBMaxOpenConns: parseInt(k.String("DB_MAX_OPEN_CONNS"), 20),
		DBMaxIdleConns: parseInt(k.String("DB_MAX_IDLE_CONNS"), 5),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "2m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		CartTTL:        parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:        parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetry:      parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),

		CurrencyCode: valueOrDefault(k.String("CURRENCY_CODE"), "INR"),

		DeliveryFlat:         pricing.Money(parseInt64(k.String("DELIVERY_FLAT_PAISE"), 7500)),
		FreeDeliveryMin:      pricing.Money(parseInt64(k.String("FREE_DELIVERY_MIN_PAISE"), 20000)),
		PlatformFeeBps:       parseInt(k.String("PLATFORM_FEE_BPS"), 300),
		GSTBps:               parseInt(k.String("GST_BPS"), 500),
		PayoutPlatformFeeBps: parseInt(k.String("PAYOUT_PLATFORM_FEE_BPS"), 1500),
		PayoutGSTBps:         parseInt(k.String("PAYOUT_GST_BPS"), 1800),

		WebhookSigningSecret:  k.String("WEBHOOK_SIGNING_SECRET"),
		WebhookRequestTimeout: parseDuration(k.String("WEBHOOK_REQUEST_TIMEOUT"), "10s"),
		WebhookMaxAttempts:    parseInt(k.String("WEBHOOK_MAX_ATTEMPTS"), 5),

		QueueConcurrency: parseInt(k.String("QUEUE_CONCURRENCY"), 10),

		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),
		MaxBodyBytes:       parseInt64(k.String("MAX_BODY_BYTES"), 1<<20),

		OTLPEndpoint: strings.TrimSpace(k.String("OTLP_ENDPOINT")),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// CheckoutSchedule returns the fee schedule applied to customer orders.
func (c *Config) CheckoutSchedule() pricing.FeeSchedule {
	return pricing.FeeSchedule{
		DeliveryFlat:    c.DeliveryFlat,
		FreeDeliveryMin: c.FreeDeliveryMin,
		PlatformFeeBps:  c.PlatformFeeBps,
		GSTBps:          c.GSTBps,
	}
}

// PayoutSchedule returns the deduction schedule applied to vendor payouts.
func (c *Config) PayoutSchedule() pricing.PayoutSchedule {
	return pricing.PayoutSchedule{
		PlatformFeeBps: c.PayoutPlatformFeeBps,
		GSTBps:         c.PayoutGSTBps,
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseInt64(value string, fallback int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
