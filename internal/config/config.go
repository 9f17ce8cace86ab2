package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/restopos/api/internal/retry"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// OrderStoreURL points at a remote Order Store. Empty serves the store
	// from DatabaseURL.
	OrderStoreURL   string
	// OrderStoreToken is the bearer token presented to a remote store.
	OrderStoreToken string

	// VATURL points at a remote GET /vat. Empty uses VATRate.
	VATURL  string
	VATRate decimal.Decimal

	// CatalogFile seeds an in-memory catalog when no database is configured.
	CatalogFile string

	PollInterval time.Duration
	NetTimeout   time.Duration
	Retry        retry.Policy
}

// Load reads the environment, after an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:            getEnv("PORT", "8081"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		OrderStoreURL:   getEnv("ORDER_STORE_URL", ""),
		OrderStoreToken: getEnv("ORDER_STORE_TOKEN", ""),
		VATURL:          getEnv("VAT_URL", ""),
		VATRate:         getDecimal("VAT_RATE", decimal.RequireFromString("0.10")),
		CatalogFile:     getEnv("CATALOG_FILE", ""),
		PollInterval:    getDuration("POLL_INTERVAL", 5*time.Second),
		NetTimeout:      getDuration("NET_TIMEOUT", 8*time.Second),
		Retry: retry.Policy{
			MaxAttempts: getInt("RETRY_ATTEMPTS", retry.Default.MaxAttempts),
			Backoff:     getDuration("RETRY_BACKOFF", retry.Default.Backoff),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Printf("WARN: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("WARN: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Printf("WARN: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
