package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, loaded once at startup from the
// environment. Profiles: dev, prod, cloud.
type Config struct {
	Port              string
	DatabaseURL       string
	Environment       string
	JWTSecret         string
	JWTExpiry         time.Duration
	LotSizeThreshold  int
	OutboundTimeout   time.Duration
	SimALURL          string
	SimALMaxRetries   int
	StockAlertDefault int
}

// Load reads configuration from the environment and applies defaults. The JWT
// secret must be at least 32 characters outside the dev profile.
func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "mes.db"),
		Environment:       getEnv("ENVIRONMENT", "dev"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-only-secret-change-me-in-production!"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		LotSizeThreshold:  getEnvInt("LOT_SIZE_THRESHOLD", 0),
		OutboundTimeout:   time.Duration(getEnvInt("OUTBOUND_TIMEOUT_MS", 5000)) * time.Millisecond,
		SimALURL:          getEnv("SIMAL_URL", ""),
		SimALMaxRetries:   getEnvInt("SIMAL_MAX_RETRIES", 3),
		StockAlertDefault: getEnvInt("STOCK_ALERT_THRESHOLD", 5),
	}

	if cfg.Environment != "dev" && len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
