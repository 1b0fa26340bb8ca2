package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadEnv overlays environment variables. The names match the ones the
// service has always been deployed with.
func loadEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Secret = getEnv("JWT_SECRET", cfg.Secret)
	cfg.CookieDomain = getEnv("COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if env := getEnv("NODE_ENV", ""); env != "" {
		cfg.Production = env == "production"
	}
	if origins := getEnv("FRONTEND_URL", ""); origins != "" {
		cfg.FrontendURLs = splitList(origins)
	}
	if expires := getEnv("JWT_EXPIRES", ""); expires != "" {
		d, err := ParseExpiry(expires)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES: %w", err)
		}
		cfg.TokenTTL = d
	}
	if n := getEnv("HASH_CONCURRENCY", ""); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			return fmt.Errorf("HASH_CONCURRENCY: %w", err)
		}
		cfg.HashConcurrency = v
	}
	if v := getEnv("METRICS_ENABLED", ""); v != "" {
		cfg.MetricsEnabled = strings.ToLower(v) == "true" || v == "1"
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
