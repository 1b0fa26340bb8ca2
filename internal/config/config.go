// Package config loads bantayd settings: defaults first, then an optional
// YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lborres/bantay/core"
)

// Store kinds, chosen by which connection string is configured.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all bantayd configuration
type Config struct {
	Port            string
	ShutdownTimeout time.Duration

	// Session
	Secret       string
	TokenTTL     time.Duration
	CookieDomain string
	Production   bool

	// Storage. MongoURI wins over DatabaseURL; neither means in-memory.
	MongoURI    string
	DatabaseURL string

	// CORS origins allowed to send credentials
	FrontendURLs []string

	// Sign-in endpoints share one limiter per client IP.
	AuthRateLimit  int
	AuthRateWindow time.Duration

	HashConcurrency int
	LogLevel        string
	MetricsEnabled  bool
}

// LoadDefaults populates Config with development defaults. There is no
// default secret.
func (c *Config) LoadDefaults() {
	c.Port = "5000"
	c.ShutdownTimeout = 10 * time.Second
	c.TokenTTL = 2 * time.Hour
	c.FrontendURLs = []string{"http://localhost:5173"}
	c.AuthRateLimit = 30
	c.AuthRateWindow = time.Minute
	c.LogLevel = "info"
	c.MetricsEnabled = true
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token lifetime must be positive")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.AuthRateLimit < 1 || c.AuthRateWindow <= 0 {
		return errors.New("auth rate limit and window must be positive")
	}
	return nil
}

func (c *Config) StoreKind() string {
	switch {
	case c.MongoURI != "":
		return StoreMongo
	case c.DatabaseURL != "":
		return StorePostgres
	}
	return StoreMemory
}

// Session derives the cookie and token settings. Cookies are Secure only
// in production.
func (c *Config) Session() core.SessionConfig {
	return core.SessionConfig{
		TTL:        c.TokenTTL,
		CookieName: core.DefaultCookieName,
		Domain:     c.CookieDomain,
		Secure:     c.Production,
	}
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// ParseExpiry accepts a Go duration ("90m", "2h"), a whole number of days
// ("7d") or a bare number of seconds ("7200").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty token lifetime")
	}

	var d time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid token lifetime %q: %w", s, err)
		}
		d = time.Duration(days) * 24 * time.Hour
	default:
		if secs, err := strconv.Atoi(s); err == nil {
			d = time.Duration(secs) * time.Second
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid token lifetime %q: %w", s, err)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("token lifetime %q must be positive", s)
	}
	return d, nil
}

// splitList splits a comma-separated value and drops empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
