package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape. Pointers distinguish "absent" from zero so
// the file only overrides what it names.
type fileConfig struct {
	Port            *string `yaml:"port"`
	ShutdownTimeout *string `yaml:"shutdown_timeout"`

	Session struct {
		Secret     *string `yaml:"secret"`
		Expires    *string `yaml:"expires"`
		Domain     *string `yaml:"cookie_domain"`
		Production *bool   `yaml:"production"`
	} `yaml:"session"`

	Storage struct {
		MongoURI    *string `yaml:"mongodb_uri"`
		DatabaseURL *string `yaml:"database_url"`
	} `yaml:"storage"`

	FrontendURLs []string `yaml:"frontend_urls"`

	RateLimit struct {
		Max    *int    `yaml:"max"`
		Window *string `yaml:"window"`
	} `yaml:"auth_rate_limit"`

	HashConcurrency *int    `yaml:"hash_concurrency"`
	LogLevel        *string `yaml:"log_level"`
	Metrics         *bool   `yaml:"metrics"`
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Port, fc.Port)
	setString(&cfg.Secret, fc.Session.Secret)
	setString(&cfg.CookieDomain, fc.Session.Domain)
	setString(&cfg.MongoURI, fc.Storage.MongoURI)
	setString(&cfg.DatabaseURL, fc.Storage.DatabaseURL)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.Session.Production != nil {
		cfg.Production = *fc.Session.Production
	}
	if fc.Metrics != nil {
		cfg.MetricsEnabled = *fc.Metrics
	}
	if fc.RateLimit.Max != nil {
		cfg.AuthRateLimit = *fc.RateLimit.Max
	}
	if fc.HashConcurrency != nil {
		cfg.HashConcurrency = *fc.HashConcurrency
	}
	if len(fc.FrontendURLs) > 0 {
		cfg.FrontendURLs = fc.FrontendURLs
	}

	if fc.Session.Expires != nil {
		d, err := ParseExpiry(*fc.Session.Expires)
		if err != nil {
			return err
		}
		cfg.TokenTTL = d
	}
	if fc.RateLimit.Window != nil {
		d, err := time.ParseDuration(*fc.RateLimit.Window)
		if err != nil {
			return fmt.Errorf("invalid auth_rate_limit.window: %w", err)
		}
		cfg.AuthRateWindow = d
	}
	if fc.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
