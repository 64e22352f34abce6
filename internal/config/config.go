// Package config loads the console configuration from REPORT_* environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Production is the Env value that enables secure cookies and mandatory secrets.
const Production = "production"

// Config holds every runtime setting of the console.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`

	DBPath   string `env:"DB_PATH" envDefault:"reportconsole.db"`
	RedisURL string `env:"REDIS_URL"`

	// CSRFKey is 64 hex characters (32 bytes). Required in production.
	CSRFKey string `env:"CSRF_KEY"`
	// TrustedOrigins lists extra hosts allowed to post forms, e.g. a proxy's public name.
	TrustedOrigins []string `env:"TRUSTED_ORIGINS" envSeparator:","`

	RateLimitPerSecond int `env:"RATE_LIMIT_RPS" envDefault:"10"`
	SlowRequestMs      int `env:"SLOW_REQUEST_MS" envDefault:"200"`
	SlowQueryMs        int `env:"SLOW_QUERY_MS" envDefault:"50"`
	SlowUpstreamMs     int `env:"SLOW_UPSTREAM_MS" envDefault:"500"`
}

// LoadEnvFiles loads the .env files that exist into the process environment.
// Variables already set are not overridden.
// POST: Returns how many files were loaded
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load parses REPORT_* variables and validates the result.
// PRE: .env files, if any, were loaded with LoadEnvFiles
// POST: Returns a validated Config or the first parse/validation error
func Load() (Config, error) {
	return parse(env.Options{Prefix: "REPORT_"})
}

// parse is Load with explicit options so tests can supply an environment map.
func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field rules.
// POST: Returns nil if the configuration is usable
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("REPORT_BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	} else if c.IsProduction() {
		return errors.New("REPORT_CSRF_KEY is required in production")
	}
	if c.RateLimitPerSecond < 1 {
		return fmt.Errorf("REPORT_RATE_LIMIT_RPS must be positive, got %d", c.RateLimitPerSecond)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("REPORT_BACKEND_TIMEOUT must be positive, got %s", c.BackendTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether the console runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == Production
}

// CSRFKeyBytes decodes CSRFKey. An empty key returns nil, nil.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, errors.New("REPORT_CSRF_KEY must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("REPORT_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
