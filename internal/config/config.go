package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all runtime settings. It is constructed once at startup and
// passed explicitly to the components that need it; nothing reads the
// environment after Load returns.
type Config struct {
	// DatabaseURL points at the SQLite database, e.g. sqlite:///./data/app.db
	// or sqlite:////data/app.db for an absolute path.
	DatabaseURL string `env:"DATABASE_URL,default=sqlite:///./data/app.db"`

	// WebhookSecret is the shared HMAC secret. When unset the service starts
	// but reports not-ready and rejects every webhook delivery with 401.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Listen   string `env:"LISTEN,default=:8080"`

	// LockFile overrides the PID lock path. When unset the lock is placed
	// next to the database file. Two processes sharing one SQLite file is a
	// misconfiguration we want to fail fast on.
	LockFile string `env:"LOCK_FILE"`
}

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return cfg, nil
}

// HasSecret reports whether the shared webhook secret is configured.
func (c *Config) HasSecret() bool {
	return c.WebhookSecret != ""
}

// SQLitePath extracts the filesystem path from DatabaseURL.
//
//	sqlite:////data/app.db -> /data/app.db
//	sqlite:///./app.db     -> ./app.db
//	sqlite:///app.db       -> app.db
//
// Non-sqlite URLs are returned unchanged so the storage layer can produce a
// useful open error.
func (c *Config) SQLitePath() string {
	url := c.DatabaseURL
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		return strings.TrimPrefix(url, "sqlite:///")
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://")
	default:
		return url
	}
}
