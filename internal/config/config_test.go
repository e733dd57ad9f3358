package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	assert.Equal(t, "sqlite:///./data/app.db", cfg.DatabaseURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.False(t, cfg.HasSecret())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:////data/app.db")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LISTEN", "127.0.0.1:9090")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	assert.Equal(t, "sqlite:////data/app.db", cfg.DatabaseURL)
	assert.True(t, cfg.HasSecret())
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9090", cfg.Listen)
}

func TestSQLitePath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"absolute path", "sqlite:////data/app.db", "/data/app.db"},
		{"relative dotted path", "sqlite:///./messages.db", "./messages.db"},
		{"bare relative path", "sqlite:///messages.db", "messages.db"},
		{"short scheme", "sqlite://app.db", "app.db"},
		{"non-sqlite url passed through", "postgres://host/db", "postgres://host/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DatabaseURL: tt.url}
			if got := cfg.SQLitePath(); got != tt.want {
				t.Errorf("SQLitePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
