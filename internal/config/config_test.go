package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/workorder-agent/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with required fields set", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:8390", cfg.Server.Addr)
		assert.Equal(t, 5*time.Second, cfg.Stream.ReconnectDelay)
		assert.Equal(t, "memory", cfg.Cache.Driver)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.IsDevelopment())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
		t.Setenv("STREAM_RECONNECT_DELAY", "250ms")
		t.Setenv("CACHE_DRIVER", "sqlite")
		t.Setenv("CACHE_PATH", "/tmp/agent.db")
		t.Setenv("SERVER_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, 250*time.Millisecond, cfg.Stream.ReconnectDelay)
		assert.Equal(t, "sqlite", cfg.Cache.Driver)
		assert.Equal(t, "/tmp/agent.db", cfg.Cache.Path)
		assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.AllowedOrigins)
	})

	t.Run("missing base URL fails validation", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UPSTREAM_BASE_URL is required")
	})

	t.Run("non-http base URL fails validation", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "ftp://api.example.com")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must start with http")
	})

	t.Run("unknown cache driver fails validation", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
		t.Setenv("CACHE_DRIVER", "redis")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CACHE_DRIVER")
	})

	t.Run("production requires a token", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
		t.Setenv("APP_ENV", "production")
		t.Setenv("UPSTREAM_TOKEN", "")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UPSTREAM_TOKEN")
	})
}

func TestConfig_String(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("UPSTREAM_TOKEN", "super-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.NotContains(t, cfg.String(), "super-secret")
	assert.Contains(t, cfg.String(), "[REDACTED]")
}
