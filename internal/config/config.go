package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration.
type Config struct {
	// Server configuration (local read API)
	Server ServerConfig

	// Upstream work-order server configuration
	Upstream UpstreamConfig

	// Event stream configuration
	Stream StreamConfig

	// Cache store configuration
	Cache CacheConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds the local HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// UpstreamConfig holds the upstream API configuration.
type UpstreamConfig struct {
	BaseURL           string
	Token             string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
}

// StreamConfig holds the push-connection configuration.
type StreamConfig struct {
	// ReconnectDelay is the fixed wait before a reconnect attempt. There is
	// deliberately no backoff, jitter, or retry cap.
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// CacheConfig holds the cache store configuration.
type CacheConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string
	// Path is the sqlite database file, used when Driver is "sqlite".
	Path string
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnvOrDefault("SERVER_ADDR", "127.0.0.1:8390"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Upstream: UpstreamConfig{
			BaseURL:           os.Getenv("UPSTREAM_BASE_URL"),
			Token:             os.Getenv("UPSTREAM_TOKEN"),
			RequestTimeout:    getDurationOrDefault("UPSTREAM_REQUEST_TIMEOUT", 15*time.Second),
			RequestsPerSecond: getFloatOrDefault("UPSTREAM_RPS", 10),
			Burst:             getIntOrDefault("UPSTREAM_BURST", 20),
		},
		Stream: StreamConfig{
			ReconnectDelay:   getDurationOrDefault("STREAM_RECONNECT_DELAY", 5*time.Second),
			HandshakeTimeout: getDurationOrDefault("STREAM_HANDSHAKE_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Driver: getEnvOrDefault("CACHE_DRIVER", "memory"),
			Path:   getEnvOrDefault("CACHE_PATH", "workorder-cache.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "workorder-agent"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Upstream.BaseURL == "" {
		errs = append(errs, "UPSTREAM_BASE_URL is required")
	} else if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		errs = append(errs, "UPSTREAM_BASE_URL must start with http:// or https://")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "sqlite" {
		errs = append(errs, "CACHE_DRIVER must be \"memory\" or \"sqlite\"")
	}

	if c.Cache.Driver == "sqlite" && c.Cache.Path == "" {
		errs = append(errs, "CACHE_PATH is required when CACHE_DRIVER is sqlite")
	}

	if c.Stream.ReconnectDelay <= 0 {
		errs = append(errs, "STREAM_RECONNECT_DELAY must be positive")
	}

	if c.App.Environment == "production" && c.Upstream.Token == "" {
		errs = append(errs, "UPSTREAM_TOKEN must be set in production")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted representation safe for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Upstream: %s, Token: [REDACTED], Cache: %s, Environment: %s}",
		c.Server.Addr,
		c.Upstream.BaseURL,
		c.Cache.Driver,
		c.App.Environment,
	)
}
