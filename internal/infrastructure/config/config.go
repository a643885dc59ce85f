// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Market    MarketConfig
	Storage   StorageConfig
	Assets    AssetsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// MarketConfig holds price feed configuration.
type MarketConfig struct {
	BaseURL  string        `envconfig:"MARKET_URL" default:"https://api.coingecko.com/api/v3"`
	Currency string        `envconfig:"MARKET_CURRENCY" default:"usd"`
	Interval time.Duration `envconfig:"MARKET_INTERVAL" default:"60s"`
	TopN     int           `envconfig:"MARKET_TOP_N" default:"20"`
}

// StorageConfig holds layout/session persistence configuration.
type StorageConfig struct {
	Dir       string `envconfig:"STORAGE_DIR" default:"/tmp/cryptodesk-storage"`
	Ephemeral bool   `envconfig:"STORAGE_EPHEMERAL" default:"false"`
}

// AssetsConfig holds asset table configuration. An empty path means the
// built-in test-network table.
type AssetsConfig struct {
	Path string `envconfig:"ASSETS_PATH" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Market: MarketConfig{
			BaseURL:  "https://api.coingecko.com/api/v3",
			Currency: "usd",
			Interval: 60 * time.Second,
			TopN:     20,
		},
		Storage: StorageConfig{
			Dir: "/tmp/cryptodesk-storage",
		},
	}
}
