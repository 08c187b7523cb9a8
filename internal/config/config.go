// Package config defines all configuration for the bellwether service.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// deployment-sensitive fields overridable via BELLWETHER_* environment
// variables. Algorithm parameters (TTLs, windows, thresholds) are
// compile-time constants in pkg/types, not configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Vendor  VendorConfig  `mapstructure:"vendor"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// VendorConfig holds the market-data vendor endpoint and credential.
// An empty APIKey is allowed: the service starts and answers degraded
// (every upstream fetch short-circuits to empty).
type VendorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig names the optional Redis substrate. An empty URL selects the
// no-op cache: functionally correct, upstream fan-out on every request.
type CacheConfig struct {
	RedisURL string `mapstructure:"redis_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides. A missing file
// is tolerated; defaults plus environment carry a deployment without one.
// Sensitive fields use env vars: BELLWETHER_VENDOR_API_KEY,
// BELLWETHER_REDIS_URL, BELLWETHER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BELLWETHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("vendor.base_url", "https://api.marketdepth.dev/v1")
	v.SetDefault("vendor.timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override sensitive fields from env
	if key := os.Getenv("BELLWETHER_VENDOR_API_KEY"); key != "" {
		cfg.Vendor.APIKey = key
	}
	if url := os.Getenv("BELLWETHER_REDIS_URL"); url != "" {
		cfg.Cache.RedisURL = url
	}
	if port := os.Getenv("BELLWETHER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("BELLWETHER_PORT: %w", err)
		}
		cfg.Server.Port = p
	}

	return &cfg, nil
}

// Validate checks value ranges. It deliberately does not require the vendor
// credential or the cache URL; the service must run degraded without them.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Vendor.BaseURL == "" {
		return fmt.Errorf("vendor.base_url is required")
	}
	if c.Vendor.Timeout <= 0 {
		return fmt.Errorf("vendor.timeout must be > 0, got %s", c.Vendor.Timeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be one of: text, json")
	}
	return nil
}
