// Package config defines all configuration structures for ipdash.  No I/O or
// parsing logic lives here; only plain data types and validation.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// APIConfig holds the analytics REST API connection parameters.
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// CacheConfig selects and tunes the response cache.
type CacheConfig struct {
	Driver string        `mapstructure:"driver"` // "memory" | "redis" | "none"
	TTL    time.Duration `mapstructure:"ttl"`
	Size   int           `mapstructure:"size"`
}

// RedisConfig holds Redis connection parameters for the redis cache driver.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus parameters.  An empty Addr disables the
// scrape endpoint; metrics are still collected in-process.
type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// DashboardConfig holds view-engine tunables.
type DashboardConfig struct {
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	RetryThrottle  time.Duration `mapstructure:"retry_throttle"`
	SortField      string        `mapstructure:"sort_field"`
	SortOrder      string        `mapstructure:"sort_order"` // "asc" | "desc"
	RowHeight      int           `mapstructure:"row_height"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	PageSize       int           `mapstructure:"page_size"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// API
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: api.base_url %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("config: api.max_retries must be ≥ 0, got %d", c.API.MaxRetries)
	}
	if c.API.RetryWaitMax < c.API.RetryWaitMin {
		return fmt.Errorf("config: api.retry_wait_max (%s) is below api.retry_wait_min (%s)",
			c.API.RetryWaitMax, c.API.RetryWaitMin)
	}

	// Cache
	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when cache.driver is redis")
		}
	default:
		return fmt.Errorf("config: cache.driver %q is invalid; expected memory|redis|none", c.Cache.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache.ttl must be ≥ 0, got %s", c.Cache.TTL)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Dashboard
	if c.Dashboard.SearchDebounce < 0 {
		return fmt.Errorf("config: dashboard.search_debounce must be ≥ 0, got %s", c.Dashboard.SearchDebounce)
	}
	if c.Dashboard.RetryThrottle < 0 {
		return fmt.Errorf("config: dashboard.retry_throttle must be ≥ 0, got %s", c.Dashboard.RetryThrottle)
	}
	switch c.Dashboard.SortOrder {
	case "asc", "desc":
	default:
		return fmt.Errorf("config: dashboard.sort_order %q is invalid; expected asc|desc", c.Dashboard.SortOrder)
	}
	if c.Dashboard.RowHeight < 1 || c.Dashboard.ViewportHeight < 1 || c.Dashboard.PageSize < 1 {
		return fmt.Errorf("config: dashboard row_height, viewport_height and page_size must be ≥ 1")
	}

	return nil
}
