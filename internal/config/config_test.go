package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return NewDefaultConfig()
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "api.base_url"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }, "api.max_retries"},
		{"inverted retry waits", func(c *Config) {
			c.API.RetryWaitMin = time.Second
			c.API.RetryWaitMax = time.Millisecond
		}, "api.retry_wait_max"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"redis without addr", func(c *Config) {
			c.Cache.Driver = "redis"
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"negative redis db", func(c *Config) { c.Redis.DB = -1 }, "redis.db"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad sort order", func(c *Config) { c.Dashboard.SortOrder = "up" }, "dashboard.sort_order"},
		{"zero page size", func(c *Config) { c.Dashboard.PageSize = 0 }, "page_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestValidate_RedisDriverWithAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "redis"
	assert.NoError(t, cfg.Validate())
}
