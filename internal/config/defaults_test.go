package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, DefaultSearchDebounce, cfg.Dashboard.SearchDebounce)
	assert.Equal(t, DefaultRetryThrottle, cfg.Dashboard.RetryThrottle)
	assert.Equal(t, "name", cfg.Dashboard.SortField)
	assert.Equal(t, "asc", cfg.Dashboard.SortOrder)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.API.BaseURL = "https://api.example.com"
	cfg.Cache.Driver = "none"
	ApplyDefaults(cfg)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "none", cfg.Cache.Driver)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, DefaultMaxRetries, cfg.API.MaxRetries)
	assert.NoError(t, cfg.Validate())
}
