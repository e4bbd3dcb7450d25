package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultAPIBaseURL   = "http://localhost:8090"
	DefaultAPITimeout   = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultUserAgent    = "ipdash"

	DefaultCacheDriver = "memory"
	DefaultCacheTTL    = 5 * time.Minute
	DefaultCacheSize   = 128

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "ipdash:"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultLogOutput = "stderr"

	DefaultMetricsNamespace = "ipdash"

	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultRetryThrottle  = time.Second
	DefaultSortField      = "name"
	DefaultSortOrder      = "asc"
	DefaultRowHeight      = 60
	DefaultViewportHeight = 600
	DefaultPageSize       = 50
)

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── API ───────────────────────────────────────────────────────────────────
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultAPITimeout
	}
	if cfg.API.RetryWaitMin == 0 {
		cfg.API.RetryWaitMin = DefaultRetryWaitMin
	}
	if cfg.API.RetryWaitMax == 0 {
		cfg.API.RetryWaitMax = DefaultRetryWaitMax
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = DefaultUserAgent
	}
	// MaxRetries: 0 is a valid explicit value; the viper layer seeds the default.

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = DefaultCacheDriver
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = DefaultCacheSize
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = DefaultLogOutput
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Dashboard ─────────────────────────────────────────────────────────────
	if cfg.Dashboard.SearchDebounce == 0 {
		cfg.Dashboard.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.Dashboard.RetryThrottle == 0 {
		cfg.Dashboard.RetryThrottle = DefaultRetryThrottle
	}
	if cfg.Dashboard.SortField == "" {
		cfg.Dashboard.SortField = DefaultSortField
	}
	if cfg.Dashboard.SortOrder == "" {
		cfg.Dashboard.SortOrder = DefaultSortOrder
	}
	if cfg.Dashboard.RowHeight == 0 {
		cfg.Dashboard.RowHeight = DefaultRowHeight
	}
	if cfg.Dashboard.ViewportHeight == 0 {
		cfg.Dashboard.ViewportHeight = DefaultViewportHeight
	}
	if cfg.Dashboard.PageSize == 0 {
		cfg.Dashboard.PageSize = DefaultPageSize
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.API.MaxRetries = DefaultMaxRetries
	ApplyDefaults(cfg)
	return cfg
}
