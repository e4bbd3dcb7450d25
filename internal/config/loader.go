package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "IPDASH"

// legacyAPIEnv is the variable the browser build read the API origin from.
// It is honoured after IPDASH_API_BASE_URL.
const legacyAPIEnv = "NEXT_PUBLIC_API_URL"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

type loadOptions struct {
	configPath string
	envFile    string
}

// Option customises Load.
type Option func(*loadOptions)

// WithConfigPath reads the YAML file at path before applying env overrides.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.configPath = path }
}

// WithEnvFile loads variables from a dotenv file.  Variables already present
// in the process environment win.  Without this option ".env" in the working
// directory is loaded when it exists.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// newViper builds a pre-configured Viper instance: YAML file type, IPDASH_
// env prefix, automatic env binding, and a key replacer mapping "." → "_" so
// that "api.base_url" resolves to "IPDASH_API_BASE_URL".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	seedDefaults(v)
	_ = v.BindEnv("api.base_url", envPrefix+"_API_BASE_URL", legacyAPIEnv)
	return v
}

// seedDefaults registers every key with viper.  Unmarshal only consults the
// environment for keys viper already knows about.
func seedDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", DefaultAPITimeout)
	v.SetDefault("api.max_retries", DefaultMaxRetries)
	v.SetDefault("api.retry_wait_min", DefaultRetryWaitMin)
	v.SetDefault("api.retry_wait_max", DefaultRetryWaitMax)
	v.SetDefault("api.user_agent", DefaultUserAgent)

	v.SetDefault("cache.driver", DefaultCacheDriver)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.size", DefaultCacheSize)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output", DefaultLogOutput)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("dashboard.search_debounce", DefaultSearchDebounce)
	v.SetDefault("dashboard.retry_throttle", DefaultRetryThrottle)
	v.SetDefault("dashboard.sort_field", DefaultSortField)
	v.SetDefault("dashboard.sort_order", DefaultSortOrder)
	v.SetDefault("dashboard.row_height", DefaultRowHeight)
	v.SetDefault("dashboard.viewport_height", DefaultViewportHeight)
	v.SetDefault("dashboard.page_size", DefaultPageSize)
}

// Load builds the Config from (in increasing precedence) defaults, the
// optional YAML file, the optional dotenv file and IPDASH_* environment
// variables, then validates it.
//
// Environment variable naming convention:
//
//	IPDASH_<SECTION>_<FIELD>   e.g.  IPDASH_API_BASE_URL, IPDASH_CACHE_DRIVER
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if err := loadEnvFile(o.envFile); err != nil {
		return nil, err
	}

	v := newViper()
	if o.configPath != "" {
		if _, err := os.Stat(o.configPath); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrConfigFileNotFound, o.configPath, err)
		}
		v.SetConfigFile(o.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrConfigParseError, o.configPath, err)
		}
	}

	return unmarshalAndFinalize(v)
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: env file %q: %v", ErrConfigParseError, path, err)
	}
	return nil
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(opts ...Option) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
