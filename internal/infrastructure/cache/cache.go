// Package cache provides the response cache used by the API client.  Values
// are stored serialized so every driver hands callers an independent copy.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ipdash/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// Loader produces the value for a missing key.
type Loader func(ctx context.Context) (interface{}, error)

// Cache is a key/value store with per-entry TTL.
type Cache interface {
	// Get decodes the value stored under key into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores value under key.  A zero ttl selects the driver default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// GetOrSet decodes the cached value into dest, or runs loader, stores its
	// result and decodes that into dest.  Concurrent misses for the same key
	// share one loader call.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader Loader) error
}

// Serializer converts values to and from their stored form.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// decode copies a loader result into dest through the serializer.
func decode(s Serializer, val interface{}, dest interface{}) error {
	if b, ok := val.([]byte); ok {
		return s.Unmarshal(b, dest)
	}
	data, err := s.Marshal(val)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return s.Unmarshal(data, dest)
}

// ─────────────────────────────────────────────────────────────────────────────
// Instrumentation
// ─────────────────────────────────────────────────────────────────────────────

type instrumented struct {
	Cache
	metrics *prometheus.DashboardMetrics
	logger  logging.Logger
}

// Instrument wraps c so that lookups are counted as hits or misses.
func Instrument(c Cache, m *prometheus.DashboardMetrics, log logging.Logger) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &instrumented{Cache: c, metrics: m, logger: log}
}

func (c *instrumented) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.Cache.Get(ctx, key, dest)
	c.metrics.RecordCacheAccess(err == nil)
	return err
}

func (c *instrumented) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader Loader) error {
	loaded := false
	err := c.Cache.GetOrSet(ctx, key, dest, ttl, func(ctx context.Context) (interface{}, error) {
		loaded = true
		return loader(ctx)
	})
	c.metrics.RecordCacheAccess(!loaded)
	c.logger.Debug("cache lookup", logging.String("key", key), logging.Bool("hit", !loaded))
	return err
}
