package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// memoryCache is an in-process LRU.  The LRU's own TTL bounds every entry;
// shorter per-entry TTLs are enforced on read.
type memoryCache struct {
	lru          *expirable.LRU[string, memoryEntry]
	defaultTTL   time.Duration
	serializer   Serializer
	logger       logging.Logger
	singleflight singleflight.Group
	now          func() time.Time
}

// NewMemoryCache returns a Cache holding at most size entries, each for at
// most defaultTTL.
func NewMemoryCache(size int, defaultTTL time.Duration, log logging.Logger) Cache {
	if size <= 0 {
		size = 128
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &memoryCache{
		lru:        expirable.NewLRU[string, memoryEntry](size, nil, defaultTTL),
		defaultTTL: defaultTTL,
		serializer: jsonSerializer{},
		logger:     log,
		now:        time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := c.lru.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return ErrCacheMiss
	}
	return c.serializer.Unmarshal(e.data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader Loader) error {
	err := c.Get(ctx, key, dest)
	if err == nil || err != ErrCacheMiss {
		return err
	}

	val, err, shared := c.singleflight.Do(key, func() (interface{}, error) {
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("failed to set cache in GetOrSet", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.Debug("coalesced cache load", logging.String("key", key))
	}
	return decode(c.serializer, val, dest)
}
