package cache

import (
	"context"
	"time"
)

type noopCache struct{}

// NewNoopCache returns a Cache that stores nothing.  GetOrSet always runs the
// loader.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string, interface{}) error { return ErrCacheMiss }

func (noopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (noopCache) Delete(context.Context, ...string) error { return nil }

func (noopCache) GetOrSet(ctx context.Context, _ string, dest interface{}, _ time.Duration, loader Loader) error {
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	return decode(jsonSerializer{}, v, dest)
}
