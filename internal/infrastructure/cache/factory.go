package cache

import (
	"context"

	"github.com/turtacn/ipdash/internal/config"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ipdash/pkg/errors"
)

// New builds the Cache selected by cfg.Cache.Driver.  The returned close
// function releases driver resources and is never nil.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (Cache, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Cache.Driver {
	case "memory":
		return NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL, log), nop, nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nop, err
		}
		c := NewRedisCache(rdb, log, WithPrefix(cfg.Redis.KeyPrefix), WithDefaultTTL(cfg.Cache.TTL))
		return c, rdb.Close, nil
	case "none", "":
		return NewNoopCache(), nop, nil
	default:
		return nil, nop, errors.New(errors.ErrCodeInvalidConfig, "unknown cache driver").WithDetail(cfg.Cache.Driver)
	}
}
