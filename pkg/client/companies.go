package client

import (
	"context"
	"time"

	"github.com/turtacn/ipdash/internal/domain/company"
)

// API paths.
const (
	PathCompanies = "/data"
	PathStats     = "/stats"
)

// DefaultCacheTTL is how long a cached response is served.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "api:"

// Companies fetches the company list from GET /data.
func (c *Client) Companies(ctx context.Context) ([]company.Company, error) {
	companies, err := fetch[[]company.Company](ctx, c, PathCompanies)
	if err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []company.Company{}
	}
	return companies, nil
}

// Stats fetches the summary statistics from GET /stats.
func (c *Client) Stats(ctx context.Context) (company.Stats, error) {
	return fetch[company.Stats](ctx, c, PathStats)
}

// Invalidate drops cached responses for both endpoints.  It is a no-op
// without a cache.
func (c *Client) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, c.cacheKey(PathCompanies), c.cacheKey(PathStats))
}

func (c *Client) cacheKey(path string) string {
	return cacheKeyPrefix + c.baseURL + path
}

func fetch[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	if c.cache == nil {
		err := c.get(ctx, path, &out)
		return out, err
	}
	err := c.cache.GetOrSet(ctx, c.cacheKey(path), &out, c.cacheTTL, func(ctx context.Context) (interface{}, error) {
		var v T
		if err := c.get(ctx, path, &v); err != nil {
			return nil, err
		}
		return v, nil
	})
	return out, err
}
