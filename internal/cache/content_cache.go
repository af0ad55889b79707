package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContentCache is a read-through cache for expensive-to-assemble resources.
// Hits are returned verbatim with no freshness check; coherence relies on
// every write path calling Invalidate in the same logical operation as its
// database write. There is no background refresh.
type ContentCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewContentCache constructs a cache with the configured entry TTL.
func NewContentCache(client redis.UniversalClient, ttl time.Duration) *ContentCache {
	return &ContentCache{client: client, ttl: ttl}
}

// Put stores the serialized value under key, overwriting any previous entry
// and resetting the TTL.
func (c *ContentCache) Put(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("persist cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the entry for key. Absent keys are a no-op success.
func (c *ContentCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("invalidate cache entry: %w", err)
	}
	return nil
}

// GetOrLoad returns the cached value for key. On a miss it invokes load,
// stores the result with the cache TTL, and returns it. The loader is not
// called on a hit.
func GetOrLoad[T any](ctx context.Context, c *ContentCache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var value T
		if err := json.Unmarshal(payload, &value); err != nil {
			return zero, fmt.Errorf("decode cache entry: %w", err)
		}
		return value, nil
	}
	if err != redis.Nil {
		return zero, fmt.Errorf("load cache entry: %w", err)
	}

	value, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if err := c.Put(ctx, key, value); err != nil {
		return zero, err
	}
	return value, nil
}
