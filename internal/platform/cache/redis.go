// Package cache provides a small Redis-backed cache used for hot read paths
// such as the department work queues. All operations are nil-safe: a nil
// *Cache (Redis not configured) degrades to a no-op so callers never have to
// branch on whether caching is enabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

type Cache struct {
	client *redis.Client
}

// New connects to Redis at the given URL. An empty URL returns a nil cache,
// which is valid to use.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// GetJSON loads the value at key into dest. Returns ErrMiss when absent.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	if c == nil {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("cache get %q: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

// SetJSON stores value at key with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes the given keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
