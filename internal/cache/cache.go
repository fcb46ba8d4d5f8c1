package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adaptmath/backend/internal/logger"
	"github.com/adaptmath/backend/internal/metrics"
)

// Cache wraps a redis client for read-through caching of generator
// responses. All failures degrade to a miss so callers fall back to the
// source.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

func New(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log := logger.Default().WithComponent("cache")
	log.Info(ctx, "connected to redis", map[string]any{"addr": addr})
	return &Cache{client: client, log: log}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying redis client for health checks.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.Default().IncCounter("cache_misses")
		return "", false
	}
	if err != nil {
		c.log.Warn(ctx, "cache read failed", map[string]any{"key": key, "error": err.Error()})
		metrics.Default().IncCounter("cache_misses")
		return "", false
	}
	metrics.Default().IncCounter("cache_hits")
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache write failed", map[string]any{"key": key, "error": err.Error()})
		return err
	}
	return nil
}

// GetJSON reads key and unmarshals it into dest. A decode failure counts as
// a miss; the stale entry is left for its TTL to expire.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.log.Warn(ctx, "cache entry undecodable", map[string]any{"key": key, "error": err.Error()})
		return false
	}
	return true
}

// SetJSON marshals value and stores it under key.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(raw), ttl)
}
