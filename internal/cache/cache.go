package cache

import (
	"context"
	"errors"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Keys shared by the services that read and invalidate cached responses
const (
	KeyRSS            = "feed:rss"
	KeyTrendingPrefix = "posts:trending:"
)

// Cache stores rendered responses that are expensive to rebuild.
// A miss and a backend error look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache is a Cache backed by go-redis
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

// New returns a Redis cache when an address is configured and a no-op
// cache otherwise. The connection is verified with a ping.
func New(ctx context.Context, cfg config.CacheConfig, log zerolog.Logger) (Cache, error) {
	if cfg.Addr == "" {
		return Noop{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	log = log.With().Str("component", "cache").Logger()
	log.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("Redis cache connected")

	return NewRedis(client, cfg.TTL, log), nil
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: "blog:", ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// Close releases the underlying connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
