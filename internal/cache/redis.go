package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Prefix applied to every cached statistics key so a full invalidation can
// sweep the namespace without touching unrelated keys.
const keyPrefix = "statistics:"

// ErrCacheMiss is returned when a key is absent from the fast tier.
var ErrCacheMiss = errors.New("cache miss")

// RedisCache is the fast statistics tier. Values are stored as JSON under
// prefixed keys.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing connection, used by tests.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) Get(ctx context.Context, key string, out any) error {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cache decode: %w", err)
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every namespaced key starting with the given
// prefix; the empty prefix sweeps the whole statistics namespace.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	return nil
}
