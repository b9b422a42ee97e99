package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of a Redis instance. It is the backend
// of choice for the web facade, where several replicas share one cache.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing redis client.
func NewRedisCache(client redis.UniversalClient) (Cache, error) {
	if client == nil {
		return nil, errors.New("cache: redis client is nil")
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheURL connects to the Redis instance at the given URL
// (redis://host:port/db) and wraps it.
func NewRedisCacheURL(url string) (Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(redis.NewClient(opts))
}

// Get retrieves a value. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. Redis handles expiration natively; a zero TTL stores
// the key without one.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
