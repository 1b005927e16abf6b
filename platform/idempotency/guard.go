// Package idempotency provides a create-if-absent lock used to suppress
// duplicate deliveries of at-least-once webhook events.
// This is part of the platform layer and contains no business logic.
package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard is a short-lived create-if-absent lock keyed by event identity.
// TryAcquire returns false when the key already exists, which marks the
// event as a duplicate delivery. Keys self-expire after the TTL so a
// crashed holder can never block processing forever.
type Guard interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisGuard implements Guard on top of Redis SET NX PX.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard creates a guard backed by the given Redis client.
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

// TryAcquire atomically creates the key with a TTL. Returns false if the
// key already exists.
func (g *RedisGuard) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, key, "locked", ttl).Result()
}

// Release deletes the key. Failure to delete is tolerable: the TTL is the
// safety net.
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, key).Err()
}

// NewRedisClient creates a Redis client from a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
