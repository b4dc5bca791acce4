package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
)

const keyPrefix = "wallet:ref:"

// ReferenceCache is the Redis fast path in front of the durable idempotency
// reservation. SET NX gives exactly one winner per reference; entries expire so
// the cache never grows unbounded.
type ReferenceCache struct {
	client *redis.Client
}

// NewReferenceCache connects to Redis and verifies the connection.
func NewReferenceCache(ctx context.Context, addr string) (*ReferenceCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &ReferenceCache{client: client}, nil
}

var _ portsrepo.ReferenceCache = (*ReferenceCache)(nil)

// TryReserve returns true if the reference was not cached yet.
func (c *ReferenceCache) TryReserve(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, keyPrefix+reference, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve reference in cache: %w", err)
	}
	return ok, nil
}

// Forget drops a cached reservation so a retry can pass the fast path again.
func (c *ReferenceCache) Forget(ctx context.Context, reference string) error {
	if err := c.client.Del(ctx, keyPrefix+reference).Err(); err != nil {
		return fmt.Errorf("failed to drop cached reference: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *ReferenceCache) Close() error {
	return c.client.Close()
}
