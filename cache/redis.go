package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arborian/actiongate"
)

// Compile-time interface check.
var _ actiongate.Cache = (*Redis)(nil)

// allowedMarker and deniedMarker are the stored values for cached results;
// Redis has no native boolean type, so permission checks are distinguished
// by value rather than by key presence.
const (
	allowedMarker = "1"
	deniedMarker  = "0"
)

// Redis is a cache backed by a Redis server, for deployments that share
// check results across multiple action-gate processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the cache entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithRedisKeyPrefix sets the key prefix used for all cache entries,
// useful when a single Redis instance is shared across deployments.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis creates a new Redis-backed cache using an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    5 * time.Minute,
		prefix: "actiongate:cache:",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns a cached check result.
func (r *Redis) Get(ctx context.Context, handlerID, permissionName string, scope map[string]string) (bool, bool) {
	key := r.prefix + cacheKey(handlerID, permissionName, scope)
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) || err != nil {
		return false, false
	}
	return val == allowedMarker, true
}

// Set stores a check result in the cache.
func (r *Redis) Set(ctx context.Context, handlerID, permissionName string, scope map[string]string, allowed bool) {
	key := r.prefix + cacheKey(handlerID, permissionName, scope)
	val := deniedMarker
	if allowed {
		val = allowedMarker
	}
	r.client.Set(ctx, key, val, r.ttl)
}

// InvalidateHandler removes all cached results for a handler.
func (r *Redis) InvalidateHandler(ctx context.Context, handlerID string) {
	pattern := r.prefix + handlerID + ":*"
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		r.client.Del(ctx, iter.Val())
	}
}
