package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cache defines the interface for all cache backends. Keys are
// colon-separated segments; patterns use glob syntax ("catalog:product:*").
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with a TTL. A zero TTL uses the
	// configured default; a negative TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// RemoveByPattern removes every key matching pattern and returns how
	// many were removed
	RemoveByPattern(ctx context.Context, pattern string) (int, error)

	// Clear removes all values from the cache
	Clear(ctx context.Context) error

	// Exists checks if a key exists in the cache
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backend
	Close() error
}

// CacheConfig holds common configuration for cache backends
type CacheConfig struct {
	// DefaultTTL is the default time-to-live for cached items
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
}

// DefaultCacheConfig returns a default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "smartstore:",
	}
}

// Backend names a cache implementation
type Backend string

const (
	// BackendMemory keeps entries in process
	BackendMemory Backend = "memory"
	// BackendRedis keeps entries in Redis
	BackendRedis Backend = "redis"
)

// ErrUnknownBackend is returned for an unsupported cache backend
var ErrUnknownBackend = errors.New("unknown cache backend")

// Open creates the cache for a backend. Redis settings are ignored by the
// memory backend.
func Open(backend Backend, redisConfig RedisConfig, config CacheConfig) (Cache, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryCacheWithConfig(config), nil
	case BackendRedis:
		redisConfig.CacheConfig = config
		return NewRedisCacheWithConfig(redisConfig)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// ErrCacheMiss is returned when a key is not found in the cache
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss checks if an error is a cache miss
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}
