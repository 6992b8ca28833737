package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryCache implements an in-memory cache with TTL support
type MemoryCache struct {
	data   sync.Map
	config CacheConfig
	cancel context.CancelFunc
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithConfig(DefaultCacheConfig())
}

// NewMemoryCacheWithConfig creates a new in-memory cache with custom configuration
func NewMemoryCacheWithConfig(config CacheConfig) *MemoryCache {
	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		config: config,
		cancel: cancel,
	}

	go mc.cleanupExpired(ctx)

	return mc
}

// Get retrieves a value from the cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullKey := m.config.Prefix + key
	value, ok := m.data.Load(fullKey)
	if !ok {
		return nil, ErrCacheMiss{Key: key}
	}

	item := value.(cacheItem)
	if item.expired(time.Now()) {
		m.data.Delete(fullKey)
		return nil, ErrCacheMiss{Key: key}
	}
	return item.value, nil
}

// Set stores a value in the cache with a TTL
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}

	m.data.Store(m.config.Prefix+key, item)
	return nil
}

// Delete removes a value from the cache
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Delete(m.config.Prefix + key)
	return nil
}

// RemoveByPattern removes every key matching pattern
func (m *MemoryCache) RemoveByPattern(ctx context.Context, pattern string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	g, err := CompilePattern(pattern)
	if err != nil {
		return 0, fmt.Errorf("invalid cache pattern %q: %w", pattern, err)
	}

	removed := 0
	m.data.Range(func(k, _ interface{}) bool {
		key := strings.TrimPrefix(k.(string), m.config.Prefix)
		if g.Match(key) {
			m.data.Delete(k)
			removed++
		}
		return true
	})
	return removed, nil
}

// Clear removes all values from the cache
func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Range(func(key, _ interface{}) bool {
		m.data.Delete(key)
		return true
	})
	return nil
}

// Exists checks if a key exists in the cache
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Get(ctx, key); err != nil {
		if IsCacheMiss(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close stops the background cleanup goroutine
func (m *MemoryCache) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

// cleanupExpired periodically removes expired items from the cache
func (m *MemoryCache) cleanupExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.data.Range(func(key, value interface{}) bool {
				if value.(cacheItem).expired(now) {
					m.data.Delete(key)
				}
				return true
			})
		}
	}
}
