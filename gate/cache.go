package gate

import (
	"context"
	"sync"
	"time"
)

// Cache is a TTL map guarded by a RWMutex. Entries are dropped lazily on
// access once expired, or in bulk with Purge.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]cacheEntry[V]
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewCache creates a cache whose entries live for ttl after their last store or touch.
func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]cacheEntry[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the value for key if present and not expired.
// A hit extends the entry's lifetime.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !now.Before(entry.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	entry.expiresAt = now.Add(c.ttl)
	c.items[key] = entry
	return entry.value, true
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Errors from load are returned as-is and nothing is cached.
// When two callers miss at once, the first stored value wins for both.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok && c.now().Before(existing.expiresAt) {
		return existing.value, nil
	}
	c.items[key] = cacheEntry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
	return v, nil
}

// Invalidate removes key from the cache.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
