// Package cache provides a small in-memory TTL cache for hot-path lookups
// such as API key authentication.
package cache

import (
	"sync"
	"time"
)

// Cache is the lookup interface handlers depend on.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache stores values in memory with a per-entry TTL. Expired entries
// are dropped lazily on read.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
}

func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{items: make(map[K]entry[V])}
}

// Get returns the cached value when present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.Delete(key)
		return zero, false
	}
	return item.value, true
}

// Set stores a value. A non-positive ttl stores it without expiry.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Delete removes a cached entry if present.
func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}
