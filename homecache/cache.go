package homecache

import (
	"sync"
	"time"
)

const DefaultTTL = 10 * time.Minute

// Cache is a small time-boxed cache for remote payloads that are expensive
// to refetch but allowed to be slightly stale, such as the homepage
// aggregate. Entries expire after a fixed TTL; there is no eviction policy
// beyond that.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	nowTime func() time.Time
	entries map[string]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// CacheOption defines a function type to modify the Cache instance.
type CacheOption[V any] func(*Cache[V])

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime[V any](nowFunc func() time.Time) CacheOption[V] {
	return func(c *Cache[V]) {
		c.nowTime = nowFunc
	}
}

// NewCache creates a Cache with the given TTL; a non-positive TTL falls back
// to DefaultTTL.
func NewCache[V any](ttl time.Duration, options ...CacheOption[V]) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := &Cache[V]{
		ttl:     ttl,
		nowTime: time.Now,
		entries: make(map[string]entry[V]),
	}
	for _, opt := range options {
		opt(cache)
	}
	return cache
}

// Get returns the cached value for key when present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.nowTime().After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores a value under key, restarting its TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.nowTime().Add(c.ttl),
	}
}

// Delete removes a key outright.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
