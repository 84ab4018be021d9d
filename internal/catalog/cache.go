package catalog

import (
	"sync"
	"time"
)

// Cache memoizes catalog lookups in memory. Entries are keyed by the exact
// query tuple (endpoint, id, kind, language) so a given tuple never triggers
// more than one upstream fetch per TTL. The map is bounded so a long-running
// process cannot grow it without limit.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	ttl      time.Duration
	maxItems int
}

type cacheItem struct {
	value     any
	expiresAt time.Time
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
}

// DefaultCacheConfig returns default cache configuration. The catalog of
// items a process ever sees is small, so the cap is generous.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      24 * time.Hour,
		MaxItems: 4096,
	}
}

// NewCache creates a new cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxItems == 0 {
		cfg.MaxItems = 4096
	}

	c := &Cache{
		items:    make(map[string]cacheItem),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
	}

	go c.cleanup()

	return c
}

// Get retrieves an item from the cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores an item in the cache.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheItem)
}

// Len returns the number of items in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetID retrieves a cached search result identifier.
func (c *Cache) GetID(key string) (string, bool) {
	val, ok := c.Get(key)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}

// GetDetails retrieves a cached details entry.
func (c *Cache) GetDetails(key string) (*Details, bool) {
	val, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	d, ok := val.(*Details)
	return d, ok
}

// GetImages retrieves a cached image set.
func (c *Cache) GetImages(key string) (ImageSet, bool) {
	val, ok := c.Get(key)
	if !ok {
		return ImageSet{}, false
	}
	set, ok := val.(ImageSet)
	return set, ok
}

// evictOldest drops expired entries, then the oldest tenth of what remains if
// the cache is still full. Must be called with the lock held.
func (c *Cache) evictOldest() {
	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}

	if len(c.items) < c.maxItems {
		return
	}

	toRemove := c.maxItems / 10
	if toRemove < 1 {
		toRemove = 1
	}

	var oldest []string
	var oldestTimes []time.Time
	for key, item := range c.items {
		if len(oldest) < toRemove {
			oldest = append(oldest, key)
			oldestTimes = append(oldestTimes, item.expiresAt)
			continue
		}
		for i, t := range oldestTimes {
			if item.expiresAt.Before(t) {
				oldest[i] = key
				oldestTimes[i] = item.expiresAt
				break
			}
		}
	}
	for _, key := range oldest {
		delete(c.items, key)
	}
}

// cleanup periodically removes expired items.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, item := range c.items {
			if now.After(item.expiresAt) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}
