package sdk

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a read-through TTL cache with request collapsing. Concurrent
// callers for the same key share one producer run; a producer error reaches
// every waiter and is never cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	// gens outranks in-flight producers: Invalidate bumps the key's
	// generation, and a producer that started under an older generation
	// must not store its result.
	gens   map[string]uint64
	allGen uint64
	group  singleflight.Group
	nowFn  func() time.Time
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewCache creates a new Cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		gens:    make(map[string]uint64),
		nowFn:   time.Now,
	}
}

// Producer loads the value on a cache miss
type Producer func(ctx context.Context) (interface{}, error)

// Dedupe returns the cached value for key when fresh, otherwise runs producer
// once for all concurrent callers and caches the result for ttl.
func (c *Cache) Dedupe(ctx context.Context, key string, ttl time.Duration, producer Producer) (interface{}, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the entry while this caller
		// waited on the flight group.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		c.mu.RLock()
		gen, allGen := c.gens[key], c.allGen
		c.mu.RUnlock()

		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// An invalidation issued while the producer ran makes its result
		// stale on arrival. The flight's waiters still get the value, but
		// caching it would pin the pre-invalidation view for a full TTL.
		if c.gens[key] == gen && c.allGen == allGen {
			c.entries[key] = &cacheEntry{
				value:     v,
				expiresAt: c.nowFn().Add(ttl),
			}
		}
		c.mu.Unlock()

		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// lookup returns a fresh cached value
func (c *Cache) lookup(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.nowFn().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Invalidate drops the cached value and any in-flight producer marker so the
// next Dedupe call hits the producer again.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()

	c.group.Forget(key)
}

// InvalidateAll drops every cached entry
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = make(map[string]*cacheEntry)
	c.allGen++
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
	}
}
