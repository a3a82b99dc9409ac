package openweather

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache memoizes upstream response bodies by request key. It never evicts on
// its own; with a positive ttl stale entries are dropped when next read.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clockwork.Clock
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body     json.RawMessage
	storedAt time.Time
}

func NewCache(ttl time.Duration, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.expired(entry) {
		c.mu.Lock()
		// re-check, a concurrent Set may have refreshed it
		if cur, ok := c.entries[key]; ok && c.expired(cur) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.body, true
}

func (c *Cache) Set(key string, body json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		body:     body,
		storedAt: c.clock.Now(),
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) expired(e cacheEntry) bool {
	return c.ttl > 0 && c.clock.Since(e.storedAt) > c.ttl
}
