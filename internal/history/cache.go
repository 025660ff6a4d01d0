// internal/history/cache.go
package history

import (
	"sync"
	"time"
)

// ValueCache is an in-memory TTL cache of the last stored value per key.
// An expired entry forces the next reading to be stored even if unchanged.
type ValueCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]entry
}

type entry struct {
	v  float64
	at time.Time
}

// NewValueCache creates a cache with ttl. If ttl <= 0, it defaults to 1h.
func NewValueCache(ttl time.Duration) *ValueCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ValueCache{ttl: ttl, now: time.Now, data: make(map[string]entry, 16)}
}

// Get returns the cached value if it exists and hasn't expired.
func (c *ValueCache) Get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		return 0, false
	}
	if c.now().Sub(e.at) > c.ttl {
		delete(c.data, key)
		return 0, false
	}
	return e.v, true
}

// Set stores v with the current timestamp.
func (c *ValueCache) Set(key string, v float64) {
	c.mu.Lock()
	c.data[key] = entry{v: v, at: c.now()}
	c.mu.Unlock()
}
