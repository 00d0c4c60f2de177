package engine

import (
	"sync"
	"time"

	"github.com/bcdannyboy/kalshiq/models"
)

const (
	DefaultCacheCap = 50
	DefaultCacheTTL = 60 * time.Second
)

type cacheEntry struct {
	result    *models.SimResult
	expiresAt time.Time
}

// ResultCache is a bounded fingerprint-keyed store of completed simulation
// results. Entries expire after a TTL and are removed on touch; when the cap
// is exceeded the oldest insertion is evicted. Results are never negatively
// cached. The single mutex is fine here: hot simulation paths never touch
// the cache.
type ResultCache struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	entries map[string]cacheEntry
	order   []string

	now func() time.Time // injectable for tests
}

func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCap
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{
		cap:     capacity,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached result for a fingerprint, or false when absent or
// expired. Expired entries are removed on touch.
func (c *ResultCache) Get(fingerprint string) (*models.SimResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.remove(fingerprint)
		return nil, false
	}
	return entry.result, true
}

// Put stores a completed result under its fingerprint, evicting the oldest
// insertion when over capacity.
func (c *ResultCache) Put(fingerprint string, result *models.SimResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[fingerprint]; !ok {
		c.order = append(c.order, fingerprint)
	}
	c.entries[fingerprint] = cacheEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	}

	for len(c.order) > c.cap {
		c.remove(c.order[0])
	}
}

// Len reports the live entry count.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *ResultCache) remove(fingerprint string) {
	delete(c.entries, fingerprint)
	for i, k := range c.order {
		if k == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
