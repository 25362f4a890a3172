package dashboard

import (
	"strings"
	"sync"
	"time"
)

// SummaryCache is an in-memory TTL cache for computed dashboard summaries.
// Cached entries are derived data; the document store stays the source of
// truth and entries are invalidated whenever an evaluation run lands.
type SummaryCache struct {
	data    map[string]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
}

type cacheEntry struct {
	value      interface{}
	expiration time.Time
}

// NewSummaryCache creates a summary cache with the given entry TTL
func NewSummaryCache(ttl time.Duration) *SummaryCache {
	cache := &SummaryCache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go cache.cleanupLoop()
	return cache
}

// Get retrieves a live value from the cache
func (c *SummaryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiration) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the default TTL
func (c *SummaryCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// InvalidateCompany drops every cached summary for one company
func (c *SummaryCache) InvalidateCompany(companyID string) {
	prefix := companyID + ":"

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

// Size returns the number of cached entries
func (c *SummaryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Stop stops the background cleanup
func (c *SummaryCache) Stop() {
	c.cleanup.Stop()
	close(c.done)
}

func (c *SummaryCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *SummaryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
}
