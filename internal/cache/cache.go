// Package cache provides an in-memory TTL cache with ETag support for API
// responses.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TTLs by how often the underlying rows change. Points are rewritten
// wholesale per season, so even the current season is stable between runs.
const (
	TTLCurrentSeason = 10 * time.Minute
	TTLHistorical    = 24 * time.Hour
	TTLRuns          = 1 * time.Minute
)

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache. A disabled cache stores
// nothing but still computes ETags.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// New creates a cache. When enabled, a goroutine evicts expired entries every
// sweep until Close is called.
func New(enabled bool, sweep time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if enabled && sweep > 0 {
		go c.evictLoop(sweep)
	}
	return c
}

// Close stops the eviction goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// Get returns the cached data and its ETag.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists || c.now().After(e.expiresAt) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Set stores data for ttl and returns its ETag.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	c.entries[key] = entry{data: data, etag: etag, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return etag
}

// InvalidatePrefix drops every key starting with prefix and reports how many
// were dropped.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Enabled bool `json:"enabled"`
	Keys    int  `json:"total_keys"`
	Live    int  `json:"active_keys"`
	Expired int  `json:"expired_keys"`
}

// Stats counts stored keys, split by whether they have expired.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{Enabled: c.enabled, Keys: len(c.entries)}
	now := c.now()
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			st.Expired++
		}
	}
	st.Live = st.Keys - st.Expired
	return st
}

func (c *Cache) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evict()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// ComputeETag generates a weak ETag from response data.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch reports whether an If-None-Match header matches etag. A
// comma-separated list of tags is accepted.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
