package search

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached result page stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// Cache is a time-bounded memoization of search results keyed by
// (query, page, genre, searchType). Entries are never proactively
// invalidated, only superseded by a fresh fetch after expiry. There is
// no size bound: the working set (distinct queries per session) is
// small. Safe for concurrent use; last-writer-wins on population is
// fine since writes are idempotent for a given key.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	result   *Result
	storedAt time.Time
}

// NewCache creates a cache with the given TTL. Zero means
// DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// CacheKey builds the lookup key for one search call.
func CacheKey(query string, page int, genre int, searchType MediaType) string {
	return strings.Join([]string{
		query,
		fmt.Sprintf("%d", page),
		fmt.Sprintf("%d", genre),
		string(searchType),
	}, "|")
}

// Get returns the cached result for key if it is still fresh.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.result, true
}

// Set stores a result under key with the current timestamp.
func (c *Cache) Set(key string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, storedAt: c.now()}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// setClock replaces the time source, for tests.
func (c *Cache) setClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
