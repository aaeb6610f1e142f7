package thumb

import (
	"image"
	"sync"
	"time"

	"thumbgrid/internal/metrics"
)

// DefaultCacheCapacity bounds the bitmap cache regardless of library size.
const DefaultCacheCapacity = 500

type cacheEntry struct {
	bitmap     image.Image
	lastAccess time.Time
}

// Cache is a size-bounded LRU mapping from absolute source path to a decoded
// bitmap. Reads refresh recency. Inserting at capacity evicts exactly one
// entry, the one with the oldest last access. Bitmaps are treated as
// immutable once inserted, so callers may share them without copying.
//
// All operations take an exclusive lock; critical sections are short (no
// decoding or I/O happens under the lock).
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry

	// now is swappable for deterministic eviction tests.
	now func() time.Time
}

// NewCache creates a bitmap cache holding at most capacity entries.
// A non-positive capacity falls back to DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		now:      time.Now,
	}
}

// Get returns the bitmap for key if present and marks it recently used.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	entry.lastAccess = c.now()
	metrics.CacheHitsTotal.Inc()
	return entry.bitmap, true
}

// Set inserts or overwrites the bitmap for key. When the insert would grow
// the cache past capacity, the least recently accessed entry is evicted
// first.
func (c *Cache) Set(key string, bitmap image.Image) {
	if bitmap == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.bitmap = bitmap
		entry.lastAccess = c.now()
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{
		bitmap:     bitmap,
		lastAccess: c.now(),
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// Remove drops the entry for key if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// Clear drops all entries. Called when the active folder changes or a file
// is deleted, so a mutated path can never be served a stale bitmap.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	metrics.CacheClearsTotal.Inc()
	metrics.CacheEntries.Set(0)
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum entry count.
func (c *Cache) Capacity() int {
	return c.capacity
}

// evictOldest removes the entry with the smallest lastAccess. Equal
// timestamps break toward the lexicographically smaller key so eviction
// order is deterministic within a process run. Caller holds c.mu.
func (c *Cache) evictOldest() {
	var victim string
	var victimAccess time.Time
	first := true

	for key, entry := range c.entries {
		if first ||
			entry.lastAccess.Before(victimAccess) ||
			(entry.lastAccess.Equal(victimAccess) && key < victim) {
			victim = key
			victimAccess = entry.lastAccess
			first = false
		}
	}

	if !first {
		delete(c.entries, victim)
		metrics.CacheEvictionsTotal.Inc()
	}
}
