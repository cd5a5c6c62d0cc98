// Package session owns the analysis lifecycle for one interactive session:
// debounced site selection, base-report evaluation, the result cache, and
// optional AI enrichment.
package session

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// defaultCacheCapacity bounds session cache growth. The source behavior was
// unbounded-for-session; the cap trades recomputation of very old cells for
// a fixed memory ceiling.
const defaultCacheCapacity = 1024

// CacheKey quantizes coordinates to 4 decimal degrees (~11 m cells). Two
// selections inside the same cell share one analysis.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f:%.4f", quantize(lat), quantize(lon))
}

// quantize rounds to the cell grid and normalizes negative zero so the two
// sides of the zero meridian/equator inside one cell share a key.
func quantize(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0
	}
	return r
}

// Cache is a concurrent-safe LRU for base reports, keyed by quantized cell.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Report
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache creates a report cache. Non-positive capacity takes the default.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheCapacity
	}
	return &Cache{
		entries:    make(map[string]*Report),
		maxEntries: maxEntries,
	}
}

// Get returns the cached report for a cell, or nil on miss. The stored
// report is returned as-is so repeated hits are bit-identical.
func (c *Cache) Get(key string) *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return report
}

// Put stores a report, evicting the oldest cell at capacity.
func (c *Cache) Put(key string, report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = report
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = report
	c.order = append(c.order, key)
}

// Clear drops every entry. Stats counters survive for diagnostics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Report)
	c.order = nil
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
