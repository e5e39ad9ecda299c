package main

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

// ResultCache is a content-addressed cache of analysis results keyed by the
// hash of the input image bytes. It sits in front of the vision-model call;
// the reconciliation core is cache-unaware. Only results at or above the
// minimum confidence are stored.
type ResultCache struct {
	mu            sync.Mutex
	entries       map[string]cacheEntry
	capacity      int
	ttl           time.Duration
	minConfidence float64
	now           func() time.Time
}

type cacheEntry struct {
	result   Aggregate
	storedAt time.Time
}

func NewResultCache(capacity int, ttl time.Duration, minConfidence float64) *ResultCache {
	return &ResultCache{
		entries:       make(map[string]cacheEntry),
		capacity:      capacity,
		ttl:           ttl,
		minConfidence: minConfidence,
		now:           time.Now,
	}
}

func cacheKey(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for identical image bytes within the TTL
// window.
func (c *ResultCache) Get(image []byte) (Aggregate, bool) {
	key := cacheKey(image)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Aggregate{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return Aggregate{}, false
	}
	return entry.result, true
}

// Put stores a result unless its confidence is below the caching threshold.
// When the capacity is exceeded the oldest ~10% of entries are evicted.
func (c *ResultCache) Put(image []byte, result Aggregate) {
	if result.Confidence < c.minConfidence {
		return
	}
	key := cacheKey(image)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{result: result, storedAt: c.now()}
	if len(c.entries) > c.capacity {
		c.evictOldestLocked()
	}
}

func (c *ResultCache) evictOldestLocked() {
	n := len(c.entries) - c.capacity
	if tenth := c.capacity / 10; n < tenth {
		n = tenth
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
}

// Sweep drops expired entries and reports how many were removed. Run
// periodically by the scheduler.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
