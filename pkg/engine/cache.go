package engine

import (
	"sync"

	"github.com/yourusername/stackengine/internal/positionid"
)

// DefaultCacheSize is the default number of cached evaluations
const DefaultCacheSize = 1 << 16

// CacheEntry stores a cached heuristic score
type CacheEntry struct {
	Key   positionid.PositionKey
	Score int
	valid bool
}

// EvalCache is a thread-safe heuristic cache.
// Uses a two-way associative layout with murmur-style slot hashing.
type EvalCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint64

	// Statistics
	lookups uint64
	hits    uint64
	adds    uint64

	mu sync.RWMutex
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   CacheEntry
	secondary CacheEntry
}

// NewEvalCache creates a new evaluation cache with the given size.
// Size will be adjusted up to the nearest power of 2 (minimum 2).
func NewEvalCache(size uint32) *EvalCache {
	if size > 1<<30 {
		size = 1 << 30
	}

	p := uint32(2)
	for p < size {
		p <<= 1
	}
	size = p

	return &EvalCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: uint64(size/2) - 1,
	}
}

// Flush clears all entries from the cache
func (c *EvalCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		c.entries[i] = cacheNode{}
	}
	c.lookups = 0
	c.hits = 0
	c.adds = 0
}

// Size returns the cache capacity
func (c *EvalCache) Size() uint32 {
	return c.size
}

// slot mixes the key into a slot index using the murmur3 64-bit finalizer
func (c *EvalCache) slot(key positionid.PositionKey) uint64 {
	h := key.Hi ^ (key.Lo * 0x9e3779b97f4a7c15)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h & c.hashMask
}

// Lookup returns the cached score for key
func (c *EvalCache) Lookup(key positionid.PositionKey) (int, bool) {
	slot := c.slot(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++

	node := &c.entries[slot]
	if node.primary.valid && node.primary.Key == key {
		c.hits++
		return node.primary.Score, true
	}
	if node.secondary.valid && node.secondary.Key == key {
		c.hits++
		return node.secondary.Score, true
	}
	return 0, false
}

// Add stores a score, demoting the slot's primary entry to secondary
func (c *EvalCache) Add(key positionid.PositionKey, score int) {
	slot := c.slot(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]
	node.secondary = node.primary
	node.primary = CacheEntry{Key: key, Score: score, valid: true}

	c.adds++
}

// Stats returns cache statistics
func (c *EvalCache) Stats() (lookups, hits, adds uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookups, c.hits, c.adds
}

// HitRate returns the cache hit rate as a percentage
func (c *EvalCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups) * 100
}
