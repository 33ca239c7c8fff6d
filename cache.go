package factlog

import (
	"container/list"
	"sync"
	"time"
)

// SnapshotCache memoizes reconstructions keyed by (entity, asOf, head).
// Including the log head sequence in the key means entries are invalidated
// only by log growth: a hit is always a replay of the same immutable prefix.
//
// Eviction is LRU with a fixed entry budget. The cache is safe for
// concurrent use and hands out independent snapshot copies.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	order   *list.List
	max     int

	hits   uint64
	misses uint64
}

type cacheKey struct {
	entity string
	asOf   int64 // UnixNano
	head   uint64
}

type cacheEntry struct {
	key  cacheKey
	snap Snapshot
}

// DefaultCacheSize is the entry budget used when none is configured.
const DefaultCacheSize = 1024

// NewSnapshotCache creates a cache holding at most max entries.
// A non-positive max falls back to DefaultCacheSize.
func NewSnapshotCache(max int) *SnapshotCache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &SnapshotCache{
		entries: make(map[cacheKey]*list.Element),
		order:   list.New(),
		max:     max,
	}
}

// Get returns the cached snapshot for (entity, asOf, head), if present.
// The returned snapshot is a copy; callers may mutate it freely.
func (c *SnapshotCache) Get(entity string, asOf time.Time, head uint64) (Snapshot, bool) {
	key := cacheKey{entity: entity, asOf: asOf.UnixNano(), head: head}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return elem.Value.(*cacheEntry).snap.Clone(), true
}

// Put stores a snapshot for (entity, asOf, head), evicting the least
// recently used entry when over budget. The snapshot is copied on the way in.
func (c *SnapshotCache) Put(entity string, asOf time.Time, head uint64, snap Snapshot) {
	key := cacheKey{entity: entity, asOf: asOf.UnixNano(), head: head}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).snap = snap.Clone()
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, snap: snap.Clone()})
	c.entries[key] = elem

	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached entries.
func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since creation or the last Reset.
func (c *SnapshotCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Reset drops all entries and zeroes the counters.
func (c *SnapshotCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*list.Element)
	c.order.Init()
	c.hits, c.misses = 0, 0
}
