package factlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCache(t *testing.T) {
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("miss then hit", func(t *testing.T) {
		c := NewSnapshotCache(4)

		_, ok := c.Get("user-1", asOf, 1)
		assert.False(t, ok)

		c.Put("user-1", asOf, 1, Snapshot{"status": "active"})

		snap, ok := c.Get("user-1", asOf, 1)
		require.True(t, ok)
		assert.Equal(t, "active", snap.Get("status"))

		hits, misses := c.Stats()
		assert.Equal(t, uint64(1), hits)
		assert.Equal(t, uint64(1), misses)
	})

	t.Run("head is part of the key", func(t *testing.T) {
		c := NewSnapshotCache(4)
		c.Put("user-1", asOf, 1, Snapshot{"status": "old"})

		_, ok := c.Get("user-1", asOf, 2)
		assert.False(t, ok)
	})

	t.Run("asOf is part of the key", func(t *testing.T) {
		c := NewSnapshotCache(4)
		c.Put("user-1", asOf, 1, Snapshot{"status": "old"})

		_, ok := c.Get("user-1", asOf.Add(time.Second), 1)
		assert.False(t, ok)
	})

	t.Run("hands out independent copies", func(t *testing.T) {
		c := NewSnapshotCache(4)
		original := Snapshot{"status": "active"}
		c.Put("user-1", asOf, 1, original)

		// Mutating the put value or a got value must not affect the cache
		original["status"] = "mutated"

		got, ok := c.Get("user-1", asOf, 1)
		require.True(t, ok)
		assert.Equal(t, "active", got.Get("status"))

		got["status"] = "also-mutated"
		again, _ := c.Get("user-1", asOf, 1)
		assert.Equal(t, "active", again.Get("status"))
	})

	t.Run("evicts least recently used over budget", func(t *testing.T) {
		c := NewSnapshotCache(2)
		c.Put("a", asOf, 1, Snapshot{})
		c.Put("b", asOf, 1, Snapshot{})

		// Touch "a" so "b" is the LRU entry
		_, ok := c.Get("a", asOf, 1)
		require.True(t, ok)

		c.Put("c", asOf, 1, Snapshot{})
		assert.Equal(t, 2, c.Len())

		_, ok = c.Get("b", asOf, 1)
		assert.False(t, ok)
		_, ok = c.Get("a", asOf, 1)
		assert.True(t, ok)
		_, ok = c.Get("c", asOf, 1)
		assert.True(t, ok)
	})

	t.Run("put on existing key replaces value", func(t *testing.T) {
		c := NewSnapshotCache(4)
		c.Put("user-1", asOf, 1, Snapshot{"status": "old"})
		c.Put("user-1", asOf, 1, Snapshot{"status": "new"})
		assert.Equal(t, 1, c.Len())

		snap, ok := c.Get("user-1", asOf, 1)
		require.True(t, ok)
		assert.Equal(t, "new", snap.Get("status"))
	})

	t.Run("non-positive budget falls back to default", func(t *testing.T) {
		c := NewSnapshotCache(0)
		for i := 0; i < DefaultCacheSize+10; i++ {
			c.Put(fmt.Sprintf("user-%d", i), asOf, 1, Snapshot{})
		}
		assert.Equal(t, DefaultCacheSize, c.Len())
	})

	t.Run("reset drops entries and counters", func(t *testing.T) {
		c := NewSnapshotCache(4)
		c.Put("user-1", asOf, 1, Snapshot{})
		_, _ = c.Get("user-1", asOf, 1)
		_, _ = c.Get("missing", asOf, 1)

		c.Reset()

		assert.Equal(t, 0, c.Len())
		hits, misses := c.Stats()
		assert.Equal(t, uint64(0), hits)
		assert.Equal(t, uint64(0), misses)
	})
}
