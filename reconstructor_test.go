package factlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	factlog "github.com/factlog/factlog"
	"github.com/factlog/factlog/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstruct(t *testing.T) {
	ctx := context.Background()

	t.Run("replays asserts and retracts through time", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		// status pending at t+1, active at t+5, retracted at t+7
		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "pending", baseTime.Add(1*time.Hour)),
			factlog.Assert("user-1", "status", "active", baseTime.Add(5*time.Hour)),
			factlog.Retract("user-1", "status", baseTime.Add(7*time.Hour)),
		))

		snap, err := rec.Reconstruct(ctx, "user-1", baseTime.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "pending", snap.Get("status"))

		snap, err = rec.Reconstruct(ctx, "user-1", baseTime.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "active", snap.Get("status"))

		snap, err = rec.Reconstruct(ctx, "user-1", baseTime.Add(10*time.Hour))
		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("unknown entity yields empty snapshot, not an error", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		snap, err := rec.Reconstruct(ctx, "ghost", baseTime)
		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("empty entity is rejected", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		_, err := rec.Reconstruct(ctx, "", baseTime)
		assert.True(t, errors.Is(err, factlog.ErrEmptyEntity))
	})

	t.Run("retracting an absent attribute is a no-op", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		require.NoError(t, store.AppendAll(ctx,
			factlog.Retract("user-1", "never-set", baseTime),
			factlog.Assert("user-1", "status", "active", baseTime.Add(time.Hour)),
		))

		snap, err := rec.Reconstruct(ctx, "user-1", baseTime.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, factlog.Snapshot{"status": "active"}, snap)
	})

	t.Run("equal timestamps resolve by append order", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		at := baseTime.Add(time.Hour)
		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "first", at),
			factlog.Assert("user-1", "status", "second", at),
		))

		snap, err := rec.Reconstruct(ctx, "user-1", at)
		require.NoError(t, err)
		assert.Equal(t, "second", snap.Get("status"))
	})

	t.Run("facts recorded out of timestamp order replay in timestamp order", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		// The later-timestamped fact is appended first
		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "late", baseTime.Add(5*time.Hour)),
			factlog.Assert("user-1", "status", "early", baseTime.Add(1*time.Hour)),
		))

		snap, err := rec.Reconstruct(ctx, "user-1", baseTime.Add(10*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "late", snap.Get("status"))
	})

	t.Run("zero asOf means now", func(t *testing.T) {
		now := baseTime.Add(4 * time.Hour)
		store := newTestStore(t, factlog.WithClock(func() time.Time { return now }))
		rec := factlog.NewReconstructor(store)

		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "current", baseTime),
			factlog.Assert("user-1", "status", "future", now.Add(time.Hour)),
		))

		snap, err := rec.Reconstruct(ctx, "user-1", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, "current", snap.Get("status"))
	})

	t.Run("is a pure read", func(t *testing.T) {
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store)

		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "active", baseTime)))

		first, err := rec.Reconstruct(ctx, "user-1", baseTime.Add(time.Hour))
		require.NoError(t, err)
		first["status"] = "mutated"

		second, err := rec.Reconstruct(ctx, "user-1", baseTime.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "active", second.Get("status"))
	})
}

func TestAttributeAt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := factlog.NewReconstructor(store)

	require.NoError(t, store.AppendAll(ctx,
		factlog.Assert("user-1", "email", "a@example.com", baseTime),
		factlog.Retract("user-1", "email", baseTime.Add(2*time.Hour)),
	))

	t.Run("present before retraction", func(t *testing.T) {
		v, ok, err := rec.AttributeAt(ctx, "user-1", "email", baseTime.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a@example.com", v)
	})

	t.Run("absent after retraction", func(t *testing.T) {
		_, ok, err := rec.AttributeAt(ctx, "user-1", "email", baseTime.Add(3*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := factlog.NewReconstructor(store)

	require.NoError(t, store.AppendAll(ctx,
		factlog.Assert("user-1", "status", "pending", baseTime.Add(1*time.Hour)),
		factlog.Assert("user-1", "email", "a@example.com", baseTime.Add(2*time.Hour)),
		factlog.Retract("user-1", "email", baseTime.Add(3*time.Hour)),
	))

	revisions, err := rec.History(ctx, "user-1", baseTime.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, revisions, 3)

	assert.Equal(t, factlog.Snapshot{"status": "pending"}, revisions[0].Snapshot)
	assert.Equal(t, factlog.Snapshot{"status": "pending", "email": "a@example.com"}, revisions[1].Snapshot)
	assert.Equal(t, factlog.Snapshot{"status": "pending"}, revisions[2].Snapshot)

	// Revisions are independent copies
	revisions[0].Snapshot["status"] = "mutated"
	assert.Equal(t, "pending", revisions[1].Snapshot.Get("status"))
}

func TestReconstructWithCache(t *testing.T) {
	ctx := context.Background()

	t.Run("caches replays keyed by head", func(t *testing.T) {
		cache := factlog.NewSnapshotCache(16)
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store, factlog.WithSnapshotCache(cache))

		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "active", baseTime)))

		asOf := baseTime.Add(time.Hour)
		first, err := rec.Reconstruct(ctx, "user-1", asOf)
		require.NoError(t, err)

		second, err := rec.Reconstruct(ctx, "user-1", asOf)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))

		hits, misses := cache.Stats()
		assert.Equal(t, uint64(1), hits)
		assert.Equal(t, uint64(1), misses)
	})

	t.Run("log growth invalidates cached entries", func(t *testing.T) {
		cache := factlog.NewSnapshotCache(16)
		store := newTestStore(t)
		rec := factlog.NewReconstructor(store, factlog.WithSnapshotCache(cache))

		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "pending", baseTime)))

		asOf := baseTime.Add(2 * time.Hour)
		snap, err := rec.Reconstruct(ctx, "user-1", asOf)
		require.NoError(t, err)
		assert.Equal(t, "pending", snap.Get("status"))

		// A new fact moves the head; the same as-of query replays fresh
		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "active", baseTime.Add(time.Hour))))

		snap, err = rec.Reconstruct(ctx, "user-1", asOf)
		require.NoError(t, err)
		assert.Equal(t, "active", snap.Get("status"))
	})
}

func TestReconstructNow(t *testing.T) {
	ctx := context.Background()
	now := baseTime.Add(3 * time.Hour)
	store := factlog.New(memory.NewAdapter(), factlog.WithClock(func() time.Time { return now }))
	rec := factlog.NewReconstructor(store)

	require.NoError(t, store.AppendAll(ctx,
		factlog.Assert("user-1", "status", "active", baseTime),
		factlog.Assert("user-1", "status", "future", now.Add(time.Hour)),
	))

	snap, err := rec.ReconstructNow(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "active", snap.Get("status"))
}
