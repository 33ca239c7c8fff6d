package factlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	factlog "github.com/factlog/factlog"
	"github.com/factlog/factlog/adapters"
	"github.com/factlog/factlog/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...factlog.Option) *factlog.FactStore {
	t.Helper()
	return factlog.New(memory.NewAdapter(), opts...)
}

func TestFactStoreAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a single fact", func(t *testing.T) {
		store := newTestStore(t)

		err := store.Append(ctx, factlog.Assert("user-1", "status", "active", baseTime))
		require.NoError(t, err)

		head, err := store.Head(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), head)
	})

	t.Run("assigns consecutive sequence numbers", func(t *testing.T) {
		store := newTestStore(t)

		err := store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "pending", baseTime),
			factlog.Assert("user-1", "name", "Ada", baseTime.Add(time.Hour)),
			factlog.Assert("user-2", "status", "active", baseTime.Add(2*time.Hour)),
		)
		require.NoError(t, err)

		facts, err := store.FactsFor(ctx, "user-1", baseTime.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, facts, 2)
		assert.Equal(t, uint64(1), facts[0].Seq)
		assert.Equal(t, uint64(2), facts[1].Seq)
		assert.NotEmpty(t, facts[0].ID)
	})

	t.Run("rejects malformed facts before any write", func(t *testing.T) {
		store := newTestStore(t)

		err := store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "active", baseTime),
			factlog.Assert("", "status", "active", baseTime),
		)
		require.Error(t, err)
		assert.True(t, errors.Is(err, factlog.ErrMalformedFact))

		// Nothing from the batch was stored
		head, err := store.Head(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), head)
	})

	t.Run("rejects empty batches", func(t *testing.T) {
		store := newTestStore(t)

		err := store.AppendAll(ctx)
		assert.True(t, errors.Is(err, adapters.ErrNoFacts))
	})

	t.Run("retractions carry no payload", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "email", "a@example.com", baseTime)))
		require.NoError(t, store.Append(ctx, factlog.Retract("user-1", "email", baseTime.Add(time.Hour))))

		raw, err := store.FactsForRaw(ctx, "user-1", baseTime.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, raw, 2)
		assert.Equal(t, factlog.OpRetract, raw[1].Operation)
		assert.Nil(t, raw[1].Value)
		assert.Empty(t, raw[1].ValueType)
	})
}

func TestFactStoreFactsFor(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown entity yields empty slice", func(t *testing.T) {
		store := newTestStore(t)

		facts, err := store.FactsFor(ctx, "ghost", baseTime)
		require.NoError(t, err)
		assert.Empty(t, facts)
	})

	t.Run("empty entity is rejected", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.FactsFor(ctx, "", baseTime)
		assert.True(t, errors.Is(err, factlog.ErrEmptyEntity))
	})

	t.Run("excludes facts after the bound", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "pending", baseTime.Add(1*time.Hour)),
			factlog.Assert("user-1", "status", "active", baseTime.Add(5*time.Hour)),
		))

		facts, err := store.FactsFor(ctx, "user-1", baseTime.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "pending", facts[0].Value)
	})

	t.Run("bound is inclusive", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "pending", baseTime)))

		facts, err := store.FactsFor(ctx, "user-1", baseTime)
		require.NoError(t, err)
		assert.Len(t, facts, 1)
	})

	t.Run("zero bound means the store clock's now", func(t *testing.T) {
		now := baseTime.Add(10 * time.Hour)
		store := newTestStore(t, factlog.WithClock(func() time.Time { return now }))

		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "active", baseTime),
			factlog.Assert("user-1", "status", "closed", now.Add(time.Hour)),
		))

		facts, err := store.FactsFor(ctx, "user-1", time.Time{})
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "active", facts[0].Value)
	})

	t.Run("values are deserialized", func(t *testing.T) {
		type profile struct {
			Name string `json:"name"`
		}
		store := newTestStore(t)
		store.RegisterValues(profile{})

		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "profile", profile{Name: "Ada"}, baseTime)))

		facts, err := store.FactsFor(ctx, "user-1", baseTime.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, profile{Name: "Ada"}, facts[0].Value)
	})
}

func TestFactStoreLoadFromSeq(t *testing.T) {
	ctx := context.Background()

	t.Run("streams facts across entities", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "a", baseTime),
			factlog.Assert("user-2", "status", "b", baseTime.Add(time.Second)),
			factlog.Assert("user-3", "status", "c", baseTime.Add(2*time.Second)),
		))

		facts, err := store.LoadFromSeq(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, facts, 2)
		assert.Equal(t, uint64(2), facts[0].Seq)
		assert.Equal(t, uint64(3), facts[1].Seq)
	})

	t.Run("unsupported adapters return ErrFeedNotSupported", func(t *testing.T) {
		store := factlog.New(noFeedAdapter{memory.NewAdapter()})

		_, err := store.LoadFromSeq(ctx, 0, 10)
		assert.True(t, errors.Is(err, factlog.ErrFeedNotSupported))
	})
}

func TestFactStoreLogInfo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AppendAll(ctx,
		factlog.Assert("user-1", "status", "a", baseTime),
		factlog.Assert("user-2", "status", "b", baseTime),
	))

	info, err := store.LogInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.FactCount)
	assert.Equal(t, int64(2), info.EntityCount)
	assert.Equal(t, uint64(2), info.Head)
}

// noFeedAdapter hides the feed interfaces of a wrapped adapter.
type noFeedAdapter struct {
	inner *memory.MemoryAdapter
}

func (a noFeedAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	return a.inner.AppendFacts(ctx, records)
}

func (a noFeedAdapter) FactsFor(ctx context.Context, entity string, upto time.Time) ([]adapters.StoredFact, error) {
	return a.inner.FactsFor(ctx, entity, upto)
}

func (a noFeedAdapter) Head(ctx context.Context) (uint64, error) {
	return a.inner.Head(ctx)
}

func (a noFeedAdapter) GetLogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	return a.inner.GetLogInfo(ctx)
}

func (a noFeedAdapter) Initialize(ctx context.Context) error { return a.inner.Initialize(ctx) }
func (a noFeedAdapter) Close() error                         { return a.inner.Close() }
