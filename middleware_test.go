package factlog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	factlog "github.com/factlog/factlog"
	"github.com/factlog/factlog/adapters"
	"github.com/factlog/factlog/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLogger captures log messages for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, args ...interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, args ...interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, args ...interface{}) { l.record(msg) }

func (l *recordingLogger) logged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// taggingMiddleware records the order middleware layers see an append.
func taggingMiddleware(tag string, order *[]string) factlog.AdapterMiddleware {
	return func(next adapters.FactLogAdapter) adapters.FactLogAdapter {
		return &taggingAdapter{FactLogAdapter: next, tag: tag, order: order}
	}
}

type taggingAdapter struct {
	adapters.FactLogAdapter
	tag   string
	order *[]string
}

func (a *taggingAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	*a.order = append(*a.order, a.tag)
	return a.FactLogAdapter.AppendFacts(ctx, records)
}

func TestWrapAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("first middleware is outermost", func(t *testing.T) {
		var order []string
		wrapped := factlog.WrapAdapter(memory.NewAdapter(),
			taggingMiddleware("outer", &order),
			taggingMiddleware("inner", &order),
		)

		store := factlog.New(wrapped)
		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "active", baseTime)))

		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("no middleware returns the adapter unchanged", func(t *testing.T) {
		adapter := memory.NewAdapter()
		assert.Equal(t, adapters.FactLogAdapter(adapter), factlog.WrapAdapter(adapter))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	ctx := context.Background()

	t.Run("logs appends and loads", func(t *testing.T) {
		logger := &recordingLogger{}
		wrapped := factlog.WrapAdapter(memory.NewAdapter(), factlog.LoggingMiddleware(logger))
		store := factlog.New(wrapped)

		require.NoError(t, store.Append(ctx, factlog.Assert("user-1", "status", "active", baseTime)))
		_, err := store.FactsFor(ctx, "user-1", baseTime.Add(time.Hour))
		require.NoError(t, err)

		logged := logger.logged()
		assert.Contains(t, logged, "factlog: append")
		assert.Contains(t, logged, "factlog: load")
	})

	t.Run("logs append failures and forwards the error", func(t *testing.T) {
		logger := &recordingLogger{}
		adapter := memory.NewAdapter()
		require.NoError(t, adapter.Close())

		wrapped := factlog.WrapAdapter(adapter, factlog.LoggingMiddleware(logger))
		_, err := wrapped.AppendFacts(ctx, []adapters.FactRecord{{
			Entity: "user-1", Attribute: "status", Assert: true, Time: baseTime,
		}})

		require.Error(t, err)
		assert.Contains(t, logger.logged(), "factlog: append failed")
	})

	t.Run("passes feed and checkpoint calls through", func(t *testing.T) {
		adapter := memory.NewAdapter()
		wrapped := factlog.WrapAdapter(adapter, factlog.LoggingMiddleware(factlog.NopLogger()))
		store := factlog.New(wrapped)

		require.NoError(t, store.AppendAll(ctx,
			factlog.Assert("user-1", "status", "a", baseTime),
			factlog.Assert("user-2", "status", "b", baseTime.Add(time.Second)),
		))

		facts, err := store.LoadFromSeq(ctx, 0, 10)
		require.NoError(t, err)
		assert.Len(t, facts, 2)

		cp, ok := wrapped.(adapters.CheckpointAdapter)
		require.True(t, ok)
		require.NoError(t, cp.SetCheckpoint(ctx, "proj", 2))

		seq, err := adapter.GetCheckpoint(ctx, "proj")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), seq)

		hc, ok := wrapped.(adapters.HealthChecker)
		require.True(t, ok)
		assert.NoError(t, hc.Ping(ctx))
	})

	t.Run("reports missing capabilities of the wrapped adapter", func(t *testing.T) {
		wrapped := factlog.WrapAdapter(noFeedAdapter{memory.NewAdapter()},
			factlog.LoggingMiddleware(factlog.NopLogger()))

		feed, ok := wrapped.(adapters.FeedAdapter)
		require.True(t, ok)
		_, err := feed.LoadFromSeq(ctx, 0, 10)
		assert.True(t, errors.Is(err, factlog.ErrFeedNotSupported))

		cp, ok := wrapped.(adapters.CheckpointAdapter)
		require.True(t, ok)
		_, err = cp.GetCheckpoint(ctx, "proj")
		assert.True(t, errors.Is(err, factlog.ErrCheckpointsNotSupported))
		err = cp.SetCheckpoint(ctx, "proj", 1)
		assert.True(t, errors.Is(err, factlog.ErrCheckpointsNotSupported))

		hc, ok := wrapped.(adapters.HealthChecker)
		require.True(t, ok)
		assert.NoError(t, hc.Ping(ctx), "health checks default to healthy")
	})
}
