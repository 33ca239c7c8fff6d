package factlog

import (
	"context"
	"time"

	"github.com/factlog/factlog/adapters"
)

// AdapterMiddleware wraps a FactLogAdapter with cross-cutting behavior.
// Middleware composes outside the pure core: the wrapped adapter still obeys
// the append-only contract.
type AdapterMiddleware func(adapters.FactLogAdapter) adapters.FactLogAdapter

// WrapAdapter applies middleware to an adapter, first middleware outermost.
func WrapAdapter(adapter adapters.FactLogAdapter, mws ...AdapterMiddleware) adapters.FactLogAdapter {
	for i := len(mws) - 1; i >= 0; i-- {
		adapter = mws[i](adapter)
	}
	return adapter
}

// LoggingMiddleware logs append and load operations with their durations.
func LoggingMiddleware(logger Logger) AdapterMiddleware {
	return func(next adapters.FactLogAdapter) adapters.FactLogAdapter {
		return &loggingAdapter{next: next, logger: logger}
	}
}

type loggingAdapter struct {
	next   adapters.FactLogAdapter
	logger Logger
}

// Interface compliance checks.
var (
	_ adapters.FactLogAdapter    = (*loggingAdapter)(nil)
	_ adapters.FeedAdapter       = (*loggingAdapter)(nil)
	_ adapters.CheckpointAdapter = (*loggingAdapter)(nil)
	_ adapters.HealthChecker     = (*loggingAdapter)(nil)
)

func (a *loggingAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	start := time.Now()
	stored, err := a.next.AppendFacts(ctx, records)
	if err != nil {
		a.logger.Error("factlog: append failed", "count", len(records), "duration", time.Since(start), "error", err)
		return nil, err
	}
	a.logger.Debug("factlog: append", "count", len(stored), "duration", time.Since(start))
	return stored, nil
}

func (a *loggingAdapter) FactsFor(ctx context.Context, entity string, upto time.Time) ([]adapters.StoredFact, error) {
	start := time.Now()
	facts, err := a.next.FactsFor(ctx, entity, upto)
	if err != nil {
		a.logger.Error("factlog: load failed", "entity", entity, "duration", time.Since(start), "error", err)
		return nil, err
	}
	a.logger.Debug("factlog: load", "entity", entity, "count", len(facts), "duration", time.Since(start))
	return facts, nil
}

func (a *loggingAdapter) Head(ctx context.Context) (uint64, error) {
	return a.next.Head(ctx)
}

func (a *loggingAdapter) GetLogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	return a.next.GetLogInfo(ctx)
}

func (a *loggingAdapter) Initialize(ctx context.Context) error {
	return a.next.Initialize(ctx)
}

func (a *loggingAdapter) Close() error {
	return a.next.Close()
}

// LoadFromSeq delegates to the wrapped adapter's feed when available.
func (a *loggingAdapter) LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]adapters.StoredFact, error) {
	feed, ok := a.next.(adapters.FeedAdapter)
	if !ok {
		return nil, ErrFeedNotSupported
	}
	return feed.LoadFromSeq(ctx, fromSeq, limit)
}

// GetCheckpoint delegates to the wrapped adapter's checkpoint store when available.
func (a *loggingAdapter) GetCheckpoint(ctx context.Context, name string) (uint64, error) {
	cp, ok := a.next.(adapters.CheckpointAdapter)
	if !ok {
		return 0, ErrCheckpointsNotSupported
	}
	return cp.GetCheckpoint(ctx, name)
}

// SetCheckpoint delegates to the wrapped adapter's checkpoint store when available.
func (a *loggingAdapter) SetCheckpoint(ctx context.Context, name string, seq uint64) error {
	cp, ok := a.next.(adapters.CheckpointAdapter)
	if !ok {
		return ErrCheckpointsNotSupported
	}
	return cp.SetCheckpoint(ctx, name, seq)
}

// Ping delegates to the wrapped adapter's health check when available.
func (a *loggingAdapter) Ping(ctx context.Context) error {
	hc, ok := a.next.(adapters.HealthChecker)
	if !ok {
		return nil
	}
	return hc.Ping(ctx)
}
