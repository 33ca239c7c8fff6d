package factlog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/factlog/factlog/adapters"
)

// Projection folds the global fact feed into a read model. Unlike
// reconstruction, which is recomputed per query, a projection is maintained
// incrementally by a Follower as the log grows.
type Projection interface {
	// Name returns the unique identifier for this projection.
	// This name is used for checkpointing.
	Name() string

	// Apply processes a single stored fact.
	// Apply must tolerate redelivery: a follower restarting from its
	// checkpoint may replay the last processed fact.
	Apply(ctx context.Context, fact StoredFact) error
}

// FollowerOptions configures follower behavior.
type FollowerOptions struct {
	// BatchSize is the maximum number of facts to load per poll.
	// Default: 100
	BatchSize int

	// PollInterval is how often to poll for new facts when idle.
	// Default: 100ms
	PollInterval time.Duration

	// StartFromBeginning ignores the stored checkpoint and replays the
	// whole log. Default: false
	StartFromBeginning bool

	// OnError is called when applying a fact fails. Returning a non-nil
	// error stops the follower; returning nil skips the fact.
	// When nil, errors stop the follower.
	OnError func(fact StoredFact, err error) error
}

// DefaultFollowerOptions returns the default follower options.
func DefaultFollowerOptions() FollowerOptions {
	return FollowerOptions{
		BatchSize:    100,
		PollInterval: 100 * time.Millisecond,
	}
}

// Follower drives projections from the fact feed. It polls the store's feed
// from the projection's checkpoint, applies new facts in sequence order, and
// advances the checkpoint after each batch.
//
// The follower is a boundary action: it performs the I/O the pure core
// refuses, and it is where retry and skip policy live.
type Follower struct {
	store      *FactStore
	projection Projection
	checkpoint adapters.CheckpointAdapter
	logger     Logger
	opts       FollowerOptions

	running  atomic.Bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	position atomic.Uint64
}

// FollowerOption configures a Follower.
type FollowerOption func(*Follower)

// WithFollowerLogger sets the follower's logger.
func WithFollowerLogger(l Logger) FollowerOption {
	return func(f *Follower) {
		f.logger = l
	}
}

// WithFollowerOptions sets polling and batching options.
func WithFollowerOptions(opts FollowerOptions) FollowerOption {
	return func(f *Follower) {
		if opts.BatchSize > 0 {
			f.opts.BatchSize = opts.BatchSize
		}
		if opts.PollInterval > 0 {
			f.opts.PollInterval = opts.PollInterval
		}
		f.opts.StartFromBeginning = opts.StartFromBeginning
		f.opts.OnError = opts.OnError
	}
}

// NewFollower creates a follower for one projection.
// The store's adapter must implement adapters.FeedAdapter; checkpoints
// persist through adapters.CheckpointAdapter when the adapter provides it,
// and are held in memory otherwise.
func NewFollower(store *FactStore, projection Projection, opts ...FollowerOption) (*Follower, error) {
	if _, ok := store.Adapter().(adapters.FeedAdapter); !ok {
		return nil, ErrFeedNotSupported
	}

	f := &Follower{
		store:      store,
		projection: projection,
		logger:     &noopLogger{},
		opts:       DefaultFollowerOptions(),
		stopCh:     make(chan struct{}),
	}
	if cp, ok := store.Adapter().(adapters.CheckpointAdapter); ok {
		f.checkpoint = cp
	}

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Start begins following the feed in a background goroutine.
func (f *Follower) Start(ctx context.Context) error {
	if !f.running.CompareAndSwap(false, true) {
		return fmt.Errorf("factlog: follower %q already running", f.projection.Name())
	}

	from, err := f.startSeq(ctx)
	if err != nil {
		f.running.Store(false)
		return err
	}
	f.position.Store(from)

	f.wg.Add(1)
	go f.run(ctx)

	f.logger.Info("factlog: follower started", "projection", f.projection.Name(), "from", from)
	return nil
}

// Stop halts the follower and waits for the poll loop to exit.
func (f *Follower) Stop() {
	if !f.running.CompareAndSwap(true, false) {
		return
	}
	close(f.stopCh)
	f.wg.Wait()
}

// Position returns the last processed sequence number.
func (f *Follower) Position() uint64 {
	return f.position.Load()
}

// CatchUp synchronously applies all facts currently in the log beyond the
// checkpoint, without starting the background loop. Useful in tests and for
// one-shot rebuilds.
func (f *Follower) CatchUp(ctx context.Context) error {
	from, err := f.startSeq(ctx)
	if err != nil {
		return err
	}
	f.position.Store(from)

	for {
		n, err := f.processBatch(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (f *Follower) run(ctx context.Context) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := f.processBatch(ctx); err != nil {
				f.logger.Error("factlog: follower faulted", "projection", f.projection.Name(), "error", err)
				f.running.Store(false)
				return
			}
		}
	}
}

func (f *Follower) processBatch(ctx context.Context) (int, error) {
	facts, err := f.store.LoadFromSeq(ctx, f.position.Load(), f.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(facts) == 0 {
		return 0, nil
	}

	for _, fact := range facts {
		if err := f.applyOne(ctx, fact); err != nil {
			return 0, err
		}
		f.position.Store(fact.Seq)
	}

	if f.checkpoint != nil {
		if err := f.checkpoint.SetCheckpoint(ctx, f.projection.Name(), f.position.Load()); err != nil {
			return 0, fmt.Errorf("factlog: follower %q checkpoint: %w", f.projection.Name(), err)
		}
	}
	return len(facts), nil
}

func (f *Follower) applyOne(ctx context.Context, fact StoredFact) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("factlog: projection %q panicked on seq %d: %v", f.projection.Name(), fact.Seq, rec)
		}
	}()

	if err := f.projection.Apply(ctx, fact); err != nil {
		if f.opts.OnError != nil {
			return f.opts.OnError(fact, err)
		}
		return fmt.Errorf("factlog: projection %q apply seq %d: %w", f.projection.Name(), fact.Seq, err)
	}
	return nil
}

func (f *Follower) startSeq(ctx context.Context) (uint64, error) {
	if f.opts.StartFromBeginning || f.checkpoint == nil {
		return 0, nil
	}
	seq, err := f.checkpoint.GetCheckpoint(ctx, f.projection.Name())
	if err != nil {
		return 0, fmt.Errorf("factlog: follower %q checkpoint: %w", f.projection.Name(), err)
	}
	return seq, nil
}
