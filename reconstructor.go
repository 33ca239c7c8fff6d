package factlog

import (
	"context"
	"fmt"
	"time"
)

// Reconstructor materializes entity snapshots from the fact log.
//
// Reconstruction is a pure function of the log's contents up to the as-of
// bound: it never mutates the store, is safe to run concurrently, and yields
// identical results for identical inputs. Varying asOf gives point-in-time
// queries and full history replay.
type Reconstructor struct {
	store *FactStore
	cache *SnapshotCache
}

// ReconstructorOption configures a Reconstructor.
type ReconstructorOption func(*Reconstructor)

// WithSnapshotCache enables read-through memoization of reconstructions.
// Cached entries are invalidated only by log growth, never by mutation.
func WithSnapshotCache(cache *SnapshotCache) ReconstructorOption {
	return func(r *Reconstructor) {
		r.cache = cache
	}
}

// NewReconstructor creates a Reconstructor reading from the given store.
func NewReconstructor(store *FactStore, opts ...ReconstructorOption) *Reconstructor {
	r := &Reconstructor{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct replays the entity's facts up to asOf, in (time, seq) order,
// into a fresh snapshot. A zero asOf means "now".
//
// Absence is a valid state: an entity with no facts at or before asOf yields
// an empty snapshot, not an error. The returned error covers only adapter
// I/O and value decoding.
func (r *Reconstructor) Reconstruct(ctx context.Context, entity string, asOf time.Time) (Snapshot, error) {
	if entity == "" {
		return nil, ErrEmptyEntity
	}
	if asOf.IsZero() {
		asOf = r.store.Now()
	}

	if r.cache != nil {
		return r.reconstructCached(ctx, entity, asOf)
	}
	return r.replay(ctx, entity, asOf)
}

// ReconstructNow reconstructs the entity as of the store clock's current time.
func (r *Reconstructor) ReconstructNow(ctx context.Context, entity string) (Snapshot, error) {
	return r.Reconstruct(ctx, entity, r.store.Now())
}

// AttributeAt returns a single attribute's value as of asOf, and whether the
// attribute was present at that instant.
func (r *Reconstructor) AttributeAt(ctx context.Context, entity, attribute string, asOf time.Time) (interface{}, bool, error) {
	snap, err := r.Reconstruct(ctx, entity, asOf)
	if err != nil {
		return nil, false, err
	}
	v, ok := snap.Lookup(attribute)
	return v, ok, nil
}

// Revision is one step of an entity's history: the snapshot immediately
// after the fact at Seq took effect.
type Revision struct {
	// Time is the timestamp of the fact that produced this revision.
	Time time.Time

	// Seq is the sequence of the fact that produced this revision.
	Seq uint64

	// Snapshot is the entity state after applying the fact.
	Snapshot Snapshot
}

// History replays the entity's facts up to asOf and returns the snapshot
// after each fact, oldest first. Useful for audit views; each revision's
// snapshot is an independent copy.
func (r *Reconstructor) History(ctx context.Context, entity string, asOf time.Time) ([]Revision, error) {
	if entity == "" {
		return nil, ErrEmptyEntity
	}
	if asOf.IsZero() {
		asOf = r.store.Now()
	}

	facts, err := r.store.FactsFor(ctx, entity, asOf)
	if err != nil {
		return nil, err
	}

	working := make(Snapshot)
	revisions := make([]Revision, 0, len(facts))
	for _, fact := range facts {
		applyFact(working, fact)
		revisions = append(revisions, Revision{
			Time:     fact.Time,
			Seq:      fact.Seq,
			Snapshot: working.Clone(),
		})
	}
	return revisions, nil
}

// replay is the reconstruction algorithm: fold the entity's ordered facts
// into an empty mapping. Asserts set, retracts remove; retracting an absent
// attribute is a no-op.
func (r *Reconstructor) replay(ctx context.Context, entity string, asOf time.Time) (Snapshot, error) {
	facts, err := r.store.FactsFor(ctx, entity, asOf)
	if err != nil {
		return nil, fmt.Errorf("factlog: reconstruct %q: %w", entity, err)
	}

	snapshot := make(Snapshot)
	for _, fact := range facts {
		applyFact(snapshot, fact)
	}
	return snapshot, nil
}

func (r *Reconstructor) reconstructCached(ctx context.Context, entity string, asOf time.Time) (Snapshot, error) {
	head, err := r.store.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("factlog: reconstruct %q: %w", entity, err)
	}

	if snap, ok := r.cache.Get(entity, asOf, head); ok {
		return snap, nil
	}

	snap, err := r.replay(ctx, entity, asOf)
	if err != nil {
		return nil, err
	}

	r.cache.Put(entity, asOf, head, snap)
	return snap, nil
}

func applyFact(snapshot Snapshot, fact RecordedFact) {
	switch fact.Operation {
	case OpAssert:
		snapshot[fact.Attribute] = fact.Value
	case OpRetract:
		delete(snapshot, fact.Attribute)
	}
}
