// Package memory provides an in-memory implementation of the fact log adapter.
// This adapter is primarily intended for testing and development purposes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/factlog/factlog/adapters"
	"github.com/google/uuid"
)

// Ensure MemoryAdapter implements all required interfaces.
var (
	_ adapters.FactLogAdapter    = (*MemoryAdapter)(nil)
	_ adapters.FeedAdapter       = (*MemoryAdapter)(nil)
	_ adapters.CheckpointAdapter = (*MemoryAdapter)(nil)
	_ adapters.HealthChecker     = (*MemoryAdapter)(nil)
)

// MemoryAdapter is an in-memory implementation of FactLogAdapter.
// It is thread-safe and suitable for unit testing.
type MemoryAdapter struct {
	mu          sync.RWMutex
	log         []adapters.StoredFact
	byEntity    map[string][]int // indexes into log, in append order
	seq         uint64
	checkpoints map[string]uint64
	closed      bool
}

// Option configures a MemoryAdapter.
type Option func(*MemoryAdapter)

// NewAdapter creates a new in-memory fact log adapter.
func NewAdapter(opts ...Option) *MemoryAdapter {
	adapter := &MemoryAdapter{
		log:         make([]adapters.StoredFact, 0),
		byEntity:    make(map[string][]int),
		checkpoints: make(map[string]uint64),
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Initialize is a no-op for the memory adapter.
func (a *MemoryAdapter) Initialize(ctx context.Context) error {
	return nil
}

// AppendFacts durably stores the records, assigning consecutive sequence
// numbers. Only malformed shape is rejected; the append itself is monotonic.
func (a *MemoryAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	if len(records) == 0 {
		return nil, adapters.ErrNoFacts
	}

	for _, record := range records {
		if err := adapters.ValidateRecord(record); err != nil {
			return nil, err
		}
	}

	stored := make([]adapters.StoredFact, len(records))
	for i, record := range records {
		a.seq++

		sf := adapters.StoredFact{
			ID:        uuid.New().String(),
			Entity:    record.Entity,
			Attribute: record.Attribute,
			ValueType: record.ValueType,
			Value:     record.Value,
			Time:      record.Time,
			Assert:    record.Assert,
			Seq:       a.seq,
		}

		a.byEntity[record.Entity] = append(a.byEntity[record.Entity], len(a.log))
		a.log = append(a.log, sf)
		stored[i] = sf
	}

	return stored, nil
}

// FactsFor returns the entity's facts with Time <= upto, ordered by
// (Time, Seq) ascending. An unknown entity yields an empty slice.
func (a *MemoryAdapter) FactsFor(ctx context.Context, entity string, upto time.Time) ([]adapters.StoredFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	if entity == "" {
		return nil, adapters.ErrEmptyEntity
	}

	indexes := a.byEntity[entity]
	facts := make([]adapters.StoredFact, 0, len(indexes))
	for _, idx := range indexes {
		sf := a.log[idx]
		if !sf.Time.After(upto) {
			facts = append(facts, sf)
		}
	}

	// Facts may be recorded out of timestamp order; replay order is always
	// (Time, Seq) ascending.
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].Time.Equal(facts[j].Time) {
			return facts[i].Seq < facts[j].Seq
		}
		return facts[i].Time.Before(facts[j].Time)
	})

	return facts, nil
}

// Head returns the sequence number of the most recent fact.
func (a *MemoryAdapter) Head(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return 0, adapters.ErrAdapterClosed
	}

	return a.seq, nil
}

// GetLogInfo returns metadata about the log.
func (a *MemoryAdapter) GetLogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	info := &adapters.LogInfo{
		FactCount:   int64(len(a.log)),
		EntityCount: int64(len(a.byEntity)),
		Head:        a.seq,
	}
	if len(a.log) > 0 {
		info.FirstAppendedAt = a.log[0].Time
		info.LastAppendedAt = a.log[len(a.log)-1].Time
	}
	return info, nil
}

// LoadFromSeq loads facts with Seq > fromSeq in sequence order.
func (a *MemoryAdapter) LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]adapters.StoredFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	limit = adapters.DefaultLimit(limit, 1000)

	// Seq is 1-based and dense, so the slice offset is just fromSeq.
	if fromSeq >= uint64(len(a.log)) {
		return []adapters.StoredFact{}, nil
	}

	end := int(fromSeq) + limit
	if end > len(a.log) {
		end = len(a.log)
	}

	facts := make([]adapters.StoredFact, end-int(fromSeq))
	copy(facts, a.log[fromSeq:end])
	return facts, nil
}

// GetCheckpoint returns the last processed sequence for a follower.
func (a *MemoryAdapter) GetCheckpoint(ctx context.Context, name string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return 0, adapters.ErrAdapterClosed
	}

	return a.checkpoints[name], nil
}

// SetCheckpoint stores the last processed sequence for a follower.
func (a *MemoryAdapter) SetCheckpoint(ctx context.Context, name string, seq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return adapters.ErrAdapterClosed
	}

	a.checkpoints[name] = seq
	return nil
}

// Ping reports whether the adapter is usable.
func (a *MemoryAdapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return adapters.ErrAdapterClosed
	}
	return nil
}

// Close marks the adapter as closed. Subsequent operations fail with
// ErrAdapterClosed.
func (a *MemoryAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	return nil
}

// FactCount returns the total number of facts. Intended for tests.
func (a *MemoryAdapter) FactCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.log)
}

// EntityCount returns the number of distinct entities. Intended for tests.
func (a *MemoryAdapter) EntityCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byEntity)
}
