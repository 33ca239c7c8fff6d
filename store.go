package factlog

import (
	"context"
	"fmt"
	"time"

	"github.com/factlog/factlog/adapters"
)

// FactStore is the main entry point for fact log operations.
// It owns the append side of the log; every other component holds read access
// only. Appending is the sole mutation: no fact, once appended, is ever
// altered or removed.
type FactStore struct {
	adapter    adapters.FactLogAdapter
	serializer ValueSerializer
	logger     Logger
	clock      func() time.Time
}

// Logger defines the logging interface for the fact store.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// noopLogger is a no-op logger implementation.
type noopLogger struct{}

func (l *noopLogger) Debug(msg string, args ...interface{}) {}
func (l *noopLogger) Info(msg string, args ...interface{})  {}
func (l *noopLogger) Warn(msg string, args ...interface{})  {}
func (l *noopLogger) Error(msg string, args ...interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return &noopLogger{}
}

// Option configures a FactStore.
type Option func(*FactStore)

// WithSerializer sets a custom value serializer.
func WithSerializer(s ValueSerializer) Option {
	return func(fs *FactStore) {
		fs.serializer = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(l Logger) Option {
	return func(fs *FactStore) {
		fs.logger = l
	}
}

// WithClock sets the clock used when "now" is implied (omitted as-of times).
func WithClock(clock func() time.Time) Option {
	return func(fs *FactStore) {
		fs.clock = clock
	}
}

// New creates a new FactStore with the given adapter and options.
func New(adapter adapters.FactLogAdapter, opts ...Option) *FactStore {
	fs := &FactStore{
		adapter:    adapter,
		serializer: NewJSONSerializer(),
		logger:     &noopLogger{},
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(fs)
	}

	return fs
}

// Serializer returns the fact store's value serializer.
func (s *FactStore) Serializer() ValueSerializer {
	return s.serializer
}

// Adapter returns the underlying adapter.
func (s *FactStore) Adapter() adapters.FactLogAdapter {
	return s.adapter
}

// Now returns the store clock's current time.
func (s *FactStore) Now() time.Time {
	return s.clock()
}

// RegisterValues registers value types with the serializer.
// This is required for deserializing values back to their original types.
func (s *FactStore) RegisterValues(values ...interface{}) {
	if js, ok := s.serializer.(*JSONSerializer); ok {
		js.RegisterAll(values...)
	}
}

// Append validates and durably stores a single fact.
// Append fails only when the fact's shape is malformed; business rules are
// never checked here.
func (s *FactStore) Append(ctx context.Context, fact Fact) error {
	return s.AppendAll(ctx, fact)
}

// AppendAll validates and durably stores multiple facts in one call.
// The facts receive consecutive sequence numbers in argument order.
func (s *FactStore) AppendAll(ctx context.Context, facts ...Fact) error {
	if len(facts) == 0 {
		return adapters.ErrNoFacts
	}

	records := make([]adapters.FactRecord, len(facts))
	for i, fact := range facts {
		if err := fact.Validate(); err != nil {
			return err
		}

		record := adapters.FactRecord{
			Entity:    fact.Entity,
			Attribute: fact.Attribute,
			Time:      fact.Time,
			Assert:    fact.Operation == OpAssert,
		}

		if fact.Operation == OpAssert {
			data, err := s.serializer.Serialize(fact.Value)
			if err != nil {
				return fmt.Errorf("factlog: failed to serialize fact %d: %w", i, err)
			}
			record.ValueType = TypeName(fact.Value)
			record.Value = data
		}

		records[i] = record
	}

	stored, err := s.adapter.AppendFacts(ctx, records)
	if err != nil {
		return err
	}

	s.logger.Debug("factlog: appended facts", "count", len(stored), "head", stored[len(stored)-1].Seq)
	return nil
}

// RecordedFact is a deserialized fact read back from the log.
type RecordedFact struct {
	Fact

	// ID is the globally unique fact identifier.
	ID string

	// Seq is the global append sequence assigned by the store.
	Seq uint64
}

// FactsFor retrieves the facts for one entity with Time <= upto, values
// deserialized, ordered by (Time, Seq) ascending. An entity with no facts
// yields an empty slice, not an error.
func (s *FactStore) FactsFor(ctx context.Context, entity string, upto time.Time) ([]RecordedFact, error) {
	stored, err := s.FactsForRaw(ctx, entity, upto)
	if err != nil {
		return nil, err
	}

	facts := make([]RecordedFact, len(stored))
	for i, sf := range stored {
		fact, err := s.decodeFact(sf)
		if err != nil {
			return nil, fmt.Errorf("factlog: failed to decode fact %d: %w", i, err)
		}
		facts[i] = fact
	}
	return facts, nil
}

// FactsForRaw retrieves the raw (non-deserialized) facts for one entity.
func (s *FactStore) FactsForRaw(ctx context.Context, entity string, upto time.Time) ([]StoredFact, error) {
	if entity == "" {
		return nil, ErrEmptyEntity
	}
	if upto.IsZero() {
		upto = s.clock()
	}

	stored, err := s.adapter.FactsFor(ctx, entity, upto)
	if err != nil {
		return nil, err
	}

	result := make([]StoredFact, len(stored))
	for i, sf := range stored {
		result[i] = convertStoredFromAdapter(sf)
	}
	return result, nil
}

// Head returns the sequence number of the most recent fact, 0 when empty.
func (s *FactStore) Head(ctx context.Context) (uint64, error) {
	return s.adapter.Head(ctx)
}

// LogInfo returns metadata about the fact log.
func (s *FactStore) LogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	return s.adapter.GetLogInfo(ctx)
}

// LoadFromSeq loads facts across all entities with Seq > fromSeq.
// Returns ErrFeedNotSupported if the adapter does not implement FeedAdapter.
// This is a helper method used by Follower and Relay.
func (s *FactStore) LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]StoredFact, error) {
	feed, ok := s.adapter.(adapters.FeedAdapter)
	if !ok {
		return nil, ErrFeedNotSupported
	}

	stored, err := feed.LoadFromSeq(ctx, fromSeq, limit)
	if err != nil {
		return nil, err
	}

	result := make([]StoredFact, len(stored))
	for i, sf := range stored {
		result[i] = convertStoredFromAdapter(sf)
	}
	return result, nil
}

// DecodeValue deserializes a stored fact's value with the store's serializer.
// Retractions decode to nil.
func (s *FactStore) DecodeValue(sf StoredFact) (interface{}, error) {
	if sf.Operation == OpRetract {
		return nil, nil
	}
	return s.serializer.Deserialize(sf.Value, sf.ValueType)
}

// Initialize sets up the required storage schema.
func (s *FactStore) Initialize(ctx context.Context) error {
	return s.adapter.Initialize(ctx)
}

// Close releases resources held by the fact store.
func (s *FactStore) Close() error {
	return s.adapter.Close()
}

func (s *FactStore) decodeFact(sf StoredFact) (RecordedFact, error) {
	value, err := s.DecodeValue(sf)
	if err != nil {
		return RecordedFact{}, err
	}
	return RecordedFact{
		Fact: Fact{
			Entity:    sf.Entity,
			Attribute: sf.Attribute,
			Value:     value,
			Time:      sf.Time,
			Operation: sf.Operation,
		},
		ID:  sf.ID,
		Seq: sf.Seq,
	}, nil
}

func convertStoredFromAdapter(sf adapters.StoredFact) StoredFact {
	op := OpRetract
	if sf.Assert {
		op = OpAssert
	}
	return StoredFact{
		ID:        sf.ID,
		Entity:    sf.Entity,
		Attribute: sf.Attribute,
		ValueType: sf.ValueType,
		Value:     sf.Value,
		Time:      sf.Time,
		Operation: op,
		Seq:       sf.Seq,
	}
}
