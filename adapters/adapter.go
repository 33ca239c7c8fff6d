// Package adapters provides interfaces for fact log backends.
package adapters

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for adapter implementations.
// Adapters should return these (or errors that match via errors.Is)
// to enable consistent error handling across different backends.
var (
	// ErrEmptyEntity is returned when an empty entity identifier is provided.
	ErrEmptyEntity = errors.New("factlog: entity is required")

	// ErrMalformedFact is returned when a fact record fails shape validation.
	ErrMalformedFact = errors.New("factlog: malformed fact")

	// ErrNoFacts is returned when attempting to append zero facts.
	ErrNoFacts = errors.New("factlog: no facts to append")

	// ErrAdapterClosed is returned when operations are attempted on a closed adapter.
	ErrAdapterClosed = errors.New("factlog: adapter is closed")
)

// FactRecord is a fact to be appended, with its value already serialized.
// This is the adapter-level representation; adapters never interpret Value.
type FactRecord struct {
	// Entity identifies the entity the fact is about.
	Entity string

	// Attribute is the attribute name.
	Attribute string

	// ValueType is the registered type name of the serialized value.
	ValueType string

	// Value is the serialized value payload. Nil for retractions.
	Value []byte

	// Time is when the fact became true.
	Time time.Time

	// Assert is true for assertions, false for retractions.
	Assert bool
}

// StoredFact is a persisted fact with its storage metadata.
type StoredFact struct {
	// ID is the unique fact identifier.
	ID string

	// Entity identifies the entity the fact is about.
	Entity string

	// Attribute is the attribute name.
	Attribute string

	// ValueType is the registered type name of the serialized value.
	ValueType string

	// Value is the serialized value payload. Nil for retractions.
	Value []byte

	// Time is when the fact became true.
	Time time.Time

	// Assert is true for assertions, false for retractions.
	Assert bool

	// Seq is the global append sequence. Together with Time it defines the
	// canonical replay order (Time, Seq) ascending.
	Seq uint64
}

// LogInfo contains metadata about the fact log.
type LogInfo struct {
	// FactCount is the total number of facts in the log.
	FactCount int64

	// EntityCount is the number of distinct entities.
	EntityCount int64

	// Head is the sequence number of the most recent fact (0 when empty).
	Head uint64

	// FirstAppendedAt is when the first fact was stored.
	FirstAppendedAt time.Time

	// LastAppendedAt is when the last fact was stored.
	LastAppendedAt time.Time
}

// FactLogAdapter is the interface that fact log backends must implement.
// It provides the low-level operations for persisting and retrieving facts.
// The log is append-only: no operation alters or removes a stored fact.
type FactLogAdapter interface {
	// AppendFacts durably stores the records and assigns each a sequence
	// number greater than every previously assigned one. Appends for the
	// same entity are linearized by the sequence.
	// Records must pass ValidateRecord; adapters reject malformed shape
	// before writing, never business rules.
	AppendFacts(ctx context.Context, records []FactRecord) ([]StoredFact, error)

	// FactsFor retrieves the facts for one entity with Time <= upto,
	// ordered by (Time, Seq) ascending. An unknown entity yields an empty
	// slice, not an error.
	FactsFor(ctx context.Context, entity string, upto time.Time) ([]StoredFact, error)

	// Head returns the sequence number of the most recent fact.
	// Returns 0 if the log is empty.
	Head(ctx context.Context) (uint64, error)

	// GetLogInfo returns metadata about the log.
	GetLogInfo(ctx context.Context) (*LogInfo, error)

	// Initialize sets up the required storage schema.
	// This should be called once during application startup.
	Initialize(ctx context.Context) error

	// Close releases any resources held by the adapter.
	Close() error
}

// FeedAdapter provides access to the global fact feed.
// Adapters may optionally implement this for followers and relays.
type FeedAdapter interface {
	// LoadFromSeq loads facts with Seq > fromSeq in sequence order,
	// across all entities, up to limit facts.
	LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]StoredFact, error)
}

// CheckpointAdapter persists follower checkpoints.
type CheckpointAdapter interface {
	// GetCheckpoint returns the last processed sequence for a follower.
	// Returns 0 if no checkpoint exists.
	GetCheckpoint(ctx context.Context, name string) (uint64, error)

	// SetCheckpoint stores the last processed sequence for a follower.
	SetCheckpoint(ctx context.Context, name string, seq uint64) error
}

// HealthChecker provides health check capabilities.
type HealthChecker interface {
	// Ping checks if the adapter can connect to its backend.
	Ping(ctx context.Context) error
}
