// Package factlog provides an append-only fact log with point-in-time entity
// reconstruction, plus the pure composition primitives an event-sourced
// backend is built from: chainable translators and coverage-checked dispatch
// tables.
//
// Facts are immutable (entity, attribute, value, time, operation) tuples.
// Entities are never stored; they are projections replayed from the log:
//
//	store := factlog.New(memory.NewAdapter())
//	store.Append(ctx, factlog.Assert("user-1", "status", "pending", t1))
//	store.Append(ctx, factlog.Assert("user-1", "status", "active", t5))
//
//	rec := factlog.NewReconstructor(store)
//	snap, err := rec.Reconstruct(ctx, "user-1", t3)
//	// snap.Get("status") == "pending"
package factlog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/factlog/factlog/adapters"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
// Adapter-level sentinels are aliased here for convenience.
var (
	// ErrEmptyEntity indicates an empty entity identifier was provided.
	ErrEmptyEntity = adapters.ErrEmptyEntity

	// ErrMalformedFact indicates a fact failed shape validation before append.
	ErrMalformedFact = adapters.ErrMalformedFact

	// ErrAdapterClosed indicates the adapter has been closed.
	ErrAdapterClosed = adapters.ErrAdapterClosed

	// ErrSerializationFailed indicates value serialization or deserialization failed.
	ErrSerializationFailed = errors.New("factlog: serialization failed")

	// ErrValueTypeNotRegistered indicates an unknown value type was encountered.
	ErrValueTypeNotRegistered = errors.New("factlog: value type not registered")

	// ErrFeedNotSupported indicates the adapter cannot serve the fact feed.
	ErrFeedNotSupported = errors.New("factlog: adapter does not support the fact feed")

	// ErrCheckpointsNotSupported indicates the adapter cannot persist checkpoints.
	ErrCheckpointsNotSupported = errors.New("factlog: adapter does not support checkpoints")

	// ErrHandlerNotFound indicates dispatch was called with a key outside the
	// table's validated domain.
	ErrHandlerNotFound = errors.New("factlog: no handler for dispatch key")

	// ErrIncompleteCoverage indicates a dispatch table's keys do not match
	// the discriminator's full value domain.
	ErrIncompleteCoverage = errors.New("factlog: dispatch table does not cover discriminator domain")
)

// MalformedFactError reports which field of a fact failed shape validation.
// Appends are rejected with this error before any durability write.
type MalformedFactError = adapters.MalformedFactError

// NewMalformedFactError creates a new MalformedFactError.
func NewMalformedFactError(field, reason string) *MalformedFactError {
	return adapters.NewMalformedFactError(field, reason)
}

// SerializationError provides detailed information about a value
// serialization failure.
type SerializationError struct {
	ValueType string
	Operation string // "serialize" or "deserialize"
	Cause     error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("factlog: failed to %s value type %q: %v",
		e.Operation, e.ValueType, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerializationFailed
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a new SerializationError.
func NewSerializationError(valueType, operation string, cause error) *SerializationError {
	return &SerializationError{
		ValueType: valueType,
		Operation: operation,
		Cause:     cause,
	}
}

// CoverageError reports the discrepancy between a dispatch table's key set
// and the discriminator's full value domain. It is produced at construction
// time, before any dispatch can occur.
type CoverageError struct {
	// Missing lists domain keys with no handler, sorted.
	Missing []string

	// Extraneous lists handler keys outside the domain, sorted.
	Extraneous []string
}

// Error returns the error message naming the discrepancy.
func (e *CoverageError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing handlers for [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extraneous) > 0 {
		parts = append(parts, fmt.Sprintf("extraneous handlers for [%s]", strings.Join(e.Extraneous, ", ")))
	}
	return "factlog: dispatch coverage: " + strings.Join(parts, "; ")
}

// Is reports whether this error matches the target error.
func (e *CoverageError) Is(target error) bool {
	return target == ErrIncompleteCoverage
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *CoverageError) Unwrap() error {
	return ErrIncompleteCoverage
}

func newCoverageError(missing, extraneous []string) *CoverageError {
	sort.Strings(missing)
	sort.Strings(extraneous)
	return &CoverageError{Missing: missing, Extraneous: extraneous}
}

// HandlerNotFoundError reports a dispatch on a key outside the table domain.
type HandlerNotFoundError struct {
	Key string
}

// Error returns the error message.
func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("factlog: no handler for dispatch key %q", e.Key)
}

// Is reports whether this error matches the target error.
func (e *HandlerNotFoundError) Is(target error) bool {
	return target == ErrHandlerNotFound
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *HandlerNotFoundError) Unwrap() error {
	return ErrHandlerNotFound
}
