// Package adapters provides interfaces and shared utilities for fact log backends.
package adapters

import (
	"fmt"
)

// MalformedFactError reports which field of a fact record failed shape
// validation. Adapters return it from AppendFacts before any durability
// write; business-rule violations are never reported through it.
type MalformedFactError struct {
	Field  string
	Reason string
}

// NewMalformedFactError creates a new MalformedFactError.
func NewMalformedFactError(field, reason string) *MalformedFactError {
	return &MalformedFactError{Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *MalformedFactError) Error() string {
	return fmt.Sprintf("factlog: malformed fact: %s: %s", e.Field, e.Reason)
}

// Is implements errors.Is compatibility.
// Returns true when compared with ErrMalformedFact.
func (e *MalformedFactError) Is(target error) bool {
	return target == ErrMalformedFact
}

// ValidateRecord checks a fact record's shape. This implements the malformed
// fact check shared by all adapters.
//
// Only shape is validated: entity, attribute, and time must be present, and
// assertions must carry a value payload. Attribute values themselves are
// opaque to the store.
func ValidateRecord(r FactRecord) error {
	if r.Entity == "" {
		return NewMalformedFactError("entity", "entity is required")
	}
	if r.Attribute == "" {
		return NewMalformedFactError("attribute", "attribute is required")
	}
	if r.Time.IsZero() {
		return NewMalformedFactError("time", "time is required")
	}
	if r.Assert && len(r.Value) == 0 {
		return NewMalformedFactError("value", "assertions require a value payload")
	}
	if !r.Assert && len(r.Value) != 0 {
		return NewMalformedFactError("value", "retractions must not carry a value payload")
	}
	return nil
}

// DefaultLimit returns a default limit value if the provided limit is invalid.
// Used for pagination in LoadFromSeq and similar methods.
func DefaultLimit(limit, defaultValue int) int {
	if limit <= 0 {
		return defaultValue
	}
	return limit
}
