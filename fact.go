package factlog

import (
	"fmt"
	"time"
)

// Operation is the kind of state change a fact records.
type Operation int

const (
	// OpAssert states that an attribute now holds a value.
	OpAssert Operation = iota

	// OpRetract states that an attribute's prior value no longer holds.
	OpRetract
)

// String returns the wire name of the operation.
func (o Operation) String() string {
	switch o {
	case OpAssert:
		return "assert"
	case OpRetract:
		return "retract"
	default:
		return "unknown"
	}
}

// IsValid reports whether the operation is one of the two known kinds.
func (o Operation) IsValid() bool {
	return o == OpAssert || o == OpRetract
}

// ParseOperation converts a wire name ("assert" or "retract") to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "assert":
		return OpAssert, nil
	case "retract":
		return OpRetract, nil
	default:
		return 0, fmt.Errorf("factlog: invalid operation %q, expected 'assert' or 'retract'", s)
	}
}

// Fact is a single immutable state change: at Time, Entity's Attribute was
// asserted to hold Value, or retracted. Facts are appended to the log and
// never mutated or deleted.
type Fact struct {
	// Entity identifies the entity the fact is about (e.g. "user-1").
	Entity string

	// Attribute is the name of the attribute being asserted or retracted.
	Attribute string

	// Value is the asserted value. It is ignored for retractions and is
	// serialized with the store's ValueSerializer on append.
	Value interface{}

	// Time is when the fact became true, not when it was recorded.
	Time time.Time

	// Operation is Assert or Retract.
	Operation Operation
}

// Assert builds an assertion fact.
func Assert(entity, attribute string, value interface{}, at time.Time) Fact {
	return Fact{Entity: entity, Attribute: attribute, Value: value, Time: at, Operation: OpAssert}
}

// Retract builds a retraction fact. Retractions carry no value.
func Retract(entity, attribute string, at time.Time) Fact {
	return Fact{Entity: entity, Attribute: attribute, Time: at, Operation: OpRetract}
}

// Validate checks the fact's shape. Only malformed shape is rejected here;
// business rules are never the store's concern.
func (f Fact) Validate() error {
	if f.Entity == "" {
		return NewMalformedFactError("entity", "entity is required")
	}
	if f.Attribute == "" {
		return NewMalformedFactError("attribute", "attribute is required")
	}
	if f.Time.IsZero() {
		return NewMalformedFactError("time", "time is required")
	}
	if !f.Operation.IsValid() {
		return NewMalformedFactError("operation", fmt.Sprintf("unknown operation %d", f.Operation))
	}
	if f.Operation == OpAssert && f.Value == nil {
		return NewMalformedFactError("value", "assertions require a value")
	}
	return nil
}

// StoredFact is a fact as persisted by the log, with its storage metadata.
// Seq is the store-assigned monotonic sequence number that breaks ties
// between facts sharing a timestamp; replay order is (Time, Seq) ascending.
type StoredFact struct {
	// ID is the globally unique fact identifier.
	ID string

	// Entity identifies the entity the fact is about.
	Entity string

	// Attribute is the attribute name.
	Attribute string

	// ValueType is the registered type name of the serialized value.
	// Empty for retractions.
	ValueType string

	// Value is the serialized value payload. Nil for retractions.
	Value []byte

	// Time is when the fact became true.
	Time time.Time

	// Operation is Assert or Retract.
	Operation Operation

	// Seq is the global append sequence, assigned by the store.
	Seq uint64
}

// Before reports whether f is ordered before other in canonical replay order.
func (f StoredFact) Before(other StoredFact) bool {
	if f.Time.Equal(other.Time) {
		return f.Seq < other.Seq
	}
	return f.Time.Before(other.Time)
}
