package factlog

import (
	"reflect"
	"sort"
)

// Snapshot is an entity's attribute state as of a point in time: a mapping
// from attribute name to the most recently asserted value, excluding
// attributes whose latest operation at that bound is a retraction.
//
// Snapshots are derived values, never stored. Each reconstruction produces an
// independent copy; mutating one snapshot cannot affect another.
type Snapshot map[string]interface{}

// Get returns the value for an attribute, or nil if absent.
func (s Snapshot) Get(attribute string) interface{} {
	return s[attribute]
}

// Lookup returns the value for an attribute and whether it is present.
func (s Snapshot) Lookup(attribute string) (interface{}, bool) {
	v, ok := s[attribute]
	return v, ok
}

// Has reports whether the attribute is present.
func (s Snapshot) Has(attribute string) bool {
	_, ok := s[attribute]
	return ok
}

// Attributes returns the attribute names in sorted order.
func (s Snapshot) Attributes() []string {
	attrs := make([]string, 0, len(s))
	for a := range s {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	return attrs
}

// Len returns the number of attributes present.
func (s Snapshot) Len() int {
	return len(s)
}

// IsEmpty reports whether the snapshot has no attributes. An empty snapshot
// is the valid state of an entity with no surviving assertions, not an error.
func (s Snapshot) IsEmpty() bool {
	return len(s) == 0
}

// Clone returns an independent shallow copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for a, v := range s {
		c[a] = v
	}
	return c
}

// Equal reports whether two snapshots hold the same attributes and values.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for a, v := range s {
		ov, ok := other[a]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}
