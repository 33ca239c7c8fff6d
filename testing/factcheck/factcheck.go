// Package factcheck provides assertion utilities for testing fact-logged systems.
// It includes helpers for checking snapshots, recorded facts, and fact diffs.
package factcheck

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	factlog "github.com/factlog/factlog"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// AssertAttribute checks that a snapshot has the given attribute with the expected value.
func AssertAttribute(t TB, snapshot factlog.Snapshot, attribute string, expected interface{}) {
	t.Helper()

	actual, ok := snapshot.Lookup(attribute)
	if !ok {
		t.Fatalf("Snapshot has no attribute %q (have: %v)", attribute, snapshot.Attributes())
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Attribute %q mismatch:\nExpected: %+v\nActual: %+v", attribute, expected, actual)
	}
}

// AssertNoAttribute checks that a snapshot does not have the given attribute.
func AssertNoAttribute(t TB, snapshot factlog.Snapshot, attribute string) {
	t.Helper()

	if value, ok := snapshot.Lookup(attribute); ok {
		t.Errorf("Snapshot unexpectedly has attribute %q with value %+v", attribute, value)
	}
}

// AssertAttributes checks that a snapshot has exactly the expected attribute names.
func AssertAttributes(t TB, snapshot factlog.Snapshot, attributes ...string) {
	t.Helper()

	if snapshot.Len() != len(attributes) {
		t.Fatalf("Expected %d attributes, got %d: %v", len(attributes), snapshot.Len(), snapshot.Attributes())
	}

	for _, attr := range attributes {
		if !snapshot.Has(attr) {
			t.Errorf("Snapshot missing attribute %q (have: %v)", attr, snapshot.Attributes())
		}
	}
}

// AssertEmpty checks that a snapshot has no attributes.
func AssertEmpty(t TB, snapshot factlog.Snapshot) {
	t.Helper()

	if !snapshot.IsEmpty() {
		t.Errorf("Expected empty snapshot, got %d attributes: %v", snapshot.Len(), snapshot.Attributes())
	}
}

// AssertSnapshotsEqual compares two snapshots and fails with a diff if they differ.
func AssertSnapshotsEqual(t TB, expected, actual factlog.Snapshot) {
	t.Helper()

	diffs := DiffSnapshots(expected, actual)
	if len(diffs) > 0 {
		t.Error(FormatDiffs(diffs))
	}
}

// AssertFactCount checks the number of recorded facts.
func AssertFactCount(t TB, facts []factlog.RecordedFact, expected int) {
	t.Helper()

	if len(facts) != expected {
		t.Errorf("Expected %d facts, got %d", expected, len(facts))
	}
}

// AssertOrdered checks that facts are in non-decreasing (Time, Seq) order.
func AssertOrdered(t TB, facts []factlog.StoredFact) {
	t.Helper()

	for i := 1; i < len(facts); i++ {
		prev, curr := facts[i-1], facts[i]
		if curr.Time.Before(prev.Time) || (curr.Time.Equal(prev.Time) && curr.Seq < prev.Seq) {
			t.Errorf("Facts out of order at index %d: (%s, seq %d) before (%s, seq %d)",
				i, prev.Time, prev.Seq, curr.Time, curr.Seq)
		}
	}
}

// AssertAsserted checks that the facts contain an assertion of the given attribute for the entity.
func AssertAsserted(t TB, facts []factlog.RecordedFact, entity, attribute string) {
	t.Helper()

	for _, f := range facts {
		if f.Entity == entity && f.Attribute == attribute && f.Operation == factlog.OpAssert {
			return
		}
	}

	t.Errorf("No assertion of %s/%s found in %d facts", entity, attribute, len(facts))
}

// AssertRetracted checks that the facts contain a retraction of the given attribute for the entity.
func AssertRetracted(t TB, facts []factlog.RecordedFact, entity, attribute string) {
	t.Helper()

	for _, f := range facts {
		if f.Entity == entity && f.Attribute == attribute && f.Operation == factlog.OpRetract {
			return
		}
	}

	t.Errorf("No retraction of %s/%s found in %d facts", entity, attribute, len(facts))
}

// AttributeDiff represents a difference between expected and actual snapshots.
type AttributeDiff struct {
	Attribute string
	Expected  interface{}
	Actual    interface{}
	Type      DiffType
}

// DiffType represents the type of difference.
type DiffType int

const (
	// DiffMissing indicates an expected attribute was not present.
	DiffMissing DiffType = iota
	// DiffExtra indicates an unexpected attribute was present.
	DiffExtra
	// DiffMismatch indicates attribute values did not match.
	DiffMismatch
)

// String returns a human-readable representation of the diff type.
func (d DiffType) String() string {
	switch d {
	case DiffMissing:
		return "missing"
	case DiffExtra:
		return "extra"
	case DiffMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// DiffSnapshots compares two snapshots and returns the differences.
func DiffSnapshots(expected, actual factlog.Snapshot) []AttributeDiff {
	var diffs []AttributeDiff

	for _, attr := range expected.Attributes() {
		exp := expected[attr]
		act, ok := actual.Lookup(attr)
		if !ok {
			diffs = append(diffs, AttributeDiff{
				Attribute: attr,
				Expected:  exp,
				Type:      DiffMissing,
			})
			continue
		}
		if !reflect.DeepEqual(exp, act) {
			diffs = append(diffs, AttributeDiff{
				Attribute: attr,
				Expected:  exp,
				Actual:    act,
				Type:      DiffMismatch,
			})
		}
	}

	for _, attr := range actual.Attributes() {
		if !expected.Has(attr) {
			diffs = append(diffs, AttributeDiff{
				Attribute: attr,
				Actual:    actual[attr],
				Type:      DiffExtra,
			})
		}
	}

	return diffs
}

// FormatDiffs formats snapshot diffs as a human-readable string.
func FormatDiffs(diffs []AttributeDiff) string {
	if len(diffs) == 0 {
		return "no differences"
	}

	var buf strings.Builder
	buf.WriteString("Snapshot differences:\n")

	for _, diff := range diffs {
		buf.WriteString(formatDiff(diff))
	}

	return buf.String()
}

func formatDiff(diff AttributeDiff) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("  Attribute %q (%s):\n", diff.Attribute, diff.Type))

	switch diff.Type {
	case DiffExtra:
		buf.WriteString(fmt.Sprintf("    + %+v (unexpected)\n", diff.Actual))
	case DiffMissing:
		buf.WriteString(fmt.Sprintf("    - %+v (missing)\n", diff.Expected))
	case DiffMismatch:
		buf.WriteString(fmt.Sprintf("    - %+v\n", diff.Expected))
		buf.WriteString(fmt.Sprintf("    + %+v\n", diff.Actual))
	}

	return buf.String()
}

// FactMatcher is a function that checks if a fact matches certain criteria.
type FactMatcher func(fact factlog.RecordedFact) bool

// MatchEntity returns a matcher that checks for a specific entity.
func MatchEntity(entity string) FactMatcher {
	return func(fact factlog.RecordedFact) bool {
		return fact.Entity == entity
	}
}

// MatchAttribute returns a matcher that checks for a specific attribute.
func MatchAttribute(attribute string) FactMatcher {
	return func(fact factlog.RecordedFact) bool {
		return fact.Attribute == attribute
	}
}

// MatchOperation returns a matcher that checks for a specific operation.
func MatchOperation(op factlog.Operation) FactMatcher {
	return func(fact factlog.RecordedFact) bool {
		return fact.Operation == op
	}
}

// AssertAnyMatch checks that at least one fact matches the matcher.
func AssertAnyMatch(t TB, facts []factlog.RecordedFact, matcher FactMatcher) {
	t.Helper()

	for _, fact := range facts {
		if matcher(fact) {
			return
		}
	}

	t.Error("No fact matched the criteria")
}

// AssertNoneMatch checks that no facts match the matcher.
func AssertNoneMatch(t TB, facts []factlog.RecordedFact, matcher FactMatcher) {
	t.Helper()

	for i, fact := range facts {
		if matcher(fact) {
			t.Errorf("Fact %d unexpectedly matched: %+v", i, fact)
		}
	}
}

// CountMatches returns the number of facts that match the matcher.
func CountMatches(facts []factlog.RecordedFact, matcher FactMatcher) int {
	count := 0
	for _, fact := range facts {
		if matcher(fact) {
			count++
		}
	}
	return count
}

// FilterFacts returns facts that match the matcher.
func FilterFacts(facts []factlog.RecordedFact, matcher FactMatcher) []factlog.RecordedFact {
	var result []factlog.RecordedFact
	for _, fact := range facts {
		if matcher(fact) {
			result = append(result, fact)
		}
	}
	return result
}
