package factlog

import (
	"fmt"
	"sort"
)

// Handler is a pure behavior selected by dispatch: no I/O, no mutation of
// captured state. Side effects belong to the boundary action that invokes
// Dispatch and acts on its result.
type Handler[Arg, Res any] func(Arg) Res

// DispatchTable maps a closed, enumerable discriminator domain to handlers
// of a fixed signature. Tables are built with BuildRegistry, which proves at
// construction time that the key set equals the full domain. Branching on
// the discriminator is then plain data, inspectable and testable.
type DispatchTable[Key comparable, Arg, Res any] struct {
	handlers map[Key]Handler[Arg, Res]
	domain   []Key
}

// BuildRegistry validates that mapping's key set exactly equals the
// enumerated domain and returns a usable table. Any discrepancy fails with a
// CoverageError naming the missing and extraneous keys; the check runs here,
// not at call time, so coverage gaps surface before any dispatch occurs.
func BuildRegistry[Key comparable, Arg, Res any](mapping map[Key]Handler[Arg, Res], domain []Key) (*DispatchTable[Key, Arg, Res], error) {
	domainSet := make(map[Key]struct{}, len(domain))
	for _, k := range domain {
		domainSet[k] = struct{}{}
	}

	var missing, extraneous []string
	for k := range domainSet {
		if _, ok := mapping[k]; !ok {
			missing = append(missing, fmt.Sprintf("%v", k))
		}
	}
	for k, h := range mapping {
		if _, ok := domainSet[k]; !ok {
			extraneous = append(extraneous, fmt.Sprintf("%v", k))
			continue
		}
		if h == nil {
			missing = append(missing, fmt.Sprintf("%v", k))
		}
	}

	if len(missing) > 0 || len(extraneous) > 0 {
		return nil, newCoverageError(missing, extraneous)
	}

	handlers := make(map[Key]Handler[Arg, Res], len(mapping))
	for k, h := range mapping {
		handlers[k] = h
	}

	return &DispatchTable[Key, Arg, Res]{
		handlers: handlers,
		domain:   append([]Key(nil), domain...),
	}, nil
}

// MustBuildRegistry is BuildRegistry for tables defined at program start,
// where a coverage gap is a programming error.
func MustBuildRegistry[Key comparable, Arg, Res any](mapping map[Key]Handler[Arg, Res], domain []Key) *DispatchTable[Key, Arg, Res] {
	table, err := BuildRegistry(mapping, domain)
	if err != nil {
		panic(err)
	}
	return table
}

// Dispatch looks up and invokes the handler for key.
// A key outside the validated domain, possible only when the key arrives at
// runtime from outside the enumeration, returns a HandlerNotFoundError.
func (t *DispatchTable[Key, Arg, Res]) Dispatch(key Key, arg Arg) (Res, error) {
	handler, ok := t.handlers[key]
	if !ok {
		var zero Res
		return zero, &HandlerNotFoundError{Key: fmt.Sprintf("%v", key)}
	}
	return handler(arg), nil
}

// Covers reports whether the table has a handler for key.
func (t *DispatchTable[Key, Arg, Res]) Covers(key Key) bool {
	_, ok := t.handlers[key]
	return ok
}

// Domain returns a copy of the table's discriminator domain in the order it
// was supplied to BuildRegistry.
func (t *DispatchTable[Key, Arg, Res]) Domain() []Key {
	return append([]Key(nil), t.domain...)
}

// Len returns the number of handlers, which always equals the domain size.
func (t *DispatchTable[Key, Arg, Res]) Len() int {
	return len(t.handlers)
}

// Keys returns the handler keys formatted as strings, sorted. Intended for
// diagnostics and error reporting.
func (t *DispatchTable[Key, Arg, Res]) Keys() []string {
	keys := make([]string, 0, len(t.handlers))
	for k := range t.handlers {
		keys = append(keys, fmt.Sprintf("%v", k))
	}
	sort.Strings(keys)
	return keys
}
