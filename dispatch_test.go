package factlog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountState int

const (
	statePending accountState = iota
	stateActive
	stateClosed
)

func (s accountState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var accountStates = []accountState{statePending, stateActive, stateClosed}

func TestBuildRegistry(t *testing.T) {
	t.Run("accepts exact coverage", func(t *testing.T) {
		table, err := BuildRegistry(map[accountState]Handler[int, string]{
			statePending: func(int) string { return "pending" },
			stateActive:  func(int) string { return "active" },
			stateClosed:  func(int) string { return "closed" },
		}, accountStates)

		require.NoError(t, err)
		assert.Equal(t, 3, table.Len())
	})

	t.Run("rejects missing handlers, naming them", func(t *testing.T) {
		_, err := BuildRegistry(map[accountState]Handler[int, string]{
			statePending: func(int) string { return "pending" },
			stateActive:  func(int) string { return "active" },
		}, accountStates)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteCoverage))

		var ce *CoverageError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{"closed"}, ce.Missing)
		assert.Empty(t, ce.Extraneous)
	})

	t.Run("rejects extraneous handlers", func(t *testing.T) {
		_, err := BuildRegistry(map[accountState]Handler[int, string]{
			statePending:    func(int) string { return "pending" },
			stateActive:     func(int) string { return "active" },
			stateClosed:     func(int) string { return "closed" },
			accountState(9): func(int) string { return "stray" },
		}, accountStates)

		var ce *CoverageError
		require.ErrorAs(t, err, &ce)
		assert.Empty(t, ce.Missing)
		assert.Equal(t, []string{"unknown"}, ce.Extraneous)
	})

	t.Run("nil handlers count as missing", func(t *testing.T) {
		_, err := BuildRegistry(map[accountState]Handler[int, string]{
			statePending: func(int) string { return "pending" },
			stateActive:  nil,
			stateClosed:  func(int) string { return "closed" },
		}, accountStates)

		var ce *CoverageError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Missing, "active")
	})

	t.Run("validation happens before any dispatch", func(t *testing.T) {
		invoked := false
		_, err := BuildRegistry(map[accountState]Handler[int, string]{
			statePending: func(int) string { invoked = true; return "" },
		}, accountStates)

		require.Error(t, err)
		assert.False(t, invoked)
	})
}

func TestMustBuildRegistry(t *testing.T) {
	t.Run("returns the table on full coverage", func(t *testing.T) {
		table := MustBuildRegistry(map[accountState]Handler[int, string]{
			statePending: func(int) string { return "pending" },
			stateActive:  func(int) string { return "active" },
			stateClosed:  func(int) string { return "closed" },
		}, accountStates)
		assert.NotNil(t, table)
	})

	t.Run("panics on a coverage gap", func(t *testing.T) {
		assert.Panics(t, func() {
			MustBuildRegistry(map[accountState]Handler[int, string]{
				statePending: func(int) string { return "pending" },
			}, accountStates)
		})
	})
}

func TestDispatch(t *testing.T) {
	calls := map[accountState]int{}
	table := MustBuildRegistry(map[accountState]Handler[int, string]{
		statePending: func(n int) string { calls[statePending]++; return "pending" },
		stateActive:  func(n int) string { calls[stateActive]++; return "active" },
		stateClosed:  func(n int) string { calls[stateClosed]++; return "closed" },
	}, accountStates)

	t.Run("selects exactly the mapped handler", func(t *testing.T) {
		for _, state := range accountStates {
			res, err := table.Dispatch(state, 0)
			require.NoError(t, err)
			assert.Equal(t, state.String(), res)
		}
		for _, state := range accountStates {
			assert.Equal(t, 1, calls[state], "each handler invoked exactly once")
		}
	})

	t.Run("unknown runtime key returns HandlerNotFoundError", func(t *testing.T) {
		_, err := table.Dispatch(accountState(99), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHandlerNotFound))

		var hnf *HandlerNotFoundError
		require.ErrorAs(t, err, &hnf)
		assert.Equal(t, "unknown", hnf.Key)
	})
}

func TestDispatchTableInspection(t *testing.T) {
	table := MustBuildRegistry(map[accountState]Handler[int, string]{
		statePending: func(int) string { return "" },
		stateActive:  func(int) string { return "" },
		stateClosed:  func(int) string { return "" },
	}, accountStates)

	t.Run("Covers", func(t *testing.T) {
		assert.True(t, table.Covers(stateActive))
		assert.False(t, table.Covers(accountState(99)))
	})

	t.Run("Domain preserves supplied order and is a copy", func(t *testing.T) {
		domain := table.Domain()
		assert.Equal(t, accountStates, domain)

		domain[0] = stateClosed
		assert.Equal(t, accountStates, table.Domain())
	})

	t.Run("Keys are sorted strings", func(t *testing.T) {
		assert.Equal(t, []string{"active", "closed", "pending"}, table.Keys())
	})
}

func TestDispatchWithStringKeys(t *testing.T) {
	// Dispatch keys are any comparable type; wire-format discriminators
	// arrive as strings.
	domain := []string{"assert", "retract"}
	table, err := BuildRegistry(map[string]Handler[Fact, string]{
		"assert":  func(f Fact) string { return "+" + f.Attribute },
		"retract": func(f Fact) string { return "-" + f.Attribute },
	}, domain)
	require.NoError(t, err)

	res, err := table.Dispatch("retract", Fact{Attribute: "status"})
	require.NoError(t, err)
	assert.Equal(t, "-status", res)
}
