package factlog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "assert", OpAssert.String())
		assert.Equal(t, "retract", OpRetract.String())
		assert.Equal(t, "unknown", Operation(42).String())
	})

	t.Run("IsValid", func(t *testing.T) {
		assert.True(t, OpAssert.IsValid())
		assert.True(t, OpRetract.IsValid())
		assert.False(t, Operation(42).IsValid())
	})

	t.Run("ParseOperation", func(t *testing.T) {
		op, err := ParseOperation("assert")
		require.NoError(t, err)
		assert.Equal(t, OpAssert, op)

		op, err = ParseOperation("retract")
		require.NoError(t, err)
		assert.Equal(t, OpRetract, op)

		_, err = ParseOperation("upsert")
		assert.Error(t, err)
	})
}

func TestFactConstructors(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Assert", func(t *testing.T) {
		f := Assert("user-1", "status", "active", at)
		assert.Equal(t, "user-1", f.Entity)
		assert.Equal(t, "status", f.Attribute)
		assert.Equal(t, "active", f.Value)
		assert.Equal(t, at, f.Time)
		assert.Equal(t, OpAssert, f.Operation)
	})

	t.Run("Retract", func(t *testing.T) {
		f := Retract("user-1", "status", at)
		assert.Equal(t, "user-1", f.Entity)
		assert.Equal(t, "status", f.Attribute)
		assert.Nil(t, f.Value)
		assert.Equal(t, OpRetract, f.Operation)
	})
}

func TestFactValidate(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		fact    Fact
		wantErr bool
	}{
		{"valid assert", Assert("user-1", "status", "active", at), false},
		{"valid retract", Retract("user-1", "status", at), false},
		{"missing entity", Assert("", "status", "active", at), true},
		{"missing attribute", Assert("user-1", "", "active", at), true},
		{"zero time", Assert("user-1", "status", "active", time.Time{}), true},
		{"assert without value", Fact{Entity: "user-1", Attribute: "status", Time: at, Operation: OpAssert}, true},
		{"unknown operation", Fact{Entity: "user-1", Attribute: "status", Time: at, Operation: Operation(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fact.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedFact))

				var mfe *MalformedFactError
				assert.True(t, errors.As(err, &mfe))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoredFactBefore(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("ordered by time", func(t *testing.T) {
		a := StoredFact{Time: t1, Seq: 5}
		b := StoredFact{Time: t2, Seq: 1}
		assert.True(t, a.Before(b))
		assert.False(t, b.Before(a))
	})

	t.Run("equal times fall back to seq", func(t *testing.T) {
		a := StoredFact{Time: t1, Seq: 1}
		b := StoredFact{Time: t1, Seq: 2}
		assert.True(t, a.Before(b))
		assert.False(t, b.Before(a))
	})

	t.Run("identical facts are not before each other", func(t *testing.T) {
		a := StoredFact{Time: t1, Seq: 1}
		assert.False(t, a.Before(a))
	})
}
