package factlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	t.Run("Get and Lookup", func(t *testing.T) {
		s := Snapshot{"status": "active", "age": 42}

		assert.Equal(t, "active", s.Get("status"))
		assert.Nil(t, s.Get("missing"))

		v, ok := s.Lookup("age")
		require.True(t, ok)
		assert.Equal(t, 42, v)

		_, ok = s.Lookup("missing")
		assert.False(t, ok)
	})

	t.Run("Has", func(t *testing.T) {
		s := Snapshot{"status": "active"}
		assert.True(t, s.Has("status"))
		assert.False(t, s.Has("missing"))
	})

	t.Run("Attributes are sorted", func(t *testing.T) {
		s := Snapshot{"zeta": 1, "alpha": 2, "mid": 3}
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.Attributes())
	})

	t.Run("Len and IsEmpty", func(t *testing.T) {
		assert.True(t, Snapshot{}.IsEmpty())
		assert.Equal(t, 0, Snapshot{}.Len())

		s := Snapshot{"a": 1}
		assert.False(t, s.IsEmpty())
		assert.Equal(t, 1, s.Len())
	})

	t.Run("Clone is independent", func(t *testing.T) {
		s := Snapshot{"status": "active"}
		c := s.Clone()

		c["status"] = "closed"
		c["extra"] = true

		assert.Equal(t, "active", s.Get("status"))
		assert.False(t, s.Has("extra"))
	})

	t.Run("Equal", func(t *testing.T) {
		a := Snapshot{"status": "active", "tags": []interface{}{"x", "y"}}
		b := Snapshot{"status": "active", "tags": []interface{}{"x", "y"}}
		c := Snapshot{"status": "closed", "tags": []interface{}{"x", "y"}}

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
		assert.False(t, a.Equal(Snapshot{"status": "active"}))
		assert.True(t, Snapshot{}.Equal(Snapshot{}))
	})
}
