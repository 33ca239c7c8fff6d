package factlog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

func TestJSONSerializer(t *testing.T) {
	t.Run("round-trips registered types", func(t *testing.T) {
		s := NewJSONSerializer()
		s.RegisterAll(testAddress{})

		original := testAddress{Street: "1 Main St", City: "Springfield"}
		data, err := s.Serialize(original)
		require.NoError(t, err)

		decoded, err := s.Deserialize(data, "testAddress")
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	})

	t.Run("unregistered types decode generically", func(t *testing.T) {
		s := NewJSONSerializer()

		data, err := s.Serialize(testAddress{Street: "1 Main St", City: "Springfield"})
		require.NoError(t, err)

		decoded, err := s.Deserialize(data, "testAddress")
		require.NoError(t, err)

		m, ok := decoded.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "1 Main St", m["street"])
	})

	t.Run("primitives round-trip", func(t *testing.T) {
		s := NewJSONSerializer()

		data, err := s.Serialize("active")
		require.NoError(t, err)

		decoded, err := s.Deserialize(data, "string")
		require.NoError(t, err)
		assert.Equal(t, "active", decoded)
	})

	t.Run("deserialize failure is a SerializationError", func(t *testing.T) {
		s := NewJSONSerializer()

		_, err := s.Deserialize([]byte("{not json"), "string")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSerializationFailed))

		var se *SerializationError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "deserialize", se.Operation)
	})

	t.Run("serialize failure is a SerializationError", func(t *testing.T) {
		s := NewJSONSerializer()

		_, err := s.Serialize(make(chan int))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSerializationFailed))
	})
}

func TestValueRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		r := NewValueRegistry()
		r.Register("Address", testAddress{})

		typ, ok := r.Lookup("Address")
		require.True(t, ok)
		assert.Equal(t, "testAddress", typ.Name())

		_, ok = r.Lookup("Unknown")
		assert.False(t, ok)
	})

	t.Run("register by pointer uses element type", func(t *testing.T) {
		r := NewValueRegistry()
		r.Register("Address", &testAddress{})

		typ, ok := r.Lookup("Address")
		require.True(t, ok)
		assert.Equal(t, "testAddress", typ.Name())
	})

	t.Run("RegisterAll uses struct names", func(t *testing.T) {
		r := NewValueRegistry()
		r.RegisterAll(testAddress{})

		_, ok := r.Lookup("testAddress")
		assert.True(t, ok)
		assert.Equal(t, []string{"testAddress"}, r.RegisteredTypes())
	})
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "", TypeName(nil))
	assert.Equal(t, "string", TypeName("x"))
	assert.Equal(t, "int", TypeName(42))
	assert.Equal(t, "float64", TypeName(1.5))
	assert.Equal(t, "testAddress", TypeName(testAddress{}))
	assert.Equal(t, "testAddress", TypeName(&testAddress{}))
	assert.Equal(t, "map", TypeName(map[string]interface{}{}))
	assert.Equal(t, "slice", TypeName([]string{}))
}
