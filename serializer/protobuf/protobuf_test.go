package protobuf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestRegistry(t *testing.T) {
	s := NewSerializer()
	s.Register("StringValue", &wrapperspb.StringValue{})
	s.Register("Struct", &structpb.Struct{})

	assert.Equal(t, 2, s.Count())

	typ, ok := s.Lookup("StringValue")
	require.True(t, ok)
	assert.Equal(t, "StringValue", typ.Name())

	_, ok = s.Lookup("ghost")
	assert.False(t, ok)
}

func TestSerialize(t *testing.T) {
	t.Run("round-trips a registered message", func(t *testing.T) {
		s := NewSerializer()
		s.Register("StringValue", &wrapperspb.StringValue{})

		data, err := s.Serialize(wrapperspb.String("active"))
		require.NoError(t, err)

		decoded, err := s.Deserialize(data, "StringValue")
		require.NoError(t, err)

		msg, ok := decoded.(*wrapperspb.StringValue)
		require.True(t, ok)
		assert.Equal(t, "active", msg.GetValue())
	})

	t.Run("round-trips structured messages", func(t *testing.T) {
		s := NewSerializer()
		s.Register("Struct", &structpb.Struct{})

		original, err := structpb.NewStruct(map[string]interface{}{
			"city": "Springfield",
			"zip":  "12345",
		})
		require.NoError(t, err)

		data, err := s.Serialize(original)
		require.NoError(t, err)

		decoded, err := s.Deserialize(data, "Struct")
		require.NoError(t, err)

		msg, ok := decoded.(*structpb.Struct)
		require.True(t, ok)
		assert.True(t, proto.Equal(original, msg))
	})

	t.Run("nil values are rejected", func(t *testing.T) {
		s := NewSerializer()

		_, err := s.Serialize(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNilValue))
	})

	t.Run("non-proto values are rejected", func(t *testing.T) {
		s := NewSerializer()

		_, err := s.Serialize("plain string")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotProtoMessage))

		var se *SerializationError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "string", se.ValueType)
	})
}

func TestDeserialize(t *testing.T) {
	t.Run("empty data is rejected", func(t *testing.T) {
		s := NewSerializer()
		s.Register("StringValue", &wrapperspb.StringValue{})

		_, err := s.Deserialize(nil, "StringValue")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyData))
	})

	t.Run("unregistered types are rejected", func(t *testing.T) {
		s := NewSerializer()

		_, err := s.Deserialize([]byte{0x0a}, "Unknown")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTypeNotRegistered))

		var se *SerializationError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "Unknown", se.ValueType)
		assert.Equal(t, "deserialize", se.Operation)
	})

	t.Run("corrupt data fails with a wrapped cause", func(t *testing.T) {
		s := NewSerializer()
		s.Register("StringValue", &wrapperspb.StringValue{})

		_, err := s.Deserialize([]byte{0xff, 0xff, 0xff}, "StringValue")
		require.Error(t, err)

		var se *SerializationError
		require.ErrorAs(t, err, &se)
		assert.Error(t, se.Unwrap())
		assert.False(t, errors.Is(err, ErrEmptyData))
	})
}

func TestSerializationError(t *testing.T) {
	err := &SerializationError{ValueType: "StringValue", Operation: "serialize", Cause: ErrNilValue}

	assert.Contains(t, err.Error(), "serialize")
	assert.Contains(t, err.Error(), "StringValue")
	assert.True(t, errors.Is(err, ErrNilValue))
	assert.False(t, errors.Is(err, ErrEmptyData))
}
