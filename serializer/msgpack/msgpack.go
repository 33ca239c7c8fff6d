// Package msgpack provides a MessagePack value serializer for factlog.
//
// MessagePack is a binary serialization format that produces smaller payloads
// than JSON while maintaining similar flexibility. It's particularly useful
// for attribute-heavy logs with high append rates.
//
// Basic usage:
//
//	s := msgpack.NewSerializer()
//	s.Register("Address", Address{})
//
//	store := factlog.New(adapter, factlog.WithSerializer(s))
package msgpack

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Serializer is a MessagePack implementation of factlog.ValueSerializer.
// It provides efficient binary serialization with type registry support.
type Serializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewSerializer creates a new MessagePack Serializer with an empty registry.
func NewSerializer() *Serializer {
	return &Serializer{
		registry: make(map[string]reflect.Type),
	}
}

// Register adds a mapping from valueType to the Go type of the example.
// The example should be a value (not a pointer) of the target type.
func (s *Serializer) Register(valueType string, example interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(example)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[valueType] = t
}

// RegisterAll registers multiple value types using their struct names.
// Each example should be a value (not a pointer) of the target type.
func (s *Serializer) RegisterAll(examples ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, example := range examples {
		t := reflect.TypeOf(example)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		s.registry[t.Name()] = t
	}
}

// Lookup returns the Go type for the given value type name.
// Returns nil and false if the type is not registered.
func (s *Serializer) Lookup(valueType string) (reflect.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.registry[valueType]
	return t, ok
}

// Count returns the number of registered value types.
func (s *Serializer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

// Serialize converts a value to MessagePack bytes.
func (s *Serializer) Serialize(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, &SerializationError{
			ValueType: "nil",
			Operation: "serialize",
			Err:       fmt.Errorf("value cannot be nil"),
		}
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, &SerializationError{
			ValueType: reflect.TypeOf(value).Name(),
			Operation: "serialize",
			Err:       err,
		}
	}

	return data, nil
}

// Deserialize converts MessagePack bytes back to a value.
// If the value type is registered, returns a value of that type.
// Otherwise, falls back to generic decoding.
func (s *Serializer) Deserialize(data []byte, valueType string) (interface{}, error) {
	if len(data) == 0 {
		return nil, &SerializationError{
			ValueType: valueType,
			Operation: "deserialize",
			Err:       fmt.Errorf("data cannot be empty"),
		}
	}

	t, ok := s.Lookup(valueType)
	if !ok {
		var generic interface{}
		if err := msgpack.Unmarshal(data, &generic); err != nil {
			return nil, &SerializationError{
				ValueType: valueType,
				Operation: "deserialize",
				Err:       err,
			}
		}
		return generic, nil
	}

	ptr := reflect.New(t)
	if err := msgpack.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, &SerializationError{
			ValueType: valueType,
			Operation: "deserialize",
			Err:       err,
		}
	}

	return ptr.Elem().Interface(), nil
}

// SerializationError represents a serialization or deserialization error.
type SerializationError struct {
	ValueType string
	Operation string // "serialize" or "deserialize"
	Err       error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("factlog/msgpack: failed to %s value %s: %v", e.Operation, e.ValueType, e.Err)
}

// Unwrap returns the underlying error.
func (e *SerializationError) Unwrap() error {
	return e.Err
}
