// Package protobuf provides a Protocol Buffers value serializer for factlog.
//
// Only values that implement proto.Message can be serialized with this
// serializer. For plain Go values, use the JSON or MessagePack serializers.
//
// Usage:
//
//	s := protobuf.NewSerializer()
//	s.Register("UserProfile", &pb.UserProfile{})
//
//	store := factlog.New(adapter, factlog.WithSerializer(s))
package protobuf

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"google.golang.org/protobuf/proto"
)

var (
	// ErrNilValue indicates an attempt to serialize a nil value.
	ErrNilValue = errors.New("factlog/protobuf: cannot serialize nil value")

	// ErrEmptyData indicates an attempt to deserialize empty data.
	ErrEmptyData = errors.New("factlog/protobuf: cannot deserialize empty data")

	// ErrNotProtoMessage indicates the value does not implement proto.Message.
	ErrNotProtoMessage = errors.New("factlog/protobuf: value must implement proto.Message")

	// ErrTypeNotRegistered indicates the value type is not registered.
	ErrTypeNotRegistered = errors.New("factlog/protobuf: value type not registered")
)

// SerializationError provides detailed error information for serialization failures.
type SerializationError struct {
	// ValueType is the name of the value type that failed.
	ValueType string

	// Operation is either "serialize" or "deserialize".
	Operation string

	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("factlog/protobuf: failed to %s %s: %v", e.Operation, e.ValueType, e.Cause)
	}
	return fmt.Sprintf("factlog/protobuf: failed to %s %s", e.Operation, e.ValueType)
}

// Unwrap returns the underlying error.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches.
func (e *SerializationError) Is(target error) bool {
	switch target {
	case ErrNilValue, ErrEmptyData, ErrNotProtoMessage, ErrTypeNotRegistered:
		return errors.Is(e.Cause, target)
	}
	return false
}

// Serializer implements the factlog.ValueSerializer interface using Protocol
// Buffers. It maintains a registry of value types for deserialization.
type Serializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewSerializer creates a new Protocol Buffers serializer with an empty registry.
func NewSerializer() *Serializer {
	return &Serializer{
		registry: make(map[string]reflect.Type),
	}
}

// Register adds a mapping from valueType to the type of the example message.
// The example must implement proto.Message.
func (s *Serializer) Register(valueType string, example proto.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(example)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[valueType] = t
}

// Lookup returns the Go type for the given value type name.
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

// Serialize converts a proto.Message value to bytes.
func (s *Serializer) Serialize(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, &SerializationError{
			ValueType: "nil",
			Operation: "serialize",
			Cause:     ErrNilValue,
		}
	}

	msg, ok := value.(proto.Message)
	if !ok {
		return nil, &SerializationError{
			ValueType: reflect.TypeOf(value).String(),
			Operation: "serialize",
			Cause:     ErrNotProtoMessage,
		}
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, &SerializationError{
			ValueType: string(msg.ProtoReflect().Descriptor().FullName()),
			Operation: "serialize",
			Cause:     err,
		}
	}

	return data, nil
}

// Deserialize converts bytes back to a registered proto.Message value.
// The returned value is a pointer to the registered message type.
func (s *Serializer) Deserialize(data []byte, valueType string) (interface{}, error) {
	if len(data) == 0 {
		return nil, &SerializationError{
			ValueType: valueType,
			Operation: "deserialize",
			Cause:     ErrEmptyData,
		}
	}

	t, ok := s.Lookup(valueType)
	if !ok {
		return nil, &SerializationError{
			ValueType: valueType,
			Operation: "deserialize",
			Cause:     ErrTypeNotRegistered,
		}
	}

	msg, ok := reflect.New(t).Interface().(proto.Message)
	if !ok {
		return nil, &SerializationError{
			ValueType: valueType,
			Operation: "deserialize",
			Cause:     ErrNotProtoMessage,
		}
	}

	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, &SerializationError{
			ValueType: valueType,
			Operation: "deserialize",
			Cause:     err,
		}
	}

	return msg, nil
}
