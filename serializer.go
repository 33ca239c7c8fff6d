package factlog

import (
	"encoding/json"
	"reflect"
	"sync"
)

// ValueSerializer handles fact value serialization and deserialization.
// Values are opaque to the log itself; the serializer is the only component
// that interprets them.
type ValueSerializer interface {
	// Serialize converts a value to bytes.
	Serialize(value interface{}) ([]byte, error)

	// Deserialize converts bytes back to a value.
	// The valueType is used to determine the target type.
	Deserialize(data []byte, valueType string) (interface{}, error)
}

// ValueRegistry maps value type names to Go types.
// It is used by the JSONSerializer to deserialize values to the correct type.
type ValueRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewValueRegistry creates a new empty ValueRegistry.
func NewValueRegistry() *ValueRegistry {
	return &ValueRegistry{
		types: make(map[string]reflect.Type),
	}
}

// Register adds a mapping from valueType to the Go type of the example.
// The example should be a value (not a pointer) of the target type.
func (r *ValueRegistry) Register(valueType string, example interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := reflect.TypeOf(example)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.types[valueType] = t
}

// RegisterAll registers multiple value types using their struct names.
// Each example should be a value (not a pointer) of the target type.
func (r *ValueRegistry) RegisterAll(examples ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, example := range examples {
		t := reflect.TypeOf(example)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		r.types[t.Name()] = t
	}
}

// Lookup returns the Go type for the given value type name.
// Returns nil and false if the type is not registered.
func (r *ValueRegistry) Lookup(valueType string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[valueType]
	return t, ok
}

// RegisteredTypes returns a slice of all registered value type names.
func (r *ValueRegistry) RegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	return types
}

// JSONSerializer is the default ValueSerializer. It serializes values as
// JSON and uses a ValueRegistry to deserialize them back to concrete types.
// Unregistered types round-trip as the generic JSON shapes (string, float64,
// bool, map[string]interface{}, []interface{}).
type JSONSerializer struct {
	registry *ValueRegistry
}

// NewJSONSerializer creates a JSONSerializer with an empty registry.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{registry: NewValueRegistry()}
}

// Register adds a mapping from valueType to the Go type of the example.
func (s *JSONSerializer) Register(valueType string, example interface{}) {
	s.registry.Register(valueType, example)
}

// RegisterAll registers multiple value types using their struct names.
func (s *JSONSerializer) RegisterAll(examples ...interface{}) {
	s.registry.RegisterAll(examples...)
}

// Registry returns the underlying ValueRegistry.
func (s *JSONSerializer) Registry() *ValueRegistry {
	return s.registry
}

// Serialize converts a value to JSON bytes.
func (s *JSONSerializer) Serialize(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, NewSerializationError(TypeName(value), "serialize", err)
	}
	return data, nil
}

// Deserialize converts JSON bytes back to a value.
// If valueType is registered, a value of that type is returned; otherwise
// the generic JSON decoding is returned.
func (s *JSONSerializer) Deserialize(data []byte, valueType string) (interface{}, error) {
	if t, ok := s.registry.Lookup(valueType); ok {
		ptr := reflect.New(t)
		if err := json.Unmarshal(data, ptr.Interface()); err != nil {
			return nil, NewSerializationError(valueType, "deserialize", err)
		}
		return ptr.Elem().Interface(), nil
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, NewSerializationError(valueType, "deserialize", err)
	}
	return generic, nil
}

// TypeName returns the serializer type tag for a value: the struct name for
// named types, or the kind name for primitives and generic containers.
func TypeName(value interface{}) string {
	if value == nil {
		return ""
	}
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.Kind().String()
}
