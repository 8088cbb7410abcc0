package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/zeusync/snapshot/internal/core/models"
)

// EncodeFunc converts one component value into its JSON form.
// A nil result is written as null.
type EncodeFunc func(value any) (json.RawMessage, error)

// DecodeFunc rebuilds a component from its JSON form. Every entity reference
// inside the component must be rewritten through m.
type DecodeFunc func(data json.RawMessage, m Mapper) (any, error)

// Codec describes one component type taking part in save and load.
type Codec struct {
	Name   string
	Encode EncodeFunc
	Decode DecodeFunc
}

// Mapper rewrites entity references found inside a component being decoded.
type Mapper interface {
	Map(ref models.EntityID) (models.EntityID, error)
}

// EntityMapper is implemented by component types that embed entity references.
// MapEntities is called on a pointer to the freshly decoded value.
type EntityMapper interface {
	MapEntities(m Mapper) error
}

// Registry is the ordered list of persisted component types.
// Document keys follow registration order.
type Registry struct {
	codecs []Codec
	index  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) Add(c Codec) error {
	if c.Name == "" {
		return ErrInvalidTypeName
	}
	if c.Encode == nil || c.Decode == nil {
		return fmt.Errorf("%s: %w", c.Name, ErrInvalidCodec)
	}
	if _, exists := r.index[c.Name]; exists {
		return fmt.Errorf("%s: %w", c.Name, ErrAlreadyRegistered)
	}
	r.index[c.Name] = len(r.codecs)
	r.codecs = append(r.codecs, c)
	return nil
}

func (r *Registry) Lookup(name string) (Codec, bool) {
	i, ok := r.index[name]
	if !ok {
		return Codec{}, false
	}
	return r.codecs[i], true
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.codecs))
	for i, c := range r.codecs {
		names[i] = c.Name
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.codecs)
}

// Register adds T under its Go type name using the JSON codec.
func Register[T any](r *Registry) error {
	return r.Add(JSONCodec[T](TypeName[T]()))
}

// RegisterAs adds T under an explicit name using the JSON codec.
func RegisterAs[T any](r *Registry, name string) error {
	return r.Add(JSONCodec[T](name))
}

// MustRegister is Register for static registries built at startup.
func MustRegister[T any](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}

// TypeName is the unqualified Go name of T, e.g. "Position" for components.Position.
func TypeName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// JSONCodec builds a codec that stores T with encoding/json.
// Struct types without fields are written as null. Values are accepted as T
// or *T on encode and always produced as T on decode. null decodes to the
// zero T for empty structs and for slice, map, pointer and interface types.
func JSONCodec[T any](name string) Codec {
	t := reflect.TypeFor[T]()
	empty := isEmptyStruct(t)
	nullable := empty || isNilable(t)

	encode := func(value any) (json.RawMessage, error) {
		component, ok := value.(T)
		if !ok {
			ptr, isPtr := value.(*T)
			if !isPtr || ptr == nil {
				return nil, fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, name, value)
			}
			component = *ptr
		}
		if empty {
			return nil, nil
		}
		return json.Marshal(component)
	}

	decode := func(data json.RawMessage, m Mapper) (any, error) {
		var component T
		if isNull(data) {
			if nullable {
				return component, nil
			}
			return nil, ErrMissingValue
		}
		if err := json.Unmarshal(data, &component); err != nil {
			return nil, err
		}
		if mapper, ok := any(&component).(EntityMapper); ok {
			if err := mapper.MapEntities(m); err != nil {
				return nil, err
			}
		}
		return component, nil
	}

	return Codec{Name: name, Encode: encode, Decode: decode}
}

func isEmptyStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return true
	default:
		return false
	}
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
