package ecs

import (
	"fmt"
	"reflect"
)

type schemaField struct {
	name     string
	typeName string
	valueTyp reflect.Type
	get      func(any) any
	set      func(any, any)
}

// accepts reports whether v can be stored in the field. nil is only accepted by
// interface-typed fields.
func (f *schemaField) accepts(v any) bool {
	if v == nil {
		return f.valueTyp.Kind() == reflect.Interface
	}
	return reflect.TypeOf(v).AssignableTo(f.valueTyp)
}

// Schema is the field table of one component type: named getters and setters built
// once per type, used for generic import and export of component values.
type Schema struct {
	target reflect.Type
	fields []schemaField
	index  map[string]int
}

// NewSchema creates an empty schema for components of type *T.
func NewSchema[T any]() *Schema {
	return &Schema{
		target: reflect.TypeFor[*T](),
		index:  make(map[string]int),
	}
}

// Field adds a field to s. The schema must have been created for T.
func Field[T, V any](s *Schema, name string, get func(*T) V, set func(*T, V)) *Schema {
	if s.target != reflect.TypeFor[*T]() {
		panic("schema field " + name + " declared on " + reflect.TypeFor[*T]().String() +
			" but schema is for " + s.target.String())
	}
	if _, dup := s.index[name]; dup {
		panic("schema field " + name + " declared twice")
	}

	vt := reflect.TypeFor[V]()
	s.index[name] = len(s.fields)
	s.fields = append(s.fields, schemaField{
		name:     name,
		typeName: vt.String(),
		valueTyp: vt,
		get: func(target any) any {
			return get(target.(*T))
		},
		set: func(target any, v any) {
			val, ok := v.(V)
			if !ok && v != nil {
				val = reflect.ValueOf(v).Convert(vt).Interface().(V)
			}
			set(target.(*T), val)
		},
	})
	return s
}

// Target returns the pointer type the schema reads and writes.
func (s *Schema) Target() reflect.Type {
	return s.target
}

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// TypeName returns the Go type name of a field's value.
func (s *Schema) TypeName(name string) (string, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.fields[i].typeName, true
}

func (s *Schema) check(target any) error {
	if reflect.TypeOf(target) != s.target {
		return fmt.Errorf("%w: want %s, got %T", ErrComponentTypeMismatch, s.target, target)
	}
	return nil
}

func (s *Schema) field(name string) (*schemaField, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrFieldUnknown, s.target.Elem().Name(), name)
	}
	return &s.fields[i], nil
}

// Get reads a field from target.
func (s *Schema) Get(target any, name string) (any, error) {
	if err := s.check(target); err != nil {
		return nil, err
	}
	f, err := s.field(name)
	if err != nil {
		return nil, err
	}
	return f.get(target), nil
}

// Set writes a field on target. v must have exactly the field's type.
func (s *Schema) Set(target any, name string, v any) error {
	if err := s.check(target); err != nil {
		return err
	}
	f, err := s.field(name)
	if err != nil {
		return err
	}
	if !f.accepts(v) {
		return fmt.Errorf("%w: %s wants %s, got %T", ErrFieldType, name, f.typeName, v)
	}
	f.set(target, v)
	return nil
}

// Export reads every field of target.
func (s *Schema) Export(target any) (map[string]any, error) {
	if err := s.check(target); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		out[f.name] = f.get(target)
	}
	return out, nil
}

// Import writes the given values onto target. Every key must name a field and
// every value must have the field's type; nothing is written if any entry is rejected.
func (s *Schema) Import(target any, values map[string]any) error {
	if err := s.check(target); err != nil {
		return err
	}
	for name, v := range values {
		f, err := s.field(name)
		if err != nil {
			return err
		}
		if !f.accepts(v) {
			return fmt.Errorf("%w: %s wants %s, got %T", ErrFieldType, name, f.typeName, v)
		}
	}
	for name, v := range values {
		s.fields[s.index[name]].set(target, v)
	}
	return nil
}
