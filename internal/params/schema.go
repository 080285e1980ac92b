// Package params defines catalog parameter schemas: the declared, ordered
// set of typed parameters every entry must carry, the coercion of raw
// string values into typed ones, and the canonical index key built from a
// coerced parameter set.
package params

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Type is a declared parameter type.
type Type string

const (
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
	TypeBool   Type = "bool"
)

// ParseType resolves a type name from a schema declaration.
func ParseType(name string) (Type, error) {
	switch Type(name) {
	case TypeInt, TypeFloat, TypeString, TypeBool:
		return Type(name), nil
	default:
		return "", errors.Wrapf(ErrUnknownType, "%q (want int, float, string, or bool)", name)
	}
}

// Field is one declared parameter. Default, when set, is a raw value
// applied whenever the parameter is omitted from an input set.
type Field struct {
	Name    string
	Type    Type
	Default *string
}

// Schema is an ordered parameter declaration. Declaration order is
// load-bearing: canonical keys list parameters in this order.
type Schema struct {
	fields []Field
	byName map[string]int
}

// NewSchema validates the declaration and builds a schema. Names must be
// unique, non-empty, and free of the key separator sequences; defaults
// must coerce to their declared type.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := s.add(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a new parameter to the schema. The field must carry a
// default so existing entries can be re-keyed under the grown schema.
func (s *Schema) Add(f Field) error {
	if f.Default == nil {
		return errors.Newf("parameter %q needs a default to be added to an existing schema", f.Name)
	}
	return s.add(f)
}

func (s *Schema) add(f Field) error {
	if f.Name == "" {
		return errors.New("parameter name must not be empty")
	}
	if strings.Contains(f.Name, pairSep) || strings.Contains(f.Name, itemSep) {
		return errors.Newf("parameter name %q must not contain %q or %q", f.Name, pairSep, itemSep)
	}
	if _, dup := s.byName[f.Name]; dup {
		return errors.Newf("parameter %q declared twice", f.Name)
	}
	if _, err := ParseType(string(f.Type)); err != nil {
		return errors.Wrapf(err, "parameter %q", f.Name)
	}
	if f.Default != nil {
		if _, err := f.Type.Coerce(*f.Default); err != nil {
			return errors.Wrapf(err, "default for parameter %q", f.Name)
		}
	}
	s.byName[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
	return nil
}

// Clone returns an independent copy of the schema.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		fields: make([]Field, len(s.fields)),
		byName: make(map[string]int, len(s.byName)),
	}
	copy(out.fields, s.fields)
	for name, i := range s.byName {
		out.byName[name] = i
	}
	return out
}

// Fields returns the declaration in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the declared parameter names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Len returns the number of declared parameters.
func (s *Schema) Len() int { return len(s.fields) }

// Lookup returns the declaration for name.
func (s *Schema) Lookup(name string) (Field, error) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, errors.Wrapf(ErrUnknownParameter, "%q (declared: %s)", name, strings.Join(s.Names(), ", "))
	}
	return s.fields[i], nil
}
