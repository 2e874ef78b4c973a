package entity

import (
	"errors"
	"fmt"
)

// Type is the entity type tag of a collection (e.g. "rating", "user").
type Type string

// AttributeType declares the value type of a schema attribute.
type AttributeType uint8

const (
	TypeAny AttributeType = iota
	TypeInt
	TypeInt32
	TypeFloat
	TypeString
	TypeBool
)

// String returns the string representation of the AttributeType.
func (t AttributeType) String() string {
	switch t {
	case TypeAny:
		return "Any"
	case TypeInt:
		return "Int"
	case TypeInt32:
		return "Int32"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// Compatible reports whether a value of the given kind may be stored under
// this attribute type. Null is always storable.
func (t AttributeType) Compatible(k Kind) bool {
	if k == KindNull {
		return true
	}
	switch t {
	case TypeAny:
		return true
	case TypeInt:
		return k == KindInt
	case TypeInt32:
		return k == KindInt32
	case TypeFloat:
		return k == KindFloat || k == KindInt // Allow upgrading Int to Float
	case TypeString:
		return k == KindString
	case TypeBool:
		return k == KindBool
	}
	return false
}

// Attribute is a named, typed schema position.
type Attribute struct {
	Name string
	Type AttributeType
}

// IDAttribute is the distinguished identifier attribute. Every schema must
// carry it at position 0.
var IDAttribute = Attribute{Name: "id", Type: TypeInt}

// MaxAttributes bounds the schema size. Attribute positions are used as
// bitmask indices elsewhere, so they must fit 31 bits of mask.
const MaxAttributes = 31

var (
	// ErrEmptySchema is returned when a schema has no attributes.
	ErrEmptySchema = errors.New("entity: attribute set is empty")
	// ErrSchemaTooLarge is returned when a schema exceeds MaxAttributes.
	ErrSchemaTooLarge = fmt.Errorf("entity: cannot have more than %d attributes", MaxAttributes)
	// ErrNotIDAttribute is returned when position 0 is not the ID attribute.
	ErrNotIDAttribute = errors.New("entity: attribute set does not start with the entity ID attribute")
)

// Schema is an ordered, immutable set of attribute descriptors.
// Positions are stable for the lifetime of any builder constructed from it.
type Schema struct {
	attrs  []Attribute
	byName map[string]int
}

// NewSchema creates a schema from the given attributes.
//
// The schema must contain at least one and fewer than 32 attributes, and its
// first attribute must be IDAttribute.
func NewSchema(attrs ...Attribute) (*Schema, error) {
	if len(attrs) == 0 {
		return nil, ErrEmptySchema
	}
	if len(attrs) > MaxAttributes {
		return nil, ErrSchemaTooLarge
	}
	if attrs[0] != IDAttribute {
		return nil, ErrNotIDAttribute
	}

	s := &Schema{
		attrs:  make([]Attribute, len(attrs)),
		byName: make(map[string]int, len(attrs)),
	}
	copy(s.attrs, attrs)
	for i, a := range s.attrs {
		if _, ok := s.byName[a.Name]; ok {
			return nil, fmt.Errorf("entity: duplicate attribute %q", a.Name)
		}
		s.byName[a.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for tests and
// statically-known schemas.
func MustSchema(attrs ...Attribute) *Schema {
	s, err := NewSchema(attrs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of attributes.
func (s *Schema) Len() int { return len(s.attrs) }

// Attribute returns the attribute at the given position.
func (s *Schema) Attribute(pos int) Attribute { return s.attrs[pos] }

// Lookup returns the position of the named attribute, or -1 if absent.
func (s *Schema) Lookup(name string) int {
	pos, ok := s.byName[name]
	if !ok {
		return -1
	}
	return pos
}

// Attributes returns a copy of the attribute list.
func (s *Schema) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}
