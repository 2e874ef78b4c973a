package entity

import (
	"iter"
	"slices"
)

// Entity is a single record: a 64-bit identifier plus named attribute values.
//
// An entity may omit schema attributes and may carry attributes outside any
// particular schema; the store routes values by schema position and ignores
// the rest.
type Entity struct {
	id    int64
	names []string // insertion order, for deterministic iteration
	vals  map[string]Value
}

// New creates an entity with the given identifier.
func New(id int64) *Entity {
	return &Entity{
		id:   id,
		vals: make(map[string]Value),
	}
}

// ID returns the entity identifier.
func (e *Entity) ID() int64 { return e.id }

// Set stores an attribute value, replacing any previous value for the name.
// It returns the entity for chaining.
func (e *Entity) Set(name string, v Value) *Entity {
	if _, ok := e.vals[name]; !ok {
		e.names = append(e.names, name)
	}
	e.vals[name] = v
	return e
}

// Get returns the value for the named attribute.
func (e *Entity) Get(name string) (Value, bool) {
	v, ok := e.vals[name]
	return v, ok
}

// Len returns the number of attribute values set on the entity, not counting
// the identifier.
func (e *Entity) Len() int { return len(e.vals) }

// Attributes iterates over (name, value) pairs in insertion order.
func (e *Entity) Attributes() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range e.names {
			if !yield(name, e.vals[name]) {
				return
			}
		}
	}
}

// Equal reports whether two entities hold the same identifier and the same
// attribute values, regardless of insertion order.
func (e *Entity) Equal(o *Entity) bool {
	if e.id != o.id || len(e.vals) != len(o.vals) {
		return false
	}
	for name, v := range e.vals {
		ov, ok := o.vals[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Names returns the attribute names in insertion order.
func (e *Entity) Names() []string {
	return slices.Clone(e.names)
}
