package store

import (
	"github.com/hupe1980/entigo/entity"
)

// Index is an immutable value-to-position lookup for one attribute.
type Index interface {
	// Positions returns the set of record positions holding the given value.
	// The returned set may alias internal memory; do not modify.
	Positions(v entity.Value) *PositionSet
	// Values returns the number of distinct indexed values.
	Values() int
}

// IndexBuilder accumulates value-to-position associations for one attribute.
// Null values are not indexed; an absent attribute cannot be looked up.
type IndexBuilder interface {
	// Add associates a value with a record position.
	Add(v entity.Value, pos int)
	// Build produces the immutable index.
	Build() Index
}

// NewIndexBuilder selects the index kind for the given declared attribute
// type: primitive int64 keys for integer attributes, stringified value keys
// for everything else.
func NewIndexBuilder(t entity.AttributeType) IndexBuilder {
	if t == entity.TypeInt {
		return newLongIndexBuilder()
	}
	return newGenericIndexBuilder()
}

var emptyPositions = NewPositionSet()

// longIndexBuilder keys positions by raw int64, avoiding boxing on the
// integer attribute hot path.
type longIndexBuilder struct {
	m map[int64]*PositionSet
}

func newLongIndexBuilder() *longIndexBuilder {
	return &longIndexBuilder{m: make(map[int64]*PositionSet)}
}

func (b *longIndexBuilder) Add(v entity.Value, pos int) {
	iv, ok := v.AsInt64()
	if !ok {
		return
	}
	set, ok := b.m[iv]
	if !ok {
		set = NewPositionSet()
		b.m[iv] = set
	}
	set.Add(uint32(pos))
}

func (b *longIndexBuilder) Build() Index {
	m := make(map[int64]*PositionSet, len(b.m))
	for k, set := range b.m {
		m[k] = set.Clone()
	}
	return &longIndex{m: m}
}

type longIndex struct {
	m map[int64]*PositionSet
}

func (ix *longIndex) Positions(v entity.Value) *PositionSet {
	iv, ok := v.AsInt64()
	if !ok {
		return emptyPositions
	}
	set, ok := ix.m[iv]
	if !ok {
		return emptyPositions
	}
	return set
}

func (ix *longIndex) Values() int { return len(ix.m) }

// genericIndexBuilder keys positions by the stable Value.Key string, so any
// value kind can be indexed.
type genericIndexBuilder struct {
	m map[string]*PositionSet
}

func newGenericIndexBuilder() *genericIndexBuilder {
	return &genericIndexBuilder{m: make(map[string]*PositionSet)}
}

func (b *genericIndexBuilder) Add(v entity.Value, pos int) {
	if v.IsNull() {
		return
	}
	key := v.Key()
	set, ok := b.m[key]
	if !ok {
		set = NewPositionSet()
		b.m[key] = set
	}
	set.Add(uint32(pos))
}

func (b *genericIndexBuilder) Build() Index {
	m := make(map[string]*PositionSet, len(b.m))
	for k, set := range b.m {
		m[k] = set.Clone()
	}
	return &genericIndex{m: m}
}

type genericIndex struct {
	m map[string]*PositionSet
}

func (ix *genericIndex) Positions(v entity.Value) *PositionSet {
	if v.IsNull() {
		return emptyPositions
	}
	set, ok := ix.m[v.Key()]
	if !ok {
		return emptyPositions
	}
	return set
}

func (ix *genericIndex) Values() int { return len(ix.m) }
