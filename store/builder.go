package store

import (
	"fmt"
	"math"

	"github.com/hupe1980/entigo/entity"
)

// PackedBuilder accumulates entities of one type into per-attribute shards
// and finalizes them into an immutable PackedCollection.
//
// Entities added in non-decreasing identifier order take a sorted fast path:
// duplicates are detected with a binary search over the identifier shard.
// The first out-of-order identifier permanently switches the builder to a
// hash-set fallback, backfilled once from the identifier shard and kept
// current incrementally. Build refuses to finalize an unsorted builder;
// Entities still produces an index-less view.
type PackedBuilder struct {
	entityType entity.Type
	schema     *entity.Schema
	idStore    *longShardBuilder
	stores     []ShardBuilder
	indexes    []IndexBuilder
	ids        map[int64]struct{} // lazily built when sort order first breaks
	sorted     bool
	size       int
	lastID     int64
}

// NewPackedBuilder creates a builder for the given entity type and schema.
//
// The schema must contain at least one and fewer than 32 attributes, with
// the entity ID attribute at position 0.
func NewPackedBuilder(et entity.Type, schema *entity.Schema) (*PackedBuilder, error) {
	if schema == nil || schema.Len() == 0 {
		return nil, entity.ErrEmptySchema
	}
	if schema.Len() > entity.MaxAttributes {
		return nil, entity.ErrSchemaTooLarge
	}
	if schema.Attribute(0) != entity.IDAttribute {
		return nil, entity.ErrNotIDAttribute
	}

	n := schema.Len()
	b := &PackedBuilder{
		entityType: et,
		schema:     schema,
		idStore:    newLongShardBuilder(),
		stores:     make([]ShardBuilder, n),
		indexes:    make([]IndexBuilder, n),
		sorted:     true,
		lastID:     math.MinInt64,
	}
	b.stores[0] = b.idStore
	for i := 1; i < n; i++ {
		b.stores[i] = NewShardBuilder(schema.Attribute(i).Type)
	}
	return b, nil
}

// EntityType returns the entity type tag.
func (b *PackedBuilder) EntityType() entity.Type { return b.entityType }

// Schema returns the builder's schema.
func (b *PackedBuilder) Schema() *entity.Schema { return b.schema }

// Size returns the number of entities ingested so far.
func (b *PackedBuilder) Size() int { return b.size }

// Sorted reports whether every identifier so far arrived in non-decreasing
// order. Once false it stays false.
func (b *PackedBuilder) Sorted() bool { return b.sorted }

// AddIndex registers a value-to-position index for the named attribute and
// backfills it from all entities ingested so far. Requesting an index for an
// attribute outside the schema is a no-op. Returns the builder for chaining.
func (b *PackedBuilder) AddIndex(name string) *PackedBuilder {
	pos := b.schema.Lookup(name)
	if pos < 0 || b.indexes[pos] != nil {
		return b
	}
	ib := NewIndexBuilder(b.schema.Attribute(pos).Type)
	for i := 0; i < b.size; i++ {
		ib.Add(b.stores[pos].Get(i), i)
	}
	b.indexes[pos] = ib
	return b
}

// Indexed reports whether the named attribute has an index registered.
func (b *PackedBuilder) Indexed(name string) bool {
	pos := b.schema.Lookup(name)
	return pos >= 0 && b.indexes[pos] != nil
}

// Add ingests one entity. Attribute values are routed to their schema
// positions; schema attributes the entity omits are padded with the absent
// marker so every shard stays aligned with the record count. Attributes
// outside the schema are ignored.
//
// If the identifier already exists, Add is a no-op when replace is false and
// returns ErrReplaceUnsupported when replace is true: packed shards are
// append-only and cannot honor a replace. A failing Add leaves the builder
// unchanged.
func (b *PackedBuilder) Add(e *entity.Entity, replace bool) error {
	id := e.ID()
	b.sorted = b.sorted && id >= b.lastID

	if !b.sorted {
		if b.ids == nil {
			ids := make(map[int64]struct{}, b.size)
			for i := 0; i < b.size; i++ {
				ids[b.idStore.Int64At(i)] = struct{}{}
			}
			b.ids = ids
		}
		if _, ok := b.ids[id]; ok {
			if replace {
				return fmt.Errorf("%w: id %d", ErrReplaceUnsupported, id)
			}
			return nil // existing entity wins
		}
	} else {
		res := Search(0, b.size, func(pos int) int {
			return compareInt64(id, b.idStore.Int64At(pos))
		})
		if res >= 0 {
			if replace {
				return fmt.Errorf("%w: id %d", ErrReplaceUnsupported, id)
			}
			return nil
		}
	}

	// Validate before mutating any shard, so a rejected entity leaves all
	// shards aligned.
	for name, v := range e.Attributes() {
		ap := b.schema.Lookup(name)
		if ap <= 0 {
			continue
		}
		if attr := b.schema.Attribute(ap); v.Kind == entity.KindInvalid || !attr.Type.Compatible(v.Kind) {
			return &TypeMismatchError{Attribute: attr.Name, Declared: attr.Type, Kind: v.Kind}
		}
	}

	if err := b.idStore.Add(entity.Int(id)); err != nil {
		return err
	}
	if b.indexes[0] != nil {
		b.indexes[0].Add(entity.Int(id), b.size)
	}
	for name, v := range e.Attributes() {
		ap := b.schema.Lookup(name)
		if ap <= 0 {
			continue // the identifier is routed explicitly above
		}
		v = normalizeValue(b.schema.Attribute(ap).Type, v)
		if err := b.stores[ap].Add(v); err != nil {
			return err
		}
		if b.indexes[ap] != nil {
			b.indexes[ap].Add(v, b.size)
		}
	}

	b.size++
	b.lastID = id
	if b.ids != nil {
		b.ids[id] = struct{}{}
	}

	for _, sb := range b.stores {
		if sb.Size() < b.size {
			sb.Skip()
		}
	}

	return nil
}

// Build finalizes every shard and index into an immutable PackedCollection.
//
// It returns ErrUnsortedBuild if the identifiers did not arrive in
// non-decreasing order; an indexed collection requires sorted ingestion.
func (b *PackedBuilder) Build() (*PackedCollection, error) {
	if !b.sorted {
		return nil, ErrUnsortedBuild
	}
	shards := make([]Shard, len(b.stores))
	indexes := make([]Index, len(b.indexes))
	for i := range b.stores {
		shards[i] = b.stores[i].Build()
		if b.indexes[i] != nil {
			indexes[i] = b.indexes[i].Build()
		}
	}
	return NewPackedCollection(b.entityType, b.schema, shards, indexes), nil
}

// Entities finalizes the shards, but not the indexes, into an iterable
// collection. The result supports positional reads and iteration only;
// Find fails with ErrNoIndex on every attribute. It works regardless of
// ingestion order and is intended for a linear pass over the data without
// paying for the index pass.
func (b *PackedBuilder) Entities() *PackedCollection {
	shards := make([]Shard, len(b.stores))
	for i := range b.stores {
		shards[i] = b.stores[i].Build()
	}
	return NewPackedCollection(b.entityType, b.schema, shards, make([]Index, len(b.indexes)))
}

// normalizeValue widens a value to the representation its shard stores, so
// the incremental index path keys it exactly as a backfill from the shard
// would read it back.
func normalizeValue(t entity.AttributeType, v entity.Value) entity.Value {
	if t == entity.TypeFloat && v.Kind == entity.KindInt {
		iv, _ := v.AsInt64()
		return entity.Float(float64(iv))
	}
	return v
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
