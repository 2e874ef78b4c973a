package store

import (
	"iter"

	"github.com/hupe1980/entigo/entity"
)

// PackedCollection is the immutable, randomly addressable result of a
// PackedBuilder: one finalized shard per schema attribute, plus an optional
// finalized index per attribute. It exclusively owns its shard and index
// arrays and is safe for concurrent reads.
type PackedCollection struct {
	entityType entity.Type
	schema     *entity.Schema
	shards     []Shard
	indexes    []Index // nil where no index was requested
}

// NewPackedCollection assembles a collection from finalized shards and
// indexes. Both slices must be position-aligned with the schema; the
// collection takes ownership of them.
func NewPackedCollection(et entity.Type, schema *entity.Schema, shards []Shard, indexes []Index) *PackedCollection {
	return &PackedCollection{
		entityType: et,
		schema:     schema,
		shards:     shards,
		indexes:    indexes,
	}
}

// EntityType returns the entity type tag.
func (c *PackedCollection) EntityType() entity.Type { return c.entityType }

// Schema returns the collection's schema.
func (c *PackedCollection) Schema() *entity.Schema { return c.schema }

// Len returns the number of entities in the collection.
func (c *PackedCollection) Len() int {
	if len(c.shards) == 0 {
		return 0
	}
	return c.shards[0].Len()
}

// Shard returns the finalized shard at the given schema position.
func (c *PackedCollection) Shard(pos int) Shard { return c.shards[pos] }

// Index returns the finalized index at the given schema position, or nil if
// none was requested.
func (c *PackedCollection) Index(pos int) Index { return c.indexes[pos] }

// Indexed reports whether the named attribute has an index.
func (c *PackedCollection) Indexed(name string) bool {
	pos := c.schema.Lookup(name)
	return pos >= 0 && c.indexes[pos] != nil
}

// Entity materializes the entity at the given position. Attributes the
// record omitted are left unset on the result.
func (c *PackedCollection) Entity(pos int) (*entity.Entity, bool) {
	if pos < 0 || pos >= c.Len() {
		return nil, false
	}
	id, _ := c.shards[0].Value(pos).AsInt64()
	e := entity.New(id)
	for i := 1; i < c.schema.Len(); i++ {
		if v := c.shards[i].Value(pos); !v.IsNull() {
			e.Set(c.schema.Attribute(i).Name, v)
		}
	}
	return e, true
}

// Entities iterates over all entities in position order, which equals
// ingestion order.
func (c *PackedCollection) Entities() iter.Seq[*entity.Entity] {
	return func(yield func(*entity.Entity) bool) {
		for pos := 0; pos < c.Len(); pos++ {
			e, _ := c.Entity(pos)
			if !yield(e) {
				return
			}
		}
	}
}

// Find returns the positions of all entities holding the given value for the
// named attribute. It requires an index: collections exported via
// PackedBuilder.Entities carry no indexes, and Find fails fast with
// ErrNoIndex rather than falling back to a scan.
//
// The returned set may alias internal memory; do not modify.
func (c *PackedCollection) Find(name string, v entity.Value) (*PositionSet, error) {
	pos := c.schema.Lookup(name)
	if pos < 0 || c.indexes[pos] == nil {
		return nil, ErrNoIndex
	}
	return c.indexes[pos].Positions(v), nil
}

// FindEntities materializes the entities holding the given value for the
// named attribute, in position order.
func (c *PackedCollection) FindEntities(name string, v entity.Value) ([]*entity.Entity, error) {
	set, err := c.Find(name, v)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Entity, 0, set.Cardinality())
	for pos := range set.Iterator() {
		if e, ok := c.Entity(int(pos)); ok {
			out = append(out, e)
		}
	}
	return out, nil
}
