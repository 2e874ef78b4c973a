package entigo

import (
	"io"
	"time"

	"github.com/hupe1980/entigo/codec"
	"github.com/hupe1980/entigo/entity"
	"github.com/hupe1980/entigo/store"
)

// Collection is the immutable result of a build.
type Collection = store.PackedCollection

// Builder ingests entities of one type and finalizes them into an immutable
// Collection. It wraps store.PackedBuilder with logging and metrics; see
// that type for the ingestion-order and duplicate-handling semantics.
//
// Builders are single-writer and must not be shared across goroutines
// during ingestion.
type Builder struct {
	pb          *store.PackedBuilder
	logger      *Logger
	metrics     MetricsCollector
	compression codec.Compression
}

// NewBuilder creates a builder for the given entity type and schema.
//
// The schema must contain at least one and fewer than 32 attributes, with
// the entity ID attribute at position 0.
func NewBuilder(et entity.Type, schema *entity.Schema, optFns ...Option) (*Builder, error) {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      codec.DefaultCompression,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	pb, err := store.NewPackedBuilder(et, schema)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		pb:          pb,
		logger:      o.logger.WithEntityType(string(et)),
		metrics:     o.metricsCollector,
		compression: o.compression,
	}
	for _, name := range o.indexes {
		b.AddIndex(name)
	}
	return b, nil
}

// Schema returns the builder's schema.
func (b *Builder) Schema() *entity.Schema { return b.pb.Schema() }

// Size returns the number of entities ingested so far.
func (b *Builder) Size() int { return b.pb.Size() }

// Sorted reports whether every identifier so far arrived in non-decreasing
// order.
func (b *Builder) Sorted() bool { return b.pb.Sorted() }

// AddIndex registers an index for the named attribute, backfilling it from
// all entities ingested so far. A name outside the schema is a no-op.
// Returns the builder for chaining.
func (b *Builder) AddIndex(name string) *Builder {
	backfilled := b.pb.Size()
	b.pb.AddIndex(name)
	if b.pb.Indexed(name) {
		b.logger.LogAddIndex(name, backfilled)
	}
	return b
}

// Add ingests one entity. Re-adding an existing identifier is a no-op: the
// existing entity wins.
func (b *Builder) Add(e *entity.Entity) error {
	return b.add(e, false)
}

// AddOrReplace ingests one entity, asking for replace-on-duplicate
// semantics. Packed shards cannot honor a replace, so re-adding an existing
// identifier returns ErrReplaceUnsupported instead of silently keeping the
// old entity.
func (b *Builder) AddOrReplace(e *entity.Entity) error {
	return b.add(e, true)
}

func (b *Builder) add(e *entity.Entity, replace bool) error {
	start := time.Now()
	err := b.pb.Add(e, replace)
	b.metrics.RecordAdd(time.Since(start), err)
	b.logger.LogAdd(e.ID(), err)
	return err
}

// Build finalizes every shard and index into an immutable Collection.
// It fails with ErrUnsortedBuild after out-of-order ingestion.
func (b *Builder) Build() (*Collection, error) {
	start := time.Now()
	c, err := b.pb.Build()
	b.metrics.RecordBuild(b.pb.Size(), time.Since(start), err)
	b.logger.LogBuild(b.pb.Size(), err)
	return c, err
}

// Entities finalizes the shards into an index-less, iterable Collection.
// It works regardless of ingestion order; Find fails with ErrNoIndex on the
// result.
func (b *Builder) Entities() *Collection {
	start := time.Now()
	c := b.pb.Entities()
	b.metrics.RecordBuild(c.Len(), time.Since(start), nil)
	return c
}

// Save writes a finalized collection to w using the builder's configured
// compression.
func (b *Builder) Save(w io.Writer, c *Collection) (int64, error) {
	start := time.Now()
	n, err := codec.Write(w, c, b.compression)
	b.metrics.RecordSave(n, time.Since(start), err)
	b.logger.LogSave(n, err)
	return n, err
}

// Save writes a finalized collection to w with the default compression.
func Save(w io.Writer, c *Collection) (int64, error) {
	return codec.Write(w, c, codec.DefaultCompression)
}

// Load reads a collection previously written by Save, verifying its
// checksum and rebuilding any indexes it carried.
func Load(r io.Reader) (*Collection, error) {
	return codec.Read(r)
}
