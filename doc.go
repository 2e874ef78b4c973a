// Package entigo provides an embedded columnar entity store for Go.
//
// Entigo packs streams of typed records into per-attribute columns
// ("shards"), optionally builds value-to-position indexes, and finalizes
// everything into an immutable, randomly addressable collection.
//
// # Quick Start
//
//	schema := entity.MustSchema(
//	    entity.IDAttribute,
//	    entity.Attribute{Name: "score", Type: entity.TypeFloat},
//	    entity.Attribute{Name: "label", Type: entity.TypeString},
//	)
//
//	b, _ := entigo.NewBuilder("rating", schema)
//	b.AddIndex("label")
//
//	_ = b.Add(entity.New(1).Set("score", entity.Float(4.2)).Set("label", entity.String("good")))
//	_ = b.Add(entity.New(2).Set("score", entity.Float(2.9)))
//
//	col, _ := b.Build()
//	positions, _ := col.Find("label", entity.String("good"))
//
// # Ingestion Order
//
// Adding entities in non-decreasing identifier order keeps the builder on a
// binary-search fast path for duplicate detection. The first out-of-order
// identifier switches it permanently to a hash-set fallback; such a builder
// can still export an index-less view via Entities, but Build is refused.
//
// # Concurrency
//
// Builders are single-writer with no internal locking. A finalized
// collection is immutable and safe for concurrent reads.
package entigo
