// Package store implements the write path of the packed entity collection:
// per-attribute shard builders, optional value-to-position indexes, and the
// orchestrating PackedBuilder that finalizes everything into an immutable
// PackedCollection.
//
// Builders are single-writer: no internal synchronization is performed during
// ingestion. A finalized PackedCollection is immutable and safe for
// concurrent reads.
package store
