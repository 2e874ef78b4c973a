package entigo

import (
	"github.com/hupe1980/entigo/codec"
	"github.com/hupe1980/entigo/entity"
	"github.com/hupe1980/entigo/store"
)

// Sentinel errors from the subpackages, re-exported so most callers only
// need to import entigo.
var (
	// ErrEmptySchema is returned when a schema has no attributes.
	ErrEmptySchema = entity.ErrEmptySchema
	// ErrSchemaTooLarge is returned when a schema has 32 or more attributes.
	ErrSchemaTooLarge = entity.ErrSchemaTooLarge
	// ErrNotIDAttribute is returned when schema position 0 is not the ID attribute.
	ErrNotIDAttribute = entity.ErrNotIDAttribute

	// ErrReplaceUnsupported is returned when Add is asked to replace an
	// existing entity.
	ErrReplaceUnsupported = store.ErrReplaceUnsupported
	// ErrUnsortedBuild is returned by Build after out-of-order ingestion.
	ErrUnsortedBuild = store.ErrUnsortedBuild
	// ErrNoIndex is returned by Find on an unindexed attribute.
	ErrNoIndex = store.ErrNoIndex

	// ErrCorrupted is returned by Load on a checksum mismatch.
	ErrCorrupted = codec.ErrCorrupted
)
