package store

import (
	"errors"
	"fmt"

	"github.com/hupe1980/entigo/entity"
)

var (
	// ErrReplaceUnsupported is returned when Add is asked to replace an
	// existing entity. Packed shards are append-only; there is no positional
	// update mechanism to honor a replace.
	ErrReplaceUnsupported = errors.New("store: packed builder cannot replace entities")

	// ErrUnsortedBuild is returned by Build when entities were not added in
	// non-decreasing identifier order. Pre-sort the input, or use Entities
	// for an index-less view.
	ErrUnsortedBuild = errors.New("store: cannot build an indexed collection from unsorted input")

	// ErrNoIndex is returned by PackedCollection.Find when the attribute has
	// no index.
	ErrNoIndex = errors.New("store: attribute is not indexed")
)

// TypeMismatchError indicates a value whose kind is not storable under the
// attribute's declared type.
type TypeMismatchError struct {
	Attribute string
	Declared  entity.AttributeType
	Kind      entity.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("store: attribute %q declared %s, got %s value", e.Attribute, e.Declared, e.Kind)
}
