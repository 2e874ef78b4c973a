package store

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// PositionSet is a set of record positions, backed by a 32-bit Roaring
// Bitmap. Indexes return one PositionSet per distinct attribute value.
type PositionSet struct {
	rb *roaring.Bitmap
}

// NewPositionSet creates a new empty position set.
func NewPositionSet() *PositionSet {
	return &PositionSet{
		rb: roaring.New(),
	}
}

// Add adds a position to the set.
func (s *PositionSet) Add(pos uint32) {
	s.rb.Add(pos)
}

// Contains checks if a position is in the set.
func (s *PositionSet) Contains(pos uint32) bool {
	return s.rb.Contains(pos)
}

// IsEmpty returns true if the set is empty.
func (s *PositionSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of positions in the set.
func (s *PositionSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *PositionSet) Clone() *PositionSet {
	return &PositionSet{
		rb: s.rb.Clone(),
	}
}

// Iterator returns an iterator over the positions in ascending order.
func (s *PositionSet) Iterator() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Positions returns the positions as a sorted slice.
func (s *PositionSet) Positions() []uint32 {
	return s.rb.ToArray()
}

// And computes the intersection with another set, in place.
func (s *PositionSet) And(other *PositionSet) {
	s.rb.And(other.rb)
}

// Or computes the union with another set, in place.
func (s *PositionSet) Or(other *PositionSet) {
	s.rb.Or(other.rb)
}

// Equals reports whether two sets hold the same positions.
func (s *PositionSet) Equals(other *PositionSet) bool {
	return s.rb.Equals(other.rb)
}

// GetSizeInBytes returns the size of the set in bytes.
func (s *PositionSet) GetSizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}
