package store

import (
	"errors"

	"github.com/hupe1980/entigo/entity"
)

// Shard is an immutable, positionally addressable column holding the values
// of one attribute, one entry per record. Positions where the record omitted
// the attribute read back as the Null marker.
type Shard interface {
	// Len returns the number of positions in the shard.
	Len() int
	// Value returns the value at the given position, or Null if the position
	// is out of range or holds no value.
	Value(pos int) entity.Value
}

// ShardBuilder is the append-only builder for a single shard. Exactly one of
// Add or Skip is applied per record slot; Build produces the immutable
// shard by copying the accumulated storage, so a previously built shard is
// never aliased by later appends.
type ShardBuilder interface {
	// Add appends a value at the next position. Adding a Null value is
	// equivalent to Skip.
	Add(v entity.Value) error
	// Skip appends the absent-value marker at the next position.
	Skip()
	// Get reads back a previously appended value.
	Get(pos int) entity.Value
	// Size returns the current length.
	Size() int
	// Build produces the immutable shard.
	Build() Shard
}

// NewShardBuilder selects the shard kind for the given declared attribute
// type: dense int64, int32 or float64 storage for the numeric types, boxed
// values for everything else.
func NewShardBuilder(t entity.AttributeType) ShardBuilder {
	switch t {
	case entity.TypeInt:
		return newLongShardBuilder()
	case entity.TypeInt32:
		return newIntShardBuilder()
	case entity.TypeFloat:
		return newDoubleShardBuilder()
	default:
		return newObjectShardBuilder()
	}
}

var errShardKind = errors.New("store: value kind not storable in this shard")

// present is a packed bitmap marking which positions hold a value.
type present struct {
	bits []uint64
}

func (p *present) mark(pos int) {
	word := pos >> 6
	for word >= len(p.bits) {
		p.bits = append(p.bits, 0)
	}
	p.bits[word] |= 1 << (uint(pos) & 63)
}

func (p *present) has(pos int) bool {
	word := pos >> 6
	if word >= len(p.bits) {
		return false
	}
	return p.bits[word]&(1<<(uint(pos)&63)) != 0
}

func (p *present) clone() present {
	bits := make([]uint64, len(p.bits))
	copy(bits, p.bits)
	return present{bits: bits}
}

// longShardBuilder packs 64-bit integer attributes.
type longShardBuilder struct {
	vals []int64
	set  present
}

func newLongShardBuilder() *longShardBuilder { return &longShardBuilder{} }

func (b *longShardBuilder) Add(v entity.Value) error {
	if v.IsNull() {
		b.Skip()
		return nil
	}
	iv, ok := v.AsInt64()
	if !ok {
		return errShardKind
	}
	b.set.mark(len(b.vals))
	b.vals = append(b.vals, iv)
	return nil
}

func (b *longShardBuilder) Skip() {
	b.vals = append(b.vals, 0)
}

func (b *longShardBuilder) Get(pos int) entity.Value {
	if pos < 0 || pos >= len(b.vals) || !b.set.has(pos) {
		return entity.Null()
	}
	return entity.Int(b.vals[pos])
}

// Int64At reads the raw value at pos without boxing. Used by the duplicate
// scan over the identifier shard, where every position is present.
func (b *longShardBuilder) Int64At(pos int) int64 { return b.vals[pos] }

func (b *longShardBuilder) Size() int { return len(b.vals) }

func (b *longShardBuilder) Build() Shard {
	vals := make([]int64, len(b.vals))
	copy(vals, b.vals)
	return &longShard{vals: vals, set: b.set.clone()}
}

type longShard struct {
	vals []int64
	set  present
}

func (s *longShard) Len() int { return len(s.vals) }

func (s *longShard) Value(pos int) entity.Value {
	if pos < 0 || pos >= len(s.vals) || !s.set.has(pos) {
		return entity.Null()
	}
	return entity.Int(s.vals[pos])
}

// intShardBuilder packs 32-bit integer attributes.
type intShardBuilder struct {
	vals []int32
	set  present
}

func newIntShardBuilder() *intShardBuilder { return &intShardBuilder{} }

func (b *intShardBuilder) Add(v entity.Value) error {
	if v.IsNull() {
		b.Skip()
		return nil
	}
	iv, ok := v.AsInt32()
	if !ok {
		return errShardKind
	}
	b.set.mark(len(b.vals))
	b.vals = append(b.vals, iv)
	return nil
}

func (b *intShardBuilder) Skip() {
	b.vals = append(b.vals, 0)
}

func (b *intShardBuilder) Get(pos int) entity.Value {
	if pos < 0 || pos >= len(b.vals) || !b.set.has(pos) {
		return entity.Null()
	}
	return entity.Int32(b.vals[pos])
}

func (b *intShardBuilder) Size() int { return len(b.vals) }

func (b *intShardBuilder) Build() Shard {
	vals := make([]int32, len(b.vals))
	copy(vals, b.vals)
	return &intShard{vals: vals, set: b.set.clone()}
}

type intShard struct {
	vals []int32
	set  present
}

func (s *intShard) Len() int { return len(s.vals) }

func (s *intShard) Value(pos int) entity.Value {
	if pos < 0 || pos >= len(s.vals) || !s.set.has(pos) {
		return entity.Null()
	}
	return entity.Int32(s.vals[pos])
}

// doubleShardBuilder packs float attributes. Int values are accepted and
// widened, matching the schema compatibility rules.
type doubleShardBuilder struct {
	vals []float64
	set  present
}

func newDoubleShardBuilder() *doubleShardBuilder { return &doubleShardBuilder{} }

func (b *doubleShardBuilder) Add(v entity.Value) error {
	if v.IsNull() {
		b.Skip()
		return nil
	}
	fv, ok := v.AsFloat64()
	if !ok {
		iv, iok := v.AsInt64()
		if !iok {
			return errShardKind
		}
		fv = float64(iv)
	}
	b.set.mark(len(b.vals))
	b.vals = append(b.vals, fv)
	return nil
}

func (b *doubleShardBuilder) Skip() {
	b.vals = append(b.vals, 0)
}

func (b *doubleShardBuilder) Get(pos int) entity.Value {
	if pos < 0 || pos >= len(b.vals) || !b.set.has(pos) {
		return entity.Null()
	}
	return entity.Float(b.vals[pos])
}

func (b *doubleShardBuilder) Size() int { return len(b.vals) }

func (b *doubleShardBuilder) Build() Shard {
	vals := make([]float64, len(b.vals))
	copy(vals, b.vals)
	return &doubleShard{vals: vals, set: b.set.clone()}
}

type doubleShard struct {
	vals []float64
	set  present
}

func (s *doubleShard) Len() int { return len(s.vals) }

func (s *doubleShard) Value(pos int) entity.Value {
	if pos < 0 || pos >= len(s.vals) || !s.set.has(pos) {
		return entity.Null()
	}
	return entity.Float(s.vals[pos])
}

// objectShardBuilder boxes values of any kind. The Null marker itself is the
// absent slot, so no separate presence bitmap is needed.
type objectShardBuilder struct {
	vals []entity.Value
}

func newObjectShardBuilder() *objectShardBuilder { return &objectShardBuilder{} }

func (b *objectShardBuilder) Add(v entity.Value) error {
	if v.Kind == entity.KindInvalid {
		return errShardKind
	}
	b.vals = append(b.vals, v)
	return nil
}

func (b *objectShardBuilder) Skip() {
	b.vals = append(b.vals, entity.Null())
}

func (b *objectShardBuilder) Get(pos int) entity.Value {
	if pos < 0 || pos >= len(b.vals) {
		return entity.Null()
	}
	return b.vals[pos]
}

func (b *objectShardBuilder) Size() int { return len(b.vals) }

func (b *objectShardBuilder) Build() Shard {
	vals := make([]entity.Value, len(b.vals))
	copy(vals, b.vals)
	return &objectShard{vals: vals}
}

type objectShard struct {
	vals []entity.Value
}

func (s *objectShard) Len() int { return len(s.vals) }

func (s *objectShard) Value(pos int) entity.Value {
	if pos < 0 || pos >= len(s.vals) {
		return entity.Null()
	}
	return s.vals[pos]
}
