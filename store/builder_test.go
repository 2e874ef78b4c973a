package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo/entity"
)

func ratingSchema(t *testing.T) *entity.Schema {
	t.Helper()
	s, err := entity.NewSchema(
		entity.IDAttribute,
		entity.Attribute{Name: "score", Type: entity.TypeFloat},
		entity.Attribute{Name: "label", Type: entity.TypeString},
	)
	require.NoError(t, err)
	return s
}

func TestNewPackedBuilderValidation(t *testing.T) {
	_, err := NewPackedBuilder("thing", nil)
	assert.ErrorIs(t, err, entity.ErrEmptySchema)

	// Schema construction itself enforces the ID-attribute invariant.
	_, err = entity.NewSchema(entity.Attribute{Name: "score", Type: entity.TypeFloat})
	assert.ErrorIs(t, err, entity.ErrNotIDAttribute)

	attrs := make([]entity.Attribute, 0, 33)
	attrs = append(attrs, entity.IDAttribute)
	for i := 0; i < 32; i++ {
		attrs = append(attrs, entity.Attribute{Name: string(rune('a' + i)), Type: entity.TypeFloat})
	}
	_, err = entity.NewSchema(attrs...)
	assert.ErrorIs(t, err, entity.ErrSchemaTooLarge)
}

func TestAddAlignsAllShards(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	require.NoError(t, b.Add(entity.New(1).Set("score", entity.Float(4.2)), false))
	require.NoError(t, b.Add(entity.New(2).Set("label", entity.String("x")), false))
	require.NoError(t, b.Add(entity.New(3), false))

	// Every shard must hold exactly one slot per record, padded with the
	// absent marker where the record omitted the attribute.
	for i, sb := range b.stores {
		assert.Equal(t, b.size, sb.Size(), "shard %d out of alignment", i)
	}

	assert.Equal(t, entity.Float(4.2), b.stores[1].Get(0))
	assert.True(t, b.stores[2].Get(0).IsNull())
	assert.True(t, b.stores[1].Get(1).IsNull())
	assert.True(t, b.stores[2].Get(1).Equal(entity.String("x")))
	assert.True(t, b.stores[1].Get(2).IsNull())
	assert.True(t, b.stores[2].Get(2).IsNull())
}

func TestSortedFastPath(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	for id := int64(1); id <= 100; id++ {
		require.NoError(t, b.Add(entity.New(id), false))
	}
	assert.True(t, b.Sorted())
	assert.Nil(t, b.ids, "strictly increasing ids must never materialize the fallback set")

	// An out-of-order id permanently disables the fast path and
	// materializes the fallback set from the identifier shard.
	require.NoError(t, b.Add(entity.New(50), false)) // 50 < 100: out of order, and a duplicate
	assert.False(t, b.Sorted())
	assert.NotNil(t, b.ids)
	assert.Equal(t, 100, b.Size())

	// The set is kept current incrementally.
	require.NoError(t, b.Add(entity.New(42_000), false))
	assert.Equal(t, 101, b.Size())
	require.NoError(t, b.Add(entity.New(42_000), false)) // now a known duplicate
	assert.Equal(t, 101, b.Size())
}

func TestDuplicateNoReplaceIsNoOp(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)
	b.AddIndex("label")

	require.NoError(t, b.Add(entity.New(1).Set("label", entity.String("a")), false))
	require.NoError(t, b.Add(entity.New(2).Set("label", entity.String("b")), false))

	require.NoError(t, b.Add(entity.New(2).Set("label", entity.String("changed")), false))

	assert.Equal(t, 2, b.Size())
	assert.True(t, b.stores[2].Get(1).Equal(entity.String("b")))

	col, err := b.Build()
	require.NoError(t, err)
	set, err := col.Find("label", entity.String("changed"))
	require.NoError(t, err)
	assert.True(t, set.IsEmpty(), "no-op add must not touch the index")
}

func TestDuplicateReplaceFails(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	require.NoError(t, b.Add(entity.New(1).Set("score", entity.Float(1)), false))
	require.NoError(t, b.Add(entity.New(2), false))

	err = b.Add(entity.New(2).Set("score", entity.Float(9)), true)
	require.ErrorIs(t, err, ErrReplaceUnsupported)

	// State unchanged afterward.
	assert.Equal(t, 2, b.Size())
	for i, sb := range b.stores {
		assert.Equal(t, 2, sb.Size(), "shard %d mutated by failed replace", i)
	}

	// Same in fallback mode.
	require.NoError(t, b.Add(entity.New(0), false)) // breaks order
	err = b.Add(entity.New(1), true)
	require.ErrorIs(t, err, ErrReplaceUnsupported)
	assert.Equal(t, 3, b.Size())
}

func TestReplaceOfNewIDSucceeds(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	require.NoError(t, b.Add(entity.New(1), true))
	require.NoError(t, b.Add(entity.New(2), true))
	assert.Equal(t, 2, b.Size())
}

func TestIndexBackfillAfterIngest(t *testing.T) {
	upfront, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)
	upfront.AddIndex("label")

	late, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	labels := []string{"a", "b", "a", "c", "b", "a"}
	for i, l := range labels {
		e := entity.New(int64(i + 1)).Set("label", entity.String(l))
		require.NoError(t, upfront.Add(e, false))
		require.NoError(t, late.Add(e, false))
	}

	late.AddIndex("label")

	c1, err := upfront.Build()
	require.NoError(t, err)
	c2, err := late.Build()
	require.NoError(t, err)

	for _, l := range []string{"a", "b", "c", "missing"} {
		s1, err := c1.Find("label", entity.String(l))
		require.NoError(t, err)
		s2, err := c2.Find("label", entity.String(l))
		require.NoError(t, err)
		assert.True(t, s1.Equals(s2), "backfilled index differs for %q", l)
	}
}

func TestIndexBackfillMatchesWidenedFloat(t *testing.T) {
	upfront, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)
	upfront.AddIndex("score")

	late, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	// Int values are storable under a Float attribute; the shard widens them,
	// and the index must key the widened form.
	values := []entity.Value{entity.Int(4), entity.Float(4), entity.Float(2.5), entity.Int(2)}
	for i, v := range values {
		e := entity.New(int64(i + 1)).Set("score", v)
		require.NoError(t, upfront.Add(e, false))
		require.NoError(t, late.Add(e, false))
	}

	late.AddIndex("score")

	c1, err := upfront.Build()
	require.NoError(t, err)
	c2, err := late.Build()
	require.NoError(t, err)

	s1, err := c1.Find("score", entity.Float(4))
	require.NoError(t, err)
	s2, err := c2.Find("score", entity.Float(4))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, s1.Positions(), "incremental index must see the widened value")
	assert.True(t, s1.Equals(s2), "backfilled index differs from incremental index")

	// The raw un-widened form never appears in the column, so it is not a key.
	miss, err := c1.Find("score", entity.Int(4))
	require.NoError(t, err)
	assert.True(t, miss.IsEmpty())
}

func TestAddIndexUnknownAttributeIsNoOp(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	b.AddIndex("does-not-exist")
	assert.False(t, b.Indexed("does-not-exist"))

	require.NoError(t, b.Add(entity.New(1), false))
	col, err := b.Build()
	require.NoError(t, err)
	_, err = col.Find("does-not-exist", entity.String("x"))
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestIndexedIDLookup(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)
	b.AddIndex("id")

	require.NoError(t, b.Add(entity.New(10), false))
	require.NoError(t, b.Add(entity.New(20), false))

	col, err := b.Build()
	require.NoError(t, err)
	set, err := col.Find("id", entity.Int(20))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, set.Positions())
}

func TestBuildOnUnsortedFails(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	require.NoError(t, b.Add(entity.New(5).Set("score", entity.Float(4.2)), false))
	require.NoError(t, b.Add(entity.New(3).Set("score", entity.Float(2.9)), false))

	_, err = b.Build()
	require.ErrorIs(t, err, ErrUnsortedBuild)

	// Entities still succeeds and yields ingestion order.
	col := b.Entities()
	require.Equal(t, 2, col.Len())

	var ids []int64
	var scores []float64
	for e := range col.Entities() {
		ids = append(ids, e.ID())
		v, _ := e.Get("score")
		f, _ := v.AsFloat64()
		scores = append(scores, f)
	}
	assert.Equal(t, []int64{5, 3}, ids)
	assert.Equal(t, []float64{4.2, 2.9}, scores)
}

func TestEndToEndScenario(t *testing.T) {
	schema, err := entity.NewSchema(
		entity.IDAttribute,
		entity.Attribute{Name: "score", Type: entity.TypeFloat},
	)
	require.NoError(t, err)

	b, err := NewPackedBuilder("rating", schema)
	require.NoError(t, err)

	require.NoError(t, b.Add(entity.New(5).Set("score", entity.Float(4.2)), false))

	require.NoError(t, b.Add(entity.New(3).Set("score", entity.Float(2.9)), false))
	assert.False(t, b.Sorted())
	assert.NotNil(t, b.ids)

	// 3 is already present; replace=false keeps the original.
	require.NoError(t, b.Add(entity.New(3).Set("score", entity.Float(9.9)), false))
	assert.Equal(t, 2, b.Size())

	_, err = b.Build()
	require.ErrorIs(t, err, ErrUnsortedBuild)

	col := b.Entities()
	e0, ok := col.Entity(0)
	require.True(t, ok)
	e1, ok := col.Entity(1)
	require.True(t, ok)

	assert.Equal(t, int64(5), e0.ID())
	v, _ := e0.Get("score")
	assert.Equal(t, entity.Float(4.2), v)

	assert.Equal(t, int64(3), e1.ID())
	v, _ = e1.Get("score")
	assert.Equal(t, entity.Float(2.9), v)
}

func TestTypeMismatchLeavesBuilderUnchanged(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)
	require.NoError(t, b.Add(entity.New(1), false))

	err = b.Add(entity.New(2).Set("score", entity.String("not a number")), false)
	var tme *TypeMismatchError
	require.True(t, errors.As(err, &tme))
	assert.Equal(t, "score", tme.Attribute)

	assert.Equal(t, 1, b.Size())
	for i, sb := range b.stores {
		assert.Equal(t, 1, sb.Size(), "shard %d mutated by rejected add", i)
	}
}

func TestUnknownAttributesIgnored(t *testing.T) {
	b, err := NewPackedBuilder("rating", ratingSchema(t))
	require.NoError(t, err)

	e := entity.New(1).
		Set("score", entity.Float(1)).
		Set("unknown", entity.String("dropped"))
	require.NoError(t, b.Add(e, false))

	col, err := b.Build()
	require.NoError(t, err)
	got, ok := col.Entity(0)
	require.True(t, ok)
	_, hasUnknown := got.Get("unknown")
	assert.False(t, hasUnknown)
}
