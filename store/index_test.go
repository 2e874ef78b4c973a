package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo/entity"
)

func TestIndexBuilderKindSelection(t *testing.T) {
	assert.IsType(t, &longIndexBuilder{}, NewIndexBuilder(entity.TypeInt))
	assert.IsType(t, &genericIndexBuilder{}, NewIndexBuilder(entity.TypeInt32))
	assert.IsType(t, &genericIndexBuilder{}, NewIndexBuilder(entity.TypeString))
}

func TestLongIndex(t *testing.T) {
	b := newLongIndexBuilder()
	b.Add(entity.Int(7), 0)
	b.Add(entity.Int(7), 2)
	b.Add(entity.Int(9), 1)
	b.Add(entity.Null(), 3) // nulls are not indexed

	ix := b.Build()
	assert.Equal(t, 2, ix.Values())
	assert.Equal(t, []uint32{0, 2}, ix.Positions(entity.Int(7)).Positions())
	assert.Equal(t, []uint32{1}, ix.Positions(entity.Int(9)).Positions())
	assert.True(t, ix.Positions(entity.Int(42)).IsEmpty())
	assert.True(t, ix.Positions(entity.Null()).IsEmpty())
}

func TestGenericIndex(t *testing.T) {
	b := newGenericIndexBuilder()
	b.Add(entity.String("tech"), 0)
	b.Add(entity.String("sports"), 1)
	b.Add(entity.String("tech"), 4)
	b.Add(entity.Null(), 2)

	ix := b.Build()
	assert.Equal(t, 2, ix.Values())
	assert.Equal(t, []uint32{0, 4}, ix.Positions(entity.String("tech")).Positions())
	assert.True(t, ix.Positions(entity.String("other")).IsEmpty())
	assert.True(t, ix.Positions(entity.Null()).IsEmpty())
}

func TestIndexBuildIsACopy(t *testing.T) {
	b := newGenericIndexBuilder()
	b.Add(entity.String("x"), 0)

	ix := b.Build()
	b.Add(entity.String("x"), 1)

	require.Equal(t, []uint32{0}, ix.Positions(entity.String("x")).Positions())
}

func TestBackfilledIndexMatchesIncremental(t *testing.T) {
	values := []entity.Value{
		entity.String("a"), entity.String("b"), entity.Null(),
		entity.String("a"), entity.String("c"), entity.String("b"),
	}

	incremental := newGenericIndexBuilder()
	backfillSource := NewShardBuilder(entity.TypeString)
	for pos, v := range values {
		incremental.Add(v, pos)
		require.NoError(t, backfillSource.Add(v))
	}

	// Backfill the way AddIndex does: scan the shard builder front to back.
	backfilled := newGenericIndexBuilder()
	for pos := 0; pos < backfillSource.Size(); pos++ {
		backfilled.Add(backfillSource.Get(pos), pos)
	}

	a, b := incremental.Build(), backfilled.Build()
	require.Equal(t, a.Values(), b.Values())
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		assert.True(t, a.Positions(v).Equals(b.Positions(v)), "positions differ for %s", v.Key())
	}
}
