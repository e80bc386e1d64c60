package pool

import (
	"testing"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyedHolon(key string) *holon.Holon {
	return holon.NewStagedHolon(holon.NewTransientHolon(key))
}

func TestInsertAssignsUniqueVersionedKeys(t *testing.T) {
	p := NewHolonPool()
	n := 3
	seen := make(map[holon.MapString]bool)
	for i := 0; i < n; i++ {
		h := newKeyedHolon("book-1")
		p.Insert(h)
		vk, ok := h.VersionedKey()
		require.True(t, ok)
		assert.False(t, seen[vk], "versioned key %q reused", vk)
		seen[vk] = true
	}
	assert.Len(t, seen, n)
}

func TestGetOneByBaseKeyReturnsDuplicateError(t *testing.T) {
	p := NewHolonPool()
	p.Insert(newKeyedHolon("book-1"))
	p.Insert(newKeyedHolon("book-1"))

	_, _, err := p.GetOneByBaseKey("book-1")
	assert.Error(t, err)

	entries := p.GetAllByBaseKey("book-1")
	assert.Len(t, entries, 2)
}

func TestGetOneByBaseKeySingleMatch(t *testing.T) {
	p := NewHolonPool()
	id := p.Insert(newKeyedHolon("book-1"))

	gotID, gotHolon, err := p.GetOneByBaseKey("book-1")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.NotNil(t, gotHolon)
}

func TestExportImportRoundTripIsIdentity(t *testing.T) {
	p := NewHolonPool()
	p.Insert(newKeyedHolon("book-1"))
	p.Insert(newKeyedHolon("book-1"))
	p.Insert(newKeyedHolon("person-1"))

	snapshot := p.Export()

	p2 := NewHolonPool()
	p2.Import(snapshot)

	assert.Equal(t, p.Count(), p2.Count())
	for _, e := range p.All() {
		h2, ok := p2.Get(e.ID)
		require.True(t, ok)
		assert.True(t, e.Holon.EssentialContent().Equal(h2.EssentialContent()))
	}
}

func TestClearEmptiesPool(t *testing.T) {
	p := NewHolonPool()
	p.Insert(newKeyedHolon("book-1"))
	p.Clear()
	assert.Equal(t, 0, p.Count())
	_, _, err := p.GetOneByBaseKey("book-1")
	assert.Error(t, err)
}
