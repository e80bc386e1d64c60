package holonstore

import (
	"testing"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStorePutGetNode(t *testing.T) {
	store := newTestBoltStore(t)
	id := ids.LocalId("node-1")
	key := holon.MapString("doc")

	err := store.putNode(id, storedNode{
		PropertyMap: holon.PropertyMap{"Title": holon.NewStringValue("hello")},
		Key:         &key,
	})
	require.NoError(t, err)

	got, ok, err := store.getNode(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doc", string(*got.Key))
	v, present := got.PropertyMap["Title"]
	require.True(t, present)
	s, _ := v.AsString()
	assert.Equal(t, "hello", s)
	assert.False(t, got.Deleted)
}

func TestBoltStoreMarkDeleted(t *testing.T) {
	store := newTestBoltStore(t)
	id := ids.LocalId("node-2")
	require.NoError(t, store.putNode(id, storedNode{PropertyMap: holon.PropertyMap{}}))

	require.NoError(t, store.markDeleted(id))

	got, ok, err := store.getNode(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Deleted)
}

func TestBoltStoreMarkDeletedMissingNodeFails(t *testing.T) {
	store := newTestBoltStore(t)
	err := store.markDeleted(ids.LocalId("does-not-exist"))
	assert.Error(t, err)
}

func TestBoltStoreLinksAppendAndDedupe(t *testing.T) {
	store := newTestBoltStore(t)
	source := ids.LocalId("source")
	rel := holon.RelationshipName("AUTHORED_BY")

	require.NoError(t, store.appendLink(source, rel, ids.LocalId("target-1")))
	require.NoError(t, store.appendLink(source, rel, ids.LocalId("target-2")))
	require.NoError(t, store.appendLink(source, rel, ids.LocalId("target-1"))) // duplicate, no-op

	targets, err := store.getLinks(source, rel)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, ids.LocalId("target-1"), targets[0])
	assert.Equal(t, ids.LocalId("target-2"), targets[1])
}

func TestBoltStoreAllRelationships(t *testing.T) {
	store := newTestBoltStore(t)
	source := ids.LocalId("source")

	require.NoError(t, store.appendLink(source, "AUTHORED_BY", ids.LocalId("t1")))
	require.NoError(t, store.appendLink(source, "TAGGED_WITH", ids.LocalId("t2")))
	require.NoError(t, store.appendLink(ids.LocalId("other-source"), "AUTHORED_BY", ids.LocalId("t3")))

	all, err := store.allRelationships(source)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []ids.LocalId{"t1"}, all["AUTHORED_BY"])
	assert.Equal(t, []ids.LocalId{"t2"}, all["TAGGED_WITH"])
}

func TestBoltStoreMeta(t *testing.T) {
	store := newTestBoltStore(t)
	_, ok, err := store.getMeta("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.putMeta("space_anchor", []byte("anchor-id")))
	v, ok, err := store.getMeta("space_anchor")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "anchor-id", string(v))
}
