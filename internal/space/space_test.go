package space

import (
	"testing"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	spaceID holon.HolonId
}

func (f *fakeService) FetchHolonInternal(id holon.HolonId) (*holon.Holon, error) {
	return &holon.Holon{Phase: holon.PhaseSaved, LocalId: id.Local, PropertyMap: holon.PropertyMap{}}, nil
}

func (f *fakeService) FetchRelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return holon.NewHolonCollection(), nil
}

func (f *fakeService) FetchAllRelationships(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error) {
	return map[holon.RelationshipName]*holon.HolonCollection{}, nil
}

func (f *fakeService) CommitHolon(node holon.EssentialContent, originalID *holon.HolonId) (*holon.SavedHolonNode, error) {
	return &holon.SavedHolonNode{LocalId: ids.LocalId("new-id"), PropertyMap: node.PropertyMap}, nil
}

func (f *fakeService) CommitLink(source holon.HolonId, rel holon.RelationshipName, target holon.HolonId) error {
	return nil
}

func (f *fakeService) DeleteHolon(id holon.HolonId) error { return nil }

func (f *fakeService) EnsureLocalHolonSpace() (holon.HolonId, error) {
	return f.spaceID, nil
}

func TestInitSpaceRegistersOnce(t *testing.T) {
	spaceID := holon.SpaceId("test-space-1")
	t.Cleanup(func() { Deregister(spaceID) })

	svc := &fakeService{spaceID: holon.LocalHolonId(ids.LocalId("space-anchor"))}
	m, err := InitSpace(spaceID, svc)
	require.NoError(t, err)
	assert.Equal(t, spaceID, m.SpaceID())

	_, err = InitSpace(spaceID, svc)
	assert.Error(t, err)

	got, ok := Get(spaceID)
	require.True(t, ok)
	assert.Same(t, m, got)
}

func TestSpaceHolonIdLazilyMaterializedOnce(t *testing.T) {
	svc := &fakeService{spaceID: holon.LocalHolonId(ids.LocalId("space-anchor"))}
	m := New("test-space-2", svc)

	id1, err := m.GetSpaceHolonId()
	require.NoError(t, err)
	id2, err := m.GetSpaceHolonId()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestCacheAccessResolvesThroughService(t *testing.T) {
	svc := &fakeService{}
	m := New("test-space-3", svc)

	ref := holon.LocalHolonId(ids.LocalId("abc"))
	h, err := m.GetCacheAccess().ResolveSmart(ref)
	require.NoError(t, err)
	assert.Equal(t, ref.Local, h.LocalId)
}
