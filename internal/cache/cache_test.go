package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	fetchHolonCalls int32
	fetchRelCalls   int32
	fetchAllCalls   int32
	holon           *holon.Holon
}

func (f *fakeService) FetchHolonInternal(id holon.HolonId) (*holon.Holon, error) {
	atomic.AddInt32(&f.fetchHolonCalls, 1)
	return f.holon, nil
}

func (f *fakeService) FetchRelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	atomic.AddInt32(&f.fetchRelCalls, 1)
	return holon.NewHolonCollection(), nil
}

func (f *fakeService) FetchAllRelationships(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error) {
	atomic.AddInt32(&f.fetchAllCalls, 1)
	return map[holon.RelationshipName]*holon.HolonCollection{}, nil
}

func (f *fakeService) CommitHolon(node holon.EssentialContent, originalID *holon.HolonId) (*holon.SavedHolonNode, error) {
	return nil, nil
}

func (f *fakeService) CommitLink(source holon.HolonId, rel holon.RelationshipName, target holon.HolonId) error {
	return nil
}

func (f *fakeService) DeleteHolon(id holon.HolonId) error { return nil }

func (f *fakeService) EnsureLocalHolonSpace() (holon.HolonId, error) {
	return holon.LocalHolonId(ids.LocalId("space-1")), nil
}

func TestHolonCacheHitAfterFirstFetch(t *testing.T) {
	svc := &fakeService{holon: &holon.Holon{Phase: holon.PhaseSaved, PropertyMap: holon.PropertyMap{}}}
	c := NewHolonCache(svc)
	id := holon.LocalHolonId(ids.LocalId("abc"))

	_, err := c.Get(id)
	require.NoError(t, err)
	_, err = c.Get(id)
	require.NoError(t, err)

	assert.EqualValues(t, 1, svc.fetchHolonCalls)
}

func TestHolonCacheInvalidateForcesRefetch(t *testing.T) {
	svc := &fakeService{holon: &holon.Holon{Phase: holon.PhaseSaved, PropertyMap: holon.PropertyMap{}}}
	c := NewHolonCache(svc)
	id := holon.LocalHolonId(ids.LocalId("abc"))

	_, _ = c.Get(id)
	c.Invalidate(id)
	_, _ = c.Get(id)

	assert.EqualValues(t, 2, svc.fetchHolonCalls)
}

func TestRelationshipCacheExactlyOnceFetch(t *testing.T) {
	svc := &fakeService{}
	c := NewRelationshipCache(svc)
	id := holon.LocalHolonId(ids.LocalId("abc"))

	_, err := c.Get(id, "AUTHORED_BY")
	require.NoError(t, err)
	_, err = c.Get(id, "AUTHORED_BY")
	require.NoError(t, err)

	assert.EqualValues(t, 1, svc.fetchRelCalls)
}

func TestRelationshipCacheConcurrentColdGetsFetchOnce(t *testing.T) {
	svc := &fakeService{}
	c := NewRelationshipCache(svc)
	id := holon.LocalHolonId(ids.LocalId("abc"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(id, "AUTHORED_BY")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, svc.fetchRelCalls)
}

func TestRelationshipCacheGetAllPopulatedAlwaysDelegates(t *testing.T) {
	svc := &fakeService{}
	c := NewRelationshipCache(svc)
	id := holon.LocalHolonId(ids.LocalId("abc"))

	_, err := c.GetAllPopulated(id)
	require.NoError(t, err)
	_, err = c.GetAllPopulated(id)
	require.NoError(t, err)

	assert.EqualValues(t, 2, svc.fetchAllCalls)
}
