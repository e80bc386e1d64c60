package txn

import (
	"testing"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	holons map[holon.HolonId]*holon.Holon
}

func newFakeCache() *fakeCache {
	return &fakeCache{holons: make(map[holon.HolonId]*holon.Holon)}
}

func (f *fakeCache) ResolveSmart(id holon.HolonId) (*holon.Holon, error) {
	h, ok := f.holons[id]
	if !ok {
		return nil, herrors.HolonNotFound(id.String())
	}
	return h, nil
}

func (f *fakeCache) RelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return holon.NewHolonCollection(), nil
}

func TestStageProducesForCreateHolon(t *testing.T) {
	mgr := NewManager(newFakeCache())
	ctx := mgr.Open()

	ref := ctx.NewTransientHolon("book-1")
	staged, err := ctx.Stage(ref)
	require.NoError(t, err)

	h, ok := ctx.LookupStaged(staged.ID)
	require.True(t, ok)
	assert.Equal(t, holon.PhaseStaged, h.Phase)
	assert.Equal(t, holon.ForCreate, h.StagedSubState)
}

func TestCrossTransactionReferenceGuard(t *testing.T) {
	cache := newFakeCache()
	mgr := NewManager(cache)
	ctx1 := mgr.Open()
	ref := ctx1.NewTransientHolon("book-1")
	staged, err := ctx1.Stage(ref)
	require.NoError(t, err)

	ctx2 := mgr.Open()
	_, _ = ctx2.LookupStaged(staged.ID)
	// LookupStaged itself doesn't check tx; the guard lives in the reference
	// resolution path, exercised via AbandonStagedChanges here.

	err = ctx2.AbandonStagedChanges(staged)
	require.Error(t, err)
	var ee *herrors.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, herrors.KindCrossTransactionReference, ee.Kind())
}

func TestStageNewVersionSetsPredecessor(t *testing.T) {
	cache := newFakeCache()
	savedID := holon.LocalHolonId(ids.LocalId("book-abc"))
	saved := &holon.Holon{
		Phase:         holon.PhaseSaved,
		PropertyMap:   holon.PropertyMap{holon.KeyPropertyName: holon.NewStringValue("book-1")},
		LocalId:       savedID.Local,
		SavedSubState: holon.Fetched,
	}
	cache.holons[savedID] = saved

	mgr := NewManager(cache)
	ctx := mgr.Open()

	savedRef := holon.NewSmartReference(savedID)
	stagedRef, err := ctx.StageNewVersion(savedRef)
	require.NoError(t, err)

	h, ok := ctx.LookupStaged(stagedRef.ID)
	require.True(t, ok)
	assert.Equal(t, holon.ForUpdate, h.StagedSubState)
	origID, ok := h.GetOriginalId()
	require.True(t, ok)
	assert.Equal(t, savedID.Local, origID)

	predecessors := h.Relationships.Get(PredecessorRelationship)
	assert.Equal(t, 1, predecessors.GetCount())
}

// TestAddRelatedHolonsRejectsAbandonedStagedHolon reproduces spec.md §8
// scenario 2 through the StagedReference façade (not the underlying
// RelationshipMap primitive): staging a holon, abandoning it, then calling
// AddRelatedHolons must fail with NotAccessible("Write", "Immutable").
func TestAddRelatedHolonsRejectsAbandonedStagedHolon(t *testing.T) {
	mgr := NewManager(newFakeCache())
	ctx := mgr.Open()

	person1, err := ctx.Stage(ctx.NewTransientHolon("person-1"))
	require.NoError(t, err)

	require.NoError(t, ctx.AbandonStagedChanges(person1))

	err = person1.AddRelatedHolons(ctx, holon.RelationshipName("FRIENDS"), nil)
	require.Error(t, err)

	var ee *herrors.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, herrors.KindNotAccessible, ee.Kind())
	assert.Equal(t, herrors.StatusConflict, ee.StatusCode())
}

func TestBeginCommitTransitionsOnce(t *testing.T) {
	mgr := NewManager(newFakeCache())
	ctx := mgr.Open()

	require.NoError(t, ctx.BeginCommit())
	assert.Equal(t, StateCommitting, ctx.State())

	err := ctx.BeginCommit()
	assert.Error(t, err)
}

func TestExportImportPoolRoundTrip(t *testing.T) {
	mgr := NewManager(newFakeCache())
	ctx := mgr.Open()
	ref := ctx.NewTransientHolon("book-1")
	_, err := ctx.Stage(ref)
	require.NoError(t, err)

	snapshot := ctx.ExportStagedHolons()

	ctx2 := mgr.Open()
	ctx2.ImportStagedHolons(snapshot)

	assert.Equal(t, ctx.Nursery().Count(), ctx2.Nursery().Count())
}
