package dance

import (
	"testing"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/space"
	"github.com/evomimic/holonengine/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	nextID        int
	deleted       []holon.HolonId
	relationships map[holon.RelationshipName]*holon.HolonCollection
}

func (f *fakeService) FetchHolonInternal(id holon.HolonId) (*holon.Holon, error) {
	return nil, herrors.HolonNotFound(id.String())
}

func (f *fakeService) FetchRelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return holon.NewHolonCollection(), nil
}

func (f *fakeService) FetchAllRelationships(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error) {
	if f.relationships != nil {
		return f.relationships, nil
	}
	return map[holon.RelationshipName]*holon.HolonCollection{}, nil
}

func (f *fakeService) CommitHolon(node holon.EssentialContent, originalID *holon.HolonId) (*holon.SavedHolonNode, error) {
	f.nextID++
	return &holon.SavedHolonNode{LocalId: ids.LocalId("committed"), PropertyMap: node.PropertyMap}, nil
}

func (f *fakeService) CommitLink(source holon.HolonId, rel holon.RelationshipName, target holon.HolonId) error {
	return nil
}

func (f *fakeService) DeleteHolon(id holon.HolonId) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeService) EnsureLocalHolonSpace() (holon.HolonId, error) {
	return holon.LocalHolonId(ids.LocalId("space-anchor")), nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *space.HolonSpaceManager) {
	t.Helper()
	svc := &fakeService{}
	mgr := space.New("dance-test-space", svc)
	return NewDispatcher(mgr), mgr
}

func TestDispatchUnknownDanceReturnsNotImplemented(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp := d.Dispatch(wire.DanceRequestWire{DanceName: "no_such_dance"})
	assert.Equal(t, int(herrors.StatusNotImplemented), resp.StatusCode)
}

func TestPrintDatabaseReportsPoolSizes(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp := d.Dispatch(wire.DanceRequestWire{DanceName: "print_database"})
	require.Equal(t, int(herrors.StatusOK), resp.StatusCode)
	require.Equal(t, wire.BodyParameterValues, resp.Body.Kind)
	_, ok := resp.Body.ParameterValues["NurserySize"]
	assert.True(t, ok)
}

func TestCommitDanceCommitsStagedHolons(t *testing.T) {
	d, mgr := newTestDispatcher(t)

	ctx := mgr.GetTransactionManager().Open()
	ref := ctx.NewTransientHolon("doc-1")
	_, err := ctx.Stage(ref)
	require.NoError(t, err)

	session := wire.FromTransactionContext(ctx, nil, nil)
	resp := d.Dispatch(wire.DanceRequestWire{
		DanceName:    "commit",
		DanceType:    wire.DanceTypeWire{Kind: wire.DanceTypeStandalone},
		SessionState: &session,
	})
	require.Equal(t, int(herrors.StatusOK), resp.StatusCode)
	require.Equal(t, wire.BodyTargetHolons, resp.Body.Kind)
	assert.Len(t, resp.Body.TargetHolons.Targets, 1)
}

func TestDeleteHolonDanceInvokesService(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	svc := mgr.GetHolonService().(*fakeService)

	resp := d.Dispatch(wire.DanceRequestWire{
		DanceName: "delete_holon",
		DanceType: wire.DanceTypeWire{Kind: wire.DanceTypeDeleteMethod, LocalID: "doc-7"},
	})
	require.Equal(t, int(herrors.StatusOK), resp.StatusCode)
	require.Len(t, svc.deleted, 1)
	assert.Equal(t, "doc-7", string(svc.deleted[0].Local))
}

func TestDeleteHolonDanceRefusesWhenRelationshipHasTargets(t *testing.T) {
	d, mgr := newTestDispatcher(t)
	svc := mgr.GetHolonService().(*fakeService)

	authored := holon.NewHolonCollection()
	authored.AddReferenceWithKey(nil, holon.NewSmartReference(holon.LocalHolonId(ids.LocalId("book-1"))))
	svc.relationships = map[holon.RelationshipName]*holon.HolonCollection{
		"AUTHORED_BY": authored,
	}

	resp := d.Dispatch(wire.DanceRequestWire{
		DanceName: "delete_holon",
		DanceType: wire.DanceTypeWire{Kind: wire.DanceTypeDeleteMethod, LocalID: "person-1"},
	})
	assert.Equal(t, int(herrors.StatusUnprocessableEntity), resp.StatusCode)
	assert.Empty(t, svc.deleted)
}
