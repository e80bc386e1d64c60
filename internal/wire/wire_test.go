package wire

import (
	"testing"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct{ holons map[holon.HolonId]*holon.Holon }

func (f *fakeCache) ResolveSmart(id holon.HolonId) (*holon.Holon, error) {
	h, ok := f.holons[id]
	if !ok {
		return nil, assert.AnError
	}
	return h, nil
}

func (f *fakeCache) RelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return holon.NewHolonCollection(), nil
}

func newCtx() *txn.TransactionContext {
	cache := &fakeCache{holons: make(map[holon.HolonId]*holon.Holon)}
	mgr := txn.NewManager(cache)
	return mgr.Open()
}

func TestHolonWireBindCreatesTransientWithProperties(t *testing.T) {
	ctx := newCtx()
	w := HolonWire{
		Key:    "widget-1",
		HasKey: true,
		Properties: map[string]BaseValueWire{
			"Name": FromBaseValue(holon.NewStringValue("Widget")),
		},
	}
	ref, err := w.Bind(ctx)
	require.NoError(t, err)

	v, ok, err := ref.GetPropertyValue(ctx, "Name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget", string(v.Str))

	key, ok, err := ref.GetKey(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, holon.MapString("widget-1"), key)
}

func TestHolonReferenceWireRoundTripsTransient(t *testing.T) {
	ctx := newCtx()
	ref := ctx.NewTransientHolon("thing")
	w := FromHolonReference(holon.FromTransient(ref))

	bound, err := w.Bind(ctx)
	require.NoError(t, err)
	assert.Equal(t, holon.KindTransient, bound.Kind)
	assert.Equal(t, ref.ID, bound.Transient.ID)
}

func TestHolonReferenceWireCrossTransactionFails(t *testing.T) {
	cache := &fakeCache{holons: make(map[holon.HolonId]*holon.Holon)}
	mgr := txn.NewManager(cache)
	ctxA := mgr.Open()
	ctxB := mgr.Open()

	ref := ctxA.NewTransientHolon("thing")
	w := FromHolonReference(holon.FromTransient(ref))

	_, err := w.Bind(ctxB)
	assert.Error(t, err)
}

func TestSmartReferenceWireRequiredForSpaceAnchor(t *testing.T) {
	ctx := newCtx()
	tref := ctx.NewTransientHolon("thing")
	staged, err := ctx.Stage(tref)
	require.NoError(t, err)

	bad := FromHolonReference(holon.FromStaged(staged))
	_, err = BindSpaceHolonAnchor(bad, ctx)
	assert.Error(t, err)

	good := FromHolonReference(holon.FromSmart(holon.NewSmartReference(holon.LocalHolonId("anchor-1"))))
	id, err := BindSpaceHolonAnchor(good, ctx)
	require.NoError(t, err)
	assert.Equal(t, "anchor-1", string(id.Local))
}

func TestSessionStateWireRoundTripsPools(t *testing.T) {
	ctx := newCtx()
	ref := ctx.NewTransientHolon("roundtrip")
	_, err := ctx.Stage(ref)
	require.NoError(t, err)

	snapshot := FromTransactionContext(ctx, nil, nil)
	assert.Equal(t, uint64(ctx.TxID()), snapshot.TxID)
	assert.Len(t, snapshot.StagedPool.Entries, 1)
	assert.Len(t, snapshot.TransientPool.Entries, 1)

	_, err = snapshot.Bind(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.Nursery().Count())
}

func TestDanceTypeWireBindsCommandMethodSubject(t *testing.T) {
	ctx := newCtx()
	tref := ctx.NewTransientHolon("cmd-subject")
	staged, err := ctx.Stage(tref)
	require.NoError(t, err)

	w := DanceTypeWire{Kind: DanceTypeCommandMethod, StagedRef: FromHolonReference(holon.FromStaged(staged))}
	bound, err := w.Bind(ctx)
	require.NoError(t, err)
	assert.Equal(t, DanceTypeCommandMethod, bound.Kind)
	assert.Equal(t, staged.ID, bound.StagedRef.ID)
}

func TestRequestBodyWireParameterValuesCanonicalizesNames(t *testing.T) {
	ctx := newCtx()
	w := RequestBodyWire{
		Kind: BodyParameterValues,
		ParameterValues: map[string]BaseValueWire{
			"full_name": FromBaseValue(holon.NewStringValue("Ada")),
		},
	}
	bound, err := w.Bind(ctx)
	require.NoError(t, err)
	v, ok := bound.ParameterValues[holon.CanonicalPropertyName("full_name")]
	require.True(t, ok)
	assert.Equal(t, "Ada", string(v.Str))
}
