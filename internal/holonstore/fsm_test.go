package holonstore

import (
	"encoding/json"
	"testing"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFSM(t *testing.T) *HolonFSM {
	t.Helper()
	store := newTestBoltStore(t)
	return NewHolonFSM(store)
}

func applyCommand(t *testing.T, fsm *HolonFSM, op string, payload any) applyResult {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	cmdBytes, err := json.Marshal(Command{Op: op, Data: data})
	require.NoError(t, err)
	result := fsm.Apply(&raft.Log{Data: cmdBytes})
	r, ok := result.(applyResult)
	require.True(t, ok)
	return r
}

func TestFSMApplyCommitHolonIsContentAddressed(t *testing.T) {
	fsm := newTestFSM(t)
	key := holon.MapString("doc-1")
	node := holon.EssentialContent{
		PropertyMap: holon.PropertyMap{"Title": holon.NewStringValue("hello")},
		Key:         &key,
	}

	r1 := applyCommand(t, fsm, opCommitHolon, commitHolonPayload{Node: node})
	require.NoError(t, r1.Err)
	r2 := applyCommand(t, fsm, opCommitHolon, commitHolonPayload{Node: node})
	require.NoError(t, r2.Err)

	assert.Equal(t, r1.SavedNode.LocalId, r2.SavedNode.LocalId)
}

func TestFSMApplyCommitLinkAndDeleteHolon(t *testing.T) {
	fsm := newTestFSM(t)
	key := holon.MapString("doc-1")
	node := holon.EssentialContent{PropertyMap: holon.PropertyMap{}, Key: &key}
	committed := applyCommand(t, fsm, opCommitHolon, commitHolonPayload{Node: node})
	require.NoError(t, committed.Err)

	target := holon.LocalHolonId(committed.SavedNode.LocalId)
	linkResult := applyCommand(t, fsm, opCommitLink, commitLinkPayload{
		Source: target,
		Rel:    "SELF_LINK",
		Target: target,
	})
	require.NoError(t, linkResult.Err)

	targets, err := fsm.store.getLinks(target.Local, "SELF_LINK")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, target.Local, targets[0])

	deleteResult := applyCommand(t, fsm, opDeleteHolon, target)
	require.NoError(t, deleteResult.Err)

	stored, ok, err := fsm.store.getNode(target.Local)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stored.Deleted)
}

func TestFSMApplyEnsureSpaceIsIdempotent(t *testing.T) {
	fsm := newTestFSM(t)
	r1 := applyCommand(t, fsm, opEnsureSpace, struct{}{})
	require.NoError(t, r1.Err)
	r2 := applyCommand(t, fsm, opEnsureSpace, struct{}{})
	require.NoError(t, r2.Err)
	assert.Equal(t, *r1.SpaceID, *r2.SpaceID)
}

func TestFSMApplyUnknownOp(t *testing.T) {
	fsm := newTestFSM(t)
	result := applyCommand(t, fsm, "no_such_op", struct{}{})
	assert.Error(t, result.Err)
}
