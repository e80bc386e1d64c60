package holonstore

import (
	"net"
	"testing"
	"time"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/stretchr/testify/require"
)

func freeLoopbackAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func newBootstrappedStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{
		NodeID:   "node-1",
		BindAddr: freeLoopbackAddr(t),
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, s.Bootstrap())
	t.Cleanup(func() { _ = s.Shutdown() })

	require.Eventually(t, s.IsLeader, 5*time.Second, 20*time.Millisecond,
		"single-node raft cluster should elect itself leader")
	return s
}

func TestStoreCommitHolonAndFetch(t *testing.T) {
	s := newBootstrappedStore(t)
	key := holon.MapString("doc-1")
	node := holon.EssentialContent{
		PropertyMap: holon.PropertyMap{"Title": holon.NewStringValue("hello")},
		Key:         &key,
	}

	saved, err := s.CommitHolon(node, nil)
	require.NoError(t, err)
	require.NotEmpty(t, saved.LocalId)

	fetched, err := s.FetchHolonInternal(holon.LocalHolonId(saved.LocalId))
	require.NoError(t, err)
	require.Equal(t, holon.PhaseSaved, fetched.Phase)
	require.Equal(t, holon.Fetched, fetched.SavedSubState)
}

func TestStoreCommitLinkAndFetchRelated(t *testing.T) {
	s := newBootstrappedStore(t)
	key := holon.MapString("a")
	a, err := s.CommitHolon(holon.EssentialContent{PropertyMap: holon.PropertyMap{}, Key: &key}, nil)
	require.NoError(t, err)
	bKey := holon.MapString("b")
	b, err := s.CommitHolon(holon.EssentialContent{PropertyMap: holon.PropertyMap{}, Key: &bKey}, nil)
	require.NoError(t, err)

	source := holon.LocalHolonId(a.LocalId)
	target := holon.LocalHolonId(b.LocalId)
	require.NoError(t, s.CommitLink(source, "REFERENCES", target))

	related, err := s.FetchRelatedHolons(source, "REFERENCES")
	require.NoError(t, err)
	require.Equal(t, 1, related.GetCount())
	ref, err := related.GetByIndex(0)
	require.NoError(t, err)
	require.Equal(t, target, ref.Smart.ID)

	all, err := s.FetchAllRelationships(source)
	require.NoError(t, err)
	require.Contains(t, all, holon.RelationshipName("REFERENCES"))
}

func TestStoreDeleteHolon(t *testing.T) {
	s := newBootstrappedStore(t)
	saved, err := s.CommitHolon(holon.EssentialContent{PropertyMap: holon.PropertyMap{}}, nil)
	require.NoError(t, err)

	id := holon.LocalHolonId(saved.LocalId)
	require.NoError(t, s.DeleteHolon(id))

	fetched, err := s.FetchHolonInternal(id)
	require.NoError(t, err)
	require.Equal(t, holon.Deleted, fetched.SavedSubState)
}

func TestStoreEnsureLocalHolonSpaceIsStable(t *testing.T) {
	s := newBootstrappedStore(t)
	id1, err := s.EnsureLocalHolonSpace()
	require.NoError(t, err)
	id2, err := s.EnsureLocalHolonSpace()
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}
