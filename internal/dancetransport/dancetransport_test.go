package dancetransport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/evomimic/holonengine/internal/dance"
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/space"
	"github.com/evomimic/holonengine/internal/wire"
	"github.com/stretchr/testify/require"
)

type fakeService struct{}

func (f *fakeService) FetchHolonInternal(id holon.HolonId) (*holon.Holon, error) {
	return nil, herrors.HolonNotFound(id.String())
}

func (f *fakeService) FetchRelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return holon.NewHolonCollection(), nil
}

func (f *fakeService) FetchAllRelationships(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error) {
	return map[holon.RelationshipName]*holon.HolonCollection{}, nil
}

func (f *fakeService) CommitHolon(node holon.EssentialContent, originalID *holon.HolonId) (*holon.SavedHolonNode, error) {
	return &holon.SavedHolonNode{LocalId: ids.LocalId("committed"), PropertyMap: node.PropertyMap}, nil
}

func (f *fakeService) CommitLink(source holon.HolonId, rel holon.RelationshipName, target holon.HolonId) error {
	return nil
}

func (f *fakeService) DeleteHolon(id holon.HolonId) error { return nil }

func (f *fakeService) EnsureLocalHolonSpace() (holon.HolonId, error) {
	return holon.LocalHolonId(ids.LocalId("space-anchor")), nil
}

// freePort asks the OS for an unused loopback port by opening and
// immediately closing a listener on it.
func freePort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func TestClientServerDanceRoundTrip(t *testing.T) {
	mgr := space.New("dancetransport-test-space", &fakeService{})
	dispatcher := dance.NewDispatcher(mgr)
	srv := NewServer(dispatcher)

	addr := freePort(t)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(addr) }()
	defer srv.Stop()

	var client *Client
	var err error
	for i := 0; i < 50; i++ {
		client, err = Dial(addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp *wire.DanceResponseWire
	for i := 0; i < 50; i++ {
		resp, err = client.Dance(ctx, wire.DanceRequestWire{DanceName: "print_database"})
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	require.Equal(t, int(herrors.StatusOK), resp.StatusCode)
	require.Equal(t, wire.BodyParameterValues, resp.Body.Kind)
	_, ok := resp.Body.ParameterValues["NurserySize"]
	require.True(t, ok)
}

func TestClientServerUnknownDance(t *testing.T) {
	mgr := space.New("dancetransport-test-space-2", &fakeService{})
	dispatcher := dance.NewDispatcher(mgr)
	srv := NewServer(dispatcher)

	addr := freePort(t)
	go func() { _ = srv.Serve(addr) }()
	defer srv.Stop()

	var client *Client
	var err error
	for i := 0; i < 50; i++ {
		client, err = Dial(addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp *wire.DanceResponseWire
	for i := 0; i < 50; i++ {
		resp, err = client.Dance(ctx, wire.DanceRequestWire{DanceName: "no_such_dance"})
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	require.Equal(t, int(herrors.StatusNotImplemented), resp.StatusCode)
}
