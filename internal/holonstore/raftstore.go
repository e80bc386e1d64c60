package holonstore

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
)

// applyTimeout bounds how long a single Raft log entry may take to commit,
// matching the teacher's manager.Apply timeout.
const applyTimeout = 5 * time.Second

// Config configures a single-node (or single-voter-at-bootstrap) Store,
// mirroring the teacher's manager.Config.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// Store is the reference service.HolonServiceApi implementation: writes go
// through Raft to HolonFSM, reads are served directly from the local
// BoltStore, exactly as the teacher's Manager treats its WarrenFSM/BoltStore
// pair ("read from local store" on every getter).
type Store struct {
	cfg   Config
	raft  *raft.Raft
	fsm   *HolonFSM
	store *BoltStore
}

// New constructs a Store's storage layer without starting Raft; call
// Bootstrap or Join to bring the replica online.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, herrors.CommitFailure(err, "create data directory")
	}
	boltStore, err := NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Store{
		cfg:   cfg,
		fsm:   NewHolonFSM(boltStore),
		store: boltStore,
	}, nil
}

// Bootstrap initializes a new single-node Raft cluster over this Store,
// grounded on the teacher's Manager.Bootstrap: same transport/snapshot/log
// construction, single voter, this node as leader from the first commit.
func (s *Store) Bootstrap() error {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(s.cfg.NodeID)

	addr, err := net.ResolveTCPAddr("tcp", s.cfg.BindAddr)
	if err != nil {
		return herrors.CommitFailure(err, "resolve raft bind address")
	}
	transport, err := raft.NewTCPTransport(s.cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return herrors.CommitFailure(err, "create raft transport")
	}

	snapshotStore, err := raft.NewFileSnapshotStore(s.cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return herrors.CommitFailure(err, "create raft snapshot store")
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(s.cfg.DataDir, "raft-log.db"))
	if err != nil {
		return herrors.CommitFailure(err, "create raft log store")
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(s.cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return herrors.CommitFailure(err, "create raft stable store")
	}

	r, err := raft.NewRaft(config, s.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return herrors.CommitFailure(err, "create raft node")
	}
	s.raft = r

	future := r.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: config.LocalID, Address: transport.LocalAddr()}},
	})
	if err := future.Error(); err != nil {
		return herrors.CommitFailure(err, "bootstrap raft cluster")
	}

	go s.watchLeadership()
	return nil
}

// watchLeadership mirrors StoreRaftIsLeader against raft.Raft's own leader
// observation channel for as long as this Store is alive.
func (s *Store) watchLeadership() {
	for isLeader := range s.raft.LeaderCh() {
		if isLeader {
			holonmetrics.StoreRaftIsLeader.Set(1)
		} else {
			holonmetrics.StoreRaftIsLeader.Set(0)
		}
	}
}

// IsLeader reports whether this replica currently holds Raft leadership.
func (s *Store) IsLeader() bool {
	return s.raft != nil && s.raft.State() == raft.Leader
}

// Shutdown stops Raft and closes the underlying database.
func (s *Store) Shutdown() error {
	if s.raft != nil {
		if err := s.raft.Shutdown().Error(); err != nil {
			return herrors.CommitFailure(err, "shutdown raft")
		}
	}
	return s.store.Close()
}

func (s *Store) apply(op string, payload any) (applyResult, error) {
	if s.raft == nil {
		return applyResult{}, herrors.ServiceNotAvailable("raft not bootstrapped")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return applyResult{}, herrors.InvalidWireFormat(op, err.Error())
	}
	cmdBytes, err := json.Marshal(Command{Op: op, Data: data})
	if err != nil {
		return applyResult{}, herrors.InvalidWireFormat(op, err.Error())
	}

	timer := holonmetrics.NewTimer()
	future := s.raft.Apply(cmdBytes, applyTimeout)
	err = future.Error()
	timer.ObserveDuration(holonmetrics.StoreRaftApplyDuration)

	if err != nil {
		return applyResult{}, herrors.CommitFailure(err, "raft apply: "+op)
	}
	result, ok := future.Response().(applyResult)
	if !ok {
		return applyResult{}, herrors.Misc("unexpected raft apply response type for " + op)
	}
	return result, result.Err
}

// CommitHolon implements service.HolonServiceApi.
func (s *Store) CommitHolon(node holon.EssentialContent, originalID *holon.HolonId) (*holon.SavedHolonNode, error) {
	result, err := s.apply(opCommitHolon, commitHolonPayload{Node: node, OriginalID: originalID})
	if err != nil {
		return nil, err
	}
	holonlog.WithComponent("holonstore").Debug().
		Str("holon_id", string(result.SavedNode.LocalId)).Msg("holon committed")
	return result.SavedNode, nil
}

// CommitLink implements service.HolonServiceApi.
func (s *Store) CommitLink(source holon.HolonId, rel holon.RelationshipName, target holon.HolonId) error {
	_, err := s.apply(opCommitLink, commitLinkPayload{Source: source, Rel: rel, Target: target})
	return err
}

// DeleteHolon implements service.HolonServiceApi.
func (s *Store) DeleteHolon(id holon.HolonId) error {
	_, err := s.apply(opDeleteHolon, id)
	return err
}

// EnsureLocalHolonSpace implements service.HolonServiceApi.
func (s *Store) EnsureLocalHolonSpace() (holon.HolonId, error) {
	result, err := s.apply(opEnsureSpace, struct{}{})
	if err != nil {
		return holon.HolonId{}, err
	}
	return *result.SpaceID, nil
}

// FetchHolonInternal implements service.HolonServiceApi, reading directly
// from the local BoltStore rather than routing through Raft (a linearizable
// read would require a leader round trip the teacher's Manager getters never
// pay either).
func (s *Store) FetchHolonInternal(id holon.HolonId) (*holon.Holon, error) {
	n, ok, err := s.store.getNode(id.Local)
	if err != nil {
		return nil, herrors.CommitFailure(err, "read node")
	}
	if !ok {
		return nil, herrors.HolonNotFound(id.String())
	}
	h := &holon.Holon{
		Phase:       holon.PhaseSaved,
		PropertyMap: n.PropertyMap,
		OriginalId:  n.OriginalID,
		LocalId:     id.Local,
	}
	if n.Deleted {
		h.SavedSubState = holon.Deleted
	} else {
		h.SavedSubState = holon.Fetched
	}
	return h, nil
}

// FetchRelatedHolons implements service.HolonServiceApi.
func (s *Store) FetchRelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	targets, err := s.store.getLinks(source.Local, rel)
	if err != nil {
		return nil, herrors.CommitFailure(err, "read links")
	}
	collection := holon.NewHolonCollection()
	for _, t := range targets {
		targetID := holon.LocalHolonId(t)
		ref := holon.FromSmart(holon.NewSmartReference(targetID))
		collection.AddReferenceWithKey(nil, ref)
	}
	return collection, nil
}

// FetchAllRelationships implements service.HolonServiceApi.
func (s *Store) FetchAllRelationships(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error) {
	all, err := s.store.allRelationships(source.Local)
	if err != nil {
		return nil, herrors.CommitFailure(err, "read relationships")
	}
	out := make(map[holon.RelationshipName]*holon.HolonCollection, len(all))
	for rel, targets := range all {
		collection := holon.NewHolonCollection()
		for _, t := range targets {
			ref := holon.FromSmart(holon.NewSmartReference(holon.LocalHolonId(t)))
			collection.AddReferenceWithKey(nil, ref)
		}
		out[rel] = collection
	}
	return out, nil
}
