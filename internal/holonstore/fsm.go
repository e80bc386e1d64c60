package holonstore

import (
	"encoding/json"
	"io"

	bolt "go.etcd.io/bbolt"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/hashicorp/raft"
)

// Command is one Raft log entry, following the teacher's WarrenFSM.Command
// shape: an op name plus its raw JSON payload.
type Command struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

const (
	opCommitHolon = "commit_holon"
	opCommitLink  = "commit_link"
	opDeleteHolon = "delete_holon"
	opEnsureSpace = "ensure_space"
)

type commitHolonPayload struct {
	Node       holon.EssentialContent `json:"node"`
	OriginalID *holon.HolonId         `json:"original_id,omitempty"`
}

type commitLinkPayload struct {
	Source holon.HolonId        `json:"source"`
	Rel    holon.RelationshipName `json:"rel"`
	Target holon.HolonId        `json:"target"`
}

// applyResult is what HolonFSM.Apply returns via the *raft.Log response,
// type-asserted by Store once the future resolves.
type applyResult struct {
	SavedNode *holon.SavedHolonNode
	SpaceID   *holon.HolonId
	Err       error
}

// HolonFSM applies committed Raft log entries to a BoltStore, grounded on
// the teacher's WarrenFSM. It holds no lock beyond what BoltStore's own
// transactions provide, since bbolt already serializes writers.
type HolonFSM struct {
	store *BoltStore
}

func NewHolonFSM(store *BoltStore) *HolonFSM {
	return &HolonFSM{store: store}
}

func (f *HolonFSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return applyResult{Err: herrors.InvalidWireFormat("Command", err.Error())}
	}

	switch cmd.Op {
	case opCommitHolon:
		return f.applyCommitHolon(cmd.Data)
	case opCommitLink:
		return f.applyCommitLink(cmd.Data)
	case opDeleteHolon:
		return f.applyDeleteHolon(cmd.Data)
	case opEnsureSpace:
		return f.applyEnsureSpace()
	default:
		return applyResult{Err: herrors.NotImplemented("fsm command: " + cmd.Op)}
	}
}

func (f *HolonFSM) applyCommitHolon(data json.RawMessage) applyResult {
	var payload commitHolonPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return applyResult{Err: herrors.InvalidWireFormat("commit_holon", err.Error())}
	}

	canonical, err := json.Marshal(payload.Node)
	if err != nil {
		return applyResult{Err: herrors.CommitFailure(err, "canonicalize node content")}
	}
	id := ids.DeriveLocalId(canonical)

	var originalID *ids.LocalId
	if payload.OriginalID != nil {
		orig := payload.OriginalID.Local
		originalID = &orig
	}

	if err := f.store.putNode(id, storedNode{
		PropertyMap: payload.Node.PropertyMap,
		Key:         payload.Node.Key,
		OriginalID:  originalID,
	}); err != nil {
		return applyResult{Err: herrors.CommitFailure(err, "persist node")}
	}

	return applyResult{SavedNode: &holon.SavedHolonNode{
		LocalId:     id,
		PropertyMap: payload.Node.PropertyMap,
		OriginalId:  originalID,
	}}
}

func (f *HolonFSM) applyCommitLink(data json.RawMessage) applyResult {
	var payload commitLinkPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return applyResult{Err: herrors.InvalidWireFormat("commit_link", err.Error())}
	}
	if err := f.store.appendLink(payload.Source.Local, payload.Rel, payload.Target.Local); err != nil {
		return applyResult{Err: herrors.CommitFailure(err, "persist link")}
	}
	return applyResult{}
}

func (f *HolonFSM) applyDeleteHolon(data json.RawMessage) applyResult {
	var id holon.HolonId
	if err := json.Unmarshal(data, &id); err != nil {
		return applyResult{Err: herrors.InvalidWireFormat("delete_holon", err.Error())}
	}
	if err := f.store.markDeleted(id.Local); err != nil {
		return applyResult{Err: err}
	}
	return applyResult{}
}

func (f *HolonFSM) applyEnsureSpace() applyResult {
	if raw, ok, err := f.store.getMeta(spaceAnchorMetaKey); err != nil {
		return applyResult{Err: herrors.CommitFailure(err, "read space anchor")}
	} else if ok {
		id := holon.LocalHolonId(ids.LocalId(raw))
		return applyResult{SpaceID: &id}
	}

	anchorID := ids.NewLocalId()
	key := holon.MapString("HolonSpace")
	err := f.store.putNode(anchorID, storedNode{
		PropertyMap: holon.PropertyMap{holon.KeyPropertyName: holon.NewStringValue(string(key))},
		Key:         &key,
	})
	if err != nil {
		return applyResult{Err: herrors.CommitFailure(err, "persist space anchor")}
	}
	if err := f.store.putMeta(spaceAnchorMetaKey, []byte(anchorID)); err != nil {
		return applyResult{Err: herrors.CommitFailure(err, "persist space anchor meta")}
	}
	id := holon.LocalHolonId(anchorID)
	return applyResult{SpaceID: &id}
}

// holonSnapshot is the full-state snapshot format Raft uses to compact the
// log and bring new followers up to date, mirroring the teacher's
// WarrenSnapshot.
type holonSnapshot struct {
	Nodes map[string]storedNode     `json:"nodes"`
	Links map[string][]string       `json:"links"`
	Meta  map[string]string         `json:"meta"`
}

func (f *HolonFSM) Snapshot() (raft.FSMSnapshot, error) {
	snap := holonSnapshot{
		Nodes: make(map[string]storedNode),
		Links: make(map[string][]string),
		Meta:  make(map[string]string),
	}
	err := f.store.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var n storedNode
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			snap.Nodes[string(k)] = n
			return nil
		}); err != nil {
			return err
		}
		if err := tx.Bucket(bucketLinks).ForEach(func(k, v []byte) error {
			var targets []string
			if err := json.Unmarshal(v, &targets); err != nil {
				return err
			}
			snap.Links[string(k)] = targets
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).ForEach(func(k, v []byte) error {
			snap.Meta[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, herrors.CommitFailure(err, "build snapshot")
	}
	return &fsmSnapshot{snap: snap}, nil
}

func (f *HolonFSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	var snap holonSnapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return herrors.InvalidWireFormat("holonSnapshot", err.Error())
	}
	return f.store.db.Update(func(tx *bolt.Tx) error {
		nodes := tx.Bucket(bucketNodes)
		for k, n := range snap.Nodes {
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			if err := nodes.Put([]byte(k), data); err != nil {
				return err
			}
		}
		links := tx.Bucket(bucketLinks)
		for k, targets := range snap.Links {
			data, err := json.Marshal(targets)
			if err != nil {
				return err
			}
			if err := links.Put([]byte(k), data); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		for k, v := range snap.Meta {
			if err := meta.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// fsmSnapshot implements raft.FSMSnapshot over a point-in-time holonSnapshot.
type fsmSnapshot struct {
	snap holonSnapshot
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s.snap); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *fsmSnapshot) Release() {}
