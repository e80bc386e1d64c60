// Package holonstore is the reference HolonServiceApi implementation
// (spec.md §6): a bbolt-backed node/link store replicated through Raft, so a
// commit observed by the leader is durable before CommitHolon/CommitLink
// return. Grounded on the teacher's pkg/storage/boltdb.go (bucket layout,
// JSON-per-record encoding) and pkg/manager/{fsm,manager}.go (the Raft FSM
// and single-node bootstrap sequence).
package holonstore

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketNodes = []byte("nodes")
	bucketLinks = []byte("links")
	bucketMeta  = []byte("meta")
)

const spaceAnchorMetaKey = "space_anchor"

// storedNode is the on-disk encoding of one committed holon: essential
// content plus the bookkeeping the reference store needs to answer
// FetchHolonInternal and DeleteHolon without consulting Raft.
type storedNode struct {
	PropertyMap holon.PropertyMap `json:"property_map"`
	Key         *holon.MapString  `json:"key,omitempty"`
	OriginalID  *ids.LocalId      `json:"original_id,omitempty"`
	Deleted     bool              `json:"deleted"`
}

// BoltStore is the durable node/link/meta table set underneath HolonFSM. It
// has no Raft awareness of its own, matching the teacher's separation between
// storage.BoltStore and manager.WarrenFSM.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a bbolt database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "holonengine.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, herrors.CommitFailure(err, "open bolt database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketNodes, bucketLinks, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, herrors.CommitFailure(err, "create buckets")
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) putNode(id ids.LocalId, n storedNode) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketNodes).Put([]byte(id), data)
	})
}

func (s *BoltStore) getNode(id ids.LocalId) (*storedNode, bool, error) {
	var n storedNode
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketNodes).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &n)
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &n, true, nil
}

func (s *BoltStore) markDeleted(id ids.LocalId) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		data := b.Get([]byte(id))
		if data == nil {
			return herrors.HolonNotFound(string(id))
		}
		var n storedNode
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		n.Deleted = true
		out, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
}

// linkKey encodes one relationship bucket within a source holon: the
// relationship name never contains the separator byte since
// CanonicalRelationshipName only emits letters, digits, and underscores.
func linkKey(source ids.LocalId, rel holon.RelationshipName) []byte {
	return []byte(string(source) + "\x00" + string(rel))
}

func (s *BoltStore) appendLink(source ids.LocalId, rel holon.RelationshipName, target ids.LocalId) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLinks)
		key := linkKey(source, rel)
		var targets []string
		if data := b.Get(key); data != nil {
			if err := json.Unmarshal(data, &targets); err != nil {
				return err
			}
		}
		for _, t := range targets {
			if t == string(target) {
				return nil
			}
		}
		targets = append(targets, string(target))
		out, err := json.Marshal(targets)
		if err != nil {
			return err
		}
		return b.Put(key, out)
	})
}

func (s *BoltStore) getLinks(source ids.LocalId, rel holon.RelationshipName) ([]ids.LocalId, error) {
	var targets []string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLinks).Get(linkKey(source, rel))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &targets)
	})
	if err != nil {
		return nil, err
	}
	out := make([]ids.LocalId, len(targets))
	for i, t := range targets {
		out[i] = ids.LocalId(t)
	}
	return out, nil
}

// allRelationships returns every relationship name populated for source,
// mapped to its target ids, by scanning the links bucket's source-prefixed
// key range (spec.md §4.5: the set of names is not knowable from a HolonId
// alone, so this always goes to the persistence port).
func (s *BoltStore) allRelationships(source ids.LocalId) (map[holon.RelationshipName][]ids.LocalId, error) {
	prefix := []byte(string(source) + "\x00")
	out := make(map[holon.RelationshipName][]ids.LocalId)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLinks).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			rel := holon.RelationshipName(strings.TrimPrefix(string(k), string(prefix)))
			var targets []string
			if err := json.Unmarshal(v, &targets); err != nil {
				return err
			}
			ts := make([]ids.LocalId, len(targets))
			for i, t := range targets {
				ts[i] = ids.LocalId(t)
			}
			out[rel] = ts
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) getMeta(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(key))
		if v == nil {
			return nil
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, data != nil, err
}

func (s *BoltStore) putMeta(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(key), value)
	})
}
