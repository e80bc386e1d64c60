package holon

import (
	"sync"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holonlog"
)

// HolonCollection is an ordered sequence of HolonReferences with a secondary
// key → position index, per spec.md §4.2.
type HolonCollection struct {
	mu       sync.RWMutex
	items    []HolonReference
	keyIndex map[MapString]int
}

func NewHolonCollection() *HolonCollection {
	return &HolonCollection{keyIndex: make(map[MapString]int)}
}

// AddReferences inserts each reference in order; if a reference's key is
// already indexed, it logs a duplicate and skips the insert (keyed dedup is
// always on), matching spec.md §4.2 and the testable property in §8.
func (c *HolonCollection) AddReferences(ctx TransactionView, items []HolonReference) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		key, hasKey, err := item.Key(ctx)
		if err != nil {
			return err
		}
		if hasKey {
			if _, exists := c.keyIndex[key]; exists {
				holonlog.WithComponent("holon_collection").
					Debug().Str("key", string(key)).Msg("duplicate reference, not inserted")
				continue
			}
			c.keyIndex[key] = len(c.items)
		}
		c.items = append(c.items, item)
	}
	return nil
}

// AddReferenceWithKey is the fast path that skips key resolution when the
// caller already knows the key (or that there is none).
func (c *HolonCollection) AddReferenceWithKey(key *MapString, ref HolonReference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key != nil {
		if _, exists := c.keyIndex[*key]; exists {
			holonlog.WithComponent("holon_collection").
				Debug().Str("key", string(*key)).Msg("duplicate reference, not inserted")
			return
		}
		c.keyIndex[*key] = len(c.items)
	}
	c.items = append(c.items, ref)
}

// RemoveReferences removes by identity and rebuilds the key index.
func (c *HolonCollection) RemoveReferences(ctx TransactionView, items []HolonReference) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	remove := make([]bool, len(c.items))
	for _, target := range items {
		for i, existing := range c.items {
			if !remove[i] && existing.Equal(target) {
				remove[i] = true
				break
			}
		}
	}

	kept := c.items[:0:0]
	for i, item := range c.items {
		if !remove[i] {
			kept = append(kept, item)
		}
	}
	c.items = kept

	c.keyIndex = make(map[MapString]int, len(c.items))
	for i, item := range c.items {
		key, hasKey, err := item.Key(ctx)
		if err != nil {
			return err
		}
		if hasKey {
			c.keyIndex[key] = i
		}
	}
	return nil
}

func (c *HolonCollection) GetByIndex(i int) (HolonReference, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.items) {
		return HolonReference{}, herrors.IndexOutOfRange(i, len(c.items))
	}
	return c.items[i], nil
}

func (c *HolonCollection) GetByKey(key MapString) (HolonReference, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.keyIndex[key]
	if !ok {
		return HolonReference{}, false
	}
	return c.items[idx], true
}

func (c *HolonCollection) GetCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// All returns a snapshot copy of the collection's members in order.
func (c *HolonCollection) All() []HolonReference {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]HolonReference, len(c.items))
	copy(out, c.items)
	return out
}

func (c *HolonCollection) Clone() *HolonCollection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := NewHolonCollection()
	clone.items = append([]HolonReference(nil), c.items...)
	for k, v := range c.keyIndex {
		clone.keyIndex[k] = v
	}
	return clone
}

// RelationshipMap wraps RelationshipName → *HolonCollection, per spec.md
// §4.2. For Staged/Transient holons it is owned inline; for Saved holons the
// engine materializes one lazily through the RelationshipCache instead of
// holding this struct at all (see internal/cache).
type RelationshipMap struct {
	mu            sync.RWMutex
	relationships map[RelationshipName]*HolonCollection
}

func NewRelationshipMap() *RelationshipMap {
	return &RelationshipMap{relationships: make(map[RelationshipName]*HolonCollection)}
}

// Get returns the collection for name, creating an empty one if absent —
// relationships with zero members are a normal, addressable state.
func (m *RelationshipMap) Get(name RelationshipName) *HolonCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.relationships[name]
	if !ok {
		c = NewHolonCollection()
		m.relationships[name] = c
	}
	return c
}

// Add appends targets to the named relationship's collection.
func (m *RelationshipMap) Add(ctx TransactionView, name RelationshipName, targets []HolonReference) error {
	return m.Get(name).AddReferences(ctx, targets)
}

// Remove removes targets from the named relationship's collection.
func (m *RelationshipMap) Remove(ctx TransactionView, name RelationshipName, targets []HolonReference) error {
	return m.Get(name).RemoveReferences(ctx, targets)
}

// Names returns every relationship name present in the map, including names
// whose collection is empty (Get creates an empty collection on first use).
func (m *RelationshipMap) Names() []RelationshipName {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RelationshipName, 0, len(m.relationships))
	for name := range m.relationships {
		out = append(out, name)
	}
	return out
}

func (m *RelationshipMap) Clone() *RelationshipMap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clone := NewRelationshipMap()
	for name, c := range m.relationships {
		clone.relationships[name] = c.Clone()
	}
	return clone
}
