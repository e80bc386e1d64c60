// Package pool implements the per-transaction HolonPool that backs both the
// Nursery (staged holons) and the TransientHolonManager (transient holons),
// per spec.md §4.3.
package pool

import (
	"sync"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
)

// HolonPool is the data structure behind both the Nursery and the
// TransientHolonManager: O(1) lookup by TemporaryId, a multi-valued base-key
// index, and a unique versioned-key index.
type HolonPool struct {
	mu sync.RWMutex

	byID         map[ids.TemporaryId]*holon.Holon
	order        []ids.TemporaryId
	byBaseKey    map[holon.MapString]map[ids.TemporaryId]struct{}
	byVersionKey map[holon.MapString]ids.TemporaryId
}

// NewHolonPool builds an empty pool.
func NewHolonPool() *HolonPool {
	return &HolonPool{
		byID:         make(map[ids.TemporaryId]*holon.Holon),
		byBaseKey:    make(map[holon.MapString]map[ids.TemporaryId]struct{}),
		byVersionKey: make(map[holon.MapString]ids.TemporaryId),
	}
}

// Insert adds h to the pool, minting a fresh TemporaryId. If h's base key
// collides with one already present, its version counter is advanced until
// the resulting versioned key is unique, per spec.md §4.3.
func (p *HolonPool) Insert(h *holon.Holon) ids.TemporaryId {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := ids.NewTemporaryId()
	if base, ok := h.BaseKey(); ok {
		for {
			vk, _ := h.VersionedKey()
			if _, taken := p.byVersionKey[vk]; !taken {
				break
			}
			h.SetVersionCounter(h.VersionCounter() + 1)
		}
		vk, _ := h.VersionedKey()
		p.byVersionKey[vk] = id
		if p.byBaseKey[base] == nil {
			p.byBaseKey[base] = make(map[ids.TemporaryId]struct{})
		}
		p.byBaseKey[base][id] = struct{}{}
	}

	p.byID[id] = h
	p.order = append(p.order, id)
	return id
}

// Get looks up a holon by its TemporaryId.
func (p *HolonPool) Get(id ids.TemporaryId) (*holon.Holon, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.byID[id]
	return h, ok
}

// GetByVersionedKey looks up a holon by its unique versioned key.
func (p *HolonPool) GetByVersionedKey(key holon.MapString) (ids.TemporaryId, *holon.Holon, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byVersionKey[key]
	if !ok {
		return "", nil, false
	}
	return id, p.byID[id], true
}

// GetOneByBaseKey returns the single holon sharing base key, or
// DuplicateError if more than one holon in the pool shares it (spec.md
// §4.3: "get_staged_holon_by_base_key returns Err(DuplicateError) when >1").
func (p *HolonPool) GetOneByBaseKey(key holon.MapString) (ids.TemporaryId, *holon.Holon, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.byBaseKey[key]
	if len(set) == 0 {
		return "", nil, herrors.HolonNotFound(string(key))
	}
	if len(set) > 1 {
		return "", nil, herrors.DuplicateError("staged_holon", string(key))
	}
	for id := range set {
		return id, p.byID[id], nil
	}
	return "", nil, herrors.HolonNotFound(string(key))
}

// GetAllByBaseKey returns every holon sharing base key, for callers that
// expect multiplicity (spec.md §4.3).
func (p *HolonPool) GetAllByBaseKey(key holon.MapString) []PoolEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.byBaseKey[key]
	out := make([]PoolEntry, 0, len(set))
	for id := range set {
		out = append(out, PoolEntry{ID: id, Holon: p.byID[id]})
	}
	return out
}

// PoolEntry pairs a TemporaryId with the holon it names.
type PoolEntry struct {
	ID    ids.TemporaryId
	Holon *holon.Holon
}

// All returns every entry in insertion order.
func (p *HolonPool) All() []PoolEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PoolEntry, 0, len(p.order))
	for _, id := range p.order {
		if h, ok := p.byID[id]; ok {
			out = append(out, PoolEntry{ID: id, Holon: h})
		}
	}
	return out
}

// Count reports the number of holons currently in the pool.
func (p *HolonPool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// Clear empties the pool.
func (p *HolonPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID = make(map[ids.TemporaryId]*holon.Holon)
	p.order = nil
	p.byBaseKey = make(map[holon.MapString]map[ids.TemporaryId]struct{})
	p.byVersionKey = make(map[holon.MapString]ids.TemporaryId)
}

// SerializableEntry is the deep-cloned, JSON-friendly shape of one pool
// entry, used by export/import across the IPC boundary (spec.md §4.6).
type SerializableEntry struct {
	ID    ids.TemporaryId
	Holon *holon.Holon
}

// SerializableHolonPool is a deep-cloned export of a HolonPool's contents,
// used by TransactionContext.Export{Staged,Transient}Holons (spec.md §4.6).
type SerializableHolonPool struct {
	Entries []SerializableEntry
}

// Export produces a deep-cloned, order-preserving snapshot of the pool.
func (p *HolonPool) Export() *SerializableHolonPool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := &SerializableHolonPool{Entries: make([]SerializableEntry, 0, len(p.order))}
	for _, id := range p.order {
		h, ok := p.byID[id]
		if !ok {
			continue
		}
		out.Entries = append(out.Entries, SerializableEntry{ID: id, Holon: h.Clone()})
	}
	return out
}

// Import replaces the pool's contents in place from a serialized snapshot,
// preserving the original TemporaryIds (this is a re-hydration path, not a
// fresh insert, so keys are rebuilt without re-minting ids or bumping
// version counters).
func (p *HolonPool) Import(snapshot *SerializableHolonPool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.byID = make(map[ids.TemporaryId]*holon.Holon, len(snapshot.Entries))
	p.order = make([]ids.TemporaryId, 0, len(snapshot.Entries))
	p.byBaseKey = make(map[holon.MapString]map[ids.TemporaryId]struct{})
	p.byVersionKey = make(map[holon.MapString]ids.TemporaryId)

	for _, entry := range snapshot.Entries {
		h := entry.Holon.Clone()
		p.byID[entry.ID] = h
		p.order = append(p.order, entry.ID)
		if base, ok := h.BaseKey(); ok {
			if p.byBaseKey[base] == nil {
				p.byBaseKey[base] = make(map[ids.TemporaryId]struct{})
			}
			p.byBaseKey[base][entry.ID] = struct{}{}
		}
		if vk, ok := h.VersionedKey(); ok {
			p.byVersionKey[vk] = entry.ID
		}
	}
}
