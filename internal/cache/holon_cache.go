// Package cache implements the content-addressed HolonCache and the
// per-holon RelationshipCache described in spec.md §4.4-§4.5: thread-safe,
// lazily populated on miss via the HolonServiceApi persistence port.
// RelationshipCache fetches each (source, relationship) pair exactly once;
// HolonCache may fetch a cold id more than once under concurrent callers.
package cache

import (
	"sync"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/service"
)

// HolonCache is a thread-safe HolonId → *Holon map, populated lazily on miss
// by calling HolonServiceApi.FetchHolonInternal (spec.md §4.4).
type HolonCache struct {
	mu      sync.RWMutex
	entries map[holon.HolonId]*holon.Holon
	service service.HolonServiceApi
}

// NewHolonCache builds an empty cache fronting svc.
func NewHolonCache(svc service.HolonServiceApi) *HolonCache {
	return &HolonCache{
		entries: make(map[holon.HolonId]*holon.Holon),
		service: svc,
	}
}

// Get returns the cached holon for id, fetching it through the persistence
// port on a cold cache and memoizing the result. Concurrent callers racing on
// the same cold id may each trigger a fetch; the engine's correctness does
// not depend on single-flighting this (unlike RelationshipCache's
// exactly-once contract, which concerns fetch *calls*, not concurrent
// duplicate fetches of the same holon).
func (c *HolonCache) Get(id holon.HolonId) (*holon.Holon, error) {
	c.mu.RLock()
	h, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		holonmetrics.HolonCacheHits.Inc()
		return h, nil
	}

	holonmetrics.HolonCacheMisses.Inc()
	holonlog.WithComponent("holon_cache").Debug().
		Str("holon_id", id.String()).Msg("cache miss, fetching")

	fetched, err := c.service.FetchHolonInternal(id)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, herrors.HolonNotFound(id.String())
	}
	c.Insert(id, fetched)
	return fetched, nil
}

// Insert populates the cache directly, used when a holon becomes known by
// another path (e.g. immediately after commit).
func (c *HolonCache) Insert(id holon.HolonId, h *holon.Holon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = h
}

// Invalidate drops a cached entry, used to force a fresh fetch on the next
// Get (spec.md §5: "no cross-transaction read-your-writes is guaranteed
// without an explicit cache invalidation call").
func (c *HolonCache) Invalidate(id holon.HolonId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
