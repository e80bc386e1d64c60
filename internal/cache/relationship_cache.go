package cache

import (
	"sync"

	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/service"
)

// relKey is the composite (source, relationship) key the cache memoizes on.
type relKey struct {
	source holon.HolonId
	rel    holon.RelationshipName
}

// RelationshipCache memoizes, per (HolonId, RelationshipName), the
// HolonCollection fetched for it, with exactly-once fetch semantics against
// a cold entry (spec.md §4.5).
type RelationshipCache struct {
	mu      sync.Mutex
	entries map[relKey]*holon.HolonCollection
	loading map[relKey]chan struct{}
	service service.HolonServiceApi
}

// NewRelationshipCache builds an empty cache fronting svc.
func NewRelationshipCache(svc service.HolonServiceApi) *RelationshipCache {
	return &RelationshipCache{
		entries: make(map[relKey]*holon.HolonCollection),
		loading: make(map[relKey]chan struct{}),
		service: svc,
	}
}

// Get returns the collection for (source, rel), fetching it exactly once
// through FetchRelatedHolons on a cold entry: concurrent callers racing on
// the same cold key block on the in-flight fetch rather than each issuing
// their own, satisfying the "two consecutive calls against a cold cache
// trigger exactly one fetch_related_holons" testable property (spec.md §8).
func (c *RelationshipCache) Get(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	key := relKey{source: source, rel: rel}

	c.mu.Lock()
	if coll, ok := c.entries[key]; ok {
		c.mu.Unlock()
		holonmetrics.RelationshipCacheHits.Inc()
		return coll, nil
	}
	if wait, inFlight := c.loading[key]; inFlight {
		c.mu.Unlock()
		<-wait
		c.mu.Lock()
		coll := c.entries[key]
		c.mu.Unlock()
		holonmetrics.RelationshipCacheHits.Inc()
		return coll, nil
	}

	done := make(chan struct{})
	c.loading[key] = done
	c.mu.Unlock()

	holonmetrics.RelationshipCacheMisses.Inc()
	holonlog.WithComponent("relationship_cache").Debug().
		Str("source", source.String()).Str("relationship", string(rel)).
		Msg("cache miss, fetching")

	coll, err := c.service.FetchRelatedHolons(source, rel)

	c.mu.Lock()
	if err == nil {
		if coll == nil {
			coll = holon.NewHolonCollection()
		}
		c.entries[key] = coll
	}
	delete(c.loading, key)
	c.mu.Unlock()
	close(done)

	if err != nil {
		return nil, err
	}
	return coll, nil
}

// GetAllPopulated returns every populated relationship for source. Because
// the set of relationship names is not knowable from a HolonId alone, this
// call is always delegated to the persistence port and never satisfied from
// cache (spec.md §4.5); it does, however, prime the cache with whatever it
// fetches so subsequent Get calls for those names are cache hits.
func (c *RelationshipCache) GetAllPopulated(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error) {
	all, err := c.service.FetchAllRelationships(source)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for rel, coll := range all {
		c.entries[relKey{source: source, rel: rel}] = coll
	}
	c.mu.Unlock()
	return all, nil
}

// Invalidate drops every cached relationship for source, used after a commit
// that mutates source's relationships so the next read is a fresh fetch.
func (c *RelationshipCache) Invalidate(source holon.HolonId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.source == source {
			delete(c.entries, key)
		}
	}
}
