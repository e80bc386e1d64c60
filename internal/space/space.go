// Package space implements the HolonSpaceManager described in spec.md §4.7:
// the space-wide aggregate of cache routing, the persistence API, an
// optional dance transport, and the transaction manager. A process-wide
// registry keyed by space id is provided so lifecycle stays explicit (spec.md
// §9 design note: "do not lazily construct from arbitrary threads").
package space

import (
	"sync"

	"github.com/evomimic/holonengine/internal/cache"
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/service"
	"github.com/evomimic/holonengine/internal/txn"
)

// DanceInitiator is the engine's optional port to an IPC transport (spec.md
// §6). Request/response are typed as any here deliberately: the concrete
// dance.DanceRequest/dance.DanceResponse types live in internal/dance, which
// depends on this package for transaction/space lookups — naming them here
// would create an import cycle. Callers on the dance side type-assert.
type DanceInitiator interface {
	InitiateDance(request any) (any, error)
}

// CacheRouter fronts the space's HolonCache and RelationshipCache with the
// single local routing path spec.md §4.7 calls for today; external
// (cross-space) routing is an unimplemented extension point per the
// resolved Open Question in DESIGN.md. It implements txn.CacheAccess.
type CacheRouter struct {
	holonCache *cache.HolonCache
	relCache   *cache.RelationshipCache
}

func (r *CacheRouter) ResolveSmart(id holon.HolonId) (*holon.Holon, error) {
	return r.holonCache.Get(id)
}

func (r *CacheRouter) RelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return r.relCache.Get(source, rel)
}

// HolonCache exposes the underlying content-addressed cache, used by the
// delete_holon dance to invalidate the entry of a deleted holon.
func (r *CacheRouter) HolonCache() *cache.HolonCache { return r.holonCache }

// RelationshipCache exposes the underlying relationship cache. The commit
// pipeline does not use it; it invalidates through InvalidateRelationships.
func (r *CacheRouter) RelationshipCache() *cache.RelationshipCache { return r.relCache }

// PrimeHolon satisfies commit.CachePrimer: it inserts a freshly committed
// holon directly into the HolonCache so an immediate SmartReference read
// does not pay a cold-cache fetch.
func (r *CacheRouter) PrimeHolon(id holon.HolonId, h *holon.Holon) {
	r.holonCache.Insert(id, h)
}

// InvalidateRelationships satisfies commit.CachePrimer: it drops cached
// relationship reads for id so link materialization performed by the commit
// pipeline is observed on the next read.
func (r *CacheRouter) InvalidateRelationships(id holon.HolonId) {
	r.relCache.Invalidate(id)
}

// HolonSpaceManager is the per-space aggregate of services spec.md §4.7
// describes: cache access, the HolonServiceApi, an optional dance
// initiator, and the transaction manager.
type HolonSpaceManager struct {
	mu sync.Mutex

	spaceID     holon.SpaceId
	service     service.HolonServiceApi
	cacheRouter *CacheRouter
	txManager   *txn.Manager
	initiator   DanceInitiator

	spaceHolonID *holon.HolonId
}

// New builds a HolonSpaceManager for spaceID, fronting svc. Prefer InitSpace
// for process-wide, registry-tracked construction; New is exposed directly
// for tests and for embedding scenarios that manage their own lifecycle.
func New(spaceID holon.SpaceId, svc service.HolonServiceApi) *HolonSpaceManager {
	router := &CacheRouter{
		holonCache: cache.NewHolonCache(svc),
		relCache:   cache.NewRelationshipCache(svc),
	}
	return &HolonSpaceManager{
		spaceID:     spaceID,
		service:     svc,
		cacheRouter: router,
		txManager:   txn.NewManager(router),
	}
}

// SpaceID returns the space's identifier.
func (m *HolonSpaceManager) SpaceID() holon.SpaceId { return m.spaceID }

// GetCacheAccess returns the cache router (spec.md §4.7).
func (m *HolonSpaceManager) GetCacheAccess() *CacheRouter { return m.cacheRouter }

// GetHolonService returns the persistence API.
func (m *HolonSpaceManager) GetHolonService() service.HolonServiceApi { return m.service }

// GetDanceInitiator returns the configured IPC transport, if any.
func (m *HolonSpaceManager) GetDanceInitiator() (DanceInitiator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initiator, m.initiator != nil
}

// SetDanceInitiator configures the IPC transport used by initiate_dance.
func (m *HolonSpaceManager) SetDanceInitiator(initiator DanceInitiator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiator = initiator
}

// GetTransactionManager returns the transaction authority for this space.
func (m *HolonSpaceManager) GetTransactionManager() *txn.Manager { return m.txManager }

// GetSpaceHolonId returns this space's anchor holon id, lazily materializing
// it on first access: fetch by a well-known path; if absent, stage+commit a
// default-named space holon and link it under that path (spec.md §4.7). The
// reference HolonServiceApi implementation (internal/holonstore) performs
// the stage+commit internally via EnsureLocalHolonSpace so the engine core
// need not drive a commit pipeline just to bootstrap itself.
func (m *HolonSpaceManager) GetSpaceHolonId() (holon.HolonId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spaceHolonID != nil {
		return *m.spaceHolonID, nil
	}
	id, err := m.service.EnsureLocalHolonSpace()
	if err != nil {
		return holon.HolonId{}, err
	}
	m.spaceHolonID = &id
	holonlog.WithSpaceID(string(m.spaceID)).Info().
		Str("holon_id", id.String()).Msg("space holon materialized")
	return id, nil
}

// SetSpaceHolonId overrides the cached space-holon id, used when rehydrating
// from a wire SessionState whose SpaceHolon anchor is already known.
func (m *HolonSpaceManager) SetSpaceHolonId(id holon.HolonId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spaceHolonID = &id
}

// registry is the process-wide map of HolonSpaceManagers keyed by space id,
// per the "Global space manager" design note in spec.md §9.
var registry = struct {
	mu     sync.RWMutex
	spaces map[holon.SpaceId]*HolonSpaceManager
}{spaces: make(map[holon.SpaceId]*HolonSpaceManager)}

// InitSpace explicitly constructs and registers the HolonSpaceManager for
// spaceID. It errors if spaceID is already registered — lifecycle is
// explicit, never a silent get-or-create from an arbitrary goroutine.
func InitSpace(spaceID holon.SpaceId, svc service.HolonServiceApi) (*HolonSpaceManager, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.spaces[spaceID]; exists {
		return nil, herrors.InvalidState("space already initialized: " + string(spaceID))
	}
	m := New(spaceID, svc)
	registry.spaces[spaceID] = m
	return m, nil
}

// Get returns the registered HolonSpaceManager for spaceID, if any.
func Get(spaceID holon.SpaceId) (*HolonSpaceManager, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	m, ok := registry.spaces[spaceID]
	return m, ok
}

// Deregister removes spaceID from the registry, used by test teardown.
func Deregister(spaceID holon.SpaceId) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.spaces, spaceID)
}
