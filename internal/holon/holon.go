package holon

import (
	"fmt"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/ids"
)

// SpaceId identifies a space for a future federated HolonId.External variant
// (spec.md: "External is reserved for future federation").
type SpaceId string

// HolonId is Local(LocalId) or External(SpaceId, LocalId). Wire binding
// builds External ids from references not marked local, but nothing routes
// them to another space: they resolve through the same local cache and
// HolonServiceApi as Local ids, per spec.md's non-goal of multi-space
// federation.
type HolonId struct {
	Local   ids.LocalId
	Space   SpaceId
	IsLocal bool
}

func LocalHolonId(id ids.LocalId) HolonId {
	return HolonId{Local: id, IsLocal: true}
}

func ExternalHolonId(space SpaceId, id ids.LocalId) HolonId {
	return HolonId{Local: id, Space: space, IsLocal: false}
}

func (h HolonId) String() string {
	if h.IsLocal {
		return string(h.Local)
	}
	return fmt.Sprintf("%s/%s", h.Space, h.Local)
}

// Phase is the top-level lifecycle state of a Holon (spec.md §3).
type Phase int

const (
	PhaseTransient Phase = iota
	PhaseStaged
	PhaseSaved
)

func (p Phase) String() string {
	switch p {
	case PhaseTransient:
		return "Transient"
	case PhaseStaged:
		return "Staged"
	case PhaseSaved:
		return "Saved"
	default:
		return "Unknown"
	}
}

// StagedSubState is the sub-state carried by a Staged holon.
type StagedSubState int

const (
	ForCreate StagedSubState = iota
	ForUpdate
	ForUpdateChanged
	Abandoned
	Committed
)

func (s StagedSubState) String() string {
	switch s {
	case ForCreate:
		return "ForCreate"
	case ForUpdate:
		return "ForUpdate"
	case ForUpdateChanged:
		return "ForUpdateChanged"
	case Abandoned:
		return "Abandoned"
	case Committed:
		return "Committed"
	default:
		return "Unknown"
	}
}

// SavedSubState is the sub-state carried by a Saved holon.
type SavedSubState int

const (
	Fetched SavedSubState = iota
	Deleted
)

func (s SavedSubState) String() string {
	switch s {
	case Fetched:
		return "Fetched"
	case Deleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// AccessType is one of the five access modes gated by is_accessible
// (spec.md §4.1).
type AccessType int

const (
	AccessRead AccessType = iota
	AccessWrite
	AccessClone
	AccessCommit
	AccessAbandon
)

func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessClone:
		return "Clone"
	case AccessCommit:
		return "Commit"
	case AccessAbandon:
		return "Abandon"
	default:
		return "Unknown"
	}
}

// SavedHolonNode is the durable record produced by a successful commit_holon
// call: essential content plus the LocalId the persistence port assigned.
type SavedHolonNode struct {
	LocalId      ids.LocalId
	PropertyMap  PropertyMap
	OriginalId   *ids.LocalId
}

// Holon is the engine's primary entity: a typed property bag with named
// relationships, in one of three lifecycle phases (spec.md §3).
//
// Relationships for Transient/Staged holons are owned inline
// (TransientRelationshipMap in spec terms); Saved holons carry no inline
// relationship map at all — their relationships are read exclusively through
// the RelationshipCache, keyed by this holon's LocalId (see internal/cache).
type Holon struct {
	Phase        Phase
	PropertyMap  PropertyMap
	OriginalId   *ids.LocalId
	Relationships *RelationshipMap // nil for Saved holons

	// Staged-only
	StagedSubState StagedSubState
	SavedNode      *SavedHolonNode // set once StagedSubState == Committed

	// Saved-only
	LocalId       ids.LocalId
	SavedSubState SavedSubState

	// versionCounter disambiguates holons sharing a base key within one
	// pool; see HolonPool in internal/pool.
	versionCounter int
}

// NewTransientHolon creates a freely mutable holon with no persistent
// identity, optionally seeded with a base key (spec.md: "new_holon(key?)").
func NewTransientHolon(key string) *Holon {
	h := &Holon{
		Phase:         PhaseTransient,
		PropertyMap:   PropertyMap{},
		Relationships: NewRelationshipMap(),
	}
	if key != "" {
		h.PropertyMap[KeyPropertyName] = NewStringValue(key)
	}
	return h
}

// NewStagedHolon wraps a transient holon's content as a freshly staged
// ForCreate holon (used by the Nursery on staging; see internal/pool).
func NewStagedHolon(source *Holon) *Holon {
	return &Holon{
		Phase:          PhaseStaged,
		PropertyMap:    source.PropertyMap.Clone(),
		OriginalId:     source.OriginalId,
		Relationships:  source.Relationships.Clone(),
		StagedSubState: ForCreate,
	}
}

// CloneForUpdate builds a staged ForUpdate holon from a saved holon,
// recording OriginalId so the predecessor link can be reconstructed.
func CloneForUpdate(saved *Holon) *Holon {
	orig := saved.LocalId
	return &Holon{
		Phase:          PhaseStaged,
		PropertyMap:    saved.PropertyMap.Clone(),
		OriginalId:     &orig,
		Relationships:  NewRelationshipMap(),
		StagedSubState: ForUpdate,
	}
}

// BaseKey returns the holon's base key, derived from its Key property, if
// one is set.
func (h *Holon) BaseKey() (MapString, bool) {
	v, ok := h.PropertyMap[KeyPropertyName]
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	if !ok {
		return "", false
	}
	return MapString(s), true
}

// VersionedKey returns the base key suffixed with this holon's version
// counter, unique within a pool once the counter has been assigned by
// HolonPool.Insert.
func (h *Holon) VersionedKey() (MapString, bool) {
	base, ok := h.BaseKey()
	if !ok {
		return "", false
	}
	if h.versionCounter == 0 {
		return base, true
	}
	return MapString(fmt.Sprintf("%s#%d", base, h.versionCounter)), true
}

// SetVersionCounter is called by HolonPool when inserting a holon whose base
// key collides with one already present.
func (h *Holon) SetVersionCounter(n int) { h.versionCounter = n }

// VersionCounter reports the current disambiguation counter.
func (h *Holon) VersionCounter() int { return h.versionCounter }

// EssentialContent is the property map plus derived key, excluding
// phase-specific metadata — used for equality checks and wire serialization
// (spec.md §4.1).
type EssentialContent struct {
	PropertyMap PropertyMap
	Key         *MapString
}

func (h *Holon) EssentialContent() EssentialContent {
	ec := EssentialContent{PropertyMap: h.PropertyMap.Clone()}
	if k, ok := h.BaseKey(); ok {
		ec.Key = &k
	}
	return ec
}

func (e EssentialContent) Equal(other EssentialContent) bool {
	if !e.PropertyMap.Equal(other.PropertyMap) {
		return false
	}
	if (e.Key == nil) != (other.Key == nil) {
		return false
	}
	if e.Key != nil && *e.Key != *other.Key {
		return false
	}
	return true
}

// GetLocalId returns the holon's durable id, if it has one: Saved holons
// always have one; Staged holons have one iff Committed.
func (h *Holon) GetLocalId() (ids.LocalId, bool) {
	switch h.Phase {
	case PhaseSaved:
		return h.LocalId, true
	case PhaseStaged:
		if h.StagedSubState == Committed && h.SavedNode != nil {
			return h.SavedNode.LocalId, true
		}
	}
	return "", false
}

// GetOriginalId returns the predecessor LocalId this holon was cloned from,
// if any.
func (h *Holon) GetOriginalId() (ids.LocalId, bool) {
	if h.OriginalId == nil {
		return "", false
	}
	return *h.OriginalId, true
}

// IsAccessible implements the access-control rules of spec.md §4.1.
func (h *Holon) IsAccessible(access AccessType) error {
	switch h.Phase {
	case PhaseTransient:
		return nil
	case PhaseStaged:
		switch h.StagedSubState {
		case ForCreate, ForUpdate, ForUpdateChanged:
			return nil
		case Abandoned:
			if access == AccessRead {
				return nil
			}
			return herrors.NotAccessible(access.String(), "Immutable")
		case Committed:
			if access == AccessRead || access == AccessClone {
				return nil
			}
			return herrors.NotAccessible(access.String(), "Committed")
		}
	case PhaseSaved:
		switch h.SavedSubState {
		case Fetched:
			if access == AccessRead || access == AccessClone {
				return nil
			}
			return herrors.NotAccessible(access.String(), "Fetched")
		case Deleted:
			if access == AccessRead {
				return nil
			}
			return herrors.NotAccessible(access.String(), "Deleted")
		}
	}
	return herrors.NotAccessible(access.String(), "Unknown")
}

// UpdatePropertyMap overwrites the property at name, after checking Write
// access.
func (h *Holon) UpdatePropertyMap(name PropertyNameLike, value BaseValue) error {
	if err := h.IsAccessible(AccessWrite); err != nil {
		return err
	}
	h.PropertyMap[CanonicalPropertyName(name)] = value
	if h.Phase == PhaseStaged && h.StagedSubState == ForUpdate {
		h.StagedSubState = ForUpdateChanged
	}
	return nil
}

// WithPropertyValue is the ergonomic fluent form of UpdatePropertyMap, used
// by the "ergonomic properties" scenario (spec.md §8 scenario 5). It never
// panics and has no error return: on an access-control violation it is a
// no-op, leaving the map unchanged; callers that must observe the error use
// UpdatePropertyMap directly.
func (h *Holon) WithPropertyValue(name PropertyNameLike, value BaseValue) *Holon {
	_ = h.UpdatePropertyMap(name, value)
	return h
}

// UpdateOriginalId sets the predecessor LocalId.
func (h *Holon) UpdateOriginalId(id ids.LocalId) error {
	if err := h.IsAccessible(AccessWrite); err != nil {
		return err
	}
	h.OriginalId = &id
	return nil
}

// MarkCommitted transitions a staged holon to Committed(saved) at the end of
// the commit pipeline.
func (h *Holon) MarkCommitted(node *SavedHolonNode) {
	h.StagedSubState = Committed
	h.SavedNode = node
}

// MarkAbandoned transitions a staged holon to Abandoned, after checking
// Abandon access.
func (h *Holon) MarkAbandoned() error {
	if err := h.IsAccessible(AccessAbandon); err != nil {
		return err
	}
	h.StagedSubState = Abandoned
	return nil
}

// MarkDeleted transitions a saved holon to Deleted.
func (h *Holon) MarkDeleted() {
	h.SavedSubState = Deleted
}

// ToSaved converts a Committed staged holon into a standalone Saved holon
// value, used once the commit pipeline's output is handed back as a
// SmartReference target.
func (h *Holon) ToSaved() *Holon {
	if h.Phase != PhaseStaged || h.StagedSubState != Committed || h.SavedNode == nil {
		return nil
	}
	return &Holon{
		Phase:         PhaseSaved,
		PropertyMap:   h.SavedNode.PropertyMap.Clone(),
		OriginalId:    h.SavedNode.OriginalId,
		LocalId:       h.SavedNode.LocalId,
		SavedSubState: Fetched,
	}
}

// Clone deep-copies a holon, used by pool export/import (spec.md §4.6).
func (h *Holon) Clone() *Holon {
	clone := *h
	clone.PropertyMap = h.PropertyMap.Clone()
	if h.Relationships != nil {
		clone.Relationships = h.Relationships.Clone()
	}
	if h.OriginalId != nil {
		id := *h.OriginalId
		clone.OriginalId = &id
	}
	return &clone
}
