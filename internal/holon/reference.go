package holon

import (
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/ids"
)

// TransactionView is the minimal surface a reference needs to resolve
// itself. internal/txn.TransactionContext implements it; holon deliberately
// declares only what it consumes rather than importing the txn package,
// which would create an import cycle (txn needs *Holon and the pool/cache
// types this package is about to define) — the standard Go way of avoiding
// that is for the consumer (this package) to own the narrow interface.
type TransactionView interface {
	TxID() ids.TxId
	LookupTransient(id ids.TemporaryId) (*Holon, bool)
	LookupStaged(id ids.TemporaryId) (*Holon, bool)
	ResolveSmart(id HolonId) (*Holon, error)
	RelatedHolons(source HolonId, rel RelationshipName) (*HolonCollection, error)
}

// ReadableHolon is implemented by all three reference variants.
type ReadableHolon interface {
	GetPropertyValue(ctx TransactionView, name PropertyNameLike) (BaseValue, bool, error)
	GetRelatedHolons(ctx TransactionView, rel RelationshipNameLike) (*HolonCollection, error)
	GetKey(ctx TransactionView) (MapString, bool, error)
	GetLocalId(ctx TransactionView) (ids.LocalId, bool, error)
	GetOriginalId(ctx TransactionView) (ids.LocalId, bool, error)
	IsAccessible(ctx TransactionView, access AccessType) error
	EssentialContent(ctx TransactionView) (EssentialContent, error)
}

// WritableHolon extends ReadableHolon with mutation. Only Transient and
// Staged references implement it meaningfully; SmartReference implements it
// too (Go has no partial-interface satisfaction) but every method returns
// NotAccessible, which is exactly the invariant spec.md §8 requires
// ("∀ SmartReference: .is_accessible(Write) always fails").
type WritableHolon interface {
	ReadableHolon
	WithPropertyValue(ctx TransactionView, name PropertyNameLike, value BaseValue) error
	AddRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error
	RemoveRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error
}

func checkTx(ctx TransactionView, refTx ids.TxId) error {
	if ctx.TxID() != refTx {
		return herrors.CrossTransactionReference(uint64(refTx), uint64(ctx.TxID()))
	}
	return nil
}

// TransientReference is bound to a transient holon in the
// TransientHolonManager of the bound transaction.
type TransientReference struct {
	Tx ids.TxId
	ID ids.TemporaryId
}

func NewTransientReference(tx ids.TxId, id ids.TemporaryId) TransientReference {
	return TransientReference{Tx: tx, ID: id}
}

func (r TransientReference) resolve(ctx TransactionView) (*Holon, error) {
	if err := checkTx(ctx, r.Tx); err != nil {
		return nil, err
	}
	h, ok := ctx.LookupTransient(r.ID)
	if !ok {
		return nil, herrors.ReferenceResolutionFailed("Transient", string(r.ID), "not found in transaction")
	}
	return h, nil
}

func (r TransientReference) GetPropertyValue(ctx TransactionView, name PropertyNameLike) (BaseValue, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return BaseValue{}, false, err
	}
	v, ok := h.PropertyMap[CanonicalPropertyName(name)]
	return v, ok, nil
}

func (r TransientReference) GetRelatedHolons(ctx TransactionView, rel RelationshipNameLike) (*HolonCollection, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return h.Relationships.Get(CanonicalRelationshipName(rel)), nil
}

func (r TransientReference) GetKey(ctx TransactionView) (MapString, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	k, ok := h.BaseKey()
	return k, ok, nil
}

func (r TransientReference) GetLocalId(ctx TransactionView) (ids.LocalId, bool, error) {
	return "", false, nil
}

func (r TransientReference) GetOriginalId(ctx TransactionView) (ids.LocalId, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := h.GetOriginalId()
	return id, ok, nil
}

func (r TransientReference) IsAccessible(ctx TransactionView, access AccessType) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	return h.IsAccessible(access)
}

func (r TransientReference) EssentialContent(ctx TransactionView) (EssentialContent, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return EssentialContent{}, err
	}
	return h.EssentialContent(), nil
}

func (r TransientReference) WithPropertyValue(ctx TransactionView, name PropertyNameLike, value BaseValue) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	return h.UpdatePropertyMap(name, value)
}

func (r TransientReference) AddRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if err := h.IsAccessible(AccessWrite); err != nil {
		return err
	}
	return h.Relationships.Add(ctx, CanonicalRelationshipName(rel), targets)
}

func (r TransientReference) RemoveRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if err := h.IsAccessible(AccessWrite); err != nil {
		return err
	}
	return h.Relationships.Remove(ctx, CanonicalRelationshipName(rel), targets)
}

// StagedReference is bound to a staged holon in the Nursery of the bound
// transaction.
type StagedReference struct {
	Tx ids.TxId
	ID ids.TemporaryId
}

func NewStagedReference(tx ids.TxId, id ids.TemporaryId) StagedReference {
	return StagedReference{Tx: tx, ID: id}
}

func (r StagedReference) resolve(ctx TransactionView) (*Holon, error) {
	if err := checkTx(ctx, r.Tx); err != nil {
		return nil, err
	}
	h, ok := ctx.LookupStaged(r.ID)
	if !ok {
		return nil, herrors.ReferenceResolutionFailed("Staged", string(r.ID), "not found in nursery")
	}
	return h, nil
}

func (r StagedReference) GetPropertyValue(ctx TransactionView, name PropertyNameLike) (BaseValue, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return BaseValue{}, false, err
	}
	v, ok := h.PropertyMap[CanonicalPropertyName(name)]
	return v, ok, nil
}

func (r StagedReference) GetRelatedHolons(ctx TransactionView, rel RelationshipNameLike) (*HolonCollection, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return h.Relationships.Get(CanonicalRelationshipName(rel)), nil
}

func (r StagedReference) GetKey(ctx TransactionView) (MapString, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	k, ok := h.VersionedKey()
	return k, ok, nil
}

func (r StagedReference) GetLocalId(ctx TransactionView) (ids.LocalId, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := h.GetLocalId()
	return id, ok, nil
}

func (r StagedReference) GetOriginalId(ctx TransactionView) (ids.LocalId, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := h.GetOriginalId()
	return id, ok, nil
}

func (r StagedReference) IsAccessible(ctx TransactionView, access AccessType) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	return h.IsAccessible(access)
}

func (r StagedReference) EssentialContent(ctx TransactionView) (EssentialContent, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return EssentialContent{}, err
	}
	return h.EssentialContent(), nil
}

func (r StagedReference) WithPropertyValue(ctx TransactionView, name PropertyNameLike, value BaseValue) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	return h.UpdatePropertyMap(name, value)
}

func (r StagedReference) AddRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if err := h.IsAccessible(AccessWrite); err != nil {
		return err
	}
	return h.Relationships.Add(ctx, CanonicalRelationshipName(rel), targets)
}

func (r StagedReference) RemoveRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	if err := h.IsAccessible(AccessWrite); err != nil {
		return err
	}
	return h.Relationships.Remove(ctx, CanonicalRelationshipName(rel), targets)
}

// Abandon transitions the staged holon to Abandoned, the dedicated
// "abandon_staged_changes" operation from SPEC_FULL.md's supplemented
// features.
func (r StagedReference) Abandon(ctx TransactionView) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	return h.MarkAbandoned()
}

// SmartReference resolves through the cache layer. The optional
// propertySnapshot lets cheap property queries avoid a cache round trip
// (spec.md §4.1).
type SmartReference struct {
	ID               HolonId
	propertySnapshot PropertyMap
}

func NewSmartReference(id HolonId) SmartReference {
	return SmartReference{ID: id}
}

// NewSmartReferenceWithSnapshot attaches a property snapshot captured at
// construction time (e.g. immediately after commit, when the caller already
// holds the committed property map).
func NewSmartReferenceWithSnapshot(id HolonId, snapshot PropertyMap) SmartReference {
	return SmartReference{ID: id, propertySnapshot: snapshot}
}

func (r SmartReference) resolve(ctx TransactionView) (*Holon, error) {
	return ctx.ResolveSmart(r.ID)
}

func (r SmartReference) GetPropertyValue(ctx TransactionView, name PropertyNameLike) (BaseValue, bool, error) {
	canon := CanonicalPropertyName(name)
	if r.propertySnapshot != nil {
		v, ok := r.propertySnapshot[canon]
		return v, ok, nil
	}
	h, err := r.resolve(ctx)
	if err != nil {
		return BaseValue{}, false, err
	}
	v, ok := h.PropertyMap[canon]
	return v, ok, nil
}

func (r SmartReference) GetRelatedHolons(ctx TransactionView, rel RelationshipNameLike) (*HolonCollection, error) {
	return ctx.RelatedHolons(r.ID, CanonicalRelationshipName(rel))
}

func (r SmartReference) GetKey(ctx TransactionView) (MapString, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	k, ok := h.BaseKey()
	return k, ok, nil
}

func (r SmartReference) GetLocalId(ctx TransactionView) (ids.LocalId, bool, error) {
	return r.ID.Local, true, nil
}

func (r SmartReference) GetOriginalId(ctx TransactionView) (ids.LocalId, bool, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := h.GetOriginalId()
	return id, ok, nil
}

func (r SmartReference) IsAccessible(ctx TransactionView, access AccessType) error {
	h, err := r.resolve(ctx)
	if err != nil {
		return err
	}
	return h.IsAccessible(access)
}

func (r SmartReference) EssentialContent(ctx TransactionView) (EssentialContent, error) {
	h, err := r.resolve(ctx)
	if err != nil {
		return EssentialContent{}, err
	}
	return h.EssentialContent(), nil
}

// WithPropertyValue, AddRelatedHolons, RemoveRelatedHolons: a SmartReference
// is read-only; every write fails with NotAccessible regardless of the
// underlying saved holon's sub-state (spec.md §8 invariant).
func (r SmartReference) WithPropertyValue(ctx TransactionView, name PropertyNameLike, value BaseValue) error {
	return herrors.NotAccessible(AccessWrite.String(), "Saved")
}

func (r SmartReference) AddRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error {
	return herrors.NotAccessible(AccessWrite.String(), "Saved")
}

func (r SmartReference) RemoveRelatedHolons(ctx TransactionView, rel RelationshipNameLike, targets []HolonReference) error {
	return herrors.NotAccessible(AccessWrite.String(), "Saved")
}

// HolonReferenceKind discriminates the HolonReference sum type.
type HolonReferenceKind int

const (
	KindTransient HolonReferenceKind = iota
	KindStaged
	KindSmart
)

// HolonReference is the sum of TransientReference, StagedReference, and
// SmartReference (spec.md §4.1). Implemented as a tagged struct rather than
// an interface so the zero value is inert and switch-based dispatch stays
// exhaustive and cheap, per the "avoid inheritance" design note in spec.md
// §9.
type HolonReference struct {
	Kind      HolonReferenceKind
	Transient TransientReference
	Staged    StagedReference
	Smart     SmartReference
}

func FromTransient(r TransientReference) HolonReference {
	return HolonReference{Kind: KindTransient, Transient: r}
}

func FromStaged(r StagedReference) HolonReference {
	return HolonReference{Kind: KindStaged, Staged: r}
}

func FromSmart(r SmartReference) HolonReference {
	return HolonReference{Kind: KindSmart, Smart: r}
}

// Readable returns the ReadableHolon façade for whichever variant is held.
func (hr HolonReference) Readable() ReadableHolon {
	switch hr.Kind {
	case KindTransient:
		return hr.Transient
	case KindStaged:
		return hr.Staged
	default:
		return hr.Smart
	}
}

// Writable returns the WritableHolon façade. For a Smart reference this
// still type-checks (SmartReference implements WritableHolon) but every
// mutating call returns NotAccessible.
func (hr HolonReference) Writable() WritableHolon {
	switch hr.Kind {
	case KindTransient:
		return hr.Transient
	case KindStaged:
		return hr.Staged
	default:
		return hr.Smart
	}
}

// Key returns the identity key used by HolonCollection's keyed index: the
// versioned key for Staged, the base key for Transient/Smart.
func (hr HolonReference) Key(ctx TransactionView) (MapString, bool, error) {
	if hr.Kind == KindStaged {
		return hr.Staged.GetKey(ctx)
	}
	return hr.Readable().GetKey(ctx)
}

// Equal reports whether two references name the same underlying holon.
func (hr HolonReference) Equal(other HolonReference) bool {
	if hr.Kind != other.Kind {
		return false
	}
	switch hr.Kind {
	case KindTransient:
		return hr.Transient == other.Transient
	case KindStaged:
		return hr.Staged == other.Staged
	default:
		return hr.Smart.ID == other.Smart.ID
	}
}
