// Package wire implements the context-free wire envelope types of spec.md
// §6: the shapes an IPC transport actually marshals, each carrying a Bind
// method that validates embedded TxIds against a target TransactionContext
// and converts holon ids into runtime references. None of these types touch
// a pool or cache directly — that is exactly the point of a wire boundary.
package wire

import (
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/pool"
	"github.com/evomimic/holonengine/internal/txn"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// HolonReferenceWireKind mirrors holon.HolonReferenceKind on the wire, plus
// the context-free Smart variant spec.md §6 calls out separately for
// space-holon anchors ("may carry only a SmartReferenceWire").
type HolonReferenceWireKind int

const (
	WireKindTransient HolonReferenceWireKind = iota
	WireKindStaged
	WireKindSmart
)

// HolonReferenceWire is the wire shape of a holon.HolonReference: TxId and
// TemporaryId for Transient/Staged, a plain HolonId string for Smart.
type HolonReferenceWire struct {
	Kind        HolonReferenceWireKind
	TxID        uint64
	TemporaryID string
	LocalID     string
	SpaceID     string
	IsLocal     bool
}

// Bind converts a wire reference into a runtime holon.HolonReference bound
// to ctx, failing with CrossTransactionReference if a carried TxId does not
// match ctx's, or InvalidHolonReference for an unrecognized Kind.
func (w HolonReferenceWire) Bind(ctx *txn.TransactionContext) (holon.HolonReference, error) {
	switch w.Kind {
	case WireKindTransient:
		if ids.TxId(w.TxID) != ctx.TxID() {
			return holon.HolonReference{}, herrors.CrossTransactionReference(w.TxID, uint64(ctx.TxID()))
		}
		return holon.FromTransient(holon.NewTransientReference(ctx.TxID(), ids.TemporaryId(w.TemporaryID))), nil
	case WireKindStaged:
		if ids.TxId(w.TxID) != ctx.TxID() {
			return holon.HolonReference{}, herrors.CrossTransactionReference(w.TxID, uint64(ctx.TxID()))
		}
		return holon.FromStaged(holon.NewStagedReference(ctx.TxID(), ids.TemporaryId(w.TemporaryID))), nil
	case WireKindSmart:
		var id holon.HolonId
		if w.IsLocal {
			id = holon.LocalHolonId(ids.LocalId(w.LocalID))
		} else {
			id = holon.ExternalHolonId(holon.SpaceId(w.SpaceID), ids.LocalId(w.LocalID))
		}
		return holon.FromSmart(holon.NewSmartReference(id)), nil
	default:
		return holon.HolonReference{}, herrors.InvalidHolonReference("unrecognized HolonReferenceWire.Kind")
	}
}

// FromHolonReference builds the wire shape of a runtime reference, the
// inverse direction used when the engine sends a response back over IPC.
func FromHolonReference(hr holon.HolonReference) HolonReferenceWire {
	switch hr.Kind {
	case holon.KindTransient:
		return HolonReferenceWire{Kind: WireKindTransient, TxID: uint64(hr.Transient.Tx), TemporaryID: string(hr.Transient.ID)}
	case holon.KindStaged:
		return HolonReferenceWire{Kind: WireKindStaged, TxID: uint64(hr.Staged.Tx), TemporaryID: string(hr.Staged.ID)}
	default:
		return HolonReferenceWire{Kind: WireKindSmart, LocalID: string(hr.Smart.ID.Local), SpaceID: string(hr.Smart.ID.Space), IsLocal: hr.Smart.ID.IsLocal}
	}
}

// SmartReferenceWire is the restricted wire shape spec.md §6 requires for
// space-holon anchors: "may carry only a SmartReferenceWire; anything else
// fails with InvalidHolonReference".
type SmartReferenceWire struct {
	LocalID string
	SpaceID string
	IsLocal bool
}

func (w SmartReferenceWire) Bind(ctx *txn.TransactionContext) (holon.SmartReference, error) {
	var id holon.HolonId
	if w.IsLocal {
		id = holon.LocalHolonId(ids.LocalId(w.LocalID))
	} else {
		id = holon.ExternalHolonId(holon.SpaceId(w.SpaceID), ids.LocalId(w.LocalID))
	}
	return holon.NewSmartReference(id), nil
}

// BindSpaceHolonAnchor enforces the §6 restriction that an anchor reference
// on the wire may only ever be a Smart reference.
func BindSpaceHolonAnchor(w HolonReferenceWire, ctx *txn.TransactionContext) (holon.HolonId, error) {
	if w.Kind != WireKindSmart {
		return holon.HolonId{}, herrors.InvalidHolonReference("space holon anchor must be a SmartReferenceWire")
	}
	ref, err := w.Bind(ctx)
	if err != nil {
		return holon.HolonId{}, err
	}
	return ref.Smart.ID, nil
}

// BaseValueWire is the wire shape of holon.BaseValue: a discriminated union
// flattened into optional fields rather than an interface{}, so JSON and the
// hand-registered gRPC codec (internal/dancetransport) serialize it the same
// way every other wire struct is serialized.
type BaseValueWire struct {
	Kind  holon.BaseValueKind
	Str   string
	Int   int64
	Bool  bool
	Bytes []byte
	Enum  string
	Array []BaseValueWire
}

func FromBaseValue(v holon.BaseValue) BaseValueWire {
	w := BaseValueWire{Kind: v.Kind, Str: string(v.Str), Int: v.Int, Bool: v.Bool, Bytes: v.Bytes, Enum: v.Enum}
	for _, item := range v.Array {
		w.Array = append(w.Array, FromBaseValue(item))
	}
	return w
}

func (w BaseValueWire) ToBaseValue() holon.BaseValue {
	v := holon.BaseValue{Kind: w.Kind, Str: holon.MapString(w.Str), Int: w.Int, Bool: w.Bool, Bytes: w.Bytes, Enum: w.Enum}
	for _, item := range w.Array {
		v.Array = append(v.Array, item.ToBaseValue())
	}
	return v
}

// HolonWire is the context-free wire shape of a holon.Holon's essential
// content: a property map plus the holon's key, with a creation timestamp
// for callers (e.g. a diagnostic dance) that want to surface one.
type HolonWire struct {
	Properties map[string]BaseValueWire
	Key        string
	HasKey     bool
	CreatedAt  *timestamppb.Timestamp
}

// FromEssentialContent builds a HolonWire from a holon's essential content,
// stamping CreatedAt with the given timestamp (the engine core never calls
// time.Now() itself; callers that need a timestamp supply one).
func FromEssentialContent(ec holon.EssentialContent, createdAt *timestamppb.Timestamp) HolonWire {
	w := HolonWire{Properties: make(map[string]BaseValueWire, len(ec.PropertyMap)), CreatedAt: createdAt}
	for name, v := range ec.PropertyMap {
		w.Properties[string(name)] = FromBaseValue(v)
	}
	if ec.Key != nil {
		w.Key = string(*ec.Key)
		w.HasKey = true
	}
	return w
}

// Bind converts a HolonWire into a freshly minted transient holon bound to
// ctx, populating its property map. This is the ingress path for a
// BodyHolon request body carrying a new Holon's content (as sent by the
// Standalone stage_holon dance).
func (w HolonWire) Bind(ctx *txn.TransactionContext) (holon.TransientReference, error) {
	key := ""
	if w.HasKey {
		key = w.Key
	}
	ref := ctx.NewTransientHolon(key)
	h, ok := ctx.LookupTransient(ref.ID)
	if !ok {
		return holon.TransientReference{}, herrors.ReferenceBindingFailed("freshly minted transient holon vanished")
	}
	for name, v := range w.Properties {
		if name == string(holon.KeyPropertyName) {
			continue
		}
		if err := h.UpdatePropertyMap(holon.PropertyName(name), v.ToBaseValue()); err != nil {
			return holon.TransientReference{}, err
		}
	}
	return ref, nil
}

// HolonCollectionWire is the wire shape of a holon.HolonCollection: an
// ordered list of references, no key index (the index is rebuilt by
// AddReferences on bind).
type HolonCollectionWire struct {
	Items []HolonReferenceWire
}

func FromHolonCollection(c *holon.HolonCollection) HolonCollectionWire {
	items := c.All()
	w := HolonCollectionWire{Items: make([]HolonReferenceWire, len(items))}
	for i, ref := range items {
		w.Items[i] = FromHolonReference(ref)
	}
	return w
}

// Bind resolves every wire reference against ctx and returns a fresh
// HolonCollection; the first unresolvable reference fails the whole bind,
// per the strict "validates ... and converts" language of spec.md §6 (this
// is an ingress validation step, unlike the commit pipeline's per-edge
// partial resolution).
func (w HolonCollectionWire) Bind(ctx *txn.TransactionContext) (*holon.HolonCollection, error) {
	c := holon.NewHolonCollection()
	refs := make([]holon.HolonReference, 0, len(w.Items))
	for _, item := range w.Items {
		ref, err := item.Bind(ctx)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := c.AddReferences(ctx, refs); err != nil {
		return nil, err
	}
	return c, nil
}

// NodeCollectionWire carries a QueryMethod dance's read-only subject: a
// named set of holon references to traverse from, without any relationship
// context attached (spec.md §4.9's QueryMethod(NodeCollection)).
type NodeCollectionWire struct {
	Nodes []HolonReferenceWire
}

func (w NodeCollectionWire) Bind(ctx *txn.TransactionContext) ([]holon.HolonReference, error) {
	out := make([]holon.HolonReference, 0, len(w.Nodes))
	for _, item := range w.Nodes {
		ref, err := item.Bind(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// QueryPathMapWire carries a traversal path as an ordered list of
// relationship names to follow from a NodeCollection, the wire shape behind
// a QueryExpression request body.
type QueryPathMapWire struct {
	RelationshipNames []string
}

// Bind canonicalizes each path segment into a holon.RelationshipName; a
// QueryPathMap never embeds a TxId so there is nothing to cross-check, but
// Bind keeps the same signature as every other wire type for uniformity at
// the dispatch call site.
func (w QueryPathMapWire) Bind(ctx *txn.TransactionContext) ([]holon.RelationshipName, error) {
	out := make([]holon.RelationshipName, len(w.RelationshipNames))
	for i, name := range w.RelationshipNames {
		out[i] = holon.CanonicalRelationshipName(name)
	}
	return out, nil
}

// SessionStateWire ping-pongs transaction-scoped pool state across IPC
// (spec.md §6): staged pool, transient pool, optional space-holon anchor,
// and the originating TxId.
type SessionStateWire struct {
	TxID             uint64
	StagedPool       *pool.SerializableHolonPool
	TransientPool    *pool.SerializableHolonPool
	SpaceHolonAnchor *HolonReferenceWire
	UpdatedAt        *timestamppb.Timestamp
}

// Bind imports both pools into ctx in place and, if present, returns the
// bound space-holon anchor id. ctx must already have been opened with this
// SessionStateWire's TxId (spec.md §6: "Recipients open a transaction with
// the incoming TxId and import both pools").
func (w SessionStateWire) Bind(ctx *txn.TransactionContext) (*holon.HolonId, error) {
	if ids.TxId(w.TxID) != ctx.TxID() {
		return nil, herrors.CrossTransactionReference(w.TxID, uint64(ctx.TxID()))
	}
	if w.StagedPool != nil {
		ctx.ImportStagedHolons(w.StagedPool)
	}
	if w.TransientPool != nil {
		ctx.ImportTransientHolons(w.TransientPool)
	}
	if w.SpaceHolonAnchor == nil {
		return nil, nil
	}
	id, err := BindSpaceHolonAnchor(*w.SpaceHolonAnchor, ctx)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// FromTransactionContext captures the wire shape of ctx's current pools, the
// egress counterpart of Bind.
func FromTransactionContext(ctx *txn.TransactionContext, spaceHolonAnchor *holon.HolonId, updatedAt *timestamppb.Timestamp) SessionStateWire {
	w := SessionStateWire{
		TxID:          uint64(ctx.TxID()),
		StagedPool:    ctx.ExportStagedHolons(),
		TransientPool: ctx.ExportTransientHolons(),
		UpdatedAt:     updatedAt,
	}
	if spaceHolonAnchor != nil {
		anchor := FromHolonReference(holon.FromSmart(holon.NewSmartReference(*spaceHolonAnchor)))
		w.SpaceHolonAnchor = &anchor
	}
	return w
}
