package wire

import (
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/txn"
)

// DanceTypeKind discriminates DanceTypeWire, the wire shape of spec.md
// §4.9's DanceType: Standalone carries no subject, the rest carry exactly
// the subject their variant names.
type DanceTypeKind int

const (
	DanceTypeStandalone DanceTypeKind = iota
	DanceTypeQueryMethod
	DanceTypeCommandMethod
	DanceTypeCloneMethod
	DanceTypeNewVersionMethod
	DanceTypeDeleteMethod
)

// DanceTypeWire is a tagged struct rather than an interface, matching the
// sum-type convention already used for HolonReference: the zero value
// (Standalone, no subject) is inert and dispatch stays an exhaustive switch.
type DanceTypeWire struct {
	Kind           DanceTypeKind
	NodeCollection NodeCollectionWire // QueryMethod
	StagedRef      HolonReferenceWire // CommandMethod
	HolonID        HolonReferenceWire // NewVersionMethod, must bind Smart
	LocalID        string             // DeleteMethod
}

// RequestBodyKind discriminates RequestBodyWire, the wire shape of spec.md
// §4.9's RequestBody union.
type RequestBodyKind int

const (
	BodyNone RequestBodyKind = iota
	BodyHolon
	BodyTargetHolons
	BodyHolonID
	BodyParameterValues
	BodyStagedRef
	BodyQueryExpression
)

// QueryExpressionWire carries a traversal: the nodes to start from and the
// relationship path to follow, the wire form of a QueryExpression body.
type QueryExpressionWire struct {
	Nodes NodeCollectionWire
	Path  QueryPathMapWire
}

// TargetHolonsWire is the wire shape of RequestBody::TargetHolons(name, targets).
type TargetHolonsWire struct {
	RelationshipName string
	Targets          []HolonReferenceWire
}

// RequestBodyWire is a tagged struct over the RequestBody union, following
// the same convention as DanceTypeWire and HolonReferenceWire.
type RequestBodyWire struct {
	Kind             RequestBodyKind
	Holon            HolonWire
	TargetHolons     TargetHolonsWire
	HolonID          HolonReferenceWire
	ParameterValues  map[string]BaseValueWire
	StagedRef        HolonReferenceWire
	QueryExpression  QueryExpressionWire
}

// DanceRequestWire is the wire shape of spec.md §4.9's DanceRequest:
// {dance_name, dance_type, body, optional session_state}.
type DanceRequestWire struct {
	DanceName    string
	DanceType    DanceTypeWire
	Body         RequestBodyWire
	SessionState *SessionStateWire
}

// DanceResponseWire is the wire shape of spec.md §4.9's DanceResponse:
// {status_code, description, body, optional descriptor, optional
// session_state}. StatusCode mirrors herrors.StatusCode's numeric values so
// both sides of the IPC boundary agree without a shared enum import.
type DanceResponseWire struct {
	StatusCode   int
	Description  string
	Body         RequestBodyWire
	Descriptor   string
	HasDescriptor bool
	SessionState *SessionStateWire
}

// BoundDanceType is the runtime form of DanceTypeWire: the subject, if any,
// already resolved against a TransactionContext.
type BoundDanceType struct {
	Kind           DanceTypeKind
	NodeCollection []holon.HolonReference
	StagedRef      holon.StagedReference
	HolonID        holon.HolonId
	LocalID        string
}

// Bind resolves a DanceTypeWire's embedded subject against ctx.
func (w DanceTypeWire) Bind(ctx *txn.TransactionContext) (BoundDanceType, error) {
	switch w.Kind {
	case DanceTypeStandalone, DanceTypeDeleteMethod:
		return BoundDanceType{Kind: w.Kind, LocalID: w.LocalID}, nil
	case DanceTypeQueryMethod:
		nodes, err := w.NodeCollection.Bind(ctx)
		if err != nil {
			return BoundDanceType{}, err
		}
		return BoundDanceType{Kind: w.Kind, NodeCollection: nodes}, nil
	case DanceTypeCommandMethod:
		ref, err := w.StagedRef.Bind(ctx)
		if err != nil {
			return BoundDanceType{}, err
		}
		if ref.Kind != holon.KindStaged {
			return BoundDanceType{}, herrors.InvalidHolonReference("CommandMethod subject must be a StagedReference")
		}
		return BoundDanceType{Kind: w.Kind, StagedRef: ref.Staged}, nil
	case DanceTypeCloneMethod:
		return BoundDanceType{Kind: w.Kind}, nil
	case DanceTypeNewVersionMethod:
		ref, err := w.HolonID.Bind(ctx)
		if err != nil {
			return BoundDanceType{}, err
		}
		if ref.Kind != holon.KindSmart {
			return BoundDanceType{}, herrors.InvalidHolonReference("NewVersionMethod subject must be a HolonId (SmartReferenceWire)")
		}
		return BoundDanceType{Kind: w.Kind, HolonID: ref.Smart.ID}, nil
	default:
		return BoundDanceType{}, herrors.InvalidHolonReference("unrecognized DanceTypeWire.Kind")
	}
}

// BoundRequestBody is the runtime form of RequestBodyWire.
type BoundRequestBody struct {
	Kind            RequestBodyKind
	Holon           holon.TransientReference
	TargetRelName   holon.RelationshipName
	Targets         []holon.HolonReference
	HolonID         holon.HolonId
	ParameterValues holon.PropertyMap
	StagedRef       holon.StagedReference
	QueryNodes      []holon.HolonReference
	QueryPath       []holon.RelationshipName
}

// Bind resolves a RequestBodyWire's payload against ctx.
func (w RequestBodyWire) Bind(ctx *txn.TransactionContext) (BoundRequestBody, error) {
	switch w.Kind {
	case BodyNone:
		return BoundRequestBody{Kind: BodyNone}, nil
	case BodyHolon:
		ref, err := w.Holon.Bind(ctx)
		if err != nil {
			return BoundRequestBody{}, err
		}
		return BoundRequestBody{Kind: BodyHolon, Holon: ref}, nil
	case BodyTargetHolons:
		targets := make([]holon.HolonReference, 0, len(w.TargetHolons.Targets))
		for _, t := range w.TargetHolons.Targets {
			ref, err := t.Bind(ctx)
			if err != nil {
				return BoundRequestBody{}, err
			}
			targets = append(targets, ref)
		}
		return BoundRequestBody{
			Kind:          BodyTargetHolons,
			TargetRelName: holon.CanonicalRelationshipName(w.TargetHolons.RelationshipName),
			Targets:       targets,
		}, nil
	case BodyHolonID:
		ref, err := w.HolonID.Bind(ctx)
		if err != nil {
			return BoundRequestBody{}, err
		}
		if ref.Kind != holon.KindSmart {
			return BoundRequestBody{}, herrors.InvalidHolonReference("HolonId body must bind to a Smart reference")
		}
		return BoundRequestBody{Kind: BodyHolonID, HolonID: ref.Smart.ID}, nil
	case BodyParameterValues:
		pm := make(holon.PropertyMap, len(w.ParameterValues))
		for name, v := range w.ParameterValues {
			pm[holon.CanonicalPropertyName(name)] = v.ToBaseValue()
		}
		return BoundRequestBody{Kind: BodyParameterValues, ParameterValues: pm}, nil
	case BodyStagedRef:
		ref, err := w.StagedRef.Bind(ctx)
		if err != nil {
			return BoundRequestBody{}, err
		}
		if ref.Kind != holon.KindStaged {
			return BoundRequestBody{}, herrors.InvalidHolonReference("StagedRef body must bind to a Staged reference")
		}
		return BoundRequestBody{Kind: BodyStagedRef, StagedRef: ref.Staged}, nil
	case BodyQueryExpression:
		nodes, err := w.QueryExpression.Nodes.Bind(ctx)
		if err != nil {
			return BoundRequestBody{}, err
		}
		path, err := w.QueryExpression.Path.Bind(ctx)
		if err != nil {
			return BoundRequestBody{}, err
		}
		return BoundRequestBody{Kind: BodyQueryExpression, QueryNodes: nodes, QueryPath: path}, nil
	default:
		return BoundRequestBody{}, herrors.InvalidWireFormat("RequestBodyWire", "unrecognized Kind")
	}
}
