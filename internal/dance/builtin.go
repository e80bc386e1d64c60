package dance

import (
	"github.com/evomimic/holonengine/internal/commit"
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/txn"
	"github.com/evomimic/holonengine/internal/wire"
)

// registerBuiltins wires the handful of dances every space needs regardless
// of its domain: committing a transaction's nursery, fetching holons,
// staging a new version, and deleting a saved holon. Domain-specific dances
// are registered separately by the embedding application.
func (d *Dispatcher) registerBuiltins() {
	d.Register("commit", d.commitTransaction)
	d.Register("get_holon", d.getHolon)
	d.Register("stage_holon", d.stageHolon)
	d.Register("stage_new_version", d.stageNewVersion)
	d.Register("delete_holon", d.deleteHolon)
}

// stageHolon implements a Standalone dance that stages a brand-new holon
// for create: req.Body.Holon is the transient reference the wire layer's
// HolonWire.Bind already minted from the request body, so staging is just
// ctx.Stage (spec.md §3's Transient -> Staged/ForCreate transition).
func (d *Dispatcher) stageHolon(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error) {
	if req.Body.Kind != wire.BodyHolon {
		return nil, herrors.InvalidParameter("body: stage_holon requires a Holon body")
	}
	staged, err := ctx.Stage(req.Body.Holon)
	if err != nil {
		return nil, err
	}
	return &DanceResponse{
		Description: "staged for create",
		Body:        ResponseBody{Kind: ResponseHolon, Holon: holon.FromStaged(staged)},
	}, nil
}

// commitTransaction runs the commit pipeline (internal/commit) over the
// transaction's Nursery, the Standalone dance behind spec.md §4.8's
// operation surface.
func (d *Dispatcher) commitTransaction(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error) {
	if err := ctx.BeginCommit(); err != nil {
		return nil, err
	}
	result, err := commit.Run(ctx, d.space.GetHolonService(), d.space.GetCacheAccess())
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, herrors.CommitFailure(result.Errors[0].Err, "one or more staged holons failed to commit")
	}
	if err := ctx.FinishCommit(); err != nil {
		return nil, err
	}
	return &DanceResponse{
		Description: "commit complete",
		Body:        ResponseBody{Kind: ResponseHolons, Holons: result.Committed},
	}, nil
}

// getHolon implements a QueryMethod dance: req.Type.NodeCollection names the
// holons to resolve through the space cache.
func (d *Dispatcher) getHolon(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error) {
	if req.Type.Kind != wire.DanceTypeQueryMethod {
		return nil, herrors.InvalidParameter("dance_type: get_holon requires QueryMethod")
	}
	for _, ref := range req.Type.NodeCollection {
		if ref.Kind == holon.KindSmart {
			if _, err := ctx.ResolveSmart(ref.Smart.ID); err != nil {
				return nil, err
			}
		}
	}
	return &DanceResponse{
		Description: "resolved holons",
		Body:        ResponseBody{Kind: ResponseHolons, Holons: req.Type.NodeCollection},
	}, nil
}

// stageNewVersion implements a NewVersionMethod dance: clones the saved
// holon named by req.Type.HolonID for update, linking PREDECESSOR back at it
// (txn.StageNewVersion, SPEC_FULL.md supplemented features).
func (d *Dispatcher) stageNewVersion(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error) {
	if req.Type.Kind != wire.DanceTypeNewVersionMethod {
		return nil, herrors.InvalidParameter("dance_type: stage_new_version requires NewVersionMethod")
	}
	staged, err := ctx.StageNewVersion(holon.NewSmartReference(req.Type.HolonID))
	if err != nil {
		return nil, err
	}
	return &DanceResponse{
		Description: "staged new version",
		Body:        ResponseBody{Kind: ResponseHolon, Holon: holon.FromStaged(staged)},
	}, nil
}

// deleteHolon implements a DeleteMethod dance against the space's
// persistence port directly (spec.md §6 delete_holon(LocalId) -> ()),
// invalidating the cache entry so a subsequent SmartReference read observes
// the deletion. Deletion is refused while any relationship originates from
// the holon with a non-empty target set (spec.md §3 line 74, §7
// DeletionNotAllowed).
func (d *Dispatcher) deleteHolon(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error) {
	if req.Type.Kind != wire.DanceTypeDeleteMethod {
		return nil, herrors.InvalidParameter("dance_type: delete_holon requires DeleteMethod")
	}
	id := holon.LocalHolonId(ids.LocalId(req.Type.LocalID))

	relationships, err := d.space.GetHolonService().FetchAllRelationships(id)
	if err != nil {
		return nil, err
	}
	for name, targets := range relationships {
		if targets.GetCount() > 0 {
			return nil, herrors.DeletionNotAllowed(string(name))
		}
	}

	if err := d.space.GetHolonService().DeleteHolon(id); err != nil {
		return nil, err
	}
	d.space.GetCacheAccess().HolonCache().Invalidate(id)
	return &DanceResponse{Description: "deleted"}, nil
}
