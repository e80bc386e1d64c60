package pool

import (
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/ids"
)

// Nursery is the per-transaction pool of staged holons (spec.md §4.3, §4.6).
type Nursery struct {
	*HolonPool
}

// NewNursery builds an empty Nursery.
func NewNursery() *Nursery {
	return &Nursery{HolonPool: NewHolonPool()}
}

// StageHolon inserts a newly-staged holon (ForCreate or ForUpdate) and
// returns its TemporaryId.
func (n *Nursery) StageHolon(h *holon.Holon) ids.TemporaryId {
	id := n.Insert(h)
	holonmetrics.NurserySize.Set(float64(n.Count()))
	holonlog.WithComponent("nursery").Debug().
		Str("temporary_id", string(id)).
		Str("sub_state", h.StagedSubState.String()).
		Msg("staged holon")
	return id
}

// GetStagedHolonByBaseKey implements spec.md §4.3's
// get_staged_holon_by_base_key: DuplicateError when more than one staged
// holon shares base.
func (n *Nursery) GetStagedHolonByBaseKey(base holon.MapString) (ids.TemporaryId, *holon.Holon, error) {
	return n.GetOneByBaseKey(base)
}

// GetStagedHolonsByBaseKey implements the multiplicity-tolerant variant.
func (n *Nursery) GetStagedHolonsByBaseKey(base holon.MapString) []PoolEntry {
	return n.GetAllByBaseKey(base)
}

// AbandonStagedChanges is the dedicated operation from SPEC_FULL.md's
// supplemented features: validates Abandon access before flipping sub-state.
func (n *Nursery) AbandonStagedChanges(id ids.TemporaryId) error {
	h, ok := n.Get(id)
	if !ok {
		return herrors.ReferenceResolutionFailed("Staged", string(id), "not found in nursery")
	}
	return h.MarkAbandoned()
}

// ForCommit returns every staged holon whose sub-state makes it eligible for
// the commit pipeline: ForCreate or ForUpdateChanged (spec.md §4.8 step 1).
// Abandoned and unchanged ForUpdate holons are skipped.
func (n *Nursery) ForCommit() []PoolEntry {
	all := n.All()
	out := make([]PoolEntry, 0, len(all))
	for _, e := range all {
		switch e.Holon.StagedSubState {
		case holon.ForCreate, holon.ForUpdateChanged:
			out = append(out, e)
		}
	}
	return out
}
