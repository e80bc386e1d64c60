package commit

import (
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/service"
	"github.com/evomimic/holonengine/internal/txn"
)

// CachePrimer lets the pipeline push freshly committed holons into the
// space's caches without this package importing internal/space — the
// consumer-defines-the-interface pattern already used by
// holon.TransactionView and txn.CacheAccess. internal/space.CacheRouter
// satisfies this.
type CachePrimer interface {
	PrimeHolon(id holon.HolonId, h *holon.Holon)
	InvalidateRelationships(id holon.HolonId)
}

// HolonError records a per-holon commit failure, keeping both the offending
// TemporaryId and the underlying error so a dependent's CommitFailure can
// reference it (spec.md §4.8 failure semantics).
type HolonError struct {
	TemporaryId ids.TemporaryId
	Err         error
}

// Result is the commit pipeline's output: the counts and committed
// references that back the synthesized HolonLoadResponse/CommitResponse
// Holon of spec.md §4.8.
type Result struct {
	HolonsStaged    int
	HolonsCommitted int
	LinksCreated    int
	Errors          []HolonError
	Committed       []holon.HolonReference // Smart refs, in commit order
}

// Run executes the commit pipeline against ctx's Nursery: filter, order,
// persist nodes, materialize links, collect (spec.md §4.8). primer may be
// nil, in which case committed holons are not pushed into any cache (tests
// exercising the pipeline in isolation commonly pass nil).
func Run(ctx *txn.TransactionContext, svc service.HolonServiceApi, primer CachePrimer) (*Result, error) {
	timer := holonmetrics.NewTimer()
	log := holonlog.WithTxID(uint64(ctx.TxID()))

	eligible := ctx.Nursery().ForCommit()
	result := &Result{HolonsStaged: len(eligible)}
	if len(eligible) == 0 {
		timer.ObserveDuration(holonmetrics.CommitDuration)
		return result, nil
	}

	a := buildArena(eligible)
	sccs := tarjanSCCOrder(a)

	// failed maps an arena index to the error that disqualified it from
	// node persistence, whether because persistence itself failed or
	// because one of its staged targets failed first.
	failed := make(map[int]error)
	localIDs := make(map[int]holon.HolonId) // arena index -> committed HolonId

	for _, scc := range sccs {
		for _, i := range scc {
			entry := a.entries[i]
			h := entry.Holon

			if h.StagedSubState == holon.Abandoned {
				continue
			}

			if upstream := firstFailedDependency(a, i, failed); upstream != nil {
				err := herrors.CommitFailure(upstream, "depends on a staged holon that failed to commit")
				failed[i] = err
				result.Errors = append(result.Errors, HolonError{TemporaryId: entry.ID, Err: err})
				holonmetrics.CommitErrorsTotal.WithLabelValues("dependency_failed").Inc()
				continue
			}

			var originalID *holon.HolonId
			if id, ok := h.GetOriginalId(); ok {
				hid := holon.LocalHolonId(id)
				originalID = &hid
			}

			saved, err := svc.CommitHolon(h.EssentialContent(), originalID)
			if err != nil {
				wrapped := herrors.CommitFailure(err, "persist node")
				failed[i] = wrapped
				result.Errors = append(result.Errors, HolonError{TemporaryId: entry.ID, Err: wrapped})
				holonmetrics.CommitErrorsTotal.WithLabelValues("persist_node").Inc()
				log.Error().Err(err).Str("temporary_id", string(entry.ID)).Msg("commit_holon failed")
				continue
			}

			h.MarkCommitted(saved)
			hid := holon.LocalHolonId(saved.LocalId)
			localIDs[i] = hid
			result.HolonsCommitted++
			holonmetrics.HolonsCommittedTotal.Inc()

			savedView := h.ToSaved()
			if primer != nil && savedView != nil {
				primer.PrimeHolon(hid, savedView)
			}
			result.Committed = append(result.Committed, holon.FromSmart(holon.NewSmartReferenceWithSnapshot(hid, savedView.PropertyMap)))
		}
	}

	// Phase 2: link materialization, strictly after every node attempt so
	// staged-to-staged targets have LocalIds available (spec.md §4.8 step 4).
	for i, entry := range a.entries {
		sourceID, committed := localIDs[i]
		if !committed {
			continue
		}
		h := entry.Holon
		if h.Relationships == nil {
			continue
		}
		for _, name := range h.Relationships.Names() {
			for _, ref := range h.Relationships.Get(name).All() {
				targetID, ok := resolveTargetID(ref, a, localIDs)
				if !ok {
					continue
				}
				if err := svc.CommitLink(sourceID, name, targetID); err != nil {
					wrapped := herrors.CommitFailure(err, "commit_link")
					result.Errors = append(result.Errors, HolonError{TemporaryId: entry.ID, Err: wrapped})
					holonmetrics.CommitErrorsTotal.WithLabelValues("commit_link").Inc()
					continue
				}
				result.LinksCreated++
				holonmetrics.LinksCreatedTotal.Inc()
			}
		}
		if primer != nil {
			primer.InvalidateRelationships(sourceID)
		}
	}

	timer.ObserveDuration(holonmetrics.CommitDuration)
	log.Info().
		Int("holons_committed", result.HolonsCommitted).
		Int("links_created", result.LinksCreated).
		Int("errors", len(result.Errors)).
		Msg("commit pipeline finished")
	return result, nil
}

// firstFailedDependency reports the error of the first direct staged target
// of node i that already failed, or nil if none has.
func firstFailedDependency(a *arena, i int, failed map[int]error) error {
	for _, j := range a.edges[i] {
		if err, ok := failed[j]; ok {
			return err
		}
	}
	return nil
}

// resolveTargetID resolves a relationship target reference to the HolonId
// its link should name: a SmartReference already carries one; a
// StagedReference resolves only if that staged holon committed successfully
// in this same run. Transient references and failed/abandoned staged
// targets resolve to nothing, and that single edge is skipped while the
// holon's other, resolvable edges still materialize (spec.md §4.8 failure
// semantics, "own link materialization for edges that resolved is still
// performed where possible").
func resolveTargetID(ref holon.HolonReference, a *arena, localIDs map[int]holon.HolonId) (holon.HolonId, bool) {
	switch ref.Kind {
	case holon.KindSmart:
		return ref.Smart.ID, true
	case holon.KindStaged:
		j, ok := a.indexOf[ref.Staged.ID]
		if !ok {
			return holon.HolonId{}, false
		}
		id, ok := localIDs[j]
		return id, ok
	default:
		return holon.HolonId{}, false
	}
}
