// Package txn implements the TransactionContext and TransactionManager
// described in spec.md §4.6: per-transaction pools (Nursery,
// TransientHolonManager), lifecycle state, and the export/import hooks the
// wire-binding layer uses to ping-pong transaction-scoped state across IPC.
package txn

import (
	"sync"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/pool"
)

// State is a transaction's lifecycle state (spec.md §4.6: Open → Committing
// → Committed).
type State int

const (
	StateOpen State = iota
	StateCommitting
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateCommitting:
		return "Committing"
	case StateCommitted:
		return "Committed"
	default:
		return "Unknown"
	}
}

// CacheAccess is the narrow surface a TransactionContext needs from its
// owning HolonSpaceManager to resolve SmartReferences and relationship
// reads. internal/space.CacheRouter implements it; declaring it here (rather
// than importing internal/space) avoids a cycle, since internal/space needs
// *TransactionContext to build a TransactionManager.
type CacheAccess interface {
	ResolveSmart(id holon.HolonId) (*holon.Holon, error)
	RelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error)
}

// TransactionContext owns one transaction's Nursery and
// TransientHolonManager, its TxId, and its lifecycle state. It implements
// holon.TransactionView so references bound to it can resolve themselves.
type TransactionContext struct {
	mu sync.Mutex

	txID      ids.TxId
	state     State
	nursery   *pool.Nursery
	transient *pool.TransientHolonManager
	cache     CacheAccess
}

// New opens a transaction context with the given id against cache.
func New(txID ids.TxId, cache CacheAccess) *TransactionContext {
	return &TransactionContext{
		txID:      txID,
		state:     StateOpen,
		nursery:   pool.NewNursery(),
		transient: pool.NewTransientHolonManager(),
		cache:     cache,
	}
}

// TxID satisfies holon.TransactionView.
func (c *TransactionContext) TxID() ids.TxId { return c.txID }

// State reports the current lifecycle state.
func (c *TransactionContext) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nursery exposes the staged-holon pool for commit-pipeline iteration.
func (c *TransactionContext) Nursery() *pool.Nursery { return c.nursery }

// TransientManager exposes the transient-holon pool.
func (c *TransactionContext) TransientManager() *pool.TransientHolonManager { return c.transient }

// LookupTransient satisfies holon.TransactionView.
func (c *TransactionContext) LookupTransient(id ids.TemporaryId) (*holon.Holon, bool) {
	return c.transient.Get(id)
}

// LookupStaged satisfies holon.TransactionView.
func (c *TransactionContext) LookupStaged(id ids.TemporaryId) (*holon.Holon, bool) {
	return c.nursery.Get(id)
}

// ResolveSmart satisfies holon.TransactionView by delegating to the
// space-level cache.
func (c *TransactionContext) ResolveSmart(id holon.HolonId) (*holon.Holon, error) {
	return c.cache.ResolveSmart(id)
}

// RelatedHolons satisfies holon.TransactionView by delegating to the
// space-level relationship cache.
func (c *TransactionContext) RelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error) {
	return c.cache.RelatedHolons(source, rel)
}

// NewTransientHolon mints a transient holon and returns a reference bound to
// this transaction.
func (c *TransactionContext) NewTransientHolon(key string) holon.TransientReference {
	id, _ := c.transient.NewHolon(key)
	return holon.NewTransientReference(c.txID, id)
}

// Stage promotes the transient holon named by ref into the Nursery as a
// freshly-staged ForCreate holon, per spec.md §3's staging lifecycle.
func (c *TransactionContext) Stage(ref holon.TransientReference) (holon.StagedReference, error) {
	if err := checkTx(c.txID, ref.Tx); err != nil {
		return holon.StagedReference{}, err
	}
	source, ok := c.transient.Get(ref.ID)
	if !ok {
		return holon.StagedReference{}, herrors.ReferenceResolutionFailed("Transient", string(ref.ID), "not found in transaction")
	}
	staged := holon.NewStagedHolon(source)
	id := c.nursery.StageHolon(staged)
	holonlog.WithTxID(uint64(c.txID)).Debug().
		Str("temporary_id", string(id)).Msg("transient holon staged")
	return holon.NewStagedReference(c.txID, id), nil
}

// StageNewVersion clones a saved holon for update: the resulting staged
// holon carries OriginalId and a PREDECESSOR relationship back at the saved
// holon (SPEC_FULL.md supplemented features, spec.md §8 scenario 4).
func (c *TransactionContext) StageNewVersion(savedRef holon.SmartReference) (holon.StagedReference, error) {
	saved, err := c.cache.ResolveSmart(savedRef.ID)
	if err != nil {
		return holon.StagedReference{}, err
	}
	staged := holon.CloneForUpdate(saved)
	id := c.nursery.StageHolon(staged)
	stagedRef := holon.NewStagedReference(c.txID, id)
	if err := staged.Relationships.Add(c, PredecessorRelationship, []holon.HolonReference{holon.FromSmart(savedRef)}); err != nil {
		return holon.StagedReference{}, err
	}
	return stagedRef, nil
}

// PredecessorRelationship is the well-known relationship name used to chain
// a new staged version back at the saved holon it was cloned from.
const PredecessorRelationship holon.RelationshipName = "PREDECESSOR"

// AbandonStagedChanges transitions a staged holon to Abandoned.
func (c *TransactionContext) AbandonStagedChanges(ref holon.StagedReference) error {
	if err := checkTx(c.txID, ref.Tx); err != nil {
		return err
	}
	return c.nursery.AbandonStagedChanges(ref.ID)
}

// BeginCommit transitions Open → Committing, or returns
// InvalidTransactionTransition.
func (c *TransactionContext) BeginCommit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateOpen:
		c.state = StateCommitting
		return nil
	case StateCommitting:
		return herrors.TransactionCommitInProgress()
	case StateCommitted:
		return herrors.TransactionAlreadyCommitted()
	}
	return herrors.InvalidTransactionTransition(c.state.String(), StateCommitting.String())
}

// FinishCommit transitions Committing → Committed.
func (c *TransactionContext) FinishCommit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCommitting {
		return herrors.InvalidTransactionTransition(c.state.String(), StateCommitted.String())
	}
	c.state = StateCommitted
	return nil
}

// ExportStagedHolons deep-clones the Nursery's contents, used only by the
// wire-binding layer (spec.md §4.6).
func (c *TransactionContext) ExportStagedHolons() *pool.SerializableHolonPool {
	return c.nursery.Export()
}

// ExportTransientHolons deep-clones the TransientHolonManager's contents.
func (c *TransactionContext) ExportTransientHolons() *pool.SerializableHolonPool {
	return c.transient.Export()
}

// ImportStagedHolons replaces the Nursery's contents from a snapshot.
func (c *TransactionContext) ImportStagedHolons(snapshot *pool.SerializableHolonPool) {
	c.nursery.Import(snapshot)
}

// ImportTransientHolons replaces the TransientHolonManager's contents from a
// snapshot.
func (c *TransactionContext) ImportTransientHolons(snapshot *pool.SerializableHolonPool) {
	c.transient.Import(snapshot)
}

func checkTx(ctxTx, refTx ids.TxId) error {
	if ctxTx != refTx {
		return herrors.CrossTransactionReference(uint64(refTx), uint64(ctxTx))
	}
	return nil
}
