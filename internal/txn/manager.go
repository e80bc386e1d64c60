package txn

import (
	"sync"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/ids"
)

// Manager is the authority for opening transactions, per spec.md §4.6: it
// mints contexts with either a caller-provided TxId (for cross-IPC
// re-hydration) or an auto-assigned one, and keeps every open context
// reachable by id for the lifetime of the process.
type Manager struct {
	mu    sync.RWMutex
	cache CacheAccess
	open  map[ids.TxId]*TransactionContext
}

// NewManager builds a TransactionManager backed by cache, the space-level
// cache-access façade every transaction it opens will share.
func NewManager(cache CacheAccess) *Manager {
	return &Manager{
		cache: cache,
		open:  make(map[ids.TxId]*TransactionContext),
	}
}

// Open mints a new transaction with an auto-assigned, process-monotonic
// TxId.
func (m *Manager) Open() *TransactionContext {
	return m.openWithID(ids.NewTxId())
}

// OpenWithID re-hydrates a transaction context with a caller-provided TxId,
// used when binding wire state that carries its originating TxId (spec.md
// §4.6, §6 SessionState).
func (m *Manager) OpenWithID(id ids.TxId) *TransactionContext {
	m.mu.RLock()
	existing, ok := m.open[id]
	m.mu.RUnlock()
	if ok {
		return existing
	}
	return m.openWithID(id)
}

func (m *Manager) openWithID(id ids.TxId) *TransactionContext {
	ctx := New(id, m.cache)
	m.mu.Lock()
	m.open[id] = ctx
	m.mu.Unlock()
	holonmetrics.OpenTransactions.Set(float64(m.Count()))
	return ctx
}

// Get returns the open transaction context for id, if any.
func (m *Manager) Get(id ids.TxId) (*TransactionContext, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.open[id]
	return ctx, ok
}

// MustGet returns the open transaction context for id, or
// TransactionNotOpen.
func (m *Manager) MustGet(id ids.TxId) (*TransactionContext, error) {
	ctx, ok := m.Get(id)
	if !ok {
		return nil, herrors.TransactionNotOpen()
	}
	return ctx, nil
}

// Close drops a completed transaction from the manager's bookkeeping.
func (m *Manager) Close(id ids.TxId) {
	m.mu.Lock()
	delete(m.open, id)
	m.mu.Unlock()
	holonmetrics.OpenTransactions.Set(float64(m.Count()))
}

// Count reports the number of currently open transactions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.open)
}
