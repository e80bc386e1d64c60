package pool

import (
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/ids"
)

// TransientHolonManager is the per-transaction pool of transient holons
// (spec.md §4.3, §4.6).
type TransientHolonManager struct {
	*HolonPool
}

// NewTransientHolonManager builds an empty manager.
func NewTransientHolonManager() *TransientHolonManager {
	return &TransientHolonManager{HolonPool: NewHolonPool()}
}

// NewHolon mints a fresh transient holon, optionally seeded with a base key
// (spec.md: "new_holon(key?)"), and returns its TemporaryId.
func (m *TransientHolonManager) NewHolon(key string) (ids.TemporaryId, *holon.Holon) {
	h := holon.NewTransientHolon(key)
	id := m.Insert(h)
	holonmetrics.TransientPoolSize.Set(float64(m.Count()))
	return id, h
}
