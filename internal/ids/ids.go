// Package ids mints the identifiers the holon engine hands out: transaction
// ids, transaction-local temporary ids, and durable local ids.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	"github.com/google/uuid"
)

// TemporaryId is a transaction-local id assigned to every holon in a pool.
// It is only meaningful within the pool that minted it.
type TemporaryId string

// NewTemporaryId mints a fresh transaction-local id.
func NewTemporaryId() TemporaryId {
	return TemporaryId(uuid.New().String())
}

// LocalId is the durable, content-addressed identifier assigned at commit.
type LocalId string

// DeriveLocalId computes a content-addressed LocalId from a node's canonical
// serialized form. The reference HolonServiceApi implementation
// (internal/holonstore) uses this so that two commits of byte-identical
// essential content collide on the same id, matching the "content-addressed"
// framing of spec.md §1; ids that are not content-addressed come from
// NewLocalId.
func DeriveLocalId(canonicalBytes []byte) LocalId {
	sum := sha256.Sum256(canonicalBytes)
	return LocalId(hex.EncodeToString(sum[:]))
}

// NewLocalId mints a random LocalId, used when content addressing does not
// apply (the space anchor holon minted by internal/holonstore's
// ensure-space command).
func NewLocalId() LocalId {
	return LocalId(uuid.New().String())
}

// txCounter is process-wide and monotonic, per spec.md §4.6 ("TxId:
// process-monotonic within the process"). A random id (uuid) would not be
// orderable/comparable the way a TxId needs to be, so this is a deliberate
// stdlib-only counter rather than a uuid — see DESIGN.md.
var txCounter atomic.Uint64

// TxId identifies a transaction context, unique and increasing within the
// running process.
type TxId uint64

// NewTxId mints the next process-monotonic transaction id.
func NewTxId() TxId {
	return TxId(txCounter.Add(1))
}

// TxIdFrom wraps a caller-supplied id, used when re-hydrating a transaction
// context from wire state that carries its originating TxId (spec.md §4.6).
func TxIdFrom(raw uint64) TxId {
	return TxId(raw)
}
