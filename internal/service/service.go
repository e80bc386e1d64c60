// Package service defines the engine's one port to the persistence
// substrate (spec.md §6). The engine core never imports a storage driver
// directly — only this interface. internal/holonstore supplies the
// reference implementation.
package service

import (
	"github.com/evomimic/holonengine/internal/holon"
)

// HolonServiceApi is the engine's port to the persistence substrate.
type HolonServiceApi interface {
	// FetchHolonInternal retrieves a holon by id, populating the HolonCache
	// on miss.
	FetchHolonInternal(id holon.HolonId) (*holon.Holon, error)

	// FetchRelatedHolons retrieves the members of one relationship from a
	// saved holon, populating the RelationshipCache on miss.
	FetchRelatedHolons(source holon.HolonId, rel holon.RelationshipName) (*holon.HolonCollection, error)

	// FetchAllRelationships returns every populated relationship for a
	// source holon. Because the set of relationship names is not knowable
	// from a HolonId alone, this is always delegated to the persistence
	// port and never satisfied from the RelationshipCache (spec.md §4.5).
	FetchAllRelationships(source holon.HolonId) (map[holon.RelationshipName]*holon.HolonCollection, error)

	// CommitHolon persists one staged holon's node content, returning the
	// SavedHolonNode carrying its assigned LocalId.
	CommitHolon(node holon.EssentialContent, originalID *holon.HolonId) (*holon.SavedHolonNode, error)

	// CommitLink materializes one relationship edge between two persisted
	// holons.
	CommitLink(source holon.HolonId, rel holon.RelationshipName, target holon.HolonId) error

	// DeleteHolon marks a saved holon deleted.
	DeleteHolon(id holon.HolonId) error

	// EnsureLocalHolonSpace returns the id of this space's anchor holon,
	// materializing it on first call (spec.md §4.7).
	EnsureLocalHolonSpace() (holon.HolonId, error)
}
