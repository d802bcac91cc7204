package ports

import (
	"context"

	"github.com/bft-labs/forage/internal/domain"
)

// ForageableDAO is the persistence collaborator behind the view model.
//
// Observe methods return a channel that receives the current state right away
// and again after every committed change. The channel is closed once ctx is
// done. Implementations serialize their own writes.
type ForageableDAO interface {
	// ObserveAll streams the full collection, ordered by ID.
	ObserveAll(ctx context.Context) <-chan []domain.Forageable

	// Observe streams a single record. What happens for an unknown id is up
	// to the implementation.
	Observe(ctx context.Context, id int64) <-chan domain.Forageable

	// Insert stores f and returns the assigned ID. f.ID is ignored.
	Insert(ctx context.Context, f domain.Forageable) (int64, error)

	// Update replaces the record with f.ID.
	Update(ctx context.Context, f domain.Forageable) error

	// Delete removes the record with f.ID.
	Delete(ctx context.Context, f domain.Forageable) error
}
