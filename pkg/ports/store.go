package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// SnapshotStore defines the interface for persisting committed navigations.
// This allows a router to resume its last path after a restart (Router.Restore).
type SnapshotStore interface {
	// Save persists the snapshot for a given router ID, replacing any previous one.
	Save(ctx context.Context, routerID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given router ID.
	// Returns domain.ErrSnapshotNotFound if none is stored.
	Load(ctx context.Context, routerID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given router ID. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, routerID string) error

	// List returns the IDs of every stored snapshot.
	List(ctx context.Context) ([]string, error)
}
