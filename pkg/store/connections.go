package store

import (
	"context"

	"github.com/doodlesbykumbi/execgate/pkg/model"
)

// ConnectionStore abstracts the connection directory
type ConnectionStore interface {
	// GetConnection returns the connection or an errs.ErrNotFound error.
	GetConnection(ctx context.Context, id string) (*model.Connection, error)

	// ListConnections returns all connections ordered by id.
	ListConnections(ctx context.Context) ([]model.Connection, error)

	// SaveConnection creates or replaces a connection.
	SaveConnection(ctx context.Context, conn *model.Connection) error
}
