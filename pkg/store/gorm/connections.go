package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// Ensure ConnectionStore implements store.ConnectionStore
var _ store.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore implements store.ConnectionStore using GORM
type ConnectionStore struct {
	db *gorm.DB
}

// NewConnectionStore creates a new ConnectionStore
func NewConnectionStore(db *gorm.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	var conn model.Connection
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("connection %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %q: %w", id, err)
	}
	return &conn, nil
}

func (s *ConnectionStore) ListConnections(ctx context.Context) ([]model.Connection, error) {
	var conns []model.Connection
	if err := s.db.WithContext(ctx).Order("id").Find(&conns).Error; err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

func (s *ConnectionStore) SaveConnection(ctx context.Context, conn *model.Connection) error {
	if err := conn.Validate(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name",
			"description",
			"read_only_capable",
			"credentials_ref",
			"review_num_total_required",
			"review_allow_self_approval",
			"review_allow_read_only_reexecution",
		}),
	}).Create(conn).Error
	if err != nil {
		return fmt.Errorf("failed to save connection %q: %w", conn.ID, err)
	}
	return nil
}
