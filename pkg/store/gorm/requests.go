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

// Ensure RequestStore implements store.RequestStore
var _ store.RequestStore = (*RequestStore)(nil)

// RequestStore implements store.RequestStore using GORM
type RequestStore struct {
	db *gorm.DB
}

// NewRequestStore creates a new RequestStore
func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

func (s *RequestStore) CreateRequest(ctx context.Context, req *model.ExecutionRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create request %q: %w", req.ID, err)
	}
	return nil
}

func (s *RequestStore) GetAggregate(ctx context.Context, id string) (*store.Aggregate, error) {
	return loadAggregate(s.db.WithContext(ctx), id, false)
}

func (s *RequestStore) ListRequests(ctx context.Context, filter store.RequestFilter) ([]model.ExecutionRequest, error) {
	query := s.db.WithContext(ctx).Model(&model.ExecutionRequest{})
	if filter.ConnectionID != "" {
		query = query.Where("connection_id = ?", filter.ConnectionID)
	}
	if filter.AuthorID != "" {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if !filter.IncludeArchived {
		query = query.Where("archived = ?", false)
	}

	var requests []model.ExecutionRequest
	if err := query.Order("created_at, id").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

func (s *RequestStore) Update(ctx context.Context, id string, fn store.UpdateFunc) (*store.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *store.Aggregate
	err := s.db.WithContext(context.WithoutCancel(ctx)).Transaction(func(tx *gorm.DB) error {
		agg, err := loadAggregate(tx, id, true)
		if err != nil {
			return err
		}

		persisted := len(agg.Events)
		if err := fn(agg); err != nil {
			return err
		}

		for i := persisted; i < len(agg.Events); i++ {
			if err := tx.Create(&agg.Events[i]).Error; err != nil {
				return fmt.Errorf("failed to append event %d to request %q: %w", agg.Events[i].Sequence, id, err)
			}
		}

		r := agg.Request
		err = tx.Model(&model.ExecutionRequest{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":            r.Title,
			"description":      r.Description,
			"statement":        r.Statement,
			"read_only":        r.ReadOnly,
			"execution_status": r.ExecutionStatus,
			"review_status":    r.ReviewStatus,
			"archived":         r.Archived,
			"version":          r.Version,
			"updated_at":       r.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update request %q: %w", id, err)
		}

		updated = agg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func loadAggregate(db *gorm.DB, id string, lock bool) (*store.Aggregate, error) {
	query := db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var req model.ExecutionRequest
	err := query.Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("request %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %q: %w", id, err)
	}

	var events []model.Event
	if err := db.Where("request_id = ?", id).Order("sequence").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load events of request %q: %w", id, err)
	}

	return &store.Aggregate{Request: req, Events: events}, nil
}
