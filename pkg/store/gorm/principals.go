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

var (
	_ store.PrincipalStore = (*PrincipalStore)(nil)
	_ store.RoleWriter     = (*PrincipalStore)(nil)
)

// PrincipalStore implements store.PrincipalStore and store.RoleWriter using GORM
type PrincipalStore struct {
	db *gorm.DB
}

// NewPrincipalStore creates a new PrincipalStore
func NewPrincipalStore(db *gorm.DB) *PrincipalStore {
	return &PrincipalStore{db: db}
}

func (s *PrincipalStore) GetPrincipal(ctx context.Context, id string) (*model.Principal, error) {
	db := s.db.WithContext(ctx)

	var p model.Principal
	err := db.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("principal %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load principal %q: %w", id, err)
	}

	var assignments []model.PrincipalRole
	if err := db.Where("principal_id = ?", id).Order("role_id").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to load roles of principal %q: %w", id, err)
	}
	for _, a := range assignments {
		p.RoleIDs = append(p.RoleIDs, a.RoleID)
	}
	return &p, nil
}

func (s *PrincipalStore) GetRolesForPrincipal(ctx context.Context, principalID string) ([]model.Role, error) {
	db := s.db.WithContext(ctx)

	var exists bool
	if err := db.Raw(`SELECT EXISTS(SELECT 1 FROM principals WHERE id = ?)`, principalID).Scan(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to load principal %q: %w", principalID, err)
	}
	if !exists {
		return nil, errs.NotFound("principal %q", principalID)
	}

	var roles []model.Role
	err := db.Preload("Policies").
		Joins("JOIN principal_roles ON principal_roles.role_id = roles.id").
		Where("principal_roles.principal_id = ?", principalID).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roles of principal %q: %w", principalID, err)
	}
	return roles, nil
}

func (s *PrincipalStore) SaveRole(ctx context.Context, role *model.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
		}).Omit("Policies").Create(role).Error
		if err != nil {
			return fmt.Errorf("failed to save role %q: %w", role.ID, err)
		}

		if err := tx.Where("role_id = ?", role.ID).Delete(&model.Policy{}).Error; err != nil {
			return fmt.Errorf("failed to replace policies of role %q: %w", role.ID, err)
		}
		if len(role.Policies) == 0 {
			return nil
		}

		for i := range role.Policies {
			role.Policies[i].ID = model.NewID()
			role.Policies[i].RoleID = role.ID
		}
		if err := tx.Create(&role.Policies).Error; err != nil {
			return fmt.Errorf("failed to create policies of role %q: %w", role.ID, err)
		}
		return nil
	})
}

func (s *PrincipalStore) SavePrincipal(ctx context.Context, principal *model.Principal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "full_name"}),
		}).Create(principal).Error
		if err != nil {
			return fmt.Errorf("failed to save principal %q: %w", principal.ID, err)
		}

		if err := tx.Where("principal_id = ?", principal.ID).Delete(&model.PrincipalRole{}).Error; err != nil {
			return fmt.Errorf("failed to replace roles of principal %q: %w", principal.ID, err)
		}
		if len(principal.RoleIDs) == 0 {
			return nil
		}

		assignments := make([]model.PrincipalRole, 0, len(principal.RoleIDs))
		for _, roleID := range principal.RoleIDs {
			assignments = append(assignments, model.PrincipalRole{PrincipalID: principal.ID, RoleID: roleID})
		}
		if err := tx.Create(&assignments).Error; err != nil {
			return fmt.Errorf("failed to assign roles to principal %q: %w", principal.ID, err)
		}
		return nil
	})
}
