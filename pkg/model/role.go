package model

import (
	"strings"
	"time"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
)

// Role groups policies. A role owns its policies.
type Role struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex"`
	Description string    `gorm:"column:description"`
	Policies    []Policy  `gorm:"foreignKey:RoleID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// Validate rejects a role without id or carrying a malformed policy.
func (r *Role) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errs.Validation("role has no id")
	}
	for i := range r.Policies {
		if err := r.Policies[i].Validate(); err != nil {
			return errs.Wrap(errs.ErrValidation, err, "role %s policy %d", r.ID, i)
		}
	}
	return nil
}

// Policy grants or denies actions matching Action on resources matching
// Resource. Policies are never updated in place.
type Policy struct {
	ID       string `gorm:"column:id;primaryKey"`
	RoleID   string `gorm:"column:role_id;index"`
	Action   string `gorm:"column:action;not null"`
	Effect   Effect `gorm:"column:effect;type:text;not null"`
	Resource string `gorm:"column:resource;not null"`
}

func (Policy) TableName() string {
	return "policies"
}

func (p Policy) String() string {
	return p.Effect.String() + " " + p.Action + " on " + p.Resource
}

// Validate checks both patterns and the effect.
func (p Policy) Validate() error {
	if err := permission.ValidatePattern(p.Action); err != nil {
		return errs.Wrap(errs.ErrValidation, err, "action")
	}
	if err := permission.ValidatePattern(p.Resource); err != nil {
		return errs.Wrap(errs.ErrValidation, err, "resource")
	}
	if !p.Effect.IsAEffect() {
		return errs.Validation("unknown effect %s", p.Effect)
	}
	return nil
}
