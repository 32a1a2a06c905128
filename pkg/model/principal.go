package model

import "time"

// Principal is an identity known to execgate. Role assignments live in
// principal_roles and are loaded into RoleIDs by the stores.
type Principal struct {
	ID        string    `gorm:"column:id;primaryKey" yaml:"id"`
	Email     string    `gorm:"column:email" yaml:"email"`
	FullName  string    `gorm:"column:full_name" yaml:"full_name"`
	RoleIDs   []string  `gorm:"-" yaml:"roles"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" yaml:"-"`
}

func (Principal) TableName() string {
	return "principals"
}

// PrincipalRole assigns a role to a principal.
type PrincipalRole struct {
	PrincipalID string `gorm:"column:principal_id;primaryKey"`
	RoleID      string `gorm:"column:role_id;primaryKey"`
}

func (PrincipalRole) TableName() string {
	return "principal_roles"
}
