package store

import (
	"context"

	"github.com/doodlesbykumbi/execgate/pkg/model"
)

// PrincipalStore abstracts principal and role lookups
type PrincipalStore interface {
	// GetPrincipal returns the principal with its role ids.
	GetPrincipal(ctx context.Context, id string) (*model.Principal, error)

	// GetRolesForPrincipal returns the roles assigned to a principal with
	// their policies. Unknown principals are errs.ErrNotFound.
	GetRolesForPrincipal(ctx context.Context, principalID string) ([]model.Role, error)
}

// RoleWriter abstracts administrative role changes
type RoleWriter interface {
	// SaveRole creates or replaces a role. The previous policy rows of the
	// role are replaced by role.Policies.
	SaveRole(ctx context.Context, role *model.Role) error

	// SavePrincipal creates or replaces a principal and its role assignments.
	SavePrincipal(ctx context.Context, principal *model.Principal) error
}
