// Package store provides storage abstractions for execgate.
//
// This package defines interfaces for persistence, allowing the request
// service, the policy evaluator and the execution gate to be decoupled from
// the specific database implementation.
//
// # Available Stores
//
//   - ConnectionStore: datasource connections and their review configuration
//   - PrincipalStore: principals and the roles assigned to them
//   - RoleWriter: administrative writes of roles and assignments
//   - RequestStore: execution requests and their event logs
//
// Implementations live in the memory and gorm subpackages.
//
// # Usage
//
//	agg, err := requests.Update(ctx, id, func(agg *store.Aggregate) error {
//	    agg.Append(principalID, model.CommentPayload{Comment: "lgtm"})
//	    return nil
//	})
//	if errors.Is(err, errs.ErrNotFound) {
//	    // Handle not found
//	}
package store
