// Package identity carries the authenticated caller through a
// context.Context.
//
// Authentication happens outside execgate; whatever fronts it resolves the
// caller to a principal id and stores it here before calling the request
// service or the execution gate:
//
//	ctx = identity.Set(ctx, identity.New("alice").WithRemoteIP(ip))
//
//	id, ok := identity.Get(ctx)
//
// Operations that find no identity on the context fail as unauthorized.
package identity
