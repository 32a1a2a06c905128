package identity

import (
	"context"
	"net"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated caller of an operation.
type Identity struct {
	PrincipalID string

	// Request context
	RemoteIP net.IP
	Source   string // front end that authenticated the caller, e.g. "gatectl"
}

// New creates an Identity for a principal.
func New(principalID string) *Identity {
	return &Identity{PrincipalID: principalID}
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithSource records which front end authenticated the caller.
func (i *Identity) WithSource(source string) *Identity {
	i.Source = source
	return i
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok && id != nil && id.PrincipalID != ""
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}

// Require returns the caller's principal id or an unauthorized error.
func Require(ctx context.Context) (string, error) {
	id, ok := Get(ctx)
	if !ok {
		return "", errs.Unauthorized("no authenticated principal")
	}
	return id.PrincipalID, nil
}
