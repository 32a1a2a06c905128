package integration

import (
	"context"

	"github.com/doodlesbykumbi/execgate/pkg/store"
	"github.com/doodlesbykumbi/execgate/pkg/store/memory"
)

// Backend is the set of stores one scenario runs against.
type Backend struct {
	Principals  store.PrincipalStore
	Roles       store.RoleWriter
	Connections store.ConnectionStore
	Requests    store.RequestStore
}

func newMemoryBackend(context.Context) (*Backend, error) {
	s := memory.New()
	return &Backend{
		Principals:  s,
		Roles:       s,
		Connections: s,
		Requests:    s,
	}, nil
}
