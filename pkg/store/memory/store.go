package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

var (
	_ store.ConnectionStore = (*Store)(nil)
	_ store.PrincipalStore  = (*Store)(nil)
	_ store.RoleWriter      = (*Store)(nil)
	_ store.RequestStore    = (*Store)(nil)
)

// Store keeps every entity in maps keyed by id.
type Store struct {
	mu          sync.RWMutex
	connections map[string]model.Connection
	principals  map[string]model.Principal
	roles       map[string]model.Role
	requests    map[string]*store.Aggregate

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an empty Store
func New() *Store {
	return &Store{
		connections: map[string]model.Connection{},
		principals:  map[string]model.Principal{},
		roles:       map[string]model.Role{},
		requests:    map[string]*store.Aggregate{},
		locks:       map[string]*sync.Mutex{},
	}
}

func (s *Store) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, errs.NotFound("connection %q", id)
	}
	return &conn, nil
}

func (s *Store) ListConnections(ctx context.Context) ([]model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Connection, 0, len(s.connections))
	for _, conn := range s.connections {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveConnection(ctx context.Context, conn *model.Connection) error {
	if err := conn.Validate(); err != nil {
		return err
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[conn.ID] = *conn
	return nil
}

func (s *Store) GetPrincipal(ctx context.Context, id string) (*model.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[id]
	if !ok {
		return nil, errs.NotFound("principal %q", id)
	}
	p.RoleIDs = append([]string(nil), p.RoleIDs...)
	return &p, nil
}

func (s *Store) GetRolesForPrincipal(ctx context.Context, principalID string) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[principalID]
	if !ok {
		return nil, errs.NotFound("principal %q", principalID)
	}

	roles := make([]model.Role, 0, len(p.RoleIDs))
	for _, id := range p.RoleIDs {
		// assignments to deleted roles grant nothing
		role, ok := s.roles[id]
		if !ok {
			continue
		}
		role.Policies = append([]model.Policy(nil), role.Policies...)
		roles = append(roles, role)
	}
	return roles, nil
}

func (s *Store) SaveRole(ctx context.Context, role *model.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	r := *role
	r.Policies = make([]model.Policy, len(role.Policies))
	for i, p := range role.Policies {
		p.ID = model.NewID()
		p.RoleID = r.ID
		r.Policies[i] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
	return nil
}

// DeleteRole removes a role. Principals keep the dangling assignment.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return errs.NotFound("role %q", id)
	}
	delete(s.roles, id)
	return nil
}

func (s *Store) SavePrincipal(ctx context.Context, principal *model.Principal) error {
	p := *principal
	p.RoleIDs = append([]string(nil), principal.RoleIDs...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.ID] = p
	return nil
}

func (s *Store) CreateRequest(ctx context.Context, req *model.ExecutionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return errs.InvalidState("request %q already exists", req.ID)
	}
	s.requests[req.ID] = &store.Aggregate{Request: *req}
	return nil
}

func (s *Store) GetAggregate(ctx context.Context, id string) (*store.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.requests[id]
	if !ok {
		return nil, errs.NotFound("request %q", id)
	}
	return agg.Clone(), nil
}

func (s *Store) ListRequests(ctx context.Context, filter store.RequestFilter) ([]model.ExecutionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ExecutionRequest
	for _, agg := range s.requests {
		r := agg.Request
		if filter.ConnectionID != "" && r.ConnectionID != filter.ConnectionID {
			continue
		}
		if filter.AuthorID != "" && r.AuthorID != filter.AuthorID {
			continue
		}
		if r.Archived && !filter.IncludeArchived {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Update(ctx context.Context, id string, fn store.UpdateFunc) (*store.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.GetAggregate(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.requests[id] = current.Clone()
	s.mu.Unlock()

	return current, nil
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
