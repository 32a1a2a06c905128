package policy

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
	"github.com/doodlesbykumbi/execgate/pkg/store/memory"
)

func allow(action, resource string) model.Policy {
	return model.Policy{Action: action, Effect: model.EffectAllow, Resource: resource}
}

func deny(action, resource string) model.Policy {
	return model.Policy{Action: action, Effect: model.EffectDeny, Resource: resource}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		policies []model.Policy
		action   string
		resource string
		want     Verdict
		deciding int // index into policies, -1 for none
	}{
		{
			name:     "no policies",
			action:   "execution_request:get",
			resource: "db1",
			want:     Deny,
			deciding: -1,
		},
		{
			name:     "wildcard admin",
			policies: []model.Policy{allow("*", "*")},
			action:   "execution_request:execute",
			resource: "db1",
			want:     Allow,
			deciding: 0,
		},
		{
			name:     "exact allow",
			policies: []model.Policy{allow("execution_request:get", "db1")},
			action:   "execution_request:get",
			resource: "db1",
			want:     Allow,
			deciding: 0,
		},
		{
			name:     "resource mismatch",
			policies: []model.Policy{allow("execution_request:get", "db1")},
			action:   "execution_request:get",
			resource: "db2",
			want:     Deny,
			deciding: -1,
		},
		{
			name:     "action mismatch",
			policies: []model.Policy{allow("execution_request:get", "*")},
			action:   "execution_request:execute",
			resource: "db1",
			want:     Deny,
			deciding: -1,
		},
		{
			name:     "deny overrides earlier allow",
			policies: []model.Policy{allow("*", "*"), deny("execution_request:execute", "production")},
			action:   "execution_request:execute",
			resource: "production",
			want:     Deny,
			deciding: 1,
		},
		{
			name:     "deny overrides later allow",
			policies: []model.Policy{deny("execution_request:*", "production"), allow("execution_request:execute", "*")},
			action:   "execution_request:execute",
			resource: "production",
			want:     Deny,
			deciding: 0,
		},
		{
			name:     "deny elsewhere does not apply",
			policies: []model.Policy{allow("*", "*"), deny("*", "production")},
			action:   "execution_request:execute",
			resource: "staging",
			want:     Allow,
			deciding: 0,
		},
		{
			name:     "policy without effect denies",
			policies: []model.Policy{allow("*", "*"), {Action: "*", Resource: "*"}},
			action:   "execution_request:execute",
			resource: "db1",
			want:     Deny,
			deciding: 1,
		},
		{
			name:     "unknown effect denies",
			policies: []model.Policy{{Action: "*", Effect: model.Effect(9), Resource: "*"}},
			action:   "execution_request:get",
			resource: "db1",
			want:     Deny,
			deciding: 0,
		},
		{
			name:     "first matching allow is reported",
			policies: []model.Policy{allow("user:*", "*"), allow("execution_request:*", "*"), allow("*", "*")},
			action:   "execution_request:review",
			resource: "db1",
			want:     Allow,
			deciding: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.policies, tt.action, tt.resource)
			assert.Equal(t, tt.want, d.Verdict)
			if tt.deciding < 0 {
				assert.Nil(t, d.Policy)
				return
			}
			require.NotNil(t, d.Policy)
			assert.Equal(t, tt.policies[tt.deciding], *d.Policy)
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "deny (no matching policy)", Decision{}.String())
	p := deny("*", "production")
	assert.Equal(t, "deny (DENY * on production)", Decision{Verdict: Deny, Policy: &p}.String())
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveRole(ctx, &model.Role{
		ID:       "developer",
		Name:     "developer",
		Policies: []model.Policy{allow("execution_request:*", "*"), deny("execution_request:execute", "production")},
	}))
	require.NoError(t, s.SaveRole(ctx, &model.Role{
		ID:       "operator",
		Name:     "operator",
		Policies: []model.Policy{allow("execution_request:execute", "production")},
	}))
	require.NoError(t, s.SavePrincipal(ctx, &model.Principal{ID: "alice", RoleIDs: []string{"developer"}}))
	require.NoError(t, s.SavePrincipal(ctx, &model.Principal{ID: "bob", RoleIDs: []string{"developer", "operator"}}))
	require.NoError(t, s.SavePrincipal(ctx, &model.Principal{ID: "dave"}))
	return s
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	ev := NewEvaluator(seed(t), zerolog.Nop())

	tests := []struct {
		principal string
		action    string
		resource  string
		want      Verdict
	}{
		{"alice", "execution_request:create", "staging", Allow},
		{"alice", "execution_request:execute", "staging", Allow},
		{"alice", "execution_request:execute", "production", Deny},
		{"alice", "user:edit", "staging", Deny},
		// a deny in one role overrides an allow in another
		{"bob", "execution_request:execute", "production", Deny},
		{"dave", "execution_request:get", "staging", Deny},
	}

	for _, tt := range tests {
		t.Run(tt.principal+" "+tt.action+" "+tt.resource, func(t *testing.T) {
			got, err := ev.Authorize(ctx, tt.principal, tt.action, tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorizeUnknownPrincipal(t *testing.T) {
	ev := NewEvaluator(memory.New(), zerolog.Nop())

	got, err := ev.Authorize(context.Background(), "nobody", "execution_request:get", "db1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, Deny, got)
}

func TestAuthorizeIsLive(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	ev := NewEvaluator(s, zerolog.Nop())

	got, err := ev.Authorize(ctx, "alice", "execution_request:get", "db1")
	require.NoError(t, err)
	assert.Equal(t, Allow, got)

	require.NoError(t, s.DeleteRole(ctx, "developer"))

	got, err = ev.Authorize(ctx, "alice", "execution_request:get", "db1")
	require.NoError(t, err)
	assert.Equal(t, Deny, got)
}

func TestCheck(t *testing.T) {
	var buf bytes.Buffer
	audit.SetEnabled(true)
	audit.DefaultLogger.SetWriter(&buf)
	defer audit.DefaultLogger.SetWriter(&bytes.Buffer{})

	ctx := context.Background()
	m := metrics.New()
	ev := NewEvaluator(seed(t), zerolog.Nop()).WithMetrics(m)

	require.NoError(t, ev.Check(ctx, "alice", permission.ExecutionRequestExecute, "staging"))
	assert.Contains(t, buf.String(), "alice checked permission execution_request:execute on staging: allowed")

	buf.Reset()
	err := ev.Check(ctx, "alice", permission.ExecutionRequestExecute, "production")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Contains(t, err.Error(), "execution_request:execute")
	assert.Contains(t, err.Error(), "production")
	assert.Contains(t, buf.String(), "alice checked permission execution_request:execute on production: denied")
	assert.Contains(t, buf.String(), `result="failure"`)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("execution_request:execute", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("execution_request:execute", "denied")))
}

func TestCheckUnknownPrincipalIsUnauthorized(t *testing.T) {
	ev := NewEvaluator(memory.New(), zerolog.Nop())

	err := ev.Check(context.Background(), "nobody", permission.ExecutionRequestGet, "db1")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

type mockPrincipalStore struct {
	mock.Mock
}

func (m *mockPrincipalStore) GetPrincipal(ctx context.Context, id string) (*model.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Principal), args.Error(1)
}

func (m *mockPrincipalStore) GetRolesForPrincipal(ctx context.Context, principalID string) ([]model.Role, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

func TestCheckStoreFailure(t *testing.T) {
	ps := &mockPrincipalStore{}
	ps.On("GetRolesForPrincipal", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

	ev := NewEvaluator(ps, zerolog.Nop())
	err := ev.Check(context.Background(), "alice", permission.ExecutionRequestGet, "db1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrUnauthorized)
	assert.Contains(t, err.Error(), "connection refused")
	ps.AssertExpectations(t)
}
