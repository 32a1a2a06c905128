package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

func newRequest(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.CreateRequest(context.Background(), &model.ExecutionRequest{
		ID:           id,
		AuthorID:     "alice",
		ConnectionID: "db1",
		Title:        "cleanup",
		Statement:    "DELETE FROM sessions",
		CreatedAt:    time.Now(),
	}))
}

func TestConnections(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetConnection(ctx, "db1")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.SaveConnection(ctx, &model.Connection{ID: "db2", DisplayName: "Two"}))
	require.NoError(t, s.SaveConnection(ctx, &model.Connection{ID: "db1", DisplayName: "One"}))

	conn, err := s.GetConnection(ctx, "db1")
	require.NoError(t, err)
	assert.Equal(t, "One", conn.DisplayName)

	all, err := s.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "db1", all[0].ID)

	err = s.SaveConnection(ctx, &model.Connection{ID: "db3", ReviewConfig: model.ReviewConfig{NumTotalRequired: -1}})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.GetConnection(ctx, "db3")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRolesForPrincipal(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetRolesForPrincipal(ctx, "alice")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.SaveRole(ctx, &model.Role{
		ID:   "developer",
		Name: "developer",
		Policies: []model.Policy{
			{Action: "execution_request:*", Effect: model.EffectAllow, Resource: "*"},
		},
	}))
	require.NoError(t, s.SaveRole(ctx, &model.Role{ID: "auditor", Name: "auditor"}))
	require.NoError(t, s.SavePrincipal(ctx, &model.Principal{ID: "alice", RoleIDs: []string{"developer", "auditor"}}))

	roles, err := s.GetRolesForPrincipal(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "developer", roles[0].Policies[0].RoleID)
	assert.NotEmpty(t, roles[0].Policies[0].ID)

	require.NoError(t, s.DeleteRole(ctx, "developer"))
	roles, err = s.GetRolesForPrincipal(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "auditor", roles[0].ID)

	assert.ErrorIs(t, s.DeleteRole(ctx, "developer"), errs.ErrNotFound)
}

func TestSaveRoleMalformedPolicy(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.SaveRole(ctx, &model.Role{
		ID:       "developer",
		Name:     "developer",
		Policies: []model.Policy{{Action: "execution_request::get", Effect: model.EffectAllow, Resource: "*"}},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)

	assert.ErrorIs(t, s.DeleteRole(ctx, "developer"), errs.ErrNotFound)
}

func TestCreateRequestTwice(t *testing.T) {
	s := New()
	newRequest(t, s, "r1")
	err := s.CreateRequest(context.Background(), &model.ExecutionRequest{ID: "r1"})
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestUpdateAppends(t *testing.T) {
	ctx := context.Background()
	s := New()
	newRequest(t, s, "r1")

	agg, err := s.Update(ctx, "r1", func(agg *store.Aggregate) error {
		agg.Append("bob", model.ReviewPayload{Action: model.ReviewActionApprove})
		agg.Request.ReviewStatus = model.ReviewStatusApproved
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Request.Version)

	loaded, err := s.GetAggregate(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusApproved, loaded.Request.ReviewStatus)
	require.Len(t, loaded.Events, 1)
	assert.Equal(t, 1, loaded.Events[0].Sequence)
}

func TestUpdateErrorDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := New()
	newRequest(t, s, "r1")

	boom := errors.New("boom")
	_, err := s.Update(ctx, "r1", func(agg *store.Aggregate) error {
		agg.Append("bob", model.CommentPayload{Comment: "x"})
		agg.Request.Archived = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	loaded, err := s.GetAggregate(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Events)
	assert.False(t, loaded.Request.Archived)
}

func TestUpdateUnknownRequest(t *testing.T) {
	_, err := New().Update(context.Background(), "missing", func(*store.Aggregate) error { return nil })
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateCancelledBeforeEntry(t *testing.T) {
	s := New()
	newRequest(t, s, "r1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := s.Update(ctx, "r1", func(*store.Aggregate) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestConcurrentAppends(t *testing.T) {
	const n = 64
	ctx := context.Background()
	s := New()
	newRequest(t, s, "r1")
	newRequest(t, s, "r2")

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		for _, id := range []string{"r1", "r2"} {
			id := id
			g.Go(func() error {
				_, err := s.Update(ctx, id, func(agg *store.Aggregate) error {
					agg.Append(fmt.Sprintf("reviewer-%d", i), model.CommentPayload{Comment: "ping"})
					return nil
				})
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	for _, id := range []string{"r1", "r2"} {
		agg, err := s.GetAggregate(ctx, id)
		require.NoError(t, err)
		require.Len(t, agg.Events, n)
		assert.Equal(t, n, agg.Request.Version)
		for i, e := range agg.Events {
			assert.Equal(t, i+1, e.Sequence)
		}
	}
}

func TestListRequests(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	for i, r := range []model.ExecutionRequest{
		{ID: "r1", AuthorID: "alice", ConnectionID: "db1", CreatedAt: now},
		{ID: "r2", AuthorID: "bob", ConnectionID: "db2", CreatedAt: now.Add(time.Second)},
		{ID: "r3", AuthorID: "alice", ConnectionID: "db1", CreatedAt: now.Add(2 * time.Second), Archived: true},
	} {
		r := r
		require.NoError(t, s.CreateRequest(ctx, &r), i)
	}

	all, err := s.ListRequests(ctx, store.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "r1", all[0].ID)

	withArchived, err := s.ListRequests(ctx, store.RequestFilter{ConnectionID: "db1", IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, withArchived, 2)

	bobs, err := s.ListRequests(ctx, store.RequestFilter{AuthorID: "bob"})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "r2", bobs[0].ID)
}
