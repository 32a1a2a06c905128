package request

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/identity"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/policy"
	"github.com/doodlesbykumbi/execgate/pkg/store"
	"github.com/doodlesbykumbi/execgate/pkg/store/memory"
)

func TestMain(m *testing.M) {
	audit.SetEnabled(false)
	os.Exit(m.Run())
}

const roles = `
roles:
  - name: developer
    policies:
      - {action: "execution_request:*", effect: allow, resource: "*"}
      - {action: "execution_request:self_review", effect: deny, resource: "*"}
  - name: self-reviewer
    policies:
      - {action: "execution_request:*", effect: allow, resource: "*"}
  - name: outsider
    policies:
      - {action: "execution_request:*", effect: allow, resource: "*"}
      - {action: "*", effect: deny, resource: "db2"}
principals:
  - {id: alice, roles: [developer]}
  - {id: bob, roles: [developer]}
  - {id: carol, roles: [developer]}
  - {id: erin, roles: [self-reviewer]}
  - {id: olga, roles: [outsider]}
  - {id: dave}
`

type fixture struct {
	store   *memory.Store
	svc     *Service
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, cfg model.ReviewConfig) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	doc, err := policy.ParseDocument(roles)
	require.NoError(t, err)
	require.NoError(t, doc.Apply(ctx, s))

	require.NoError(t, s.SaveConnection(ctx, &model.Connection{
		ID:              "db1",
		DisplayName:     "Primary",
		ReadOnlyCapable: true,
		ReviewConfig:    cfg,
	}))
	require.NoError(t, s.SaveConnection(ctx, &model.Connection{
		ID:           "db2",
		DisplayName:  "Legacy",
		ReviewConfig: cfg,
	}))

	m := metrics.New()
	ev := policy.NewEvaluator(s, zerolog.Nop())
	return &fixture{
		store:   s,
		svc:     NewService(s, s, ev, zerolog.Nop()).WithMetrics(m),
		metrics: m,
	}
}

func as(principalID string) context.Context {
	return identity.Set(context.Background(), identity.New(principalID))
}

func quorum(n int) model.ReviewConfig {
	return model.ReviewConfig{NumTotalRequired: n}
}

func (f *fixture) submit(t *testing.T, author string) *model.ExecutionRequest {
	t.Helper()
	req, err := f.svc.Submit(as(author), SubmitInput{
		ConnectionID: "db1",
		Type:         model.RequestTypeSingleStatement,
		Title:        "Clean up sessions",
		Statement:    "DELETE FROM sessions WHERE expires_at < now();",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) markExecuted(t *testing.T, id string) {
	t.Helper()
	_, err := f.store.Update(context.Background(), id, func(agg *store.Aggregate) error {
		agg.Append("alice", model.ExecutePayload{Status: model.ExecutionStatusExecuted})
		agg.Request.ExecutionStatus = model.ExecutionStatusExecuted
		return nil
	})
	require.NoError(t, err)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, quorum(1))

	req := f.submit(t, "alice")
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "alice", req.AuthorID)
	assert.Equal(t, "db1", req.ConnectionID)
	assert.Equal(t, model.ExecutionStatusPending, req.ExecutionStatus)
	assert.Equal(t, model.ReviewStatusPending, req.ReviewStatus)
	assert.Equal(t, 0, req.Version)

	agg, err := f.store.GetAggregate(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clean up sessions", agg.Request.Title)
	assert.Empty(t, agg.Events)
}

func TestSubmitWithoutQuorumIsApproved(t *testing.T) {
	f := newFixture(t, quorum(0))

	req := f.submit(t, "alice")
	assert.Equal(t, model.ReviewStatusApproved, req.ReviewStatus)
}

func TestSubmitRejected(t *testing.T) {
	valid := SubmitInput{
		ConnectionID: "db1",
		Type:         model.RequestTypeSingleStatement,
		Title:        "t",
		Statement:    "SELECT 1",
	}

	tests := []struct {
		name    string
		ctx     context.Context
		mutate  func(in *SubmitInput)
		kind    error
		message string
	}{
		{
			name:    "no identity",
			ctx:     context.Background(),
			kind:    errs.ErrUnauthorized,
			message: "no authenticated principal",
		},
		{
			name:    "no permission",
			ctx:     as("dave"),
			kind:    errs.ErrUnauthorized,
			message: "dave lacks execution_request:create on db1",
		},
		{
			name:   "unknown connection",
			ctx:    as("alice"),
			mutate: func(in *SubmitInput) { in.ConnectionID = "nope" },
			kind:   errs.ErrNotFound,
		},
		{
			name:    "blank title",
			ctx:     as("alice"),
			mutate:  func(in *SubmitInput) { in.Title = "   " },
			kind:    errs.ErrValidation,
			message: "title must not be empty",
		},
		{
			name:    "empty statement",
			ctx:     as("alice"),
			mutate:  func(in *SubmitInput) { in.Statement = " -- nothing\n" },
			kind:    errs.ErrValidation,
			message: "statement must not be empty",
		},
		{
			name:    "two statements in a single statement request",
			ctx:     as("alice"),
			mutate:  func(in *SubmitInput) { in.Statement = "SELECT 1; SELECT 2" },
			kind:    errs.ErrValidation,
			message: "exactly one statement, found 2",
		},
		{
			name: "statements hidden behind dollar signs in identifiers",
			ctx:  as("alice"),
			mutate: func(in *SubmitInput) {
				in.Statement = "SELECT 1 AS a$b$; DELETE FROM users; SELECT 2 AS c$b$"
			},
			kind:    errs.ErrValidation,
			message: "exactly one statement, found 3",
		},
		{
			name:    "unknown type",
			ctx:     as("alice"),
			mutate:  func(in *SubmitInput) { in.Type = model.RequestType(42) },
			kind:    errs.ErrValidation,
			message: "unknown request type",
		},
		{
			name: "read only on incapable connection",
			ctx:  as("alice"),
			mutate: func(in *SubmitInput) {
				in.ConnectionID = "db2"
				in.ReadOnly = true
			},
			kind:    errs.ErrValidation,
			message: "connection db2 cannot run read-only requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, quorum(1))
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			_, err := f.svc.Submit(tt.ctx, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.message)

			reqs, err := f.store.ListRequests(context.Background(), store.RequestFilter{IncludeArchived: true})
			require.NoError(t, err)
			assert.Empty(t, reqs)
		})
	}
}

func TestSubmitEscapeString(t *testing.T) {
	f := newFixture(t, quorum(1))

	req, err := f.svc.Submit(as("alice"), SubmitInput{
		ConnectionID: "db1",
		Type:         model.RequestTypeSingleStatement,
		Title:        "Fix note",
		Statement:    `UPDATE notes SET body = E'it\'s; fixed' WHERE id = 7`,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestTypeSingleStatement, req.Type)
}

func TestSubmitMultiStatement(t *testing.T) {
	f := newFixture(t, quorum(1))

	req, err := f.svc.Submit(as("alice"), SubmitInput{
		ConnectionID: "db1",
		Type:         model.RequestTypeMultiStatement,
		Title:        "Backfill",
		Statement:    "UPDATE a SET x = 1; UPDATE b SET y = 2;",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestTypeMultiStatement, req.Type)
}

func TestAppendReview(t *testing.T) {
	f := newFixture(t, quorum(2))
	req := f.submit(t, "alice")

	agg, ev, err := f.svc.AppendReview(as("bob"), req.ID, model.ReviewActionApprove, "looks good")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Sequence)
	assert.Equal(t, model.EventTypeReview, ev.Type)
	assert.Equal(t, "bob", ev.AuthorID)
	assert.Equal(t, model.ReviewStatusPending, agg.Request.ReviewStatus)

	agg, ev, err = f.svc.AppendReview(as("carol"), req.ID, model.ReviewActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, 2, ev.Sequence)
	assert.Equal(t, 2, agg.Request.Version)
	assert.Equal(t, model.ReviewStatusApproved, agg.Request.ReviewStatus)

	// a later change request by the same reviewer supersedes the approval
	agg, _, err = f.svc.AppendReview(as("carol"), req.ID, model.ReviewActionRequestChange, "wait")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusPending, agg.Request.ReviewStatus)

	agg, _, err = f.svc.AppendReview(as("bob"), req.ID, model.ReviewActionReject, "no")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusRejected, agg.Request.ReviewStatus)

	stored, err := f.store.GetAggregate(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusRejected, stored.Request.ReviewStatus)
	assert.Len(t, stored.Events, 4)

	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.EventsTotal.WithLabelValues("REVIEW")))
}

func TestAppendReviewByAuthor(t *testing.T) {
	t.Run("forbidden without self review permission", func(t *testing.T) {
		f := newFixture(t, quorum(1))
		req := f.submit(t, "alice")

		_, _, err := f.svc.AppendReview(as("alice"), req.ID, model.ReviewActionApprove, "")
		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		assert.Contains(t, err.Error(), "execution_request:self_review")
	})

	t.Run("recorded but not counted with self review permission", func(t *testing.T) {
		f := newFixture(t, quorum(1))
		req := f.submit(t, "erin")

		agg, ev, err := f.svc.AppendReview(as("erin"), req.ID, model.ReviewActionApprove, "")
		require.NoError(t, err)
		assert.Equal(t, 1, ev.Sequence)
		assert.Equal(t, model.ReviewStatusPending, agg.Request.ReviewStatus)
	})

	t.Run("counted when the connection allows self approval", func(t *testing.T) {
		f := newFixture(t, model.ReviewConfig{NumTotalRequired: 1, AllowSelfApproval: true})
		req := f.submit(t, "alice")

		agg, _, err := f.svc.AppendReview(as("alice"), req.ID, model.ReviewActionApprove, "")
		require.NoError(t, err)
		assert.Equal(t, model.ReviewStatusApproved, agg.Request.ReviewStatus)
	})
}

func TestAppendReviewRejected(t *testing.T) {
	f := newFixture(t, quorum(1))
	req := f.submit(t, "alice")

	_, _, err := f.svc.AppendReview(as("bob"), "missing", model.ReviewActionApprove, "")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, _, err = f.svc.AppendReview(as("dave"), req.ID, model.ReviewActionApprove, "")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, _, err = f.svc.AppendReview(as("bob"), req.ID, model.ReviewAction(9), "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	f.markExecuted(t, req.ID)
	_, _, err = f.svc.AppendReview(as("bob"), req.ID, model.ReviewActionApprove, "")
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Contains(t, err.Error(), "already been executed")

	agg, err := f.store.GetAggregate(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, agg.Events, 1)
}

func TestAppendComment(t *testing.T) {
	f := newFixture(t, quorum(1))
	req := f.submit(t, "alice")

	_, ev, err := f.svc.AppendComment(as("bob"), req.ID, "why *now*?")
	require.NoError(t, err)
	assert.Equal(t, model.EventTypeComment, ev.Type)

	f.markExecuted(t, req.ID)
	agg, ev, err := f.svc.AppendComment(as("alice"), req.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Sequence)
	assert.Equal(t, model.ReviewStatusPending, agg.Request.ReviewStatus)

	_, _, err = f.svc.AppendComment(as("bob"), req.ID, "  ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, _, err = f.svc.AppendComment(as("dave"), req.ID, "hi")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func ptr[T any](v T) *T {
	return &v
}

func TestEdit(t *testing.T) {
	f := newFixture(t, quorum(2))
	req := f.submit(t, "alice")

	_, _, err := f.svc.AppendReview(as("bob"), req.ID, model.ReviewActionApprove, "")
	require.NoError(t, err)

	agg, ev, err := f.svc.Edit(as("alice"), req.ID, EditInput{
		Statement: ptr("DELETE FROM sessions WHERE expires_at < now() - interval '1 day'"),
		ReadOnly:  ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, model.EventTypeEdit, ev.Type)
	assert.Equal(t, 2, ev.Sequence)

	p, ok := ev.Payload.(model.EditPayload)
	require.True(t, ok)
	assert.Equal(t, "DELETE FROM sessions WHERE expires_at < now();", p.Previous.Statement)
	assert.Equal(t, "DELETE FROM sessions WHERE expires_at < now() - interval '1 day'", p.Next.Statement)
	assert.Equal(t, p.Previous.Title, p.Next.Title)
	assert.Equal(t, p.Next.Statement, agg.Request.Statement)
}

func TestEditRejected(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, id string)
		caller  string
		in      EditInput
		kind    error
		message string
	}{
		{
			name:    "not the author",
			caller:  "bob",
			in:      EditInput{Title: ptr("mine now")},
			kind:    errs.ErrUnauthorized,
			message: "only the author alice may edit",
		},
		{
			name:   "no permission",
			caller: "dave",
			in:     EditInput{Title: ptr("x")},
			kind:   errs.ErrUnauthorized,
		},
		{
			name:    "no change",
			caller:  "alice",
			in:      EditInput{Title: ptr("Clean up sessions")},
			kind:    errs.ErrValidation,
			message: "changes nothing",
		},
		{
			name:    "second statement",
			caller:  "alice",
			in:      EditInput{Statement: ptr("SELECT 1; SELECT 2")},
			kind:    errs.ErrValidation,
			message: "exactly one statement",
		},
		{
			name: "approved",
			prepare: func(t *testing.T, f *fixture, id string) {
				_, _, err := f.svc.AppendReview(as("bob"), id, model.ReviewActionApprove, "")
				require.NoError(t, err)
			},
			caller:  "alice",
			in:      EditInput{Title: ptr("sneaky")},
			kind:    errs.ErrInvalidState,
			message: "is APPROVED and can no longer be edited",
		},
		{
			name: "rejected",
			prepare: func(t *testing.T, f *fixture, id string) {
				_, _, err := f.svc.AppendReview(as("bob"), id, model.ReviewActionReject, "")
				require.NoError(t, err)
			},
			caller:  "alice",
			in:      EditInput{Title: ptr("again")},
			kind:    errs.ErrInvalidState,
			message: "is REJECTED",
		},
		{
			name: "executed",
			prepare: func(t *testing.T, f *fixture, id string) {
				f.markExecuted(t, id)
			},
			caller:  "alice",
			in:      EditInput{Title: ptr("later")},
			kind:    errs.ErrInvalidState,
			message: "is EXECUTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, quorum(1))
			req := f.submit(t, "alice")
			if tt.prepare != nil {
				tt.prepare(t, f, req.ID)
			}
			before, err := f.store.GetAggregate(context.Background(), req.ID)
			require.NoError(t, err)

			_, _, err = f.svc.Edit(as(tt.caller), req.ID, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.message)

			after, err := f.store.GetAggregate(context.Background(), req.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestArchive(t *testing.T) {
	f := newFixture(t, quorum(1))
	req := f.submit(t, "alice")

	agg, err := f.svc.Archive(as("alice"), req.ID)
	require.NoError(t, err)
	assert.True(t, agg.Request.Archived)

	_, err = f.svc.Archive(as("alice"), req.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	_, _, err = f.svc.AppendReview(as("bob"), req.ID, model.ReviewActionApprove, "")
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Contains(t, err.Error(), "archived")

	_, _, err = f.svc.AppendComment(as("bob"), req.ID, "hello?")
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	_, _, err = f.svc.Edit(as("alice"), req.ID, EditInput{Title: ptr("revived")})
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	reqs, err := f.svc.List(as("alice"))
	require.NoError(t, err)
	assert.Empty(t, reqs)

	reqs, err = f.svc.ListFiltered(as("alice"), store.RequestFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestGet(t *testing.T) {
	f := newFixture(t, quorum(1))
	req := f.submit(t, "alice")

	_, _, err := f.svc.AppendComment(as("bob"), req.ID, "Please add a `LIMIT`.\n\nSee **docs**.")
	require.NoError(t, err)
	_, _, err = f.svc.AppendReview(as("carol"), req.ID, model.ReviewActionApprove, "<script>alert(1)</script> fine")
	require.NoError(t, err)
	_, _, err = f.svc.AppendReview(as("bob"), req.ID, model.ReviewActionApprove, "")
	require.NoError(t, err)

	d, err := f.svc.Get(as("bob"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, d.Request.ID)
	assert.Len(t, d.Events, 3)
	assert.Equal(t, model.ReviewStatusApproved, d.ReviewStatus)
	assert.Equal(t, []string{"bob", "carol"}, d.Votes.Approvers)

	require.Len(t, d.Comments, 2)
	first := d.Comments[0]
	assert.Equal(t, "bob", first.AuthorID)
	assert.Equal(t, d.Events[0].ID, first.EventID)
	assert.Contains(t, first.HTML, "<code>LIMIT</code>")
	assert.Contains(t, first.HTML, "<strong>docs</strong>")
	assert.Equal(t, "Please add a LIMIT. See docs.", first.Summary)

	assert.NotContains(t, d.Comments[1].HTML, "<script>")

	_, err = f.svc.Get(as("dave"), req.ID)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestTruncate(t *testing.T) {
	short := "fine"
	assert.Equal(t, short, truncate(short))

	long := make([]rune, summaryLength+10)
	for i := range long {
		long[i] = 'é'
	}
	got := []rune(truncate(string(long)))
	assert.Len(t, got, summaryLength)
	assert.Equal(t, '…', got[len(got)-1])
}

func TestList(t *testing.T) {
	f := newFixture(t, quorum(1))
	first := f.submit(t, "alice")
	second := f.submit(t, "bob")

	// olga may read db1 but not db2
	_, err := f.store.Update(context.Background(), second.ID, func(agg *store.Aggregate) error {
		agg.Request.ConnectionID = "db2"
		return nil
	})
	require.NoError(t, err)

	reqs, err := f.svc.List(as("alice"))
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	reqs, err = f.svc.List(as("olga"))
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, first.ID, reqs[0].ID)

	reqs, err = f.svc.List(as("dave"))
	require.NoError(t, err)
	assert.Empty(t, reqs)

	_, err = f.svc.List(context.Background())
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestConcurrentAppends(t *testing.T) {
	const n = 48
	f := newFixture(t, quorum(1))
	req := f.submit(t, "alice")

	var g errgroup.Group
	for i := 0; i < n; i++ {
		author := []string{"bob", "carol", "alice"}[i%3]
		g.Go(func() error {
			_, _, err := f.svc.AppendComment(as(author), req.ID, "ping")
			return err
		})
	}
	require.NoError(t, g.Wait())

	agg, err := f.store.GetAggregate(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, agg.Events, n)
	assert.Equal(t, n, agg.Request.Version)

	seqs := make([]int, 0, n)
	for _, e := range agg.Events {
		seqs = append(seqs, e.Sequence)
	}
	sort.Ints(seqs)
	for i, s := range seqs {
		assert.Equal(t, i+1, s)
	}
}
