package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/gate"
	"github.com/doodlesbykumbi/execgate/pkg/identity"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/policy"
	"github.com/doodlesbykumbi/execgate/pkg/request"
	"github.com/doodlesbykumbi/execgate/pkg/review"
)

// database stands in for the target database of every connection.
type database struct {
	mu       sync.Mutex
	runs     int
	behavior string
	message  string
}

func (d *database) Execute(ctx context.Context, conn *model.Connection, req *model.ExecutionRequest) (*gate.Result, error) {
	d.mu.Lock()
	d.runs++
	behavior, message := d.behavior, d.message
	d.mu.Unlock()

	switch behavior {
	case "fails":
		return nil, errors.New(message)
	case "rejects writes":
		if req.ReadOnly {
			return nil, fmt.Errorf("cannot execute UPDATE in a read-only transaction: %w", gate.ErrMutationAttempt)
		}
	case "hangs":
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &gate.Result{RowsAffected: 1, Message: "1 statement(s), 1 row(s) affected"}, nil
}

// StepsContext holds state shared between step definitions
type StepsContext struct {
	newBackend func(ctx context.Context) (*Backend, error)

	backend   *Backend
	evaluator *policy.Evaluator
	requests  *request.Service
	gate      *gate.Gate
	db        *database

	requestID string
	lastErr   error
	outcome   *gate.Outcome
}

// NewStepsContext creates a new steps context
func NewStepsContext(newBackend func(ctx context.Context) (*Backend, error)) *StepsContext {
	return &StepsContext{newBackend: newBackend}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(s.reset)

	// Setup steps
	sc.Step(`^a connection "([^"]*)" requiring (\d+) approvals?$`, s.aConnectionRequiringApprovals)
	sc.Step(`^connection "([^"]*)" allows self-approval$`, s.connectionAllowsSelfApproval)
	sc.Step(`^connection "([^"]*)" is read-only capable$`, s.connectionIsReadOnlyCapable)
	sc.Step(`^connection "([^"]*)" allows read-only re-execution$`, s.connectionAllowsReadOnlyReexecution)
	sc.Step(`^the following roles are loaded:$`, s.theFollowingRolesAreLoaded)
	sc.Step(`^the database (fails|rejects writes|hangs|succeeds)(?: with "([^"]*)")?$`, s.theDatabaseBehaves)

	// Request steps
	sc.Step(`^"([^"]*)" submits a (single|multi) statement request on "([^"]*)":$`, s.submitsARequest)
	sc.Step(`^"([^"]*)" submits a read-only request on "([^"]*)":$`, s.submitsAReadOnlyRequest)
	sc.Step(`^"([^"]*)" (approves|rejects|requests changes on) the request$`, s.reviewsTheRequest)
	sc.Step(`^"([^"]*)" comments "([^"]*)"$`, s.comments)
	sc.Step(`^"([^"]*)" edits the statement to:$`, s.editsTheStatement)
	sc.Step(`^"([^"]*)" archives the request$`, s.archivesTheRequest)
	sc.Step(`^"([^"]*)" executes the request$`, s.executesTheRequest)
	sc.Step(`^"([^"]*)" executes the request with a timeout of (\S+)$`, s.executesTheRequestWithTimeout)

	// Assertion steps
	sc.Step(`^the last operation should succeed$`, s.theLastOperationShouldSucceed)
	sc.Step(`^the last operation should fail as (not found|unauthorized|invalid state|validation|execution failure|timeout)$`, s.theLastOperationShouldFailAs)
	sc.Step(`^the review status should be "([^"]*)"$`, s.theReviewStatusShouldBe)
	sc.Step(`^the execution status should be "([^"]*)"$`, s.theExecutionStatusShouldBe)
	sc.Step(`^the request should have (\d+) events?$`, s.theRequestShouldHaveEvents)
	sc.Step(`^the statement should be "([^"]*)"$`, s.theStatementShouldBe)
	sc.Step(`^the execution should be refused as "([^"]*)"$`, s.theExecutionShouldBeRefusedAs)
	sc.Step(`^the execution should be recorded as "([^"]*)"$`, s.theExecutionShouldBeRecordedAs)
	sc.Step(`^the execution should be flagged as a re-execution$`, s.theExecutionShouldBeFlaggedAsAReexecution)
	sc.Step(`^the database should have run (\d+) times?$`, s.theDatabaseShouldHaveRun)
	sc.Step(`^"([^"]*)" should be (allowed|denied) "([^"]*)" on "([^"]*)"$`, s.shouldBeAllowedOn)
	sc.Step(`^"([^"]*)" should see (\d+) requests?$`, s.shouldSeeRequests)
}

func (s *StepsContext) reset(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	backend, err := s.newBackend(ctx)
	if err != nil {
		return ctx, err
	}

	logger := zerolog.Nop()
	s.backend = backend
	s.db = &database{}
	s.evaluator = policy.NewEvaluator(backend.Principals, logger)
	s.requests = request.NewService(backend.Requests, backend.Connections, s.evaluator, logger)
	s.gate = gate.New(backend.Requests, backend.Connections, s.evaluator, s.db, logger)
	s.requestID = ""
	s.lastErr = nil
	s.outcome = nil
	return ctx, nil
}

func as(ctx context.Context, principalID string) context.Context {
	return identity.Set(ctx, identity.New(principalID).WithSource("godog"))
}

// Setup steps

func (s *StepsContext) aConnectionRequiringApprovals(ctx context.Context, id string, n int) error {
	return s.backend.Connections.SaveConnection(ctx, &model.Connection{
		ID:           id,
		DisplayName:  id,
		ReviewConfig: model.ReviewConfig{NumTotalRequired: n},
	})
}

func (s *StepsContext) updateConnection(ctx context.Context, id string, fn func(c *model.Connection)) error {
	conn, err := s.backend.Connections.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	fn(conn)
	return s.backend.Connections.SaveConnection(ctx, conn)
}

func (s *StepsContext) connectionAllowsSelfApproval(ctx context.Context, id string) error {
	return s.updateConnection(ctx, id, func(c *model.Connection) {
		c.ReviewConfig.AllowSelfApproval = true
	})
}

func (s *StepsContext) connectionIsReadOnlyCapable(ctx context.Context, id string) error {
	return s.updateConnection(ctx, id, func(c *model.Connection) {
		c.ReadOnlyCapable = true
	})
}

func (s *StepsContext) connectionAllowsReadOnlyReexecution(ctx context.Context, id string) error {
	return s.updateConnection(ctx, id, func(c *model.Connection) {
		c.ReviewConfig.AllowReadOnlyReexecution = true
	})
}

func (s *StepsContext) theFollowingRolesAreLoaded(ctx context.Context, doc *godog.DocString) error {
	_, err := policy.NewLoader(s.backend.Roles).WithSource("feature").LoadFromString(ctx, doc.Content)
	return err
}

func (s *StepsContext) theDatabaseBehaves(behavior, message string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.behavior = behavior
	s.db.message = message
	return nil
}

// Request steps

func (s *StepsContext) submit(ctx context.Context, principalID string, in request.SubmitInput) error {
	req, err := s.requests.Submit(as(ctx, principalID), in)
	s.lastErr = err
	if err == nil {
		s.requestID = req.ID
	}
	return nil
}

func (s *StepsContext) submitsARequest(ctx context.Context, principalID, kind, connectionID string, statement *godog.DocString) error {
	typ := model.RequestTypeSingleStatement
	if kind == "multi" {
		typ = model.RequestTypeMultiStatement
	}
	return s.submit(ctx, principalID, request.SubmitInput{
		ConnectionID: connectionID,
		Type:         typ,
		Title:        "feature request",
		Statement:    statement.Content,
	})
}

func (s *StepsContext) submitsAReadOnlyRequest(ctx context.Context, principalID, connectionID string, statement *godog.DocString) error {
	return s.submit(ctx, principalID, request.SubmitInput{
		ConnectionID: connectionID,
		Type:         model.RequestTypeSingleStatement,
		Title:        "feature read",
		Statement:    statement.Content,
		ReadOnly:     true,
	})
}

func (s *StepsContext) reviewsTheRequest(ctx context.Context, principalID, verb string) error {
	action := map[string]model.ReviewAction{
		"approves":            model.ReviewActionApprove,
		"rejects":             model.ReviewActionReject,
		"requests changes on": model.ReviewActionRequestChange,
	}[verb]
	_, _, s.lastErr = s.requests.AppendReview(as(ctx, principalID), s.requestID, action, "")
	return nil
}

func (s *StepsContext) comments(ctx context.Context, principalID, comment string) error {
	_, _, s.lastErr = s.requests.AppendComment(as(ctx, principalID), s.requestID, comment)
	return nil
}

func (s *StepsContext) editsTheStatement(ctx context.Context, principalID string, statement *godog.DocString) error {
	_, _, s.lastErr = s.requests.Edit(as(ctx, principalID), s.requestID, request.EditInput{
		Statement: &statement.Content,
	})
	return nil
}

func (s *StepsContext) archivesTheRequest(ctx context.Context, principalID string) error {
	_, s.lastErr = s.requests.Archive(as(ctx, principalID), s.requestID)
	return nil
}

func (s *StepsContext) executesTheRequest(ctx context.Context, principalID string) error {
	s.outcome, s.lastErr = s.gate.TryExecute(as(ctx, principalID), s.requestID)
	return nil
}

func (s *StepsContext) executesTheRequestWithTimeout(ctx context.Context, principalID, timeout string) error {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return err
	}
	s.outcome, s.lastErr = s.gate.TryExecute(as(ctx, principalID), s.requestID, gate.WithTimeout(d))
	return nil
}

// Assertion steps

func (s *StepsContext) theLastOperationShouldSucceed() error {
	if s.lastErr != nil {
		return fmt.Errorf("expected success, got %v", s.lastErr)
	}
	return nil
}

func (s *StepsContext) theLastOperationShouldFailAs(kind string) error {
	want := map[string]error{
		"not found":         errs.ErrNotFound,
		"unauthorized":      errs.ErrUnauthorized,
		"invalid state":     errs.ErrInvalidState,
		"validation":        errs.ErrValidation,
		"execution failure": errs.ErrExecutionFailure,
		"timeout":           errs.ErrTimeout,
	}[kind]
	if s.lastErr == nil {
		return fmt.Errorf("expected %s error, got success", kind)
	}
	if !errors.Is(s.lastErr, want) {
		return fmt.Errorf("expected %s error, got %v", kind, s.lastErr)
	}
	return nil
}

func (s *StepsContext) aggregate(ctx context.Context) (*model.ExecutionRequest, []model.Event, *model.Connection, error) {
	if s.requestID == "" {
		return nil, nil, nil, fmt.Errorf("no request was submitted")
	}
	agg, err := s.backend.Requests.GetAggregate(ctx, s.requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	conn, err := s.backend.Connections.GetConnection(ctx, agg.Request.ConnectionID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &agg.Request, agg.Events, conn, nil
}

func (s *StepsContext) theReviewStatusShouldBe(ctx context.Context, want string) error {
	req, events, conn, err := s.aggregate(ctx)
	if err != nil {
		return err
	}
	live := review.Resolve(events, req.AuthorID, conn.ReviewConfig)
	if live.String() != want {
		return fmt.Errorf("expected review status %s, got %s", want, live)
	}
	if req.ReviewStatus != live {
		return fmt.Errorf("stored review status %s differs from the event log (%s)", req.ReviewStatus, live)
	}
	return nil
}

func (s *StepsContext) theExecutionStatusShouldBe(ctx context.Context, want string) error {
	req, _, _, err := s.aggregate(ctx)
	if err != nil {
		return err
	}
	if req.ExecutionStatus.String() != want {
		return fmt.Errorf("expected execution status %s, got %s", want, req.ExecutionStatus)
	}
	return nil
}

func (s *StepsContext) theRequestShouldHaveEvents(ctx context.Context, n int) error {
	_, events, _, err := s.aggregate(ctx)
	if err != nil {
		return err
	}
	if len(events) != n {
		return fmt.Errorf("expected %d events, got %d", n, len(events))
	}
	for i, e := range events {
		if e.Sequence != i+1 {
			return fmt.Errorf("event %d has sequence %d", i, e.Sequence)
		}
	}
	return nil
}

func (s *StepsContext) theStatementShouldBe(ctx context.Context, want string) error {
	req, _, _, err := s.aggregate(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Statement) != want {
		return fmt.Errorf("expected statement %q, got %q", want, req.Statement)
	}
	return nil
}

func (s *StepsContext) theExecutionShouldBeRefusedAs(reason string) error {
	if s.outcome == nil {
		return fmt.Errorf("no outcome, last error: %v", s.lastErr)
	}
	if s.outcome.Executed {
		return fmt.Errorf("expected a refusal, but the request executed with status %s", s.outcome.Status)
	}
	if string(s.outcome.Reason) != reason {
		return fmt.Errorf("expected reason %s, got %s", reason, s.outcome.Reason)
	}
	return nil
}

func (s *StepsContext) theExecutionShouldBeRecordedAs(reason string) error {
	if s.outcome == nil || !s.outcome.Executed {
		return fmt.Errorf("expected a recorded execution, got %+v (%v)", s.outcome, s.lastErr)
	}
	if string(s.outcome.Reason) != reason {
		return fmt.Errorf("expected reason %s, got %s", reason, s.outcome.Reason)
	}
	if s.outcome.Event == nil || s.outcome.Event.Type != model.EventTypeExecute {
		return fmt.Errorf("expected an EXECUTE event")
	}
	return nil
}

func (s *StepsContext) theExecutionShouldBeFlaggedAsAReexecution() error {
	if s.outcome == nil || !s.outcome.Reexecution {
		return fmt.Errorf("expected a re-execution, got %+v", s.outcome)
	}
	return nil
}

func (s *StepsContext) theDatabaseShouldHaveRun(n int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.runs != n {
		return fmt.Errorf("expected %d runs, got %d", n, s.db.runs)
	}
	return nil
}

func (s *StepsContext) shouldBeAllowedOn(ctx context.Context, principalID, verdict, action, resource string) error {
	got, err := s.evaluator.Authorize(ctx, principalID, action, resource)
	if err != nil {
		return err
	}
	want := policy.Allow
	if verdict == "denied" {
		want = policy.Deny
	}
	if got != want {
		return fmt.Errorf("expected %s to be %s %s on %s, got %s", principalID, verdict, action, resource, got)
	}
	return nil
}

func (s *StepsContext) shouldSeeRequests(ctx context.Context, principalID string, n int) error {
	reqs, err := s.requests.List(as(ctx, principalID))
	if err != nil {
		return err
	}
	if len(reqs) != n {
		return fmt.Errorf("expected %s to see %d requests, got %d", principalID, n, len(reqs))
	}
	return nil
}
