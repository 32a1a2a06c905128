package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/identity"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
	"github.com/doodlesbykumbi/execgate/pkg/policy"
	"github.com/doodlesbykumbi/execgate/pkg/review"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// DefaultTimeout bounds an execution when Gate.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Gate guards the Executor.
type Gate struct {
	// Timeout bounds every execution unless overridden with WithTimeout.
	Timeout time.Duration

	requests    store.RequestStore
	connections store.ConnectionStore
	authz       policy.Authorizer
	executor    Executor
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	// request ids whose timed out executor has not returned yet
	abandoned sync.Map
}

// New creates a gate delegating approved requests to executor.
func New(requests store.RequestStore, connections store.ConnectionStore, authz policy.Authorizer, executor Executor, logger zerolog.Logger) *Gate {
	return &Gate{
		Timeout:     DefaultTimeout,
		requests:    requests,
		connections: connections,
		authz:       authz,
		executor:    executor,
		logger:      logger.With().Str("component", "gate").Logger(),
	}
}

// WithMetrics records executions in m.
func (g *Gate) WithMetrics(m *metrics.Metrics) *Gate {
	g.metrics = m
	return g
}

// Option adjusts a single TryExecute call.
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithTimeout overrides Gate.Timeout for one call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// refusal is a failed check. It aborts the store update so nothing is
// recorded.
type refusal struct {
	reason Reason
	err    error
}

func (r *refusal) Error() string { return r.err.Error() }

func (r *refusal) Unwrap() error { return r.err }

// TryExecute runs request id if every check passes. The returned error is
// nil only when the executor ran and succeeded; refusals and failures also
// return a non-nil Outcome describing what happened.
func (g *Gate) TryExecute(ctx context.Context, id string, opts ...Option) (*Outcome, error) {
	o := options{timeout: g.Timeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}

	principalID, err := identity.Require(ctx)
	if err != nil {
		return g.refused(&Outcome{RequestID: id, Reason: ReasonUnauthorized}, "", "", err)
	}

	agg, err := g.requests.GetAggregate(ctx, id)
	if err != nil {
		return nil, err
	}
	conn, err := g.connections.GetConnection(ctx, agg.Request.ConnectionID)
	if err != nil {
		return nil, err
	}

	if err := g.authz.Check(ctx, principalID, permission.ExecutionRequestExecute, conn.ID); err != nil {
		if !errors.Is(err, errs.ErrUnauthorized) {
			return nil, err
		}
		return g.refused(&Outcome{RequestID: id, Reason: ReasonUnauthorized}, principalID, conn.ID, err)
	}

	out := &Outcome{RequestID: id}
	var runErr error
	_, err = g.requests.Update(ctx, id, func(agg *store.Aggregate) error {
		req := &agg.Request
		reexecution, ref := precheck(agg, conn)
		if ref != nil {
			return ref
		}
		if _, running := g.abandoned.Load(req.ID); running {
			return &refusal{ReasonStillRunning, errs.InvalidState("an earlier execution of request %s has not finished", req.ID)}
		}

		out.Executed = true
		out.Reexecution = reexecution
		out.Result, out.Duration, runErr = g.run(ctx, o.timeout, conn, req)
		out.Status, out.Reason, runErr = classify(req, runErr, o.timeout)

		payload := model.ExecutePayload{
			Status:      out.Status,
			Reexecution: reexecution,
			Duration:    out.Duration,
		}
		if out.Result != nil {
			payload.RowsAffected = out.Result.RowsAffected
		}
		if runErr != nil {
			payload.Reason = string(out.Reason)
			payload.Error = runErr.Error()
		}
		ev := agg.Append(principalID, payload)
		out.Event = &ev

		// a failed re-run of a read-only request leaves the earlier success in place
		if !(reexecution && out.Status == model.ExecutionStatusFailed) {
			req.ExecutionStatus = out.Status
		}
		return nil
	})

	var ref *refusal
	if errors.As(err, &ref) {
		out.Reason = ref.reason
		return g.refused(out, principalID, conn.ID, ref.err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record execution of request %s: %w", id, err)
	}

	g.recorded(out, principalID, conn.ID, runErr)
	return out, runErr
}

// precheck runs the lifecycle checks on the locked aggregate.
func precheck(agg *store.Aggregate, conn *model.Connection) (bool, *refusal) {
	req := &agg.Request
	if req.Archived {
		return false, &refusal{ReasonArchived, errs.InvalidState("request %s is archived", req.ID)}
	}

	status := review.Resolve(agg.Events, req.AuthorID, conn.ReviewConfig)
	if status != model.ReviewStatusApproved {
		return false, &refusal{ReasonNotApproved, errs.InvalidState("request %s is %s, not APPROVED", req.ID, status)}
	}

	reexecution := false
	if req.ExecutionStatus == model.ExecutionStatusExecuted {
		if !req.ReadOnly || !conn.ReviewConfig.AllowReadOnlyReexecution {
			return false, &refusal{ReasonAlreadyExecuted, errs.InvalidState("request %s has already been executed", req.ID)}
		}
		reexecution = true
	}

	if req.ReadOnly && !conn.ReadOnlyCapable {
		return false, &refusal{ReasonReadOnlyViolation, errs.InvalidState("connection %s cannot run read-only request %s", conn.ID, req.ID)}
	}
	return reexecution, nil
}

type runResult struct {
	result *Result
	err    error
}

// run calls the executor with a bounded context. An executor that ignores
// cancellation is abandoned at the deadline and the request stays blocked
// until it returns.
func (g *Gate) run(ctx context.Context, timeout time.Duration, conn *model.Connection, req *model.ExecutionRequest) (*Result, time.Duration, error) {
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := *conn
	r := *req
	done := make(chan runResult, 1)
	go func() {
		res, err := g.executor.Execute(runCtx, &c, &r)
		done <- runResult{res, err}
	}()

	select {
	case rr := <-done:
		return rr.result, time.Since(start), rr.err
	case <-runCtx.Done():
		g.abandon(req.ID, done)
		return nil, time.Since(start), runCtx.Err()
	}
}

func (g *Gate) abandon(id string, done <-chan runResult) {
	g.abandoned.Store(id, struct{}{})
	go func() {
		rr := <-done
		g.abandoned.Delete(id)
		g.logger.Warn().
			Str("request", id).
			AnErr("result", rr.err).
			Msg("abandoned execution returned")
	}()
}

// classify maps an executor error to the recorded status and reason.
func classify(req *model.ExecutionRequest, err error, timeout time.Duration) (model.ExecutionStatus, Reason, error) {
	switch {
	case err == nil:
		return model.ExecutionStatusExecuted, ReasonNone, nil
	case errors.Is(err, context.DeadlineExceeded):
		return model.ExecutionStatusFailed, ReasonTimeout, errs.Timeout(err, "request %s exceeded %s", req.ID, timeout)
	case errors.Is(err, ErrMutationAttempt) && req.ReadOnly:
		return model.ExecutionStatusFailed, ReasonReadOnlyViolation, errs.ExecutionFailure(err, "read-only request %s", req.ID)
	default:
		return model.ExecutionStatusFailed, ReasonExecutionFailed, errs.ExecutionFailure(err, "request %s", req.ID)
	}
}

func (g *Gate) refused(out *Outcome, principalID, connectionID string, err error) (*Outcome, error) {
	out.Executed = false
	g.metrics.RecordExecution(string(out.Reason))
	audit.Log(audit.ExecuteEvent{
		PrincipalID:  principalID,
		RequestID:    out.RequestID,
		ConnectionID: connectionID,
		Reason:       string(out.Reason),
		ErrorMessage: err.Error(),
	})
	g.logger.Warn().
		Str("request", out.RequestID).
		Str("principal", principalID).
		Str("reason", string(out.Reason)).
		Err(err).
		Msg("execution refused")
	return out, err
}

func (g *Gate) recorded(out *Outcome, principalID, connectionID string, err error) {
	g.metrics.RecordExecution(string(out.Reason))
	g.metrics.ObserveExecution(out.Status.String(), out.Duration.Seconds())

	e := audit.ExecuteEvent{
		PrincipalID:  principalID,
		RequestID:    out.RequestID,
		ConnectionID: connectionID,
		Executed:     true,
		Status:       out.Status.String(),
		Reexecution:  out.Reexecution,
	}
	if err != nil {
		e.Reason = string(out.Reason)
		e.ErrorMessage = err.Error()
	}
	audit.Log(e)

	ev := g.logger.Info()
	if err != nil {
		ev = g.logger.Error().Err(err)
	}
	ev.Str("request", out.RequestID).
		Str("principal", principalID).
		Str("status", out.Status.String()).
		Str("reason", string(out.Reason)).
		Bool("reexecution", out.Reexecution).
		Dur("duration", out.Duration).
		Msg("request executed")
}
