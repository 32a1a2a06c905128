package gate

import (
	"context"
	"errors"
	"time"

	"github.com/doodlesbykumbi/execgate/pkg/model"
)

// ErrMutationAttempt is reported by an Executor when a read-only request
// tried to modify data.
var ErrMutationAttempt = errors.New("statement attempted to modify data")

// Reason explains an Outcome.
type Reason string

const (
	ReasonNone              Reason = "none"
	ReasonUnauthorized      Reason = "unauthorized"
	ReasonArchived          Reason = "archived"
	ReasonNotApproved       Reason = "not_approved"
	ReasonAlreadyExecuted   Reason = "already_executed"
	ReasonReadOnlyViolation Reason = "read_only_violation"
	ReasonExecutionFailed   Reason = "execution_failed"
	ReasonTimeout           Reason = "timeout"
	ReasonStillRunning      Reason = "still_running"
)

// Result is what an Executor reports for a successful run.
type Result struct {
	RowsAffected int64
	Message      string
}

// Executor runs a request's statement against its connection. It must
// return ErrMutationAttempt, possibly wrapped, when a read-only request
// attempts a write, and should return once ctx is done. A Gate refuses to run
// a request again while an executor call it abandoned at the deadline is
// still running, but it cannot stop that call from committing.
type Executor interface {
	Execute(ctx context.Context, conn *model.Connection, req *model.ExecutionRequest) (*Result, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, conn *model.Connection, req *model.ExecutionRequest) (*Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, conn *model.Connection, req *model.ExecutionRequest) (*Result, error) {
	return f(ctx, conn, req)
}

// Outcome describes one TryExecute call. Executed is false when a check
// refused the request; nothing was recorded in that case.
type Outcome struct {
	RequestID   string
	Executed    bool
	Status      model.ExecutionStatus
	Reason      Reason
	Reexecution bool
	Result      *Result
	Duration    time.Duration
	Event       *model.Event
}

// Succeeded reports whether the executor ran and succeeded.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Executed && o.Status == model.ExecutionStatusExecuted
}
