// Package gate decides whether an execution request may run and records the
// outcome.
//
// TryExecute runs its checks in a fixed order and stops at the first one that
// fails: the caller must hold execution_request:execute on the connection,
// the request must be approved according to its live event log, it must not
// have been executed before and a read-only request must target a connection
// that can enforce it. Refusals are returned as an Outcome with a Reason and
// leave the request untouched. Once the Executor has been called its result
// is always recorded as an Execute event.
package gate
