// Package errs defines the error kinds shared by every execgate component.
//
// Each failure is an *Error carrying one of the sentinel kinds below, so
// callers branch with errors.Is without inspecting messages:
//
//	if errors.Is(err, errs.ErrUnauthorized) {
//	    // deny
//	}
package errs
