package audit

import "fmt"

// RequestEvent represents a change to an execution request's history:
// submission, a review, a comment, an edit or archival.
type RequestEvent struct {
	PrincipalID  string
	RequestID    string
	ConnectionID string
	Operation    string // "submit", "review", "comment", "edit", "archive"
	Detail       string // review action for reviews
	Success      bool
	ErrorMessage string
}

// SubmitEvent builds the audit event for a new request.
func SubmitEvent(principalID, requestID, connectionID string, err error) RequestEvent {
	return newRequestEvent("submit", "", principalID, requestID, connectionID, err)
}

// ReviewEvent builds the audit event for a review.
func ReviewEvent(principalID, requestID, connectionID, action string, err error) RequestEvent {
	return newRequestEvent("review", action, principalID, requestID, connectionID, err)
}

// CommentEvent builds the audit event for a comment.
func CommentEvent(principalID, requestID, connectionID string, err error) RequestEvent {
	return newRequestEvent("comment", "", principalID, requestID, connectionID, err)
}

// EditEvent builds the audit event for an edit.
func EditEvent(principalID, requestID, connectionID string, err error) RequestEvent {
	return newRequestEvent("edit", "", principalID, requestID, connectionID, err)
}

// ArchiveEvent builds the audit event for archival.
func ArchiveEvent(principalID, requestID, connectionID string, err error) RequestEvent {
	return newRequestEvent("archive", "", principalID, requestID, connectionID, err)
}

func newRequestEvent(operation, detail, principalID, requestID, connectionID string, err error) RequestEvent {
	e := RequestEvent{
		PrincipalID:  principalID,
		RequestID:    requestID,
		ConnectionID: connectionID,
		Operation:    operation,
		Detail:       detail,
		Success:      err == nil,
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	return e
}

func (e RequestEvent) MessageID() string {
	return e.Operation
}

func (e RequestEvent) Message() string {
	var done, attempt string
	switch e.Operation {
	case "submit":
		done, attempt = "submitted", "submit"
	case "review":
		done, attempt = "reviewed", "review"
	case "comment":
		done, attempt = "commented on", "comment on"
	case "edit":
		done, attempt = "edited", "edit"
	case "archive":
		done, attempt = "archived", "archive"
	default:
		done, attempt = e.Operation, e.Operation
	}

	if e.Success {
		msg := fmt.Sprintf("%s %s request %s", e.PrincipalID, done, e.RequestID)
		if e.Detail != "" {
			msg += " with " + e.Detail
		}
		return msg
	}
	msg := fmt.Sprintf("%s tried to %s request %s", e.PrincipalID, attempt, e.RequestID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RequestEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e RequestEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RequestEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.PrincipalID,
		},
		SDIDRequest: {
			"id":         e.RequestID,
			"connection": e.ConnectionID,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
	if e.Detail != "" {
		sd[SDIDAction]["detail"] = e.Detail
	}
	return sd
}
