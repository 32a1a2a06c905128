package audit

import "fmt"

// ExecuteEvent represents an execution attempt. Refused attempts carry the
// reason and Executed=false.
type ExecuteEvent struct {
	PrincipalID  string
	RequestID    string
	ConnectionID string
	Executed     bool
	Status       string
	Reason       string
	Reexecution  bool
	ErrorMessage string
}

func (e ExecuteEvent) MessageID() string {
	return "execute"
}

func (e ExecuteEvent) Message() string {
	if e.Executed {
		verb := "executed"
		if e.Reexecution {
			verb = "re-executed"
		}
		msg := fmt.Sprintf("%s %s request %s on %s: %s", e.PrincipalID, verb, e.RequestID, e.ConnectionID, e.Status)
		if e.ErrorMessage != "" {
			msg += ": " + e.ErrorMessage
		}
		return msg
	}
	return fmt.Sprintf("%s was refused execution of request %s on %s: %s", e.PrincipalID, e.RequestID, e.ConnectionID, e.Reason)
}

func (e ExecuteEvent) Severity() Severity {
	if e.Executed && e.ErrorMessage == "" {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e ExecuteEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ExecuteEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.PrincipalID,
		},
		SDIDRequest: {
			"id":         e.RequestID,
			"connection": e.ConnectionID,
		},
		SDIDAction: {
			"operation": "execute",
			"result":    result(e.Executed && e.ErrorMessage == ""),
		},
	}
	if e.Status != "" {
		sd[SDIDRequest]["status"] = e.Status
	}
	if e.Reason != "" {
		sd[SDIDAction]["reason"] = e.Reason
	}
	if e.Reexecution {
		sd[SDIDAction]["reexecution"] = "true"
	}
	return sd
}
