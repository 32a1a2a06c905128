package audit

import "fmt"

// CheckEvent represents a permission check audit event
type CheckEvent struct {
	PrincipalID  string
	Permission   string
	Resource     string
	Allowed      bool
	ErrorMessage string
}

func (e CheckEvent) MessageID() string {
	return "check"
}

func (e CheckEvent) Message() string {
	if e.Allowed {
		return fmt.Sprintf("%s checked permission %s on %s: allowed", e.PrincipalID, e.Permission, e.Resource)
	}
	msg := fmt.Sprintf("%s checked permission %s on %s: denied", e.PrincipalID, e.Permission, e.Resource)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e CheckEvent) Severity() Severity {
	if e.Allowed {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e CheckEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CheckEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.PrincipalID,
		},
		SDIDSubject: {
			"resource":   e.Resource,
			"permission": e.Permission,
		},
		SDIDAction: {
			"operation": "check",
			"result":    result(e.Allowed),
		},
	}
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
