package audit

import "fmt"

// PolicyEvent represents a role document being applied
type PolicyEvent struct {
	PrincipalID  string
	Source       string
	Roles        int
	Principals   int
	Success      bool
	ErrorMessage string
}

func (e PolicyEvent) MessageID() string {
	return "policy"
}

func (e PolicyEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s loaded %s (%d roles, %d principals)", e.PrincipalID, e.Source, e.Roles, e.Principals)
	}
	msg := fmt.Sprintf("%s tried to load %s", e.PrincipalID, e.Source)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PolicyEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e PolicyEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PolicyEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.PrincipalID,
		},
		SDIDPolicy: {
			"source":     e.Source,
			"roles":      fmt.Sprintf("%d", e.Roles),
			"principals": fmt.Sprintf("%d", e.Principals),
		},
		SDIDAction: {
			"operation": "load",
			"result":    result(e.Success),
		},
	}
}
