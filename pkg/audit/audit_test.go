package audit

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	logger.Log(CheckEvent{
		PrincipalID: "bob",
		Permission:  "execution_request:execute",
		Resource:    "db1",
		Allowed:     false,
	})

	line := buf.String()
	// facility 10 * 8 + warning 4
	assert.True(t, strings.HasPrefix(line, "<84>1 "), line)
	assert.Contains(t, line, " execgate ")
	assert.Contains(t, line, " check ")
	assert.Contains(t, line, `[action@32473 operation="check" result="failure"][auth@32473 user="bob"][subject@32473 permission="execution_request:execute" resource="db1"]`)
	assert.True(t, strings.HasSuffix(line, "bob checked permission execution_request:execute on db1: denied\n"), line)
}

func TestEscapeSDValue(t *testing.T) {
	assert.Equal(t, `"a\"b\]c\\d"`, escapeSDValue(`a"b]c\d`))
}

func TestFormatStructuredDataEmpty(t *testing.T) {
	assert.Empty(t, formatStructuredData(nil))
}

func TestCheckEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   CheckEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "allowed",
			event:   CheckEvent{PrincipalID: "alice", Permission: "execution_request:review", Resource: "db1", Allowed: true},
			wantMsg: "alice checked permission execution_request:review on db1: allowed",
			wantSev: SeverityInfo,
		},
		{
			name:    "denied",
			event:   CheckEvent{PrincipalID: "bob", Permission: "execution_request:review", Resource: "db1", ErrorMessage: "no matching policy"},
			wantMsg: "bob checked permission execution_request:review on db1: denied: no matching policy",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.event.Message())
			assert.Equal(t, tt.wantSev, tt.event.Severity())
			assert.Equal(t, "check", tt.event.MessageID())
			assert.Equal(t, FacilityAuthPriv, tt.event.Facility())
		})
	}
}

func TestRequestEvents(t *testing.T) {
	denied := errors.New("unauthorized: execution_request:review on db1")

	tests := []struct {
		name      string
		event     RequestEvent
		wantMsgID string
		wantMsg   string
		wantSev   Severity
	}{
		{"submit", SubmitEvent("alice", "r1", "db1", nil), "submit", "alice submitted request r1", SeverityInfo},
		{"review", ReviewEvent("bob", "r1", "db1", "APPROVE", nil), "review", "bob reviewed request r1 with APPROVE", SeverityInfo},
		{"review denied", ReviewEvent("eve", "r1", "db1", "APPROVE", denied), "review", "eve tried to review request r1: " + denied.Error(), SeverityWarning},
		{"comment", CommentEvent("carol", "r1", "db1", nil), "comment", "carol commented on request r1", SeverityInfo},
		{"edit", EditEvent("alice", "r1", "db1", nil), "edit", "alice edited request r1", SeverityInfo},
		{"archive", ArchiveEvent("alice", "r1", "db1", nil), "archive", "alice archived request r1", SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsgID, tt.event.MessageID())
			assert.Equal(t, tt.wantMsg, tt.event.Message())
			assert.Equal(t, tt.wantSev, tt.event.Severity())
			assert.Equal(t, "r1", tt.event.StructuredData()[SDIDRequest]["id"])
		})
	}
}

func TestExecuteEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   ExecuteEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "executed",
			event:   ExecuteEvent{PrincipalID: "carol", RequestID: "r1", ConnectionID: "db1", Executed: true, Status: "EXECUTED"},
			wantMsg: "carol executed request r1 on db1: EXECUTED",
			wantSev: SeverityNotice,
		},
		{
			name:    "re-executed",
			event:   ExecuteEvent{PrincipalID: "carol", RequestID: "r1", ConnectionID: "db1", Executed: true, Status: "EXECUTED", Reexecution: true},
			wantMsg: "carol re-executed request r1 on db1: EXECUTED",
			wantSev: SeverityNotice,
		},
		{
			name:    "failed",
			event:   ExecuteEvent{PrincipalID: "carol", RequestID: "r1", ConnectionID: "db1", Executed: true, Status: "FAILED", Reason: "TIMEOUT", ErrorMessage: "deadline exceeded"},
			wantMsg: "carol executed request r1 on db1: FAILED: deadline exceeded",
			wantSev: SeverityWarning,
		},
		{
			name:    "refused",
			event:   ExecuteEvent{PrincipalID: "carol", RequestID: "r1", ConnectionID: "db1", Reason: "NOT_APPROVED"},
			wantMsg: "carol was refused execution of request r1 on db1: NOT_APPROVED",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.event.Message())
			assert.Equal(t, tt.wantSev, tt.event.Severity())
		})
	}

	sd := ExecuteEvent{Executed: true, Reexecution: true, Reason: "x"}.StructuredData()
	assert.Equal(t, "true", sd[SDIDAction]["reexecution"])
}

func TestPolicyEvent(t *testing.T) {
	event := PolicyEvent{PrincipalID: "gatectl", Source: "roles.yml", Roles: 2, Principals: 3, Success: true}
	assert.Equal(t, "policy", event.MessageID())
	assert.Equal(t, "gatectl loaded roles.yml (2 roles, 3 principals)", event.Message())

	failed := PolicyEvent{PrincipalID: "gatectl", Source: "roles.yml", ErrorMessage: "unknown role"}
	assert.Equal(t, "gatectl tried to load roles.yml: unknown role", failed.Message())
	assert.Equal(t, SeverityWarning, failed.Severity())
}

func TestLogRespectsEnabled(t *testing.T) {
	var buf bytes.Buffer
	DefaultLogger.SetWriter(&buf)
	defer DefaultLogger.SetWriter(nopWriter{})

	SetEnabled(false)
	Log(CheckEvent{PrincipalID: "bob", Permission: "p", Resource: "r"})
	assert.Empty(t, buf.String())

	SetEnabled(true)
	Log(CheckEvent{PrincipalID: "bob", Permission: "p", Resource: "r"})
	assert.Regexp(t, regexp.MustCompile(`^<\d+>1 \S+ \S+ execgate \d+ check `), buf.String())
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
