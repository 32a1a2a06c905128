// Package audit provides audit logging for execgate operations.
//
// Every security-relevant decision is written as an RFC5424 syslog line and,
// when AUDIT_DATABASE_URL is set, persisted to the messages table.
//
// # Event Types
//
//   - CheckEvent: a permission check and its verdict
//   - SubmitEvent: a new execution request
//   - ReviewEvent, CommentEvent, EditEvent, ArchiveEvent: request history
//   - ExecuteEvent: an execution attempt, including refused ones
//   - PolicyEvent: a role document applied to the store
//
// # Usage
//
//	audit.Log(audit.CheckEvent{PrincipalID: id, Permission: "execution_request:execute", Resource: conn, Allowed: false})
package audit
