package model

//go:generate go run github.com/dmarkham/enumer -type ReviewAction -trimprefix ReviewAction -transform snake-upper -json -sql -yaml -output review_action.gen.go
//go:generate go run github.com/dmarkham/enumer -type ReviewStatus -trimprefix ReviewStatus -transform snake-upper -json -sql -yaml -output review_status.gen.go
//go:generate go run github.com/dmarkham/enumer -type ExecutionStatus -trimprefix ExecutionStatus -transform snake-upper -json -sql -yaml -output execution_status.gen.go
//go:generate go run github.com/dmarkham/enumer -type RequestType -trimprefix RequestType -transform snake-upper -json -sql -yaml -output request_type.gen.go
//go:generate go run github.com/dmarkham/enumer -type EventType -trimprefix EventType -transform snake-upper -json -sql -yaml -output event_type.gen.go
//go:generate go run github.com/dmarkham/enumer -type Effect -trimprefix Effect -transform snake-upper -json -sql -yaml -output effect.gen.go

// ReviewAction is the verdict carried by a review event.
type ReviewAction int

const (
	ReviewActionApprove ReviewAction = iota
	ReviewActionReject
	ReviewActionRequestChange
)

// ReviewStatus is derived from the event log; it is never set directly.
type ReviewStatus int

const (
	ReviewStatusPending ReviewStatus = iota
	ReviewStatusApproved
	ReviewStatusRejected
)

type ExecutionStatus int

const (
	ExecutionStatusPending ExecutionStatus = iota
	ExecutionStatusExecuted
	ExecutionStatusFailed
)

// RequestType distinguishes requests that must hold exactly one statement
// from scripts.
type RequestType int

const (
	RequestTypeSingleStatement RequestType = iota
	RequestTypeMultiStatement
)

type EventType int

const (
	EventTypeReview EventType = iota
	EventTypeComment
	EventTypeEdit
	EventTypeExecute
)

// Effect is the outcome a matching policy contributes. The zero value is
// DENY so a policy built without an effect never grants anything.
type Effect int

const (
	EffectDeny Effect = iota
	EffectAllow
)
