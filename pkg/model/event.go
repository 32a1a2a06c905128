package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Payload is implemented by the four event payload variants.
type Payload interface {
	EventType() EventType
}

type ReviewPayload struct {
	Action  ReviewAction `json:"action"`
	Comment string       `json:"comment,omitempty"`
}

func (ReviewPayload) EventType() EventType { return EventTypeReview }

type CommentPayload struct {
	Comment string `json:"comment"`
}

func (CommentPayload) EventType() EventType { return EventTypeComment }

// EditPayload records the fields before and after an edit.
type EditPayload struct {
	Previous RequestFields `json:"previous"`
	Next     RequestFields `json:"next"`
}

func (EditPayload) EventType() EventType { return EventTypeEdit }

// ExecutePayload records one execution attempt.
type ExecutePayload struct {
	Status       ExecutionStatus `json:"status"`
	Reason       string          `json:"reason,omitempty"`
	Error        string          `json:"error,omitempty"`
	Reexecution  bool            `json:"reexecution,omitempty"`
	RowsAffected int64           `json:"rows_affected"`
	Duration     time.Duration   `json:"duration"`
}

func (ExecutePayload) EventType() EventType { return EventTypeExecute }

// Event is one immutable entry in a request's history.
type Event struct {
	ID         string    `gorm:"column:id;primaryKey"`
	RequestID  string    `gorm:"column:request_id;not null;uniqueIndex:idx_events_request_sequence"`
	Sequence   int       `gorm:"column:sequence;not null;uniqueIndex:idx_events_request_sequence"`
	Type       EventType `gorm:"column:type;type:text;not null"`
	AuthorID   string    `gorm:"column:author_id;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	Payload    Payload   `gorm:"-"`
	RawPayload []byte    `gorm:"column:payload;type:jsonb;not null"`
}

func (Event) TableName() string {
	return "events"
}

// NewEvent builds an unsequenced event; the store assigns ID and Sequence.
func NewEvent(authorID string, payload Payload) Event {
	return Event{
		Type:     payload.EventType(),
		AuthorID: authorID,
		Payload:  payload,
	}
}

// Review returns the review payload, if e is a review.
func (e Event) Review() (ReviewPayload, bool) {
	p, ok := e.Payload.(ReviewPayload)
	return p, ok
}

// Comment returns the comment body carried by a review or comment event.
func (e Event) Comment() (string, bool) {
	switch p := e.Payload.(type) {
	case ReviewPayload:
		return p.Comment, p.Comment != ""
	case CommentPayload:
		return p.Comment, true
	}
	return "", false
}

// EncodePayload serializes Payload into RawPayload.
func (e *Event) EncodePayload() error {
	if e.Payload == nil {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	if e.Payload.EventType() != e.Type {
		return fmt.Errorf("event %s: payload is %s, type is %s", e.ID, e.Payload.EventType(), e.Type)
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", e.Type, err)
	}
	e.RawPayload = raw
	return nil
}

// DecodePayload restores Payload from RawPayload according to Type.
func (e *Event) DecodePayload() error {
	var (
		payload Payload
		err     error
	)
	switch e.Type {
	case EventTypeReview:
		var p ReviewPayload
		err = json.Unmarshal(e.RawPayload, &p)
		payload = p
	case EventTypeComment:
		var p CommentPayload
		err = json.Unmarshal(e.RawPayload, &p)
		payload = p
	case EventTypeEdit:
		var p EditPayload
		err = json.Unmarshal(e.RawPayload, &p)
		payload = p
	case EventTypeExecute:
		var p ExecutePayload
		err = json.Unmarshal(e.RawPayload, &p)
		payload = p
	default:
		return fmt.Errorf("event %s has unknown type %s", e.ID, e.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s payload of event %s: %w", e.Type, e.ID, err)
	}
	e.Payload = payload
	return nil
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	return e.EncodePayload()
}

func (e *Event) AfterFind(tx *gorm.DB) error {
	return e.DecodePayload()
}
