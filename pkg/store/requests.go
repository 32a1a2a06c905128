package store

import (
	"context"
	"time"

	"github.com/doodlesbykumbi/execgate/pkg/model"
)

// Aggregate is a request together with its full, ordered event log.
type Aggregate struct {
	Request model.ExecutionRequest
	Events  []model.Event
}

// Append adds an event authored by authorID with the next sequence number
// and bumps the request version. It is only meaningful inside Update.
func (a *Aggregate) Append(authorID string, payload model.Payload) model.Event {
	now := time.Now().UTC()

	e := model.NewEvent(authorID, payload)
	e.ID = model.NewID()
	e.RequestID = a.Request.ID
	e.Sequence = a.Request.Version + 1
	e.CreatedAt = now

	a.Events = append(a.Events, e)
	a.Request.Version = e.Sequence
	a.Request.UpdatedAt = now
	return e
}

// Last returns the most recently appended event.
func (a *Aggregate) Last() (model.Event, bool) {
	if len(a.Events) == 0 {
		return model.Event{}, false
	}
	return a.Events[len(a.Events)-1], true
}

// Clone returns a deep enough copy that appending to it leaves a untouched.
func (a *Aggregate) Clone() *Aggregate {
	events := make([]model.Event, len(a.Events))
	copy(events, a.Events)
	return &Aggregate{Request: a.Request, Events: events}
}

// UpdateFunc mutates an aggregate inside the store's exclusive section.
// Returning an error discards every change.
type UpdateFunc func(agg *Aggregate) error

// RequestFilter narrows ListRequests.
type RequestFilter struct {
	ConnectionID    string
	AuthorID        string
	IncludeArchived bool
}

// RequestStore abstracts execution request persistence
type RequestStore interface {
	// CreateRequest stores a new request with an empty event log.
	CreateRequest(ctx context.Context, req *model.ExecutionRequest) error

	// GetAggregate returns the request and its events ordered by sequence.
	GetAggregate(ctx context.Context, id string) (*Aggregate, error)

	// ListRequests returns requests ordered by creation time.
	ListRequests(ctx context.Context, filter RequestFilter) ([]model.ExecutionRequest, error)

	// Update runs fn while holding the request exclusively and persists the
	// events fn appended together with the request row. Once fn has been
	// entered the update is no longer cancellable.
	Update(ctx context.Context, id string, fn UpdateFunc) (*Aggregate, error)
}
