package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/identity"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
	"github.com/doodlesbykumbi/execgate/pkg/policy"
	"github.com/doodlesbykumbi/execgate/pkg/review"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// SubmitInput describes a new request.
type SubmitInput struct {
	ConnectionID string
	Type         model.RequestType
	Title        string
	Description  string
	Statement    string
	ReadOnly     bool
}

// EditInput changes the editable fields of a request. Nil fields are kept.
type EditInput struct {
	Title       *string
	Description *string
	Statement   *string
	ReadOnly    *bool
}

// Service exposes the operations that append to a request's history.
type Service struct {
	requests    store.RequestStore
	connections store.ConnectionStore
	authz       policy.Authorizer
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewService creates a request service.
func NewService(requests store.RequestStore, connections store.ConnectionStore, authz policy.Authorizer, logger zerolog.Logger) *Service {
	return &Service{
		requests:    requests,
		connections: connections,
		authz:       authz,
		logger:      logger.With().Str("component", "request").Logger(),
	}
}

// WithMetrics counts appended events in m.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Submit creates a request on behalf of the caller.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.ExecutionRequest, error) {
	principalID, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(ctx, principalID, permission.ExecutionRequestCreate, in.ConnectionID); err != nil {
		return nil, err
	}
	conn, err := s.connections.GetConnection(ctx, in.ConnectionID)
	if err != nil {
		return nil, err
	}

	if !in.Type.IsARequestType() {
		return nil, errs.Validation("unknown request type %d", in.Type)
	}
	fields := model.RequestFields{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Statement:   in.Statement,
		ReadOnly:    in.ReadOnly,
	}
	if err := validateFields(fields, in.Type, conn); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &model.ExecutionRequest{
		ID:              model.NewID(),
		AuthorID:        principalID,
		ConnectionID:    conn.ID,
		Type:            in.Type,
		ExecutionStatus: model.ExecutionStatusPending,
		ReviewStatus:    review.Resolve(nil, principalID, conn.ReviewConfig),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	req.SetFields(fields)

	err = s.requests.CreateRequest(ctx, req)
	audit.Log(audit.SubmitEvent(principalID, req.ID, conn.ID, err))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info().
		Str("request", req.ID).
		Str("principal", principalID).
		Str("connection", conn.ID).
		Str("type", req.Type.String()).
		Msg("request submitted")
	return req, nil
}

// AppendReview records a review by the caller and recomputes the review
// status. Reviews are refused once the request has been executed.
func (s *Service) AppendReview(ctx context.Context, id string, action model.ReviewAction, comment string) (*store.Aggregate, model.Event, error) {
	t, err := s.load(ctx, id, permission.ExecutionRequestReview)
	if err != nil {
		return nil, model.Event{}, err
	}
	if !action.IsAReviewAction() {
		return nil, model.Event{}, errs.Validation("unknown review action %d", action)
	}
	if t.principalID == t.agg.Request.AuthorID && !t.conn.ReviewConfig.AllowSelfApproval {
		if err := s.authz.Check(ctx, t.principalID, permission.ExecutionRequestSelfReview, t.conn.ID); err != nil {
			return nil, model.Event{}, err
		}
	}

	agg, ev, err := s.append(ctx, t, func(agg *store.Aggregate) (model.Payload, error) {
		if agg.Request.ExecutionStatus == model.ExecutionStatusExecuted {
			return nil, errs.InvalidState("request %s has already been executed", agg.Request.ID)
		}
		return model.ReviewPayload{Action: action, Comment: comment}, nil
	})
	audit.Log(audit.ReviewEvent(t.principalID, id, t.conn.ID, action.String(), err))
	if err != nil {
		return nil, model.Event{}, err
	}

	s.logger.Info().
		Str("request", id).
		Str("principal", t.principalID).
		Str("action", action.String()).
		Str("review_status", agg.Request.ReviewStatus.String()).
		Msg("review appended")
	return agg, ev, nil
}

// AppendComment records a comment by the caller.
func (s *Service) AppendComment(ctx context.Context, id, comment string) (*store.Aggregate, model.Event, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, model.Event{}, errs.Validation("comment must not be empty")
	}
	t, err := s.load(ctx, id, permission.ExecutionRequestGet)
	if err != nil {
		return nil, model.Event{}, err
	}

	agg, ev, err := s.append(ctx, t, func(*store.Aggregate) (model.Payload, error) {
		return model.CommentPayload{Comment: comment}, nil
	})
	audit.Log(audit.CommentEvent(t.principalID, id, t.conn.ID, err))
	if err != nil {
		return nil, model.Event{}, err
	}

	s.logger.Debug().Str("request", id).Str("principal", t.principalID).Msg("comment appended")
	return agg, ev, nil
}

// Edit changes the request fields. Only the author may edit, and only while
// the request is neither executed nor reviewed to a decision.
func (s *Service) Edit(ctx context.Context, id string, in EditInput) (*store.Aggregate, model.Event, error) {
	t, err := s.load(ctx, id, permission.ExecutionRequestEdit)
	if err != nil {
		return nil, model.Event{}, err
	}
	if t.principalID != t.agg.Request.AuthorID {
		return nil, model.Event{}, errs.Unauthorized("only the author %s may edit request %s", t.agg.Request.AuthorID, id)
	}

	agg, ev, err := s.append(ctx, t, func(agg *store.Aggregate) (model.Payload, error) {
		req := &agg.Request
		if req.ExecutionStatus != model.ExecutionStatusPending {
			return nil, errs.InvalidState("request %s is %s and can no longer be edited", req.ID, req.ExecutionStatus)
		}
		if status := review.Resolve(agg.Events, req.AuthorID, t.conn.ReviewConfig); status != model.ReviewStatusPending {
			return nil, errs.InvalidState("request %s is %s and can no longer be edited", req.ID, status)
		}

		prev := req.Fields()
		next := in.apply(prev)
		if next == prev {
			return nil, errs.Validation("edit of request %s changes nothing", req.ID)
		}
		if err := validateFields(next, req.Type, t.conn); err != nil {
			return nil, err
		}
		req.SetFields(next)
		return model.EditPayload{Previous: prev, Next: next}, nil
	})
	audit.Log(audit.EditEvent(t.principalID, id, t.conn.ID, err))
	if err != nil {
		return nil, model.Event{}, err
	}

	s.logger.Info().Str("request", id).Str("principal", t.principalID).Msg("request edited")
	return agg, ev, nil
}

// Archive hides a request from listings and freezes its history.
func (s *Service) Archive(ctx context.Context, id string) (*store.Aggregate, error) {
	t, err := s.load(ctx, id, permission.ExecutionRequestEdit)
	if err != nil {
		return nil, err
	}

	agg, err := s.requests.Update(ctx, id, func(agg *store.Aggregate) error {
		if agg.Request.Archived {
			return errs.InvalidState("request %s is already archived", id)
		}
		agg.Request.Archived = true
		agg.Request.UpdatedAt = time.Now().UTC()
		return nil
	})
	audit.Log(audit.ArchiveEvent(t.principalID, id, t.conn.ID, err))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("request", id).Str("principal", t.principalID).Msg("request archived")
	return agg, nil
}

// List returns the live requests on connections the caller may read.
func (s *Service) List(ctx context.Context) ([]model.ExecutionRequest, error) {
	return s.ListFiltered(ctx, store.RequestFilter{})
}

// ListFiltered is List narrowed by filter.
func (s *Service) ListFiltered(ctx context.Context, filter store.RequestFilter) ([]model.ExecutionRequest, error) {
	principalID, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	action := permission.Encode(permission.ExecutionRequestGet)
	readable := map[string]bool{}
	out := make([]model.ExecutionRequest, 0, len(reqs))
	for _, r := range reqs {
		ok, seen := readable[r.ConnectionID]
		if !seen {
			verdict, err := s.authz.Authorize(ctx, principalID, action, r.ConnectionID)
			if err != nil {
				return nil, err
			}
			ok = verdict == policy.Allow
			readable[r.ConnectionID] = ok
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// target is a request loaded for an operation by an authorized caller.
type target struct {
	principalID string
	agg         *store.Aggregate
	conn        *model.Connection
}

func (s *Service) load(ctx context.Context, id string, perm permission.Permission) (*target, error) {
	principalID, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	agg, err := s.requests.GetAggregate(ctx, id)
	if err != nil {
		return nil, err
	}
	conn, err := s.connections.GetConnection(ctx, agg.Request.ConnectionID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(ctx, principalID, perm, conn.ID); err != nil {
		return nil, err
	}
	return &target{principalID: principalID, agg: agg, conn: conn}, nil
}

// append runs build inside the store's exclusive section, appends the
// payload it returns and refreshes the cached review status.
func (s *Service) append(ctx context.Context, t *target, build func(agg *store.Aggregate) (model.Payload, error)) (*store.Aggregate, model.Event, error) {
	var ev model.Event
	agg, err := s.requests.Update(ctx, t.agg.Request.ID, func(agg *store.Aggregate) error {
		if agg.Request.Archived {
			return errs.InvalidState("request %s is archived", agg.Request.ID)
		}
		payload, err := build(agg)
		if err != nil {
			return err
		}
		ev = agg.Append(t.principalID, payload)
		agg.Request.ReviewStatus = review.Resolve(agg.Events, agg.Request.AuthorID, t.conn.ReviewConfig)
		return nil
	})
	if err != nil {
		return nil, model.Event{}, err
	}
	s.metrics.RecordEvent(ev.Type.String())
	return agg, ev, nil
}

func (in EditInput) apply(f model.RequestFields) model.RequestFields {
	if in.Title != nil {
		f.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if in.Statement != nil {
		f.Statement = *in.Statement
	}
	if in.ReadOnly != nil {
		f.ReadOnly = *in.ReadOnly
	}
	return f
}

func validateFields(f model.RequestFields, typ model.RequestType, conn *model.Connection) error {
	if f.Title == "" {
		return errs.Validation("title must not be empty")
	}
	n := CountStatements(f.Statement)
	if n == 0 {
		return errs.Validation("statement must not be empty")
	}
	if typ == model.RequestTypeSingleStatement && n != 1 {
		return errs.Validation("a %s request must contain exactly one statement, found %d", typ, n)
	}
	if f.ReadOnly && !conn.ReadOnlyCapable {
		return errs.Validation("connection %s cannot run read-only requests", conn.ID)
	}
	return nil
}
