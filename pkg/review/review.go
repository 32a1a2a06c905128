// Package review derives the review status of an execution request from its
// event history.
package review

import (
	"sort"

	"github.com/doodlesbykumbi/execgate/pkg/model"
)

// Votes is the projection of a request's reviews onto the latest vote of
// each reviewer. Slices are sorted by principal id.
type Votes struct {
	Approvers       []string
	Rejecters       []string
	ChangeRequested []string
}

// Tally projects events onto the latest review of each distinct reviewer.
// The author's vote is dropped unless cfg.AllowSelfApproval is set.
func Tally(events []model.Event, authorID string, cfg model.ReviewConfig) Votes {
	ordered := make([]model.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	latest := map[string]model.ReviewAction{}
	for _, e := range ordered {
		p, ok := e.Review()
		if !ok {
			continue
		}
		latest[e.AuthorID] = p.Action
	}
	if !cfg.AllowSelfApproval {
		delete(latest, authorID)
	}

	var v Votes
	for reviewer, action := range latest {
		switch action {
		case model.ReviewActionApprove:
			v.Approvers = append(v.Approvers, reviewer)
		case model.ReviewActionReject:
			v.Rejecters = append(v.Rejecters, reviewer)
		case model.ReviewActionRequestChange:
			v.ChangeRequested = append(v.ChangeRequested, reviewer)
		}
	}
	sort.Strings(v.Approvers)
	sort.Strings(v.Rejecters)
	sort.Strings(v.ChangeRequested)
	return v
}

// Status folds the tally under cfg. Any rejection wins over approvals.
func (v Votes) Status(cfg model.ReviewConfig) model.ReviewStatus {
	if len(v.Rejecters) > 0 {
		return model.ReviewStatusRejected
	}
	if len(v.Approvers) >= cfg.NumTotalRequired {
		return model.ReviewStatusApproved
	}
	return model.ReviewStatusPending
}

// Resolve returns the review status of a request authored by authorID with
// the given history. The events slice is not modified.
func Resolve(events []model.Event, authorID string, cfg model.ReviewConfig) model.ReviewStatus {
	return Tally(events, authorID, cfg).Status(cfg)
}
