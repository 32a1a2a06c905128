package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// Verdict is the outcome of an authorization decision.
type Verdict bool

const (
	Deny  Verdict = false
	Allow Verdict = true
)

func (v Verdict) String() string {
	if v {
		return "allow"
	}
	return "deny"
}

// Decision is a verdict together with the policy that decided it. Policy is
// nil when nothing matched and the verdict is the implicit deny.
type Decision struct {
	Verdict Verdict
	Policy  *model.Policy
}

func (d Decision) String() string {
	if d.Policy == nil {
		return "deny (no matching policy)"
	}
	return fmt.Sprintf("%s (%s)", d.Verdict, d.Policy)
}

// Decide applies deny-overrides to the policies that match both action and
// resource.
func Decide(policies []model.Policy, action, resource string) Decision {
	var allowed *model.Policy
	for i := range policies {
		p := &policies[i]
		if !permission.Matches(p.Action, action) || !permission.Matches(p.Resource, resource) {
			continue
		}
		// anything but an explicit allow denies
		if p.Effect != model.EffectAllow {
			return Decision{Verdict: Deny, Policy: p}
		}
		if allowed == nil {
			allowed = p
		}
	}
	if allowed != nil {
		return Decision{Verdict: Allow, Policy: allowed}
	}
	return Decision{Verdict: Deny}
}

// Evaluator authorizes principals against the policies of their roles.
// Verdicts are computed from the store on every call.
type Evaluator struct {
	principals store.PrincipalStore
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewEvaluator creates an evaluator reading roles from principals.
func NewEvaluator(principals store.PrincipalStore, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		principals: principals,
		logger:     logger.With().Str("component", "policy").Logger(),
	}
}

// WithMetrics records every Check in m.
func (e *Evaluator) WithMetrics(m *metrics.Metrics) *Evaluator {
	e.metrics = m
	return e
}

// Decide loads the principal's roles and decides action on resource.
func (e *Evaluator) Decide(ctx context.Context, principalID, action, resource string) (Decision, error) {
	roles, err := e.principals.GetRolesForPrincipal(ctx, principalID)
	if err != nil {
		return Decision{}, err
	}
	var policies []model.Policy
	for _, r := range roles {
		policies = append(policies, r.Policies...)
	}
	return Decide(policies, action, resource), nil
}

// Authorize reports whether principalID may perform action on resource.
// Unknown principals are errs.ErrNotFound.
func (e *Evaluator) Authorize(ctx context.Context, principalID, action, resource string) (Verdict, error) {
	d, err := e.Decide(ctx, principalID, action, resource)
	if err != nil {
		return Deny, err
	}
	return d.Verdict, nil
}

// Check returns nil when principalID holds perm on resource and an
// errs.ErrUnauthorized error otherwise. Unknown principals are denied.
func (e *Evaluator) Check(ctx context.Context, principalID string, perm permission.Permission, resource string) error {
	action := permission.Encode(perm)

	d, err := e.Decide(ctx, principalID, action, resource)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("failed to authorize %s: %w", principalID, err)
	}

	allowed := err == nil && d.Verdict == Allow
	e.metrics.RecordCheck(action, allowed)

	if allowed {
		audit.Log(audit.CheckEvent{
			PrincipalID: principalID,
			Permission:  action,
			Resource:    resource,
			Allowed:     true,
		})
		return nil
	}

	var denied *errs.Error
	if err != nil {
		denied = errs.Wrap(errs.ErrUnauthorized, err, "%s lacks %s on %s", principalID, action, resource)
	} else {
		denied = errs.Unauthorized("%s lacks %s on %s", principalID, action, resource)
	}

	audit.Log(audit.CheckEvent{
		PrincipalID:  principalID,
		Permission:   action,
		Resource:     resource,
		ErrorMessage: d.String(),
	})
	e.logger.Warn().
		Str("principal", principalID).
		Str("permission", action).
		Str("resource", resource).
		Str("decision", d.String()).
		Msg("permission denied")

	return denied
}

// Authorizer is what callers need from an Evaluator.
type Authorizer interface {
	Authorize(ctx context.Context, principalID, action, resource string) (Verdict, error)
	Check(ctx context.Context, principalID string, perm permission.Permission, resource string) error
}

var _ Authorizer = (*Evaluator)(nil)
