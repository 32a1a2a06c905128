package permission

import (
	"strings"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
)

// Separator splits pattern and permission segments.
const Separator = ":"

// Wildcard matches one segment, or the remaining suffix when trailing.
const Wildcard = "*"

// Permission is a capability such as reviewing or executing a request.
type Permission struct {
	Domain string
	Action string
}

func (p Permission) String() string {
	return p.Domain + Separator + p.Action
}

var (
	DatasourceConnectionGet  = Permission{"datasource_connection", "get"}
	DatasourceConnectionEdit = Permission{"datasource_connection", "edit"}

	ExecutionRequestGet        = Permission{"execution_request", "get"}
	ExecutionRequestCreate     = Permission{"execution_request", "create"}
	ExecutionRequestEdit       = Permission{"execution_request", "edit"}
	ExecutionRequestReview     = Permission{"execution_request", "review"}
	ExecutionRequestSelfReview = Permission{"execution_request", "self_review"}
	ExecutionRequestExecute    = Permission{"execution_request", "execute"}

	UserGet  = Permission{"user", "get"}
	UserEdit = Permission{"user", "edit"}
	RoleGet  = Permission{"role", "get"}
	RoleEdit = Permission{"role", "edit"}
)

var catalogue = []Permission{
	DatasourceConnectionGet,
	DatasourceConnectionEdit,
	ExecutionRequestGet,
	ExecutionRequestCreate,
	ExecutionRequestEdit,
	ExecutionRequestReview,
	ExecutionRequestSelfReview,
	ExecutionRequestExecute,
	UserGet,
	UserEdit,
	RoleGet,
	RoleEdit,
}

var byName = func() map[string]Permission {
	m := make(map[string]Permission, len(catalogue))
	for _, p := range catalogue {
		m[p.String()] = p
	}
	return m
}()

// All returns the catalogue in a stable order.
func All() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}

// Encode returns the canonical string form of p.
func Encode(p Permission) string {
	return p.String()
}

// Parse is the inverse of Encode over the catalogue.
func Parse(s string) (Permission, error) {
	p, ok := byName[s]
	if !ok {
		return Permission{}, errs.Validation("unknown permission %q", s)
	}
	return p, nil
}

// Matches reports whether candidate satisfies pattern. It never fails:
// malformed patterns simply match nothing they do not spell out.
func Matches(pattern, candidate string) bool {
	if pattern == Wildcard {
		return true
	}

	want := strings.Split(pattern, Separator)
	have := strings.Split(candidate, Separator)

	for i, seg := range want {
		if seg == Wildcard && i == len(want)-1 {
			return len(have) > i
		}
		if i >= len(have) {
			return false
		}
		if seg != Wildcard && seg != have[i] {
			return false
		}
	}
	return len(have) == len(want)
}

// ValidatePattern rejects patterns that could never be written intentionally.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return errs.Validation("pattern must not be empty")
	}
	for i, seg := range strings.Split(pattern, Separator) {
		if seg == "" {
			return errs.Validation("pattern %q has an empty segment at position %d", pattern, i)
		}
	}
	return nil
}
