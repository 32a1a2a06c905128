package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// Document is a set of roles and the principals they are assigned to.
type Document struct {
	Roles      []RoleSpec      `yaml:"roles"`
	Principals []PrincipalSpec `yaml:"principals"`
}

// RoleSpec declares a role. The role name doubles as its id.
type RoleSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Policies    []PolicySpec `yaml:"policies"`
}

type PolicySpec struct {
	Action   string        `yaml:"action"`
	Effect   *model.Effect `yaml:"effect"`
	Resource string        `yaml:"resource"`
}

type PrincipalSpec struct {
	ID       string   `yaml:"id"`
	Email    string   `yaml:"email"`
	FullName string   `yaml:"full_name"`
	Roles    []string `yaml:"roles"`
}

// LoadDocument parses and validates a role document.
func LoadDocument(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, errs.Wrap(errs.ErrValidation, err, "failed to parse role document")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseDocument is LoadDocument over a string.
func ParseDocument(text string) (*Document, error) {
	return LoadDocument(strings.NewReader(text))
}

// Validate checks names, patterns and role references.
func (d *Document) Validate() error {
	roles := make(map[string]bool, len(d.Roles))
	for i, r := range d.Roles {
		if strings.TrimSpace(r.Name) == "" {
			return errs.Validation("role %d has no name", i)
		}
		if roles[r.Name] {
			return errs.Validation("role %q is declared twice", r.Name)
		}
		roles[r.Name] = true

		for j, p := range r.Policies {
			if err := permission.ValidatePattern(p.Action); err != nil {
				return errs.Wrap(errs.ErrValidation, err, "role %q policy %d action", r.Name, j)
			}
			if err := permission.ValidatePattern(p.Resource); err != nil {
				return errs.Wrap(errs.ErrValidation, err, "role %q policy %d resource", r.Name, j)
			}
			if p.Effect == nil {
				return errs.Validation("role %q policy %d has no effect", r.Name, j)
			}
		}
	}

	principals := make(map[string]bool, len(d.Principals))
	for i, p := range d.Principals {
		if strings.TrimSpace(p.ID) == "" {
			return errs.Validation("principal %d has no id", i)
		}
		if principals[p.ID] {
			return errs.Validation("principal %q is declared twice", p.ID)
		}
		principals[p.ID] = true

		for _, name := range p.Roles {
			if !roles[name] {
				return errs.Validation("principal %q references unknown role %q", p.ID, name)
			}
		}
	}
	return nil
}

// Models converts the document into roles and principals ready to be saved.
func (d *Document) Models() ([]model.Role, []model.Principal) {
	roles := make([]model.Role, 0, len(d.Roles))
	for _, r := range d.Roles {
		role := model.Role{ID: r.Name, Name: r.Name, Description: r.Description}
		for _, p := range r.Policies {
			role.Policies = append(role.Policies, model.Policy{
				RoleID:   r.Name,
				Action:   p.Action,
				Effect:   *p.Effect,
				Resource: p.Resource,
			})
		}
		roles = append(roles, role)
	}

	principals := make([]model.Principal, 0, len(d.Principals))
	for _, p := range d.Principals {
		principals = append(principals, model.Principal{
			ID:       p.ID,
			Email:    p.Email,
			FullName: p.FullName,
			RoleIDs:  append([]string(nil), p.Roles...),
		})
	}
	return roles, principals
}

// Apply saves every role, then every principal with its assignments.
func (d *Document) Apply(ctx context.Context, w store.RoleWriter) error {
	roles, principals := d.Models()
	for i := range roles {
		if err := w.SaveRole(ctx, &roles[i]); err != nil {
			return fmt.Errorf("failed to save role %s: %w", roles[i].Name, err)
		}
	}
	for i := range principals {
		if err := w.SavePrincipal(ctx, &principals[i]); err != nil {
			return fmt.Errorf("failed to save principal %s: %w", principals[i].ID, err)
		}
	}
	return nil
}
