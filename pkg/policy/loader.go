package policy

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// Result summarizes a loaded role document.
type Result struct {
	Roles      int  `json:"roles"`
	Principals int  `json:"principals"`
	DryRun     bool `json:"dry_run"`
}

// Loader applies role documents and audits every attempt.
type Loader struct {
	writer      store.RoleWriter
	principalID string // who is loading the document
	source      string // file name or other origin for audit
	dryRun      bool   // validate only
	metrics     *metrics.Metrics
}

// NewLoader creates a loader writing through w.
func NewLoader(w store.RoleWriter) *Loader {
	return &Loader{
		writer:      w,
		principalID: "gatectl",
		source:      "<stdin>",
	}
}

// WithPrincipalID sets who is loading the document.
func (l *Loader) WithPrincipalID(principalID string) *Loader {
	l.principalID = principalID
	return l
}

// WithSource sets the origin reported in audit events.
func (l *Loader) WithSource(source string) *Loader {
	l.source = source
	return l
}

// WithDryRun sets whether to validate only without applying changes.
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

// WithMetrics counts loads in m.
func (l *Loader) WithMetrics(m *metrics.Metrics) *Loader {
	l.metrics = m
	return l
}

// LoadFromReader parses, validates and applies a document.
func (l *Loader) LoadFromReader(ctx context.Context, r io.Reader) (*Result, error) {
	doc, err := LoadDocument(r)
	if err != nil {
		l.audit(nil, err)
		return nil, err
	}
	return l.Load(ctx, doc)
}

// LoadFromString parses, validates and applies a document held in memory.
func (l *Loader) LoadFromString(ctx context.Context, text string) (*Result, error) {
	return l.LoadFromReader(ctx, strings.NewReader(text))
}

// LoadFile parses, validates and applies the document at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if l.source == "<stdin>" {
		l.source = path
	}
	return l.LoadFromReader(ctx, f)
}

// Load applies an already parsed document.
func (l *Loader) Load(ctx context.Context, doc *Document) (*Result, error) {
	result := &Result{
		Roles:      len(doc.Roles),
		Principals: len(doc.Principals),
		DryRun:     l.dryRun,
	}
	if l.dryRun {
		return result, nil
	}

	err := doc.Apply(ctx, l.writer)
	l.audit(doc, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Loader) audit(doc *Document, err error) {
	l.metrics.RecordPolicyLoad(err == nil)
	e := audit.PolicyEvent{
		PrincipalID: l.principalID,
		Source:      l.source,
		Success:     err == nil,
	}
	if doc != nil {
		e.Roles = len(doc.Roles)
		e.Principals = len(doc.Principals)
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	audit.Log(e)
}
