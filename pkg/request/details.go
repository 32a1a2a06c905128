package request

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/permission"
	"github.com/doodlesbykumbi/execgate/pkg/review"
)

// summaryLength caps Comment.Summary in runes.
const summaryLength = 140

// Details is a request as shown to a reader, with its status recomputed from
// the event log.
type Details struct {
	Request      model.ExecutionRequest
	Events       []model.Event
	ReviewStatus model.ReviewStatus
	Votes        review.Votes
	Comments     []Comment
}

// Comment is the body of a review or comment event rendered for display.
type Comment struct {
	EventID   string
	AuthorID  string
	CreatedAt time.Time
	Markdown  string
	HTML      string
	Summary   string // plain text, for notifications
}

// Get returns a request with its full history.
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	t, err := s.load(ctx, id, permission.ExecutionRequestGet)
	if err != nil {
		return nil, err
	}

	agg := t.agg
	cfg := t.conn.ReviewConfig
	votes := review.Tally(agg.Events, agg.Request.AuthorID, cfg)
	d := &Details{
		Request:      agg.Request,
		Events:       agg.Events,
		ReviewStatus: votes.Status(cfg),
		Votes:        votes,
	}

	md := goldmark.New()
	for _, e := range agg.Events {
		body, ok := e.Comment()
		if !ok {
			continue
		}
		c, err := renderComment(md, body)
		if err != nil {
			s.logger.Warn().Err(err).Str("event", e.ID).Msg("failed to render comment")
			c = Comment{Markdown: body, Summary: truncate(body)}
		}
		c.EventID = e.ID
		c.AuthorID = e.AuthorID
		c.CreatedAt = e.CreatedAt
		d.Comments = append(d.Comments, c)
	}
	return d, nil
}

func renderComment(md goldmark.Markdown, body string) (Comment, error) {
	source := []byte(body)

	var html bytes.Buffer
	doc := md.Parser().Parse(text.NewReader(source))
	if err := md.Renderer().Render(&html, source, doc); err != nil {
		return Comment{}, err
	}

	var plain strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Kind() == ast.KindParagraph || n.Kind() == ast.KindHeading {
				plain.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			plain.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				plain.WriteByte(' ')
			}
		case *ast.CodeSpan:
			for c := t.FirstChild(); c != nil; c = c.NextSibling() {
				if seg, ok := c.(*ast.Text); ok {
					plain.Write(seg.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return Comment{
		Markdown: body,
		HTML:     html.String(),
		Summary:  truncate(strings.Join(strings.Fields(plain.String()), " ")),
	}, nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= summaryLength {
		return s
	}
	return string(r[:summaryLength-1]) + "…"
}
