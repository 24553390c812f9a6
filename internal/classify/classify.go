// Package classify defines the contract with the classification and grouping
// service and provides a rule-based local implementation of it.
package classify

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// ErrUnavailable indicates the classification service could not be reached.
var ErrUnavailable = errors.New("classification service unavailable")

// Item is one hunk as sent to the service.
type Item struct {
	ID         string   `json:"id"`
	FilePath   string   `json:"filePath"`
	Content    string   `json:"content"`
	Label      []string `json:"label,omitempty"`
	Symbols    []string `json:"symbols,omitempty"`
	References []string `json:"references,omitempty"`
}

// Request is the single request shape shared by every operation.
type Request struct {
	Items    []Item   `json:"items"`
	Glossary []string `json:"glossary,omitempty"`
}

// Classifier assigns labels to hunks, keyed by hunk id.
type Classifier interface {
	Classify(ctx context.Context, req Request) (map[string][]string, error)
}

// Grouper orders hunks into titled groups.
type Grouper interface {
	Group(ctx context.Context, req Request) ([]model.HunkGroup, error)
}

// Narrator writes a prose summary of the change.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// Service is a collaborator offering all three operations.
type Service interface {
	Classifier
	Grouper
	Narrator
}

// Content renders a hunk body with unified diff prefixes.
func Content(h model.Hunk) string {
	var b strings.Builder
	for _, l := range h.Lines {
		switch l.Type {
		case model.LineAdded:
			b.WriteByte('+')
		case model.LineRemoved:
			b.WriteByte('-')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(l.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// NewRequest builds a request for hunks, carrying any labels already in
// state. refs, when non-nil, resolves the files referencing a symbol.
func NewRequest(hunks []model.Hunk, state *model.ReviewState, refs func(filePath, symbol string) []string) Request {
	req := Request{Items: make([]Item, 0, len(hunks))}
	glossary := make(map[string]struct{})
	for _, h := range hunks {
		it := Item{
			ID:       h.ID,
			FilePath: h.FilePath,
			Content:  Content(h),
			Label:    slices.Clone(state.Hunk(h.ID).Label),
			Symbols:  Symbols(h),
		}
		for _, sym := range it.Symbols {
			glossary[sym] = struct{}{}
			if refs != nil {
				it.References = append(it.References, refs(h.FilePath, sym)...)
			}
		}
		if len(it.References) > 0 {
			slices.Sort(it.References)
			it.References = slices.Compact(it.References)
		}
		req.Items = append(req.Items, it)
	}
	for sym := range glossary {
		req.Glossary = append(req.Glossary, sym)
	}
	slices.Sort(req.Glossary)
	return req
}

// ParseContent turns Item.Content back into diff lines, without line numbers.
func ParseContent(content string) []model.DiffLine {
	var lines []model.DiffLine
	for _, raw := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		if raw == "" {
			continue
		}
		l := model.DiffLine{Content: raw[1:]}
		switch raw[0] {
		case '+':
			l.Type = model.LineAdded
		case '-':
			l.Type = model.LineRemoved
		default:
			l.Type = model.LineContext
		}
		lines = append(lines, l)
	}
	return lines
}
