package classify

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Group order and titles for the local grouper. Categories not listed sort
// after these, alphabetically.
var categories = []struct {
	name  string
	title string
}{
	{"security", "Security-sensitive changes"},
	{"schema", "Schema and migrations"},
	{"deps", "Dependency changes"},
	{"functions", "New and removed functions"},
	{"errors", "Error handling"},
	{"code", "Code changes"},
	{"todo", "Follow-up markers"},
	{"tests", "Tests"},
	{"imports", "Imports"},
	{"comments", "Comments"},
	{"whitespace", "Formatting"},
	{"docs", "Documentation"},
	{"lockfile", "Lockfiles"},
	{"generated", "Generated files"},
}

func categoryRank(c string) int {
	for i, cat := range categories {
		if cat.name == c {
			return i
		}
	}
	return len(categories)
}

func categoryTitle(c string) string {
	for _, cat := range categories {
		if cat.name == c {
			return cat.title
		}
	}
	return c
}

// Local is an offline Service backed by Rules.
type Local struct {
	Rules Rules
}

// Classify implements Classifier.
func (l Local) Classify(ctx context.Context, req Request) (map[string][]string, error) {
	out := make(map[string][]string, len(req.Items))
	for _, it := range req.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[it.ID] = l.Rules.Labels(it.FilePath, ParseContent(it.Content))
	}
	return out, nil
}

func (l Local) labels(it Item) []string {
	if len(it.Label) > 0 {
		return it.Label
	}
	return l.Rules.Labels(it.FilePath, ParseContent(it.Content))
}

// primary picks the highest ranked category among labels.
func primary(labels []string) string {
	best := ""
	for _, lab := range labels {
		c, _, _ := strings.Cut(lab, ":")
		if best == "" || categoryRank(c) < categoryRank(best) ||
			(categoryRank(c) == categoryRank(best) && c < best) {
			best = c
		}
	}
	if best == "" {
		return "code"
	}
	return best
}

// Group implements Grouper. Each hunk lands in exactly one group, chosen by
// its highest ranked label category; hunks keep request order within groups.
func (l Local) Group(ctx context.Context, req Request) ([]model.HunkGroup, error) {
	byCat := make(map[string]*model.HunkGroup)
	var cats []string
	for _, it := range req.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := primary(l.labels(it))
		g, ok := byCat[c]
		if !ok {
			g = &model.HunkGroup{Title: categoryTitle(c)}
			byCat[c] = g
			cats = append(cats, c)
		}
		g.HunkIDs = append(g.HunkIDs, it.ID)
	}
	slices.SortFunc(cats, func(a, b string) int {
		if ra, rb := categoryRank(a), categoryRank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	groups := make([]model.HunkGroup, 0, len(cats))
	for _, c := range cats {
		g := byCat[c]
		files := make(map[string]bool)
		for _, it := range req.Items {
			if slices.Contains(g.HunkIDs, it.ID) {
				files[it.FilePath] = true
			}
		}
		g.Description = fmt.Sprintf("%d %s in %d %s", len(g.HunkIDs), plural(len(g.HunkIDs), "hunk"), len(files), plural(len(files), "file"))
		groups = append(groups, *g)
	}
	return groups, nil
}

// Narrate implements Narrator with a short factual summary.
func (l Local) Narrate(ctx context.Context, req Request) (string, error) {
	groups, err := l.Group(ctx, req)
	if err != nil {
		return "", err
	}
	files := make(map[string]bool)
	for _, it := range req.Items {
		files[it.FilePath] = true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s across %d %s.", len(req.Items), plural(len(req.Items), "hunk"), len(files), plural(len(files), "file"))
	for i, g := range groups {
		if i == 3 {
			fmt.Fprintf(&b, " Plus %d more %s.", len(groups)-3, plural(len(groups)-3, "group"))
			break
		}
		fmt.Fprintf(&b, " %s: %d.", g.Title, len(g.HunkIDs))
	}
	if len(req.Glossary) > 0 {
		syms := req.Glossary
		if len(syms) > 5 {
			syms = syms[:5]
		}
		fmt.Fprintf(&b, " Touches %s.", strings.Join(syms, ", "))
	}
	return b.String(), nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
