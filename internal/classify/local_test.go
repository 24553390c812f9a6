package classify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/hunkr/internal/model"
)

func item(id, path string, content ...string) Item {
	return Item{ID: id, FilePath: path, Content: strings.Join(content, "\n") + "\n"}
}

func TestLocalClassify(t *testing.T) {
	req := Request{Items: []Item{
		item("a", "main.go", `+import "fmt"`),
		item("b", "README.md", "+hello"),
	}}
	labels, err := Local{}.Classify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"imports:added"}, labels["a"])
	assert.Equal(t, []string{"code:changed", "docs:changed"}, labels["b"])
}

func TestLocalGroup(t *testing.T) {
	req := Request{Items: []Item{
		item("imp", "main.go", `+import "fmt"`),
		item("logic1", "a.go", "-return 1", "+return 2"),
		item("logic2", "b.go", "-x := 1", "+x := 2"),
		{ID: "remote", FilePath: "c.go", Content: "+y\n", Label: []string{"refactor:rename"}},
	}}
	groups, err := Local{}.Group(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "Code changes", groups[0].Title)
	assert.Equal(t, []string{"logic1", "logic2"}, groups[0].HunkIDs)
	assert.Equal(t, "2 hunks in 2 files", groups[0].Description)
	assert.Equal(t, "Imports", groups[1].Title)
	assert.Equal(t, "refactor", groups[2].Title)

	seen := 0
	for _, g := range groups {
		seen += len(g.HunkIDs)
	}
	assert.Equal(t, len(req.Items), seen)
}

func TestLocalNarrate(t *testing.T) {
	req := Request{
		Items:    []Item{item("a", "a.go", "+func Serve() {}"), item("b", "a.go", `+import "os"`)},
		Glossary: []string{"Serve"},
	}
	text, err := Local{}.Narrate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "2 hunks across 1 file."), text)
	assert.Contains(t, text, "Imports: 1.")
	assert.Contains(t, text, "Touches Serve.")
}

func TestLocalCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Local{}.Classify(ctx, Request{Items: []Item{item("a", "a.go", "+x")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequest(t *testing.T) {
	c, err := model.NewComparison("main", "HEAD", false, false)
	require.NoError(t, err)
	st := model.NewReviewState(c, testTime)
	st.Hunks["h1"] = model.HunkState{Label: []string{"code:changed"}}

	hunks := []model.Hunk{{
		ID:       "h1",
		FilePath: "srv.go",
		Lines: []model.DiffLine{
			{Type: model.LineContext, Content: "package srv"},
			{Type: model.LineAdded, Content: "func Handle() {}"},
		},
	}}
	refs := func(_, sym string) []string { return []string{"b.go", "a.go", "b.go"} }

	req := NewRequest(hunks, st, refs)
	require.Len(t, req.Items, 1)
	it := req.Items[0]
	assert.Equal(t, " package srv\n+func Handle() {}\n", it.Content)
	assert.Equal(t, []string{"code:changed"}, it.Label)
	assert.Equal(t, []string{"Handle"}, it.Symbols)
	assert.Equal(t, []string{"a.go", "b.go"}, it.References)
	assert.Equal(t, []string{"Handle"}, req.Glossary)

	assert.Equal(t, hunks[0].Lines, ParseContent(it.Content))
}

func TestReferenceFinder(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("pkg/def.go", "func Handle() {}")
	write("pkg/use.go", "Handle()")
	write("other/use_test.go", "x := Handle")
	write("vendor/dep.go", "Handle()")
	write("notes.md", "Handle")
	write("pkg/near.go", "HandleAll()")

	refs := ReferenceFinder(dir, 0)("pkg/def.go", "Handle")
	assert.ElementsMatch(t, []string{"pkg/use.go", "other/use_test.go"}, refs)

	assert.Len(t, ReferenceFinder(dir, 1)("pkg/def.go", "Handle"), 1)
	assert.Nil(t, ReferenceFinder("", 0)("pkg/def.go", "Handle"))
}
