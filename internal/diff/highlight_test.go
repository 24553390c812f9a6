package diff

import (
	"testing"

	"github.com/sprite-ai/hunkr/internal/model"
)

func TestHighlightLines(t *testing.T) {
	lines := []string{
		"package main",
		"",
		"func main() {",
		`	fmt.Println("hello")`,
		"}",
	}

	highlighted := HighlightLines("main.go", lines)
	if len(highlighted) != len(lines) {
		t.Fatalf("expected %d highlighted lines, got %d", len(lines), len(highlighted))
	}
	if len(highlighted[0].Tokens) < 2 {
		t.Errorf("expected keyword and name tokens on first line, got %d", len(highlighted[0].Tokens))
	}
	for i, hl := range highlighted {
		if hl.Plain() != lines[i] {
			t.Errorf("line %d: plain text %q, want %q", i, hl.Plain(), lines[i])
		}
	}
}

func TestHighlightLinesUnknownLanguage(t *testing.T) {
	lines := []string{"some content", "more content"}
	highlighted := HighlightLines("unknown.xyz123", lines)

	if len(highlighted) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(highlighted))
	}
	if highlighted[0].Plain() != "some content" {
		t.Errorf("expected plain passthrough, got %q", highlighted[0].Plain())
	}
	if c := highlighted[0].Tokens[0].Color; c != "" {
		t.Errorf("expected no color for unknown language, got %q", c)
	}
}

func TestHighlighterCachesMisses(t *testing.T) {
	hl := NewHighlighter("no-such-style")
	hl.Lines("a.xyz123", []string{"x"})
	hl.Lines("b.xyz123", []string{"y"})

	if n := len(hl.lexers); n != 1 {
		t.Errorf("expected one cached lexer entry, got %d", n)
	}
	if l, ok := hl.lexers[".xyz123"]; !ok || l != nil {
		t.Errorf("expected cached miss for .xyz123, got %v, %v", l, ok)
	}
}

func TestHighlightHunk(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	h := ds.Hunks()[0]
	highlighted := HighlightHunk(h)
	if len(highlighted) != len(h.Lines) {
		t.Fatalf("expected %d lines, got %d", len(h.Lines), len(highlighted))
	}
	for i, hl := range highlighted {
		if hl.Plain() != h.Lines[i].Content {
			t.Errorf("line %d: %q != %q", i, hl.Plain(), h.Lines[i].Content)
		}
	}
}

func TestHighlightHunkMixedSides(t *testing.T) {
	h := model.Hunk{
		FilePath: "x.go",
		Lines: []model.DiffLine{
			{Type: model.LineContext, Content: "func f() {"},
			{Type: model.LineRemoved, Content: "\treturn 1"},
			{Type: model.LineAdded, Content: "\tvar x = 2"},
			{Type: model.LineAdded, Content: "\treturn x"},
			{Type: model.LineContext, Content: "}"},
		},
	}
	highlighted := HighlightHunk(h)
	if len(highlighted) != len(h.Lines) {
		t.Fatalf("expected %d lines, got %d", len(h.Lines), len(highlighted))
	}
	for i, hl := range highlighted {
		if hl.Plain() != h.Lines[i].Content {
			t.Errorf("line %d: %q != %q", i, hl.Plain(), h.Lines[i].Content)
		}
	}
	if len(highlighted[2].Tokens) < 2 {
		t.Errorf("expected the added line to be tokenized, got %+v", highlighted[2].Tokens)
	}
}
