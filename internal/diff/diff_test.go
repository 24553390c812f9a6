package diff

import (
	"strings"
	"testing"

	"github.com/sprite-ai/hunkr/internal/model"
)

const sampleDiff = `diff --git a/hello.go b/hello.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/hello.go
@@ -0,0 +1,11 @@
+package main
+
+import "fmt"
+
+func main() {
+	fmt.Println("hello")
+}
+
+func add(a, b int) int {
+	return a + b
+}
diff --git a/readme.md b/readme.md
index abc1234..def5678 100644
--- a/readme.md
+++ b/readme.md
@@ -1,3 +1,4 @@
 # Project

-Old description
+New description
+Added line
`

func TestParse(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ds.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(ds.Files))
	}

	f0 := ds.Files[0]
	if !f0.IsNew {
		t.Error("expected hello.go to be new")
	}
	if f0.Path() != "hello.go" {
		t.Errorf("expected path 'hello.go', got %q", f0.Path())
	}
	if f0.AddedLines != 11 {
		t.Errorf("expected 11 added lines, got %d", f0.AddedLines)
	}
	if got := f0.Entry().Status; got != model.ChangeAdded {
		t.Errorf("expected added status, got %q", got)
	}

	f1 := ds.Files[1]
	if f1.Path() != "readme.md" {
		t.Errorf("expected path 'readme.md', got %q", f1.Path())
	}
	if f1.AddedLines != 2 || f1.DeletedLines != 1 {
		t.Errorf("expected +2 -1, got +%d -%d", f1.AddedLines, f1.DeletedLines)
	}

	files, added, deleted := ds.Stats()
	if files != 2 || added != 13 || deleted != 1 {
		t.Errorf("stats: got files=%d added=%d deleted=%d", files, added, deleted)
	}
}

func TestParseHunks(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	hunks := ds.Hunks()
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}

	h := hunks[1]
	if h.FilePath != "readme.md" {
		t.Errorf("file path = %q", h.FilePath)
	}
	if h.OldStart != 1 || h.OldCount != 3 || h.NewStart != 1 || h.NewCount != 4 {
		t.Errorf("range = -%d,%d +%d,%d", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	}
	if !strings.HasPrefix(h.ID, "readme.md:") || len(h.ID) != len("readme.md:")+12 {
		t.Errorf("unexpected id %q", h.ID)
	}
	if h.ContentHash == "" {
		t.Error("missing content hash")
	}

	want := []model.DiffLine{
		{Type: model.LineContext, Content: "# Project", OldLineNumber: 1, NewLineNumber: 1},
		{Type: model.LineContext, Content: "", OldLineNumber: 2, NewLineNumber: 2},
		{Type: model.LineRemoved, Content: "Old description", OldLineNumber: 3},
		{Type: model.LineAdded, Content: "New description", NewLineNumber: 3},
		{Type: model.LineAdded, Content: "Added line", NewLineNumber: 4},
	}
	if len(h.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(h.Lines))
	}
	for i := range want {
		if h.Lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, h.Lines[i], want[i])
		}
	}
}

func TestParseHunkIDsStable(t *testing.T) {
	a, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	if a.Hunks()[0].ID != b.Hunks()[0].ID {
		t.Error("hunk ids differ between parses of the same diff")
	}
}

const dupDiff = `diff --git a/list.txt b/list.txt
index abc1234..def5678 100644
--- a/list.txt
+++ b/list.txt
@@ -1,1 +1,2 @@
 a
+x
@@ -10,1 +11,2 @@
 a
+x
`

func TestParseDuplicateHunkIDs(t *testing.T) {
	ds, err := Parse(dupDiff)
	if err != nil {
		t.Fatal(err)
	}
	hunks := ds.Hunks()
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}
	if hunks[1].ID != hunks[0].ID+"#2" {
		t.Errorf("expected %q, got %q", hunks[0].ID+"#2", hunks[1].ID)
	}
}

const renameDiff = `diff --git a/old/a.go b/new/a.go
similarity index 90%
rename from old/a.go
rename to new/a.go
index abc1234..def5678 100644
--- a/old/a.go
+++ b/new/a.go
@@ -1,2 +1,2 @@
 package a
-var x = 1
+var x = 2
`

func TestParseRename(t *testing.T) {
	ds, err := Parse(renameDiff)
	if err != nil {
		t.Fatal(err)
	}
	e := ds.Entries()[0]
	if e.Status != model.ChangeRenamed || e.Path != "new/a.go" || e.RenamedFrom != "old/a.go" {
		t.Errorf("unexpected entry %+v", e)
	}
	if ds.File("new/a.go") == nil {
		t.Error("File lookup by new path failed")
	}
	if got := ds.Hunks()[0].FilePath; got != "new/a.go" {
		t.Errorf("hunk file path = %q", got)
	}
}

func TestParseEmpty(t *testing.T) {
	ds, err := Parse("")
	if err != nil {
		t.Fatalf("Parse empty failed: %v", err)
	}
	if len(ds.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(ds.Files))
	}
}

func TestComparisonArgs(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"main..feature", "-U3 -M --no-color --no-ext-diff --end-of-options main feature"},
		{"main..HEAD+working-tree", "-U3 -M --no-color --no-ext-diff --end-of-options main"},
		{"HEAD..HEAD+staged", "-U3 -M --no-color --no-ext-diff --cached --end-of-options HEAD"},
	}
	for _, tt := range tests {
		c, err := model.ParseComparison(tt.key)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(ComparisonArgs(c, 3), " "); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.key, got, tt.want)
		}
	}
}
