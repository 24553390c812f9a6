package diff

import (
	"strings"
	"testing"

	"github.com/sprite-ai/hunkr/internal/model"
)

func TestPatchKeepsSelectedHunks(t *testing.T) {
	ds, err := Parse(dupDiff + sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	second := ds.Files[0].Hunks[1].ID

	patch := Patch(ds.Files, func(h model.Hunk) bool { return h.ID == second })

	want := `diff --git a/list.txt b/list.txt
--- a/list.txt
+++ b/list.txt
@@ -10,1 +10,2 @@
 a
+x
`
	if patch != want {
		t.Errorf("patch mismatch:\n%s\nwant:\n%s", patch, want)
	}
}

func TestPatchNewFile(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	patch := Patch(ds.Files, func(h model.Hunk) bool { return h.FilePath == "hello.go" })
	for _, want := range []string{"new file mode 100644\n", "--- /dev/null\n", "+++ b/hello.go\n", "@@ -0,0 +1,11 @@\n", "+package main\n"} {
		if !strings.Contains(patch, want) {
			t.Errorf("patch missing %q:\n%s", want, patch)
		}
	}
	if strings.Contains(patch, "readme.md") {
		t.Error("patch includes unselected file")
	}

	reparsed, err := Parse(patch)
	if err != nil {
		t.Fatalf("patch does not parse: %v", err)
	}
	if reparsed.Hunks()[0].ID != ds.Hunks()[0].ID {
		t.Error("round-tripped hunk id changed")
	}
}

func TestPatchNothingKept(t *testing.T) {
	ds, _ := Parse(sampleDiff)
	if got := Patch(ds.Files, func(model.Hunk) bool { return false }); got != "" {
		t.Errorf("expected empty patch, got %q", got)
	}
}

func TestCommitMessage(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatal(err)
	}
	all := func(model.Hunk) bool { return true }
	msg := CommitMessage(ds.Files, all)
	if !strings.HasPrefix(msg, "Update 1 file(s), add 1 file(s)") {
		t.Errorf("unexpected subject: %q", msg)
	}

	one := CommitMessage(ds.Files, func(h model.Hunk) bool { return h.FilePath == "hello.go" })
	if !strings.HasPrefix(one, "Add hello.go") {
		t.Errorf("unexpected subject: %q", one)
	}
	if CommitMessage(ds.Files, func(model.Hunk) bool { return false }) != "" {
		t.Error("expected empty message")
	}
}
