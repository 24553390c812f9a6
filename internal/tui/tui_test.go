package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/hunkr/internal/classify"
	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/review"
)

const testDiff = `diff --git a/main.go b/main.go
index abc1234..def5678 100644
--- a/main.go
+++ b/main.go
@@ -1,5 +1,6 @@
 package main

 func main() {
-	println("hello")
+	println("hello world")
+	println("goodbye")
 }
diff --git a/util.go b/util.go
new file mode 100644
--- /dev/null
+++ b/util.go
@@ -0,0 +1,5 @@
+package main
+
+func add(a, b int) int {
+	return a + b
+}
`

func setupModel(t *testing.T) Model {
	t.Helper()
	ds, err := diff.Parse(testDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c, err := model.NewComparison("main", "HEAD", true, false)
	if err != nil {
		t.Fatalf("NewComparison failed: %v", err)
	}
	svc := review.New(review.Options{Classifier: classify.Local{}})
	svc.Open(c, nil, review.Diff{Hunks: ds.Hunks(), Files: ds.Entries()})

	m := New(context.Background(), svc, ds)
	// Simulate window size
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model)
}

func TestModelInit(t *testing.T) {
	m := setupModel(t)

	if m.fileIndex != 0 {
		t.Errorf("expected fileIndex 0, got %d", m.fileIndex)
	}
	if len(m.lines) == 0 {
		t.Error("expected lines to be rendered")
	}
	if m.diffSet == nil {
		t.Error("expected diffSet to be set")
	}
	if len(m.hunkStarts) != 1 || m.hunkStarts[0] != 0 {
		t.Errorf("expected one hunk at line 0, got %v", m.hunkStarts)
	}
}

func TestNavigation(t *testing.T) {
	m := setupModel(t)

	// Move to next file
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = newM.(Model)
	if m.fileIndex != 1 {
		t.Errorf("expected fileIndex 1 after next, got %d", m.fileIndex)
	}

	// Move past end, should stay
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = newM.(Model)
	if m.fileIndex != 1 {
		t.Errorf("expected fileIndex 1 at end, got %d", m.fileIndex)
	}

	// Move back
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'N'}})
	m = newM.(Model)
	if m.fileIndex != 0 {
		t.Errorf("expected fileIndex 0 after prev, got %d", m.fileIndex)
	}
}

func TestScrolling(t *testing.T) {
	m := setupModel(t)

	// Scroll down
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = newM.(Model)
	if m.scrollOffset != 1 {
		t.Errorf("expected scrollOffset 1, got %d", m.scrollOffset)
	}

	// Scroll up
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = newM.(Model)
	if m.scrollOffset != 0 {
		t.Errorf("expected scrollOffset 0, got %d", m.scrollOffset)
	}

	// Can't scroll above 0
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = newM.(Model)
	if m.scrollOffset != 0 {
		t.Errorf("expected scrollOffset 0 at top, got %d", m.scrollOffset)
	}
}

func TestToggleView(t *testing.T) {
	m := setupModel(t)

	if m.splitView {
		t.Error("expected unified view by default")
	}

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	m = newM.(Model)
	if !m.splitView {
		t.Error("expected split view after toggle")
	}

	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	m = newM.(Model)
	if m.splitView {
		t.Error("expected unified view after second toggle")
	}
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)

	view := m.View()
	if view == "" {
		t.Error("expected non-empty view")
	}

	// Should contain the filename
	if !strings.Contains(view, "main.go") {
		t.Error("expected view to contain 'main.go'")
	}

	// Should contain diff content
	if !strings.Contains(view, "hello") {
		t.Error("expected view to contain 'hello'")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t)

	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = newM.(Model)
	if !m.showHelp {
		t.Error("expected help to be shown")
	}

	view := m.View()
	if !strings.Contains(view, "keyboard shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}
}

func press(m Model, r rune) Model {
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return newM.(Model)
}

func TestReviewKeys(t *testing.T) {
	m := setupModel(t)
	mainHunk, _ := m.currentHunk()

	// Approving moves on to the next file's hunk
	m = press(m, 'a')
	if got := m.svc.Status(mainHunk.ID); got != model.ReviewApproved {
		t.Fatalf("expected main.go hunk approved, got %s", got)
	}
	if m.fileIndex != 1 {
		t.Errorf("expected to advance to util.go, got fileIndex %d", m.fileIndex)
	}

	utilHunk, _ := m.currentHunk()
	m = press(m, 'r')
	if got := m.svc.Status(utilHunk.ID); got != model.ReviewRejected {
		t.Errorf("expected util.go hunk rejected, got %s", got)
	}

	// Back to main.go: rejecting an approved hunk needs a clear first
	m = press(m, '[')
	if m.fileIndex != 0 {
		t.Fatalf("expected fileIndex 0 after prev hunk, got %d", m.fileIndex)
	}
	m = press(m, 'r')
	if !m.errorMsg {
		t.Error("expected an error message for approved -> rejected")
	}
	if got := m.svc.Status(mainHunk.ID); got != model.ReviewApproved {
		t.Errorf("expected main.go hunk still approved, got %s", got)
	}

	// Pressing a again toggles the approval off
	m = press(m, 'a')
	if got := m.svc.Status(mainHunk.ID); got != model.ReviewPending {
		t.Errorf("expected main.go hunk pending after toggle, got %s", got)
	}
	if m.fileIndex != 0 {
		t.Errorf("expected to stay on main.go after clearing, got fileIndex %d", m.fileIndex)
	}

	p := m.svc.Progress()
	if p.Rejected != 1 || p.Pending != 1 {
		t.Errorf("unexpected progress: %+v", p)
	}
}

func TestApproveFile(t *testing.T) {
	m := setupModel(t)

	m = press(m, 'A')
	fs := m.svc.FileStatus()["main.go"]
	if fs.Approved != 1 || fs.Pending != 0 {
		t.Errorf("expected main.go fully approved, got %+v", fs)
	}
	if !strings.Contains(m.View(), "[approved]") {
		t.Error("expected view to show the approved badge")
	}
}

func TestTrustInput(t *testing.T) {
	m := setupModel(t)
	if _, err := m.svc.Classify(context.Background(), false); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	m = press(m, 'T')
	if !m.entering {
		t.Fatal("expected trust prompt to open")
	}

	// Keys go to the prompt, not the key map
	m = press(m, 'q')
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = newM.(Model)
	m = press(m, '*')
	newM, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newM.(Model)

	if m.entering {
		t.Error("expected trust prompt to close on enter")
	}
	st := m.svc.State()
	if len(st.TrustList) != 1 || st.TrustList[0] != "*" {
		t.Errorf("expected trust list [*], got %v", st.TrustList)
	}
	if p := m.svc.Progress(); p.Trusted != 2 {
		t.Errorf("expected 2 trusted hunks, got %+v", p)
	}
}

func TestTrustInputCancel(t *testing.T) {
	m := setupModel(t)

	m = press(m, 'T')
	m = press(m, '*')
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newM.(Model)

	if m.entering {
		t.Error("expected trust prompt to close on esc")
	}
	if n := len(m.svc.State().TrustList); n != 0 {
		t.Errorf("expected empty trust list, got %d patterns", n)
	}
}

func TestCollaboratorOp(t *testing.T) {
	m := setupModel(t)

	newM, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = newM.(Model)
	if m.busy != review.OpClassify {
		t.Fatalf("expected classify in flight, got %q", m.busy)
	}
	if cmd == nil {
		t.Fatal("expected a command for the classify call")
	}

	// A second press while busy is ignored
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	if cmd != nil {
		t.Error("expected no command while another call is in flight")
	}

	newM, _ = m.Update(opDoneMsg{op: review.OpClassify, changed: true})
	m = newM.(Model)
	if m.busy != "" {
		t.Error("expected busy to clear")
	}
	if m.message != "classify done" {
		t.Errorf("unexpected message %q", m.message)
	}

	newM, _ = m.Update(opDoneMsg{op: review.OpGroup, err: review.ErrSuperseded})
	m = newM.(Model)
	if m.errorMsg {
		t.Error("superseded results should not be reported as errors")
	}
}
