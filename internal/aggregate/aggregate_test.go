package aggregate

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/trust"
)

func newState(t *testing.T) *model.ReviewState {
	t.Helper()
	c, err := model.NewComparison("main", "feature", false, false)
	require.NoError(t, err)
	return model.NewReviewState(c, time.Unix(0, 0))
}

func hunk(id, file string) model.Hunk {
	return model.Hunk{ID: id, FilePath: file}
}

func TestFileStatusBuckets(t *testing.T) {
	s := newState(t)
	s.TrustList = []string{"imports:*"}
	s.Hunks["a1"] = model.HunkState{Status: model.StatusRejected, Label: []string{"imports:added"}}
	s.Hunks["a2"] = model.HunkState{Status: model.StatusApproved}
	s.Hunks["a3"] = model.HunkState{Status: model.StatusSavedForLater}
	s.Hunks["b1"] = model.HunkState{Label: []string{"imports:added"}}

	hunks := []model.Hunk{
		hunk("a1", "a.go"), hunk("a2", "a.go"), hunk("a3", "a.go"),
		hunk("b1", "b.go"), hunk("b2", "b.go"),
	}
	got := FileStatus(hunks, s, trust.ForState(s, nil))

	assert.Equal(t, model.FileHunkStatus{Approved: 1, Rejected: 1, SavedForLater: 1, Total: 3}, got["a.go"])
	assert.Equal(t, model.FileHunkStatus{Trusted: 1, Pending: 1, Total: 2}, got["b.go"])
}

func TestFileStatusStagedOverride(t *testing.T) {
	s := newState(t)
	s.AutoApproveStaged = true
	hunks := []model.Hunk{hunk("a", "staged.go"), hunk("b", "other.go")}

	got := FileStatus(hunks, s, trust.ForState(s, []string{"staged.go"}))
	assert.Equal(t, 1, got["staged.go"].Trusted)
	assert.Equal(t, 1, got["other.go"].Pending)
}

func TestFileStatusNilInputs(t *testing.T) {
	got := FileStatus([]model.Hunk{hunk("x", "x.go")}, nil, nil)
	assert.Equal(t, model.FileHunkStatus{Pending: 1, Total: 1}, got["x.go"])
}

func TestSumInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	statuses := []model.HunkStatus{model.StatusNone, model.StatusApproved, model.StatusRejected, model.StatusSavedForLater}
	labels := []string{"imports:added", "logic:changed", "comments:removed"}
	paths := []string{"a.go", "src/b.go", "src/c.go", "src/deep/d.go", "docs/e.md"}

	for round := 0; round < 25; round++ {
		s := newState(t)
		s.TrustList = []string{"imports:*", "*:removed"}
		var hunks []model.Hunk
		for i := 0; i < 40; i++ {
			id := fmt.Sprintf("h%d", i)
			hunks = append(hunks, hunk(id, paths[r.Intn(len(paths))]))
			s.Hunks[id] = model.HunkState{
				Status: statuses[r.Intn(len(statuses))],
				Label:  []string{labels[r.Intn(len(labels))]},
			}
		}
		files := FileStatus(hunks, s, trust.ForState(s, nil))
		for p, fs := range files {
			assert.True(t, fs.Consistent(), "file %s: %+v", p, fs)
		}
		assert.Equal(t, len(hunks), Totals(files).Total)

		root := BuildTree(nil, files)
		Walk(root, func(_ int, n *Node) bool {
			if !n.IsDir {
				return true
			}
			var sum model.FileHunkStatus
			Walk(n, func(_ int, d *Node) bool {
				if !d.IsDir {
					sum = sum.Add(d.Counts)
				}
				return true
			})
			assert.Equal(t, sum, n.Counts, "dir %q", n.Path)
			return true
		})
	}
}

func TestTrustThenRejectCounts(t *testing.T) {
	s := newState(t)
	s.TrustList = []string{"imports:*"}
	s.Hunks["h"] = model.HunkState{Label: []string{"imports:added"}}
	hunks := []model.Hunk{hunk("h", "a.go")}

	assert.Equal(t, 1, FileStatus(hunks, s, trust.ForState(s, nil))["a.go"].Trusted)

	s.Hunks["h"] = model.HunkState{Status: model.StatusRejected, Label: []string{"imports:added"}}
	got := FileStatus(hunks, s, trust.ForState(s, nil))["a.go"]
	assert.Equal(t, 1, got.Rejected)
	assert.Equal(t, 0, got.Trusted)
}

func TestSummarize(t *testing.T) {
	p := Summarize(map[string]model.FileHunkStatus{
		"a": {Approved: 1, Trusted: 1, Pending: 2, Total: 4},
	})
	assert.InDelta(t, 50.0, p.Percent, 0.001)
	assert.False(t, p.Done())

	empty := Summarize(nil)
	assert.Equal(t, 100.0, empty.Percent)
	assert.True(t, empty.Done())
}
