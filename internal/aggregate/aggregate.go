// Package aggregate rolls per-hunk review status up into per-file counts and
// a directory tree.
package aggregate

import (
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/trust"
)

// FileStatus buckets every hunk exactly once and accumulates per file path.
// A nil state treats every hunk as having no explicit status.
func FileStatus(hunks []model.Hunk, state *model.ReviewState, ev *trust.Evaluator) map[string]model.FileHunkStatus {
	if ev == nil {
		ev = trust.New(nil, trust.Options{})
	}
	out := make(map[string]model.FileHunkStatus)
	for _, h := range hunks {
		fs := out[h.FilePath]
		fs.Count(ev.Status(h.FilePath, state.Hunk(h.ID)))
		out[h.FilePath] = fs
	}
	return out
}

// Totals sums a file status map.
func Totals(files map[string]model.FileHunkStatus) model.FileHunkStatus {
	var t model.FileHunkStatus
	for _, fs := range files {
		t = t.Add(fs)
	}
	return t
}

// Progress is an overall review summary.
type Progress struct {
	model.FileHunkStatus
	Files   int     `json:"files"`
	Percent float64 `json:"percent"`
}

// Done reports whether nothing is left pending or parked.
func (p Progress) Done() bool {
	return p.Pending == 0 && p.SavedForLater == 0
}

// Summarize computes overall progress. Percent counts approved, trusted and
// rejected hunks as reviewed; an empty comparison is 100% reviewed.
func Summarize(files map[string]model.FileHunkStatus) Progress {
	t := Totals(files)
	p := Progress{FileHunkStatus: t, Files: len(files), Percent: 100}
	if t.Total > 0 {
		p.Percent = float64(t.Reviewed()) * 100 / float64(t.Total)
	}
	return p
}
