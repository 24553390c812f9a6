package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sprite-ai/hunkr/internal/model"
)

func TestIsStale(t *testing.T) {
	tests := []struct {
		name   string
		cached []string
		live   []string
		want   bool
	}{
		{"equal", []string{"a", "b"}, []string{"a", "b"}, false},
		{"reordered", []string{"b", "a"}, []string{"a", "b"}, false},
		{"both empty", nil, nil, false},
		{"added live", []string{"a"}, []string{"a", "b"}, true},
		{"removed live", []string{"a", "b"}, []string{"a"}, true},
		{"same size swapped", []string{"a", "b"}, []string{"a", "c"}, true},
		{"duplicate cached id", []string{"a", "a", "b"}, []string{"b", "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStale(tt.cached, tt.live))
			assert.Equal(t, tt.want, IsStale(tt.live, tt.cached), "symmetry")
		})
	}
}

func TestFileOverlap(t *testing.T) {
	assert.Equal(t, 1.0, FileOverlap(nil, []string{"a"}))
	assert.Equal(t, 0.5, FileOverlap([]string{"a", "b"}, []string{"a", "c"}))
	assert.Equal(t, 0.0, FileOverlap([]string{"a"}, nil))
}

func TestAssess(t *testing.T) {
	live := []model.Hunk{
		{ID: "a.go:111", FilePath: "a.go"},
		{ID: "b.go:222", FilePath: "b.go"},
	}
	tr := New(live)
	at := time.Unix(0, 0)

	assert.Equal(t, Fresh, tr.Assess(model.NewSnapshot([]string{"b.go:222", "a.go:111"}, at)))
	assert.Equal(t, Stale, tr.Assess(model.NewSnapshot([]string{"a.go:111", "b.go:999"}, at)))
	assert.Equal(t, Irrelevant, tr.Assess(model.NewSnapshot([]string{"x.go:1", "y.go:2", "a.go:111"}, at)))
}

func TestAssessUsesPreviousHunks(t *testing.T) {
	prev := []model.Hunk{{ID: "opaque-1", FilePath: "gone.go"}, {ID: "opaque-2", FilePath: "gone.go"}}
	tr := New([]model.Hunk{{ID: "opaque-3", FilePath: "kept.go"}}, prev...)

	assert.Equal(t, Irrelevant, tr.Assess(model.NewSnapshot([]string{"opaque-1", "opaque-2"}, time.Time{})))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "irrelevant", Irrelevant.String())
}
