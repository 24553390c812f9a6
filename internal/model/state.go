package model

import (
	"maps"
	"slices"
	"time"
)

// HunkState is the mutable per-hunk record inside a ReviewState.
type HunkState struct {
	Status HunkStatus `json:"status,omitempty"`
	Label  []string   `json:"label,omitempty"`
}

// Annotation is a freeform note attached to a line of a file.
type Annotation struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"filePath"`
	LineNumber int       `json:"lineNumber"`
	Side       string    `json:"side,omitempty"` // "old" or "new"
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Snapshot records the hunk ids a cached AI-derived result was computed over.
type Snapshot struct {
	HunkIDs     []string  `json:"hunkIds"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// NewSnapshot copies and sorts ids.
func NewSnapshot(ids []string, at time.Time) Snapshot {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return Snapshot{HunkIDs: sorted, GeneratedAt: at}
}

// HunkGroup is a titled, ordered set of hunks produced by the grouping service.
type HunkGroup struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	HunkIDs     []string `json:"hunkIds"`
}

// Guide is the cached grouping result.
type Guide struct {
	Groups []HunkGroup `json:"groups"`
	Snapshot
}

// Classification is the cached classification run. Labels themselves live on
// the HunkStates.
type Classification struct {
	Snapshot
}

// Narrative is a cached prose summary of the change.
type Narrative struct {
	Text string `json:"text"`
	Snapshot
}

// Freshness is the last known answer to "is this saved review's diff still
// non-empty", with the commits it was computed against.
type Freshness struct {
	SourceCommit string    `json:"sourceCommit"`
	TargetCommit string    `json:"targetCommit"`
	IsActive     bool      `json:"isActive"`
	CheckedAt    time.Time `json:"checkedAt"`
}

// ReviewState is the authoritative state of one comparison. Values are
// treated as immutable once published: mutations work on a Clone.
type ReviewState struct {
	Comparison        Comparison           `json:"comparison"`
	Hunks             map[string]HunkState `json:"hunks"`
	TrustList         []string             `json:"trustList"`
	Annotations       []Annotation         `json:"annotations"`
	Guide             *Guide               `json:"guide,omitempty"`
	Classification    *Classification      `json:"classification,omitempty"`
	Narrative         *Narrative           `json:"narrative,omitempty"`
	AutoApproveStaged bool                 `json:"autoApproveStaged,omitempty"`
	Freshness         *Freshness           `json:"freshness,omitempty"`
	Version           int                  `json:"version"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// NewReviewState returns an empty state for c.
func NewReviewState(c Comparison, now time.Time) *ReviewState {
	return &ReviewState{
		Comparison:  c,
		Hunks:       make(map[string]HunkState),
		TrustList:   []string{},
		Annotations: []Annotation{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Hunk returns the state for id, or the zero state when none is recorded.
func (s *ReviewState) Hunk(id string) HunkState {
	if s == nil || s.Hunks == nil {
		return HunkState{}
	}
	return s.Hunks[id]
}

// Clone returns a deep copy of s.
func (s *ReviewState) Clone() *ReviewState {
	if s == nil {
		return nil
	}
	c := *s
	c.Hunks = make(map[string]HunkState, len(s.Hunks))
	for id, hs := range s.Hunks {
		c.Hunks[id] = HunkState{Status: hs.Status, Label: slices.Clone(hs.Label)}
	}
	c.TrustList = slices.Clone(s.TrustList)
	c.Annotations = slices.Clone(s.Annotations)
	if s.Guide != nil {
		g := *s.Guide
		g.Groups = make([]HunkGroup, len(s.Guide.Groups))
		for i, grp := range s.Guide.Groups {
			grp.HunkIDs = slices.Clone(grp.HunkIDs)
			g.Groups[i] = grp
		}
		g.HunkIDs = slices.Clone(s.Guide.HunkIDs)
		c.Guide = &g
	}
	if s.Classification != nil {
		cl := *s.Classification
		cl.HunkIDs = slices.Clone(s.Classification.HunkIDs)
		c.Classification = &cl
	}
	if s.Narrative != nil {
		n := *s.Narrative
		n.HunkIDs = slices.Clone(s.Narrative.HunkIDs)
		c.Narrative = &n
	}
	if s.Freshness != nil {
		f := *s.Freshness
		c.Freshness = &f
	}
	return &c
}

// Labels returns every hunk's labels keyed by hunk id.
func (s *ReviewState) Labels() map[string][]string {
	out := make(map[string][]string)
	if s == nil {
		return out
	}
	for _, id := range slices.Sorted(maps.Keys(s.Hunks)) {
		if l := s.Hunks[id].Label; len(l) > 0 {
			out[id] = slices.Clone(l)
		}
	}
	return out
}
