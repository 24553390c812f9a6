// Package staleness decides whether a cached AI-derived result still matches
// the hunks it was computed over.
package staleness

import "github.com/sprite-ai/hunkr/internal/model"

// IrrelevantOverlap is the file overlap below which a stale result is no
// longer worth showing.
const IrrelevantOverlap = 0.5

// Verdict grades a cached result against the live hunks.
type Verdict int

const (
	Fresh      Verdict = iota
	Stale              // worth a light refresh, still useful meanwhile
	Irrelevant         // stale and mostly about files that are gone
)

func (v Verdict) String() string {
	switch v {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Irrelevant:
		return "irrelevant"
	default:
		return "unknown"
	}
}

// IsStale compares the two id sets by size, then membership. Order and
// duplicates do not matter.
func IsStale(cachedIDs, liveIDs []string) bool {
	cached := toSet(cachedIDs)
	live := toSet(liveIDs)
	if len(cached) != len(live) {
		return true
	}
	for id := range cached {
		if _, ok := live[id]; !ok {
			return true
		}
	}
	return false
}

// FileOverlap is the fraction of cachedFiles still present in liveFiles. An
// empty cached set overlaps fully.
func FileOverlap(cachedFiles, liveFiles []string) float64 {
	cached := toSet(cachedFiles)
	if len(cached) == 0 {
		return 1
	}
	live := toSet(liveFiles)
	n := 0
	for f := range cached {
		if _, ok := live[f]; ok {
			n++
		}
	}
	return float64(n) / float64(len(cached))
}

// Tracker evaluates snapshots against one live hunk set.
type Tracker struct {
	ids    map[string]struct{}
	files  []string
	fileOf map[string]string
}

// New indexes the live hunks. Hunks that disappear from a later diff are
// still resolvable to a file if they appear in previous.
func New(live []model.Hunk, previous ...model.Hunk) *Tracker {
	t := &Tracker{
		ids:    make(map[string]struct{}, len(live)),
		fileOf: make(map[string]string, len(live)+len(previous)),
	}
	seen := make(map[string]bool)
	for _, h := range previous {
		t.fileOf[h.ID] = h.FilePath
	}
	for _, h := range live {
		t.ids[h.ID] = struct{}{}
		t.fileOf[h.ID] = h.FilePath
		if !seen[h.FilePath] {
			seen[h.FilePath] = true
			t.files = append(t.files, h.FilePath)
		}
	}
	return t
}

// IsStale reports whether snap no longer matches the live hunk ids.
func (t *Tracker) IsStale(snap model.Snapshot) bool {
	cached := toSet(snap.HunkIDs)
	if len(cached) != len(t.ids) {
		return true
	}
	for id := range cached {
		if _, ok := t.ids[id]; !ok {
			return true
		}
	}
	return false
}

// Assess grades snap. Snapshot ids whose file cannot be resolved are ignored
// for the overlap metric. The file of an id is taken from the id itself when
// it has the "<path>:<hash>" form.
func (t *Tracker) Assess(snap model.Snapshot) Verdict {
	if !t.IsStale(snap) {
		return Fresh
	}
	var cachedFiles []string
	for _, id := range snap.HunkIDs {
		if f, ok := t.fileOf[id]; ok {
			cachedFiles = append(cachedFiles, f)
		} else if f, ok := filePart(id); ok {
			cachedFiles = append(cachedFiles, f)
		}
	}
	if FileOverlap(cachedFiles, t.files) < IrrelevantOverlap {
		return Irrelevant
	}
	return Stale
}

func filePart(id string) (string, bool) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == ':' {
			return id[:i], i > 0
		}
	}
	return "", false
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
