package review

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sprite-ai/hunkr/internal/model"
)

var (
	// ErrInvalidTransition is returned when a status change skips the
	// required "clear first" step, e.g. approved -> rejected.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownHunk is returned for hunk ids absent from the live diff.
	ErrUnknownHunk = errors.New("unknown hunk")
	// ErrInvalidAnnotation is returned for annotations that cannot be
	// positioned.
	ErrInvalidAnnotation = errors.New("invalid annotation")
	// ErrUnknownAnnotation is returned when removing a missing annotation.
	ErrUnknownAnnotation = errors.New("unknown annotation")
	// ErrUnknownGroup is returned for guide group indexes out of range.
	ErrUnknownGroup = errors.New("unknown guide group")
)

// Action is a reducer step. It mutates the state it is given, which is
// always a private clone owned by Apply.
type Action func(s *model.ReviewState) error

// Apply runs acts over a clone of s and returns the clone. s itself is never
// modified; on error it is returned unchanged along with the error.
func Apply(s *model.ReviewState, acts ...Action) (*model.ReviewState, error) {
	next := s.Clone()
	if next.Hunks == nil {
		next.Hunks = make(map[string]model.HunkState)
	}
	for _, act := range acts {
		if err := act(next); err != nil {
			return s, err
		}
	}
	return next, nil
}

// setStatus moves ids to status. A hunk may only move between "no status"
// and an explicit status; setting the status it already has is a no-op.
func setStatus(status model.HunkStatus, ids []string) Action {
	return func(s *model.ReviewState) error {
		for _, id := range ids {
			hs := s.Hunks[id]
			if hs.Status != model.StatusNone && hs.Status != status {
				return fmt.Errorf("%w: %s is %s, clear it before marking %s", ErrInvalidTransition, id, hs.Status, status)
			}
		}
		for _, id := range ids {
			hs := s.Hunks[id]
			hs.Status = status
			s.Hunks[id] = hs
		}
		return nil
	}
}

// Approve marks hunks approved.
func Approve(ids ...string) Action { return setStatus(model.StatusApproved, ids) }

// Reject marks hunks rejected.
func Reject(ids ...string) Action { return setStatus(model.StatusRejected, ids) }

// SaveForLater parks hunks for a later pass.
func SaveForLater(ids ...string) Action { return setStatus(model.StatusSavedForLater, ids) }

// clearStatus returns hunks to the derived pending/trusted state. When only
// is set, hunks must currently have that status.
func clearStatus(only model.HunkStatus, ids []string) Action {
	return func(s *model.ReviewState) error {
		for _, id := range ids {
			hs, ok := s.Hunks[id]
			if only != model.StatusNone && hs.Status != only {
				return fmt.Errorf("%w: %s is not %s", ErrInvalidTransition, id, only)
			}
			if !ok {
				continue
			}
			hs.Status = model.StatusNone
			if len(hs.Label) == 0 {
				delete(s.Hunks, id)
			} else {
				s.Hunks[id] = hs
			}
		}
		return nil
	}
}

// Clear removes any explicit status from hunks.
func Clear(ids ...string) Action { return clearStatus(model.StatusNone, ids) }

// Unapprove clears hunks that are approved.
func Unapprove(ids ...string) Action { return clearStatus(model.StatusApproved, ids) }

// Unreject clears hunks that are rejected.
func Unreject(ids ...string) Action { return clearStatus(model.StatusRejected, ids) }

// Unsave clears hunks that are saved for later.
func Unsave(ids ...string) Action { return clearStatus(model.StatusSavedForLater, ids) }

// overwrite sets status on every id regardless of its previous status.
func overwrite(status model.HunkStatus, ids []string) Action {
	return func(s *model.ReviewState) error {
		for _, id := range ids {
			hs := s.Hunks[id]
			hs.Status = status
			s.Hunks[id] = hs
		}
		return nil
	}
}

// BulkApprove approves every id, overwriting rejected and saved hunks.
//
// TODO: decide whether bulk approve should skip rejected hunks instead of
// silently overturning them.
func BulkApprove(ids ...string) Action { return overwrite(model.StatusApproved, ids) }

// BulkReject rejects every id, overwriting any previous status.
func BulkReject(ids ...string) Action { return overwrite(model.StatusRejected, ids) }

// ResetStatuses clears every explicit status. Labels are kept.
func ResetStatuses() Action {
	return func(s *model.ReviewState) error {
		for id, hs := range s.Hunks {
			if len(hs.Label) == 0 {
				delete(s.Hunks, id)
				continue
			}
			hs.Status = model.StatusNone
			s.Hunks[id] = hs
		}
		return nil
	}
}

// AddTrust adds patterns to the trust list. The list is kept sorted and
// free of duplicates.
func AddTrust(patterns ...string) Action {
	return func(s *model.ReviewState) error {
		for _, p := range patterns {
			if p == "" {
				return errors.New("empty trust pattern")
			}
		}
		s.TrustList = normalize(append(s.TrustList, patterns...))
		return nil
	}
}

// RemoveTrust drops patterns from the trust list. Missing patterns are
// ignored.
func RemoveTrust(patterns ...string) Action {
	return func(s *model.ReviewState) error {
		s.TrustList = slices.DeleteFunc(s.TrustList, func(p string) bool {
			return slices.Contains(patterns, p)
		})
		s.TrustList = normalize(s.TrustList)
		return nil
	}
}

// SetTrustList replaces the trust list.
func SetTrustList(patterns []string) Action {
	return func(s *model.ReviewState) error {
		s.TrustList = normalize(slices.Clone(patterns))
		return nil
	}
}

func normalize(patterns []string) []string {
	out := slices.DeleteFunc(slices.Clone(patterns), func(p string) bool { return p == "" })
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}

// SetAutoApproveStaged toggles the staged-file trust override.
func SetAutoApproveStaged(on bool) Action {
	return func(s *model.ReviewState) error {
		s.AutoApproveStaged = on
		return nil
	}
}

// SetLabels records a classification run: labels per hunk id plus the hunk
// ids it was computed over. Hunks classified in the run but missing from
// labels lose their old labels.
func SetLabels(labels map[string][]string, snap model.Snapshot) Action {
	return func(s *model.ReviewState) error {
		for _, id := range snap.HunkIDs {
			hs := s.Hunks[id]
			hs.Label = nil
			if l := labels[id]; len(l) > 0 {
				hs.Label = slices.Clone(l)
			}
			if hs.Status == model.StatusNone && len(hs.Label) == 0 {
				delete(s.Hunks, id)
				continue
			}
			s.Hunks[id] = hs
		}
		s.Classification = &model.Classification{Snapshot: snap}
		return nil
	}
}

// ClearClassification drops every label and the classification snapshot.
func ClearClassification() Action {
	return func(s *model.ReviewState) error {
		for id, hs := range s.Hunks {
			if hs.Status == model.StatusNone {
				delete(s.Hunks, id)
				continue
			}
			hs.Label = nil
			s.Hunks[id] = hs
		}
		s.Classification = nil
		return nil
	}
}

// SetGuide caches a grouping result.
func SetGuide(groups []model.HunkGroup, snap model.Snapshot) Action {
	return func(s *model.ReviewState) error {
		g := &model.Guide{Groups: make([]model.HunkGroup, len(groups)), Snapshot: snap}
		for i, grp := range groups {
			grp.HunkIDs = slices.Clone(grp.HunkIDs)
			g.Groups[i] = grp
		}
		s.Guide = g
		return nil
	}
}

// ClearGuide drops the cached grouping.
func ClearGuide() Action {
	return func(s *model.ReviewState) error {
		s.Guide = nil
		return nil
	}
}

// SetNarrative caches a prose summary.
func SetNarrative(text string, snap model.Snapshot) Action {
	return func(s *model.ReviewState) error {
		s.Narrative = &model.Narrative{Text: text, Snapshot: snap}
		return nil
	}
}

// ClearNarrative drops the cached summary.
func ClearNarrative() Action {
	return func(s *model.ReviewState) error {
		s.Narrative = nil
		return nil
	}
}

// SetFreshness records the result of a freshness check.
func SetFreshness(f *model.Freshness) Action {
	return func(s *model.ReviewState) error {
		if f == nil {
			s.Freshness = nil
			return nil
		}
		c := *f
		s.Freshness = &c
		return nil
	}
}

// AddAnnotation appends a note. An empty id is filled with a new UUID and a
// zero CreatedAt with at.
func AddAnnotation(a model.Annotation, at time.Time) Action {
	return func(s *model.ReviewState) error {
		if a.LineNumber <= 0 {
			return fmt.Errorf("%w: line %d in %s", ErrInvalidAnnotation, a.LineNumber, a.FilePath)
		}
		if a.FilePath == "" {
			return fmt.Errorf("%w: missing file path", ErrInvalidAnnotation)
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = at
		}
		s.Annotations = append(s.Annotations, a)
		return nil
	}
}

// RemoveAnnotation deletes the annotation with id.
func RemoveAnnotation(id string) Action {
	return func(s *model.ReviewState) error {
		i := slices.IndexFunc(s.Annotations, func(a model.Annotation) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownAnnotation, id)
		}
		s.Annotations = slices.Delete(s.Annotations, i, i+1)
		return nil
	}
}
