package review

import (
	"context"
	"fmt"

	"github.com/sprite-ai/hunkr/internal/fingerprint"
	"github.com/sprite-ai/hunkr/internal/model"
)

// known fails with ErrUnknownHunk unless every id is a live hunk.
func (v *view) known(ids []string) error {
	for _, id := range ids {
		if _, ok := v.byID[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHunk, id)
		}
	}
	return nil
}

func (s *Service) mark(ctx context.Context, ids []string, act func(...string) Action) (*model.ReviewState, error) {
	s.write.Lock()
	defer s.write.Unlock()
	v := s.view()
	if v == nil {
		return nil, ErrNoReview
	}
	if err := v.known(ids); err != nil {
		return v.state, err
	}
	return s.dispatchLocked(ctx, act(ids...))
}

// Approve approves hunks that have no explicit status.
func (s *Service) Approve(ctx context.Context, ids ...string) (*model.ReviewState, error) {
	return s.mark(ctx, ids, Approve)
}

// Reject rejects hunks that have no explicit status.
func (s *Service) Reject(ctx context.Context, ids ...string) (*model.ReviewState, error) {
	return s.mark(ctx, ids, Reject)
}

// SaveForLater parks hunks that have no explicit status.
func (s *Service) SaveForLater(ctx context.Context, ids ...string) (*model.ReviewState, error) {
	return s.mark(ctx, ids, SaveForLater)
}

// Clear returns hunks to pending or trusted.
func (s *Service) Clear(ctx context.Context, ids ...string) (*model.ReviewState, error) {
	return s.mark(ctx, ids, Clear)
}

// Toggle applies status to id, or clears it when id already has status. It
// is the single-key action of interactive front ends.
func (s *Service) Toggle(ctx context.Context, id string, status model.HunkStatus) (*model.ReviewState, error) {
	s.write.Lock()
	defer s.write.Unlock()
	v := s.view()
	if v == nil {
		return nil, ErrNoReview
	}
	if err := v.known([]string{id}); err != nil {
		return v.state, err
	}
	if v.state.Hunk(id).Status == status {
		return s.dispatchLocked(ctx, Clear(id))
	}
	return s.dispatchLocked(ctx, setStatus(status, []string{id}))
}

// fileIDs returns the ids of the live hunks of filePath.
func (v *view) fileIDs(filePath string) []string {
	var ids []string
	for _, h := range v.diff.Hunks {
		if h.FilePath == filePath {
			ids = append(ids, h.ID)
		}
	}
	return ids
}

func (s *Service) bulk(ctx context.Context, pick func(v *view) ([]string, error), act func(...string) Action) (*model.ReviewState, error) {
	s.write.Lock()
	defer s.write.Unlock()
	v := s.view()
	if v == nil {
		return nil, ErrNoReview
	}
	ids, err := pick(v)
	if err != nil {
		return v.state, err
	}
	if len(ids) == 0 {
		return v.state, nil
	}
	return s.dispatchLocked(ctx, act(ids...))
}

// ApproveFile approves every hunk of filePath.
func (s *Service) ApproveFile(ctx context.Context, filePath string) (*model.ReviewState, error) {
	return s.bulk(ctx, func(v *view) ([]string, error) { return v.fileIDs(filePath), nil }, BulkApprove)
}

// RejectFile rejects every hunk of filePath.
func (s *Service) RejectFile(ctx context.Context, filePath string) (*model.ReviewState, error) {
	return s.bulk(ctx, func(v *view) ([]string, error) { return v.fileIDs(filePath), nil }, BulkReject)
}

// ApproveIdentical approves id and every hunk with the same changes.
func (s *Service) ApproveIdentical(ctx context.Context, id string) (*model.ReviewState, error) {
	return s.bulk(ctx, func(v *view) ([]string, error) {
		if err := v.known([]string{id}); err != nil {
			return nil, err
		}
		return append([]string{id}, v.identical[id]...), nil
	}, BulkApprove)
}

// ApproveGroup approves the live hunks of guide group i.
func (s *Service) ApproveGroup(ctx context.Context, i int) (*model.ReviewState, error) {
	return s.bulk(ctx, func(v *view) ([]string, error) {
		g := v.state.Guide
		if g == nil || i < 0 || i >= len(g.Groups) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownGroup, i)
		}
		var ids []string
		for _, id := range g.Groups[i].HunkIDs {
			if _, ok := v.byID[id]; ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}, BulkApprove)
}

// ApproveMovePair approves a moved hunk together with its partner. A missing
// partner approves only id.
func (s *Service) ApproveMovePair(ctx context.Context, id string) (*model.ReviewState, error) {
	return s.bulk(ctx, func(v *view) ([]string, error) {
		h, ok := v.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHunk, id)
		}
		ids := []string{id}
		if p, ok := fingerprint.MovePair(h, v.byID); ok {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}, BulkApprove)
}

// RejectAll rejects every live hunk.
func (s *Service) RejectAll(ctx context.Context) (*model.ReviewState, error) {
	return s.bulk(ctx, func(v *view) ([]string, error) { return model.HunkIDs(v.diff.Hunks), nil }, BulkReject)
}

// Reset clears every explicit status of the review.
func (s *Service) Reset(ctx context.Context) (*model.ReviewState, error) {
	return s.Dispatch(ctx, ResetStatuses())
}

// AddTrust adds patterns to the trust list.
func (s *Service) AddTrust(ctx context.Context, patterns ...string) (*model.ReviewState, error) {
	return s.Dispatch(ctx, AddTrust(patterns...))
}

// RemoveTrust removes patterns from the trust list.
func (s *Service) RemoveTrust(ctx context.Context, patterns ...string) (*model.ReviewState, error) {
	return s.Dispatch(ctx, RemoveTrust(patterns...))
}

// SetAutoApproveStaged toggles the staged override.
func (s *Service) SetAutoApproveStaged(ctx context.Context, on bool) (*model.ReviewState, error) {
	return s.Dispatch(ctx, SetAutoApproveStaged(on))
}

// Annotate adds a note on a line of filePath and returns it.
func (s *Service) Annotate(ctx context.Context, filePath string, line int, side, content string) (model.Annotation, error) {
	a := model.Annotation{FilePath: filePath, LineNumber: line, Side: side, Content: content}
	next, err := s.Dispatch(ctx, AddAnnotation(a, s.opts.Now()))
	if err != nil {
		return model.Annotation{}, err
	}
	return next.Annotations[len(next.Annotations)-1], nil
}

// RemoveAnnotation deletes a note.
func (s *Service) RemoveAnnotation(ctx context.Context, id string) (*model.ReviewState, error) {
	return s.Dispatch(ctx, RemoveAnnotation(id))
}
