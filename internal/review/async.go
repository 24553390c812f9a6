package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/sprite-ai/hunkr/internal/classify"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/staleness"
)

// ErrSuperseded is returned when a collaborator answers after the active
// comparison has changed. The answer is discarded.
var ErrSuperseded = errors.New("result superseded by a comparison switch")

// Op names a collaborator operation.
type Op string

const (
	OpClassify Op = "classify"
	OpGroup    Op = "group"
	OpNarrate  Op = "narrate"
)

// OpState is the progress of the calls of an Op. Err holds the last
// failure; cached results stay in place when a refresh fails.
type OpState struct {
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// OpState returns the state of op for the active review.
func (s *Service) OpState(op Op) OpState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops[op]
}

func (s *Service) resetOpsLocked() {
	s.ops = make(map[Op]OpState)
	s.inflight = make(map[Op]int)
	s.gen++
}

// beginOp marks one more call of op in flight and returns the generation of
// the review it belongs to.
func (s *Service) beginOp(op Op) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return 0, false
	}
	s.inflight[op]++
	st := s.ops[op]
	st.Loading = true
	s.ops[op] = st
	return s.gen, true
}

// endOp finishes a call started by beginOp. Loading stays set while other
// calls of op are running. A nil err clears the recorded failure.
func (s *Service) endOp(gen uint64, op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if s.inflight[op] > 0 {
		s.inflight[op]--
	}
	st := OpState{Loading: s.inflight[op] > 0}
	if err != nil {
		st.Err = err.Error()
	}
	s.ops[op] = st
}

// Verdict grades the cached result of op against the live hunks. A missing
// result is reported as not cached.
func (s *Service) Verdict(op Op) (v staleness.Verdict, cached bool) {
	snap, ok := cachedSnapshot(s.State(), op)
	if !ok {
		return staleness.Stale, false
	}
	return s.Tracker().Assess(snap), true
}

func cachedSnapshot(st *model.ReviewState, op Op) (model.Snapshot, bool) {
	if st == nil {
		return model.Snapshot{}, false
	}
	switch op {
	case OpClassify:
		if st.Classification != nil {
			return st.Classification.Snapshot, true
		}
	case OpGroup:
		if st.Guide != nil {
			return st.Guide.Snapshot, true
		}
	case OpNarrate:
		if st.Narrative != nil {
			return st.Narrative.Snapshot, true
		}
	}
	return model.Snapshot{}, false
}

// run drives one collaborator call. It skips the call when a fresh result is
// cached and force is false, and discards the answer when the comparison
// changed while the call was in flight.
func (s *Service) run(ctx context.Context, op Op, force bool, call func(context.Context, classify.Request) (Action, error)) (bool, error) {
	v := s.view()
	if v == nil {
		return false, ErrNoReview
	}
	if s.opts.Classifier == nil {
		return false, fmt.Errorf("%s: %w", op, classify.ErrUnavailable)
	}
	if snap, ok := cachedSnapshot(v.state, op); ok && !force {
		if !staleness.New(v.diff.Hunks, v.previous...).IsStale(snap) {
			return false, nil
		}
	}

	key := v.state.Comparison.Key
	gen, ok := s.beginOp(op)
	if !ok {
		return false, ErrNoReview
	}

	req := classify.NewRequest(v.diff.Hunks, v.state, s.opts.References)
	act, err := call(ctx, req)

	if cur, ok := s.Comparison(); !ok || cur.Key != key {
		s.log.Debug("discarding collaborator result", "op", op, "comparison", key)
		s.endOp(gen, op, nil)
		return false, ErrSuperseded
	}
	if err != nil {
		s.log.Warn("collaborator call failed", "op", op, "comparison", key, "error", err)
		s.endOp(gen, op, err)
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.write.Lock()
	defer s.write.Unlock()
	if cur, ok := s.Comparison(); !ok || cur.Key != key {
		s.endOp(gen, op, nil)
		return false, ErrSuperseded
	}
	if _, err := s.dispatchLocked(ctx, act); err != nil {
		s.endOp(gen, op, err)
		return false, err
	}
	s.endOp(gen, op, nil)
	return true, nil
}

// Classify labels the live hunks. It reports whether new labels were stored.
func (s *Service) Classify(ctx context.Context, force bool) (bool, error) {
	return s.run(ctx, OpClassify, force, func(ctx context.Context, req classify.Request) (Action, error) {
		labels, err := s.opts.Classifier.Classify(ctx, req)
		if err != nil {
			return nil, err
		}
		return SetLabels(labels, model.NewSnapshot(itemIDs(req), s.opts.Now())), nil
	})
}

// Group orders the live hunks into a guide.
func (s *Service) Group(ctx context.Context, force bool) (bool, error) {
	return s.run(ctx, OpGroup, force, func(ctx context.Context, req classify.Request) (Action, error) {
		groups, err := s.opts.Classifier.Group(ctx, req)
		if err != nil {
			return nil, err
		}
		return SetGuide(groups, model.NewSnapshot(itemIDs(req), s.opts.Now())), nil
	})
}

// Narrate writes a summary of the live hunks.
func (s *Service) Narrate(ctx context.Context, force bool) (bool, error) {
	return s.run(ctx, OpNarrate, force, func(ctx context.Context, req classify.Request) (Action, error) {
		text, err := s.opts.Classifier.Narrate(ctx, req)
		if err != nil {
			return nil, err
		}
		return SetNarrative(text, model.NewSnapshot(itemIDs(req), s.opts.Now())), nil
	})
}

func itemIDs(req classify.Request) []string {
	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ID
	}
	return ids
}
