// Package review holds the live review of one comparison: the hunks of the
// current diff and the ReviewState recorded against them.
//
// State is copy-on-write. Every mutation runs reducers over a clone and swaps
// the published pointer, so readers never observe a partial update. Values
// returned by Service must be treated as read-only.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sprite-ai/hunkr/internal/aggregate"
	"github.com/sprite-ai/hunkr/internal/classify"
	"github.com/sprite-ai/hunkr/internal/fingerprint"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/staleness"
	"github.com/sprite-ai/hunkr/internal/trust"
)

// ErrNoReview is returned by operations that need an open comparison.
var ErrNoReview = errors.New("no review open")

// Saver persists a state and returns the stored copy.
type Saver interface {
	Save(ctx context.Context, s *model.ReviewState) (*model.ReviewState, error)
}

// Options configures a Service. Every field is optional.
type Options struct {
	Classifier classify.Service
	Saver      Saver
	Logger     *slog.Logger
	Now        func() time.Time
	// References resolves files referencing a symbol for classify requests.
	References func(filePath, symbol string) []string
	// DefaultTrust seeds the trust list of newly created states.
	DefaultTrust []string
	// AutoApproveStaged seeds the staged override of newly created states.
	AutoApproveStaged bool
}

// Diff is the live diff of a comparison.
type Diff struct {
	Hunks  []model.Hunk
	Files  []model.FileEntry
	Staged []string
}

// view is one published, immutable snapshot of the service.
type view struct {
	state     *model.ReviewState
	diff      Diff
	byID      map[string]model.Hunk
	identical map[string][]string
	previous  []model.Hunk
	eval      *trust.Evaluator
}

func newView(state *model.ReviewState, d Diff, previous []model.Hunk) *view {
	v := &view{
		state:     state,
		diff:      d,
		byID:      make(map[string]model.Hunk, len(d.Hunks)),
		identical: fingerprint.IdenticalIndex(d.Hunks),
		previous:  previous,
	}
	for _, h := range d.Hunks {
		v.byID[h.ID] = h
	}
	v.eval = trust.ForState(state, d.Staged)
	return v
}

// withState shares everything but the state and the evaluator derived from it.
func (v *view) withState(s *model.ReviewState) *view {
	n := *v
	n.state = s
	n.eval = trust.ForState(s, v.diff.Staged)
	return &n
}

// Service is the explicit container for the active review.
type Service struct {
	opts Options
	log  *slog.Logger

	// write serializes mutations, including their persistence.
	write sync.Mutex

	mu  sync.RWMutex
	cur *view
	ops map[Op]OpState
	// inflight counts running calls per op; gen changes on every Open and
	// Close so calls from a replaced review leave the counts alone.
	inflight map[Op]int
	gen      uint64
}

// New returns an empty Service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{opts: opts, log: opts.Logger, ops: make(map[Op]OpState), inflight: make(map[Op]int)}
}

func (s *Service) view() *view {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Service) publish(v *view) {
	s.mu.Lock()
	s.cur = v
	s.mu.Unlock()
}

// Open makes state the active review over d, replacing any previous review
// wholesale. A nil state starts a fresh review of c seeded from Options.
func (s *Service) Open(c model.Comparison, state *model.ReviewState, d Diff) {
	s.write.Lock()
	defer s.write.Unlock()

	if state == nil {
		state = model.NewReviewState(c, s.opts.Now())
		state.TrustList = normalize(s.opts.DefaultTrust)
		state.AutoApproveStaged = s.opts.AutoApproveStaged
	} else {
		state = state.Clone()
	}
	if state.Hunks == nil {
		state.Hunks = make(map[string]model.HunkState)
	}

	s.mu.Lock()
	s.cur = newView(state, d, nil)
	s.resetOpsLocked()
	s.mu.Unlock()
	s.log.Debug("review opened", "comparison", c.Key, "hunks", len(d.Hunks), "files", len(d.Files))
}

// Refresh replaces the live diff of the open review. The outgoing hunks are
// kept to resolve files of stale snapshots.
func (s *Service) Refresh(d Diff) error {
	s.write.Lock()
	defer s.write.Unlock()
	v := s.view()
	if v == nil {
		return ErrNoReview
	}
	s.publish(newView(v.state, d, v.diff.Hunks))
	return nil
}

// Close forgets the active review.
func (s *Service) Close() {
	s.write.Lock()
	defer s.write.Unlock()
	s.mu.Lock()
	s.cur = nil
	s.resetOpsLocked()
	s.mu.Unlock()
}

// Dispatch applies acts atomically, persists the result when a Saver is
// configured and publishes it. On any error the published state is left
// unchanged.
func (s *Service) Dispatch(ctx context.Context, acts ...Action) (*model.ReviewState, error) {
	s.write.Lock()
	defer s.write.Unlock()
	return s.dispatchLocked(ctx, acts...)
}

func (s *Service) dispatchLocked(ctx context.Context, acts ...Action) (*model.ReviewState, error) {
	v := s.view()
	if v == nil {
		return nil, ErrNoReview
	}
	next, err := Apply(v.state, acts...)
	if err != nil {
		return v.state, err
	}
	next.UpdatedAt = s.opts.Now()
	if s.opts.Saver != nil {
		saved, err := s.opts.Saver.Save(ctx, next)
		if err != nil {
			return v.state, fmt.Errorf("saving review %s: %w", next.Comparison.Key, err)
		}
		next = saved
	}
	s.publish(v.withState(next))
	return next, nil
}

// Comparison returns the active comparison.
func (s *Service) Comparison() (model.Comparison, bool) {
	v := s.view()
	if v == nil {
		return model.Comparison{}, false
	}
	return v.state.Comparison, true
}

// State returns the published state, nil when no review is open.
func (s *Service) State() *model.ReviewState {
	if v := s.view(); v != nil {
		return v.state
	}
	return nil
}

// Hunks returns the live hunks in diff order.
func (s *Service) Hunks() []model.Hunk {
	if v := s.view(); v != nil {
		return v.diff.Hunks
	}
	return nil
}

// Files returns the changed files of the live diff.
func (s *Service) Files() []model.FileEntry {
	if v := s.view(); v != nil {
		return v.diff.Files
	}
	return nil
}

// Hunk looks up a live hunk.
func (s *Service) Hunk(id string) (model.Hunk, bool) {
	v := s.view()
	if v == nil {
		return model.Hunk{}, false
	}
	h, ok := v.byID[id]
	return h, ok
}

// Status is the review status of hunk id. Unknown ids are pending.
func (s *Service) Status(id string) model.ReviewStatus {
	v := s.view()
	if v == nil {
		return model.ReviewPending
	}
	h := v.byID[id]
	return v.eval.Status(h.FilePath, v.state.Hunk(id))
}

// TrustReason explains why hunk id is trusted.
func (s *Service) TrustReason(id string) (string, bool) {
	v := s.view()
	if v == nil {
		return "", false
	}
	h, ok := v.byID[id]
	if !ok {
		return "", false
	}
	return v.eval.Reason(h.FilePath, v.state.Hunk(id))
}

// FileStatus counts review buckets per file.
func (s *Service) FileStatus() map[string]model.FileHunkStatus {
	v := s.view()
	if v == nil {
		return map[string]model.FileHunkStatus{}
	}
	return aggregate.FileStatus(v.diff.Hunks, v.state, v.eval)
}

// Tree returns the compacted directory tree with rolled-up counts.
func (s *Service) Tree() *aggregate.Node {
	v := s.view()
	if v == nil {
		return aggregate.BuildTree(nil, nil)
	}
	counts := aggregate.FileStatus(v.diff.Hunks, v.state, v.eval)
	return aggregate.Compact(aggregate.BuildTree(v.diff.Files, counts))
}

// Progress summarizes the whole review.
func (s *Service) Progress() aggregate.Progress {
	return aggregate.Summarize(s.FileStatus())
}

// IdenticalTo returns the other hunks with the same changes as id.
func (s *Service) IdenticalTo(id string) []string {
	v := s.view()
	if v == nil {
		return nil
	}
	return slices.Clone(v.identical[id])
}

// MovePair returns the live partner of a moved hunk.
func (s *Service) MovePair(id string) (model.Hunk, bool) {
	v := s.view()
	if v == nil {
		return model.Hunk{}, false
	}
	h, ok := v.byID[id]
	if !ok {
		return model.Hunk{}, false
	}
	return fingerprint.MovePair(h, v.byID)
}

// TrustedHunkCount previews how many hunks without an explicit status
// pattern alone would trust.
func (s *Service) TrustedHunkCount(p string) int {
	v := s.view()
	if v == nil {
		return 0
	}
	ev := trust.New([]string{p}, trust.Options{})
	n := 0
	for _, h := range v.diff.Hunks {
		if ev.IsTrusted(h.FilePath, v.state.Hunk(h.ID)) {
			n++
		}
	}
	return n
}

// Annotations returns the annotations of filePath ordered by line. Entries
// that cannot be positioned are dropped with a warning.
func (s *Service) Annotations(filePath string) []model.Annotation {
	v := s.view()
	if v == nil {
		return nil
	}
	var out []model.Annotation
	for _, a := range v.state.Annotations {
		if a.FilePath != filePath {
			continue
		}
		if a.LineNumber <= 0 {
			s.log.Warn("dropping annotation with invalid line", "id", a.ID, "file", a.FilePath, "line", a.LineNumber)
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b model.Annotation) int { return a.LineNumber - b.LineNumber })
	return out
}

// Tracker returns a staleness tracker over the live hunks.
func (s *Service) Tracker() *staleness.Tracker {
	v := s.view()
	if v == nil {
		return staleness.New(nil)
	}
	return staleness.New(v.diff.Hunks, v.previous...)
}
