package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sprite-ai/hunkr/internal/classify"
	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/review"
	"github.com/sprite-ai/hunkr/internal/storage"
)

// referenceLimit caps the files listed per symbol in classify requests.
const referenceLimit = 5

// session is one opened review: the store, the service and the live diff.
type session struct {
	repoDir string
	store   storage.Store
	svc     *review.Service
	ds      *diff.DiffSet
}

// parseComparison reads a comparison argument. No argument means the
// working tree against HEAD.
func parseComparison(args []string) (model.Comparison, error) {
	if len(args) == 0 {
		return model.NewComparison("HEAD", "HEAD", true, false)
	}
	return model.ParseComparison(args[0])
}

func openStore() (storage.Store, error) {
	st, err := storage.Open(cfg.Store, cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store, err)
	}
	return st, nil
}

func newService(store storage.Store, repoDir string) *review.Service {
	var saver review.Saver
	if store != nil {
		saver = store
	}
	return review.New(review.Options{
		Classifier:        classify.New(cfg.Classifier.URL, cfg.Classifier.Timeout),
		Saver:             saver,
		Logger:            log,
		References:        classify.ReferenceFinder(repoDir, referenceLimit),
		DefaultTrust:      cfg.Trust.Default,
		AutoApproveStaged: cfg.Trust.AutoApproveStaged,
	})
}

// loadDiff diffs c and lists the staged files of working-tree comparisons.
func loadDiff(ctx context.Context, repoDir string, c model.Comparison) (*diff.DiffSet, []string, error) {
	ds, err := diff.Load(ctx, repoDir, c, cfg.ContextLines)
	if err != nil {
		return nil, nil, fmt.Errorf("loading diff for %s: %w", c, err)
	}
	if !c.WorkingTree {
		return ds, nil, nil
	}
	staged, err := diff.StagedFiles(ctx, repoDir)
	if err != nil {
		return nil, nil, fmt.Errorf("listing staged files: %w", err)
	}
	return ds, staged, nil
}

// openSession loads the diff of c and restores its saved review.
func openSession(ctx context.Context, c model.Comparison) (*session, error) {
	repoDir, err := gitRepoRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	ds, staged, err := loadDiff(ctx, repoDir, c)
	if err != nil {
		return nil, err
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	state, err := store.Load(ctx, c.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		state = nil
	case err != nil:
		store.Close()
		return nil, fmt.Errorf("loading review %s: %w", c, err)
	}

	svc := newService(store, repoDir)
	svc.Open(c, state, review.Diff{Hunks: ds.Hunks(), Files: ds.Entries(), Staged: staged})
	log.Debug("session opened", "comparison", c.Key, "restored", state != nil)
	return &session{repoDir: repoDir, store: store, svc: svc, ds: ds}, nil
}

func (s *session) Close() error {
	s.svc.Close()
	return s.store.Close()
}

// accepted reports whether a hunk goes into the exported patch.
func (s *session) accepted(h model.Hunk) bool {
	st := s.svc.Status(h.ID)
	return st == model.ReviewApproved || st == model.ReviewTrusted
}

func gitRepoRoot(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
