// Package freshness checks whether saved reviews still have anything to
// review, without loading their full diffs.
package freshness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/hunkr/internal/model"
)

// DefaultConcurrency bounds parallel git calls when none is configured.
const DefaultConcurrency = 4

// DiffStats is a lightweight summary of a diff.
type DiffStats struct {
	FileCount int `json:"fileCount"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// NonEmpty reports whether the diff has any content.
func (d DiffStats) NonEmpty() bool {
	return d.FileCount > 0 || d.Additions > 0 || d.Deletions > 0
}

// Git is the subset of git the checker needs.
type Git interface {
	// ResolveCommit returns the commit id ref currently points at.
	ResolveCommit(ctx context.Context, ref string) (string, error)
	// DiffStats summarizes the diff of c.
	DiffStats(ctx context.Context, c model.Comparison) (DiffStats, error)
}

// Review is a saved review to check.
type Review struct {
	Comparison model.Comparison
	Cached     *model.Freshness
}

// Result is the outcome for one review. Err is set when git failed; the
// cached answer is reported in that case.
type Result struct {
	Key       string     `json:"key"`
	IsActive  bool       `json:"isActive"`
	SourceRef string     `json:"sourceRef"`
	TargetRef string     `json:"targetRef"`
	DiffStats *DiffStats `json:"diffStats,omitempty"`
	Refetched bool       `json:"refetched"`
	Err       string     `json:"error,omitempty"`
}

// Freshness converts r into the record cached on a ReviewState.
func (r Result) Freshness(at time.Time) *model.Freshness {
	return &model.Freshness{
		SourceCommit: r.SourceRef,
		TargetCommit: r.TargetRef,
		IsActive:     r.IsActive,
		CheckedAt:    at,
	}
}

// Checker runs freshness checks against a Git collaborator.
type Checker struct {
	git         Git
	concurrency int
	logger      *slog.Logger
}

// NewChecker returns a Checker. concurrency <= 0 uses DefaultConcurrency.
func NewChecker(git Git, concurrency int, logger *slog.Logger) *Checker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{git: git, concurrency: concurrency, logger: logger}
}

// Check evaluates every review and returns results in input order. Per-review
// git failures are reported in Result.Err; only context cancellation fails
// the batch.
func (c *Checker) Check(ctx context.Context, reviews []Review) ([]Result, error) {
	results := make([]Result, len(reviews))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, r := range reviews {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.checkOne(ctx, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("checking freshness: %w", err)
	}
	return results, nil
}

func (c *Checker) checkOne(ctx context.Context, r Review) Result {
	res := Result{Key: r.Comparison.Key}
	if r.Cached != nil {
		res.IsActive = r.Cached.IsActive
		res.SourceRef = r.Cached.SourceCommit
		res.TargetRef = r.Cached.TargetCommit
	}

	fail := func(err error) Result {
		c.logger.WarnContext(ctx, "freshness check failed", "key", res.Key, "error", err)
		res.Err = err.Error()
		return res
	}

	src, err := c.git.ResolveCommit(ctx, r.Comparison.Base)
	if err != nil {
		return fail(fmt.Errorf("resolving %s: %w", r.Comparison.Base, err))
	}
	tgt, err := c.git.ResolveCommit(ctx, r.Comparison.Head)
	if err != nil {
		return fail(fmt.Errorf("resolving %s: %w", r.Comparison.Head, err))
	}

	// Working-tree changes are invisible to commit ids.
	unchanged := r.Cached != nil && !r.Comparison.WorkingTree &&
		r.Cached.SourceCommit == src && r.Cached.TargetCommit == tgt
	if unchanged {
		return res
	}

	stats, err := c.git.DiffStats(ctx, r.Comparison)
	if err != nil {
		return fail(fmt.Errorf("diff stats for %s: %w", res.Key, err))
	}
	res.SourceRef = src
	res.TargetRef = tgt
	res.DiffStats = &stats
	res.IsActive = stats.NonEmpty()
	res.Refetched = true
	c.logger.DebugContext(ctx, "freshness refetched", "key", res.Key, "active", res.IsActive)
	return res
}
