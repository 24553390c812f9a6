// Package trust decides whether a hunk without an explicit review status is
// implicitly approved.
//
// Precedence is fixed: an explicit status always wins, then a label matching
// the trust list, then the staged-file override when auto-approve of staged
// files is enabled.
package trust

import (
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/pattern"
)

// Options carries the secondary trust source.
type Options struct {
	AutoApproveStaged bool
	StagedFilePaths   map[string]struct{}
}

// StagedOptions builds Options from a list of staged paths.
func StagedOptions(enabled bool, staged []string) Options {
	o := Options{AutoApproveStaged: enabled, StagedFilePaths: make(map[string]struct{}, len(staged))}
	for _, p := range staged {
		o.StagedFilePaths[p] = struct{}{}
	}
	return o
}

func (o Options) staged(path string) bool {
	if !o.AutoApproveStaged || o.StagedFilePaths == nil {
		return false
	}
	_, ok := o.StagedFilePaths[path]
	return ok
}

// Evaluator answers trust queries against one compiled trust list.
type Evaluator struct {
	patterns pattern.Set
	opts     Options
}

// New compiles trustList for repeated evaluation.
func New(trustList []string, opts Options) *Evaluator {
	return &Evaluator{patterns: pattern.NewSet(trustList), opts: opts}
}

// ForState builds an evaluator from a review state's trust list and its
// auto-approve-staged preference.
func ForState(s *model.ReviewState, staged []string) *Evaluator {
	if s == nil {
		return New(nil, Options{})
	}
	return New(s.TrustList, StagedOptions(s.AutoApproveStaged, staged))
}

// IsTrusted is the one-shot form of Evaluator.IsTrusted.
func IsTrusted(filePath string, hs model.HunkState, trustList []string, opts Options) bool {
	return New(trustList, opts).IsTrusted(filePath, hs)
}

// IsTrusted reports whether a hunk of filePath in state hs is trusted.
func (e *Evaluator) IsTrusted(filePath string, hs model.HunkState) bool {
	if _, explicit := model.ExplicitReview(hs.Status); explicit {
		return false
	}
	if e.patterns.MatchAnyLabel(hs.Label) {
		return true
	}
	return e.opts.staged(filePath)
}

// Status resolves the review status of a hunk, deriving Trusted or Pending
// when no explicit status is set.
func (e *Evaluator) Status(filePath string, hs model.HunkState) model.ReviewStatus {
	if r, explicit := model.ExplicitReview(hs.Status); explicit {
		return r
	}
	if e.IsTrusted(filePath, hs) {
		return model.ReviewTrusted
	}
	return model.ReviewPending
}

// Reason explains why a hunk is trusted: the first matching pattern in list
// order, or "staged" for the staged-file override. ok is false when the hunk
// is not trusted.
func (e *Evaluator) Reason(filePath string, hs model.HunkState) (reason string, ok bool) {
	if _, explicit := model.ExplicitReview(hs.Status); explicit {
		return "", false
	}
	for _, l := range hs.Label {
		if p, ok := e.patterns.FirstMatch(l); ok {
			return p, true
		}
	}
	if e.opts.staged(filePath) {
		return "staged", true
	}
	return "", false
}
