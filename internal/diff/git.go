package diff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(ctx context.Context, repoDir string, args ...string) (string, error) {
	return git(ctx, repoDir, append([]string{"diff"}, args...)...)
}

func git(ctx context.Context, repoDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return string(out), nil
}

// ComparisonArgs returns the `git diff` arguments for c. Refs follow
// --end-of-options so git never reads them as flags. Working-tree
// comparisons diff base against the working tree; their head is always HEAD.
func ComparisonArgs(c model.Comparison, contextLines int) []string {
	args := []string{fmt.Sprintf("-U%d", contextLines), "-M", "--no-color", "--no-ext-diff"}
	if c.StagedOnly {
		args = append(args, "--cached")
	}
	args = append(args, "--end-of-options")
	if c.WorkingTree {
		return append(args, c.Base)
	}
	return append(args, c.Base, c.Head)
}

// Load diffs c in repoDir. Working-tree comparisons include untracked files.
func Load(ctx context.Context, repoDir string, c model.Comparison, contextLines int) (*DiffSet, error) {
	raw, err := GitDiff(ctx, repoDir, ComparisonArgs(c, contextLines)...)
	if err != nil {
		return nil, err
	}
	ds, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if !c.WorkingTree || c.StagedOnly {
		return ds, nil
	}

	untracked, err := UntrackedFiles(ctx, repoDir)
	if err != nil {
		return nil, err
	}
	for _, p := range untracked {
		u, err := untrackedDiff(ctx, repoDir, p, contextLines)
		if err != nil {
			return nil, err
		}
		ds.Merge(u)
	}
	return ds, nil
}

// UntrackedFiles lists files git does not track and does not ignore.
func UntrackedFiles(ctx context.Context, repoDir string) ([]string, error) {
	out, err := git(ctx, repoDir, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return lines(out), nil
}

// StagedFiles lists paths with staged changes.
func StagedFiles(ctx context.Context, repoDir string) ([]string, error) {
	out, err := git(ctx, repoDir, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	return lines(out), nil
}

// untrackedDiff renders an untracked file as an addition. git exits 1 when
// --no-index finds differences, which is always the case here.
func untrackedDiff(ctx context.Context, repoDir, path string, contextLines int) (*DiffSet, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", fmt.Sprintf("-U%d", contextLines), "--no-color", "--no-index", "--", "/dev/null", path)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == 1) {
		return nil, fmt.Errorf("git diff --no-index %s: %w", path, err)
	}
	ds, err := Parse(string(out))
	if err != nil {
		return nil, err
	}
	for _, f := range ds.Files {
		f.Untracked = true
	}
	return ds, nil
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
