package freshness

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Repo is a Git backed by go-git for ref resolution and committed diffs, and
// the git binary for working-tree diffs.
type Repo struct {
	dir  string
	repo *git.Repository
}

// OpenRepo opens the repository containing dir.
func OpenRepo(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return &Repo{dir: dir, repo: r}, nil
}

// ResolveCommit implements Git.
func (r *Repo) ResolveCommit(_ context.Context, ref string) (string, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// DiffStats implements Git.
func (r *Repo) DiffStats(ctx context.Context, c model.Comparison) (DiffStats, error) {
	if c.WorkingTree {
		return r.shortstat(ctx, c)
	}
	from, err := r.commit(c.Base)
	if err != nil {
		return DiffStats{}, err
	}
	to, err := r.commit(c.Head)
	if err != nil {
		return DiffStats{}, err
	}
	patch, err := from.PatchContext(ctx, to)
	if err != nil {
		return DiffStats{}, fmt.Errorf("diffing %s..%s: %w", c.Base, c.Head, err)
	}
	var s DiffStats
	for _, fs := range patch.Stats() {
		s.FileCount++
		s.Additions += fs.Addition
		s.Deletions += fs.Deletion
	}
	return s, nil
}

func (r *Repo) commit(ref string) (*object.Commit, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	c, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", h, err)
	}
	return c, nil
}

// shortstatArgs returns the git arguments summarizing a working-tree
// comparison. The ref follows --end-of-options.
func shortstatArgs(c model.Comparison) []string {
	args := []string{"diff", "--shortstat"}
	if c.StagedOnly {
		args = append(args, "--cached")
	}
	return append(args, "--end-of-options", c.Base)
}

func (r *Repo) shortstat(ctx context.Context, c model.Comparison) (DiffStats, error) {
	cmd := exec.CommandContext(ctx, "git", shortstatArgs(c)...)
	cmd.Dir = r.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return DiffStats{}, fmt.Errorf("git diff --shortstat: %s: %w", stderr.String(), err)
	}
	return ParseShortstat(string(out)), nil
}

var (
	filesRe = regexp.MustCompile(`(\d+) files? changed`)
	insRe   = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	delRe   = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// ParseShortstat reads the summary line printed by git diff --shortstat.
// Empty output means an empty diff.
func ParseShortstat(s string) DiffStats {
	num := func(re *regexp.Regexp) int {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return 0
		}
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return DiffStats{FileCount: num(filesRe), Additions: num(insRe), Deletions: num(delRe)}
}
