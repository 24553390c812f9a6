package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidComparison is returned for malformed comparison keys.
var ErrInvalidComparison = errors.New("invalid comparison")

const (
	workingTreeSuffix = "+working-tree"
	stagedSuffix      = "+staged"
)

// WorkingTreeHead is the only head a working-tree or staged comparison may
// name.
const WorkingTreeHead = "HEAD"

// Comparison identifies what a review is over: base..head, optionally
// extended with uncommitted changes.
type Comparison struct {
	Base        string `json:"base"`
	Head        string `json:"head"`
	Key         string `json:"key"`
	WorkingTree bool   `json:"workingTree,omitempty"`
	StagedOnly  bool   `json:"stagedOnly,omitempty"`
}

// NewComparison validates the refs and derives the key. Refs may not be
// empty, contain "..", or start with "-".
func NewComparison(base, head string, workingTree, stagedOnly bool) (Comparison, error) {
	base = strings.TrimSpace(base)
	head = strings.TrimSpace(head)
	if base == "" {
		return Comparison{}, fmt.Errorf("%w: empty base", ErrInvalidComparison)
	}
	if head == "" {
		return Comparison{}, fmt.Errorf("%w: empty head in %q", ErrInvalidComparison, base+"..")
	}
	if strings.Contains(base, "..") || strings.Contains(head, "..") {
		return Comparison{}, fmt.Errorf("%w: ref contains \"..\"", ErrInvalidComparison)
	}
	if strings.HasPrefix(base, "-") || strings.HasPrefix(head, "-") {
		return Comparison{}, fmt.Errorf("%w: ref starts with \"-\"", ErrInvalidComparison)
	}
	// Uncommitted changes sit on top of HEAD only.
	if (workingTree || stagedOnly) && head != WorkingTreeHead {
		return Comparison{}, fmt.Errorf("%w: working-tree comparison needs head %s, got %q", ErrInvalidComparison, WorkingTreeHead, head)
	}
	c := Comparison{
		Base:        base,
		Head:        head,
		WorkingTree: workingTree || stagedOnly,
		StagedOnly:  stagedOnly,
	}
	c.Key = c.makeKey()
	return c, nil
}

// ParseComparison parses a key of the form "<base>..<head>", optionally
// suffixed with "+working-tree" or "+staged".
func ParseComparison(key string) (Comparison, error) {
	rest := strings.TrimSpace(key)
	var workingTree, staged bool
	switch {
	case strings.HasSuffix(rest, workingTreeSuffix):
		workingTree = true
		rest = strings.TrimSuffix(rest, workingTreeSuffix)
	case strings.HasSuffix(rest, stagedSuffix):
		staged = true
		rest = strings.TrimSuffix(rest, stagedSuffix)
	}
	if strings.Contains(rest, "...") {
		return Comparison{}, fmt.Errorf("%w: three-dot range %q", ErrInvalidComparison, key)
	}
	base, head, ok := strings.Cut(rest, "..")
	if !ok {
		return Comparison{}, fmt.Errorf("%w: %q is not <base>..<head>", ErrInvalidComparison, key)
	}
	return NewComparison(base, head, workingTree, staged)
}

func (c Comparison) makeKey() string {
	key := c.Base + ".." + c.Head
	switch {
	case c.StagedOnly:
		key += stagedSuffix
	case c.WorkingTree:
		key += workingTreeSuffix
	}
	return key
}

func (c Comparison) String() string {
	return c.Key
}
