// Package storage persists ReviewStates, one per comparison key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sprite-ai/hunkr/internal/model"
)

// ErrNotFound is returned when no review is stored for a key.
var ErrNotFound = errors.New("review not found")

// Summary describes a stored review without its hunk states.
type Summary struct {
	Comparison model.Comparison `json:"comparison"`
	Version    int              `json:"version"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Freshness  *model.Freshness `json:"freshness,omitempty"`
}

// Store loads and saves review states.
type Store interface {
	// Load returns the state stored for key or ErrNotFound.
	Load(ctx context.Context, key string) (*model.ReviewState, error)
	// Save stores s and returns the stored copy with its version bumped
	// past both s.Version and any previously stored version.
	Save(ctx context.Context, s *model.ReviewState) (*model.ReviewState, error)
	// List returns every stored review, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	// Delete removes the review for key. Deleting a missing key returns
	// ErrNotFound.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Kinds of store accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the store of the given kind rooted at stateDir.
func Open(kind, stateDir string) (Store, error) {
	switch kind {
	case "", KindFile:
		return NewFileStore(filepath.Join(stateDir, "reviews")), nil
	case KindSQLite:
		return OpenSQLite(filepath.Join(stateDir, "hunkr.db"))
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, KindFile, KindSQLite)
	}
}

func nextVersion(stored, incoming int) int {
	return max(stored, incoming) + 1
}

func summaryOf(s *model.ReviewState) Summary {
	sum := Summary{Comparison: s.Comparison, Version: s.Version, UpdatedAt: s.UpdatedAt}
	if s.Freshness != nil {
		f := *s.Freshness
		sum.Freshness = &f
	}
	return sum
}
