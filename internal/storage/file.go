package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// FileStore keeps one JSON file per review in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store in dir. The directory is created on first
// save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, url.PathEscape(key)+".json")
}

// Load implements Store.
func (fs *FileStore) Load(_ context.Context, key string) (*model.ReviewState, error) {
	return fs.read(fs.path(key))
}

func (fs *FileStore) read(path string) (*model.ReviewState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading review: %w", err)
	}
	var s model.ReviewState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("review file %s is invalid: %w", filepath.Base(path), err)
	}
	if s.Hunks == nil {
		s.Hunks = make(map[string]model.HunkState)
	}
	return &s, nil
}

// Save implements Store. The file is replaced atomically.
func (fs *FileStore) Save(ctx context.Context, s *model.ReviewState) (*model.ReviewState, error) {
	if s == nil {
		return nil, errors.New("cannot save nil review")
	}
	stored := 0
	if prev, err := fs.Load(ctx, s.Comparison.Key); err == nil {
		stored = prev.Version
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	out := s.Clone()
	out.Version = nextVersion(stored, s.Version)

	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating review directory: %w", err)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding review: %w", err)
	}
	if err := writeAtomic(fs.path(s.Comparison.Key), data); err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "review.*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// List implements Store. Unreadable files are skipped.
func (fs *FileStore) List(_ context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s, err := fs.read(filepath.Join(fs.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, summaryOf(s))
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// Delete implements Store.
func (fs *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(fs.path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting review: %w", err)
	}
	return nil
}

// Close implements Store.
func (fs *FileStore) Close() error { return nil }
