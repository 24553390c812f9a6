package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/hunkr/internal/model"
)

func newReview(t *testing.T, key string, updated time.Time) *model.ReviewState {
	t.Helper()
	c, err := model.ParseComparison(key)
	require.NoError(t, err)
	s := model.NewReviewState(c, updated)
	s.Hunks["a.go:0123456789ab"] = model.HunkState{Status: model.StatusApproved, Label: []string{"imports:added"}}
	s.TrustList = []string{"imports:*"}
	return s
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "reviews")),
		"sqlite": sq,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := newReview(t, "main..feature/x", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

			_, err := st.Load(ctx, in.Comparison.Key)
			assert.ErrorIs(t, err, ErrNotFound)

			saved, err := st.Save(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, 1, saved.Version)
			assert.Equal(t, 0, in.Version, "input must not be mutated")

			got, err := st.Load(ctx, in.Comparison.Key)
			require.NoError(t, err)
			assert.Equal(t, 1, got.Version)
			assert.Equal(t, in.Comparison, got.Comparison)
			assert.Equal(t, in.Hunks, got.Hunks)
			assert.Equal(t, in.TrustList, got.TrustList)
			assert.True(t, in.UpdatedAt.Equal(got.UpdatedAt))
		})
	}
}

func TestStoreVersionMonotonic(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := newReview(t, "main..dev", time.Now())
			s1, err := st.Save(ctx, in)
			require.NoError(t, err)
			s2, err := st.Save(ctx, s1)
			require.NoError(t, err)
			assert.Equal(t, 2, s2.Version)

			// A stale writer still moves the version forward.
			s3, err := st.Save(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, 3, s3.Version)
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			older := newReview(t, "main..a", base)
			newer := newReview(t, "main..b", base.Add(time.Hour))
			newer.Freshness = &model.Freshness{SourceCommit: "c1", TargetCommit: "c2", IsActive: true}
			for _, r := range []*model.ReviewState{older, newer} {
				_, err := st.Save(ctx, r)
				require.NoError(t, err)
			}

			list, err := st.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "main..b", list[0].Comparison.Key)
			assert.Equal(t, "main..a", list[1].Comparison.Key)
			require.NotNil(t, list[0].Freshness)
			assert.Equal(t, "c2", list[0].Freshness.TargetCommit)

			require.NoError(t, st.Delete(ctx, "main..a"))
			assert.ErrorIs(t, st.Delete(ctx, "main..a"), ErrNotFound)
			list, err = st.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	_, err := fs.Save(context.Background(), newReview(t, "main..ok", time.Now()))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	list, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = fs.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStoreListMissingDir(t *testing.T) {
	list, err := NewFileStore(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	st, err := Open("", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)

	st, err = Open(KindSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())
	assert.FileExists(t, filepath.Join(dir, "hunkr.db"))

	_, err = Open("redis", dir)
	assert.Error(t, err)
}
