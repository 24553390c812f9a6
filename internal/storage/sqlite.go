package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sprite-ai/hunkr/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps reviews in a single SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

type reviewRow struct {
	Key     string `db:"key"`
	Version int    `db:"version"`
	State   string `db:"state"`
}

// OpenSQLite opens (creating if needed) the database at path and applies
// migrations. ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	drv, err := sqlite3.WithInstance(s.db.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	_, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading migration version: %w", err)
	}
	if dirty {
		return errors.New("review database is in a dirty migration state")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string) (*model.ReviewState, error) {
	var row reviewRow
	err := s.db.GetContext(ctx, &row, `SELECT key, version, state FROM reviews WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading review %s: %w", key, err)
	}
	return decode(row)
}

func decode(row reviewRow) (*model.ReviewState, error) {
	var st model.ReviewState
	if err := json.Unmarshal([]byte(row.State), &st); err != nil {
		return nil, fmt.Errorf("review %s is invalid: %w", row.Key, err)
	}
	if st.Hunks == nil {
		st.Hunks = make(map[string]model.HunkState)
	}
	st.Version = row.Version
	return &st, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, st *model.ReviewState) (*model.ReviewState, error) {
	if st == nil {
		return nil, errors.New("cannot save nil review")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored int
	err = tx.GetContext(ctx, &stored, `SELECT version FROM reviews WHERE key = ?`, st.Comparison.Key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saving review: %w", err)
	}

	out := st.Clone()
	out.Version = nextVersion(stored, st.Version)
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding review: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (key, base, head, version, created_at, updated_at, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			updated_at = excluded.updated_at,
			state = excluded.state`,
		out.Comparison.Key, out.Comparison.Base, out.Comparison.Head, out.Version,
		out.CreatedAt.UTC(), out.UpdatedAt.UTC(), string(data))
	if err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}
	return out, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	var rows []reviewRow
	err := s.db.SelectContext(ctx, &rows, `SELECT key, version, state FROM reviews ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		st, err := decode(r)
		if err != nil {
			continue
		}
		out = append(out, summaryOf(st))
	}
	return out, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
