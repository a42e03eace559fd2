// Package store opens the SQLite database backing the tool-call audit log
// and applies versioned schema migrations to it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/mod/semver"
	_ "modernc.org/sqlite"
)

// ErrNewerSchema is returned when the database was written by a newer
// toolshed release than the running binary.
var ErrNewerSchema = errors.New("database was created by a newer version of toolshed")

// devVersion marks an unreleased build; it never blocks an open.
const devVersion = "dev"

// modernc.org/sqlite ignores DSN pragma parameters, so they run as
// statements after open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// bookkeeping tables, created on open.
var bootstrap = []string{
	`CREATE TABLE IF NOT EXISTS _migrations (
		owner       TEXT     NOT NULL,
		version     INTEGER  NOT NULL,
		description TEXT     NOT NULL,
		applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner, version)
	)`,
	`CREATE TABLE IF NOT EXISTS _schema_meta (
		id           INTEGER  PRIMARY KEY CHECK (id = 1),
		app_version  TEXT     NOT NULL,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migration is one forward-only schema step owned by a component.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// SQLiteStore is an open audit database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // held while migrating
}

// New opens or creates the database at path.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: writes serialize, and the pragmas below stick.
	db.SetMaxOpenConns(1)

	if err := prepare(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare sqlite %q: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	for _, stmt := range append(append([]string(nil), pragmas...), bootstrap...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

// DB exposes the connection to the owners of migrated tables.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Tx runs fn in a transaction and commits when fn returns nil.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

// Migrate applies the migrations of owner that are not yet recorded, each in
// its own transaction. A failing step stops the run; earlier steps stay.
func (s *SQLiteStore) Migrate(ctx context.Context, owner string, migrations []Migration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied, err := s.appliedVersions(ctx, owner)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		err := s.Tx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO _migrations (owner, version, description) VALUES (?, ?, ?)",
				owner, m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", owner, m.Version, m.Description, err)
		}
		applied[m.Version] = true
	}
	return nil
}

func (s *SQLiteStore) appliedVersions(ctx context.Context, owner string) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM _migrations WHERE owner = ?", owner)
	if err != nil {
		return nil, fmt.Errorf("list migrations of %s: %w", owner, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CheckVersion stamps the database with binaryVersion and fails with
// ErrNewerSchema when a newer release stamped it first. A dev build on
// either side is always accepted.
func (s *SQLiteStore) CheckVersion(ctx context.Context, binaryVersion string) error {
	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT app_version FROM _schema_meta WHERE id = 1").Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.stampVersion(ctx, binaryVersion)
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case stored == devVersion || binaryVersion == devVersion:
		return s.stampVersion(ctx, binaryVersion)
	}

	switch semver.Compare(canonical(binaryVersion), canonical(stored)) {
	case -1:
		return fmt.Errorf("%w: database=%s, binary=%s", ErrNewerSchema, stored, binaryVersion)
	case 1:
		return s.stampVersion(ctx, binaryVersion)
	}
	return nil
}

func (s *SQLiteStore) stampVersion(ctx context.Context, version string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO _schema_meta (id, app_version) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET app_version = excluded.app_version, updated_at = CURRENT_TIMESTAMP`,
		version)
	if err != nil {
		return fmt.Errorf("stamp schema version %s: %w", version, err)
	}
	return nil
}

// canonical prefixes the "v" semver expects.
func canonical(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
