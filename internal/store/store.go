// Package store provides the durable local persistence layer: books, chapter
// content, remote-sync bookkeeping and app configuration, backed by an
// embedded SQLite database in WAL mode.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"draftvault/internal/domain"
)

// migrations holds the ordered schema steps. PRAGMA user_version records how
// many have been applied, so an old database upgrades in place instead of
// being destroyed.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		sync_status TEXT NOT NULL,
		config TEXT NOT NULL,
		local_last_modified TEXT NOT NULL,
		cloud_last_modified TEXT,
		version TEXT NOT NULL,
		cloud_folder_path TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS chapters (
		book_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		content BLOB NOT NULL,
		last_modified TEXT NOT NULL,
		sync_status TEXT NOT NULL,
		PRIMARY KEY (book_id, file_name)
	);
	CREATE INDEX IF NOT EXISTS idx_chapters_book ON chapters(book_id);

	CREATE TABLE IF NOT EXISTS sync_metadata (
		remote_path TEXT PRIMARY KEY,
		last_synced TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_config (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`,
}

// requiredTables is the layout the startup self-check validates.
var requiredTables = []string{"books", "chapters", "sync_metadata", "app_config"}

// Options tunes Open behavior.
type Options struct {
	// RecreateOnCorruption destroys and recreates the database when the
	// schema self-check fails. This loses all local data; leave it off
	// unless the operator explicitly opted in.
	RecreateOnCorruption bool
}

// Store is the local persistent store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path and brings its
// schema up to date. The caller must Close the store when done.
func Open(path string, logger *slog.Logger, opts Options) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal checkpoint failed", "error", err)
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func (s *Store) schemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrate applies pending schema steps and validates the resulting layout.
func (s *Store) migrate(opts Options) error {
	v, err := s.schemaVersion()
	if err != nil {
		return err
	}

	if v > len(migrations) {
		return s.recover(opts, fmt.Errorf("%w: database schema version %d is newer than this build supports (%d)",
			domain.ErrSchemaCorruption, v, len(migrations)))
	}

	if v > 0 {
		if err := s.verifyLayout(); err != nil {
			return s.recover(opts, err)
		}
	}

	for i := v; i < len(migrations); i++ {
		if err := s.applyMigration(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(i int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", i+1, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrations[i]); err != nil {
		return fmt.Errorf("apply migration %d: %w", i+1, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", i+1)); err != nil {
		return fmt.Errorf("bump schema version to %d: %w", i+1, err)
	}
	return tx.Commit()
}

// verifyLayout checks the expected tables exist.
func (s *Store) verifyLayout() error {
	for _, table := range requiredTables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: table %q is missing", domain.ErrSchemaCorruption, table)
		}
		if err != nil {
			return fmt.Errorf("inspect table %q: %w", table, err)
		}
	}
	return nil
}

// recover handles a failed self-check. Destroying user data is a last resort
// and happens only behind the explicit RecreateOnCorruption option.
func (s *Store) recover(opts Options, cause error) error {
	if !opts.RecreateOnCorruption {
		return cause
	}

	s.logger.Error("LOCAL STORE SCHEMA CORRUPTED: destroying and recreating the database, ALL LOCAL DATA WILL BE LOST",
		"path", s.path, "cause", cause)

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS books",
		"DROP TABLE IF EXISTS chapters",
		"DROP TABLE IF EXISTS sync_metadata",
		"DROP TABLE IF EXISTS app_config",
		"PRAGMA user_version=0",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("recreate store: %w", err)
		}
	}
	return s.migrate(Options{})
}

// UpsertSyncMetadata records that the remote file at path was synchronized
// at the given instant.
func (s *Store) UpsertSyncMetadata(ctx context.Context, remotePath string, syncedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (remote_path, last_synced) VALUES (?, ?)
		ON CONFLICT(remote_path) DO UPDATE SET last_synced = excluded.last_synced`,
		remotePath, syncedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert sync metadata for %s: %w", remotePath, err)
	}
	return nil
}

// LastSynced returns when the remote file at path was last synchronized.
func (s *Store) LastSynced(ctx context.Context, remotePath string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT last_synced FROM sync_metadata WHERE remote_path = ?", remotePath,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read sync metadata for %s: %w", remotePath, err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sync metadata timestamp: %w", err)
	}
	return t, nil
}

// GetConfigValue reads a named app configuration value (for example the
// client identifier or API key the authentication layer consumes). Returns
// domain.ErrNotFound when the name has never been set.
func (s *Store) GetConfigValue(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM app_config WHERE name = ?", name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read config %q: %w", name, err)
	}
	return value, nil
}

// SetConfigValue stores a named app configuration value.
func (s *Store) SetConfigValue(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_config (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value)
	if err != nil {
		return fmt.Errorf("write config %q: %w", name, err)
	}
	return nil
}

// DeleteConfigValue removes a named app configuration value. Deleting a
// missing name is not an error.
func (s *Store) DeleteConfigValue(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM app_config WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete config %q: %w", name, err)
	}
	return nil
}
