// Package store implements the local record store: a durable sqlite table
// of site-deployment Q/A records with full-text search. Records carry an
// optional remote identifier once they are known to the authoritative
// backend; see internal/sync for how the two stores are reconciled.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Record is a Q/A record as held locally. LocalID is assigned on insert and
// never reused. RemoteID is nil until the record is linked to the remote
// store. There is no local modification timestamp; ordering decisions are
// made against the last-sync watermark, not a local clock.
type Record struct {
	LocalID        int64
	RemoteID       *string
	SiteName       string
	Category       string
	Subcategory    string
	Question       string
	Answer         string
	AdditionalInfo string
	Approved       bool
}

// Fields is the writable portion of a record. RemoteID is only applied when
// non-nil, so updates that do not know the remote id leave the link alone.
type Fields struct {
	RemoteID       *string
	SiteName       string
	Category       string
	Subcategory    string
	Question       string
	Answer         string
	AdditionalInfo string
	Approved       bool
}

// Store wraps the sqlite database
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the record database at path and ensures the schema
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate record store: %w", err)
	}

	slog.Debug("record store ready", "path", path)
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			remote_id       TEXT UNIQUE,
			site_name       TEXT NOT NULL,
			category        TEXT NOT NULL,
			subcategory     TEXT NOT NULL,
			question        TEXT NOT NULL,
			answer          TEXT NOT NULL,
			additional_info TEXT NOT NULL DEFAULT '',
			approved        INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_records_remote   ON records(remote_id);
		CREATE INDEX IF NOT EXISTS idx_records_site     ON records(site_name);
		CREATE INDEX IF NOT EXISTS idx_records_approved ON records(approved);

		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			site_name,
			category,
			subcategory,
			question,
			answer,
			additional_info,
			content='records',
			content_rowid='id'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Triggers keep the FTS index in sync (idempotent check)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='records_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER records_fts_insert AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, site_name, category, subcategory, question, answer, additional_info)
				VALUES (new.id, new.site_name, new.category, new.subcategory, new.question, new.answer, new.additional_info);
			END;
			CREATE TRIGGER records_fts_delete AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, site_name, category, subcategory, question, answer, additional_info)
				VALUES ('delete', old.id, old.site_name, old.category, old.subcategory, old.question, old.answer, old.additional_info);
			END;
			CREATE TRIGGER records_fts_update AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, site_name, category, subcategory, question, answer, additional_info)
				VALUES ('delete', old.id, old.site_name, old.category, old.subcategory, old.question, old.answer, old.additional_info);
				INSERT INTO records_fts(rowid, site_name, category, subcategory, question, answer, additional_info)
				VALUES (new.id, new.site_name, new.category, new.subcategory, new.question, new.answer, new.additional_info);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}
