package draftpub

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested draft does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database holding the draft log.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets status reads proceed while a run is being recorded.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS drafts (
    run_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    format TEXT NOT NULL,
    source TEXT NOT NULL,
    images_found INTEGER NOT NULL DEFAULT 0,
    images_migrated INTEGER NOT NULL DEFAULT 0,
    cover_source TEXT NOT NULL,
    media_id TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    status INTEGER NOT NULL,
    publish_id TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS drafts_media_id ON drafts (media_id);
`)
	return err
}

// Fixed width, so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const draftColumns = `run_id, title, format, source, images_found, images_migrated, cover_source, media_id, error, status, publish_id, created_at`

// RecordRun inserts or replaces the entry for e.RunID.
func (s *Store) RecordRun(e DraftEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Title, e.Format, e.Source, e.ImagesFound, e.ImagesMigrated, e.CoverSource,
		e.MediaID, e.Error, e.Status, e.PublishID, e.CreatedAt.UTC().Format(timeLayout))
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (DraftEntry, error) {
	var e DraftEntry
	var created string
	if err := row.Scan(&e.RunID, &e.Title, &e.Format, &e.Source, &e.ImagesFound, &e.ImagesMigrated,
		&e.CoverSource, &e.MediaID, &e.Error, &e.Status, &e.PublishID, &created); err != nil {
		return DraftEntry{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return DraftEntry{}, err
	}
	e.CreatedAt = t
	return e, nil
}

// ListDrafts returns up to limit entries, newest first.
func (s *Store) ListDrafts(limit int) ([]DraftEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+draftColumns+` FROM drafts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []DraftEntry
	for rows.Next() {
		e, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDraft returns the latest run that created mediaID.
func (s *Store) GetDraft(mediaID string) (DraftEntry, error) {
	if mediaID == "" {
		return DraftEntry{}, ErrNotFound
	}
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE media_id = ? ORDER BY created_at DESC LIMIT 1`, mediaID)
	return scanDraft(row)
}

// MarkSubmitted stores the publish id returned for mediaID.
func (s *Store) MarkSubmitted(mediaID, publishID string) error {
	res, err := s.db.Exec(`UPDATE drafts SET publish_id = ? WHERE media_id = ? AND media_id != ''`, publishID, mediaID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the draft does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
