package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides access to the livecap cache database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS media (
	filename  TEXT PRIMARY KEY,
	subtitles TEXT NOT NULL DEFAULT '',
	summary   TEXT NOT NULL DEFAULT '',
	duration  REAL NOT NULL DEFAULT 0,
	createdAt REAL NOT NULL,
	updatedAt REAL NOT NULL
);
`

// DefaultDBPath returns the database path under the daemon data dir.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "livecap.sqlite")
}

// Open opens the database with WAL, creating the schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the entry for a filename, or nil when it was never
// processed.
func (s *Store) Lookup(filename string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT filename, subtitles, summary, duration, createdAt, updatedAt
		FROM media
		WHERE filename = ?
	`, filename)

	var e Entry
	var createdAt, updatedAt float64
	if err := row.Scan(&e.Filename, &e.Subtitles, &e.Summary,
		&e.Duration, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	e.CreatedAt = timeFromUnix(createdAt)
	e.UpdatedAt = timeFromUnix(updatedAt)
	return &e, nil
}

// SaveSubtitles stores the compiled subtitle document for a filename,
// creating the entry if it does not exist.
func (s *Store) SaveSubtitles(filename, subtitles string, duration float64) error {
	now := unixNow()
	_, err := s.db.Exec(`
		INSERT INTO media (filename, subtitles, duration, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			subtitles = excluded.subtitles,
			duration = excluded.duration,
			updatedAt = excluded.updatedAt
	`, filename, subtitles, duration, now, now)
	if err != nil {
		return fmt.Errorf("save subtitles: %w", err)
	}
	return nil
}

// SaveSummary stores the generated summary for a filename.
func (s *Store) SaveSummary(filename, summary string) error {
	now := unixNow()
	_, err := s.db.Exec(`
		INSERT INTO media (filename, summary, createdAt, updatedAt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			summary = excluded.summary,
			updatedAt = excluded.updatedAt
	`, filename, summary, now, now)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// Delete removes an entry so the file is reprocessed on the next upload.
func (s *Store) Delete(filename string) error {
	if _, err := s.db.Exec(`DELETE FROM media WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// Count returns the number of cached entries, used by the status page.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func unixNow() float64 {
	now := time.Now()
	return float64(now.Unix()) + float64(now.Nanosecond())/1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
