// Package store persists analysis records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/docsift/internal/doctree"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with WAL mode enabled.
// Use ":memory:" in tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	text_length INTEGER NOT NULL,
	keywords TEXT NOT NULL,
	summary TEXT NOT NULL,
	table_of_contents TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_hash ON records(content_hash);
CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);
`)
	return err
}

// Save inserts or replaces a record. The ID must be set.
func (s *Store) Save(ctx context.Context, rec doctree.Record) error {
	if rec.ID == "" {
		return errors.New("record id is required")
	}
	kws := rec.Keywords
	if kws == nil {
		kws = []string{}
	}
	kwJSON, err := json.Marshal(kws)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO records
	(id, source, content_hash, title, text_length, keywords, summary, table_of_contents, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.ContentHash, rec.Title, rec.TextLength, string(kwJSON),
		rec.Summary, rec.TableOfContents, rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

const selectCols = `SELECT id, source, content_hash, title, text_length, keywords, summary, table_of_contents, created_at FROM records`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (doctree.Record, error) {
	var (
		rec     doctree.Record
		kwJSON  string
		created string
	)
	err := row.Scan(&rec.ID, &rec.Source, &rec.ContentHash, &rec.Title, &rec.TextLength,
		&kwJSON, &rec.Summary, &rec.TableOfContents, &created)
	if err != nil {
		return doctree.Record{}, err
	}
	if err := json.Unmarshal([]byte(kwJSON), &rec.Keywords); err != nil {
		return doctree.Record{}, fmt.Errorf("decode keywords of %s: %w", rec.ID, err)
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	return rec, nil
}

func (s *Store) one(ctx context.Context, where string, arg any) (doctree.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectCols+" WHERE "+where+" ORDER BY created_at DESC LIMIT 1", arg))
	if errors.Is(err, sql.ErrNoRows) {
		return doctree.Record{}, ErrNotFound
	}
	return rec, err
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (doctree.Record, error) {
	return s.one(ctx, "id = ?", id)
}

// GetByHash returns the newest record analyzed from identical content.
func (s *Store) GetByHash(ctx context.Context, hash string) (doctree.Record, error) {
	if hash == "" {
		return doctree.Record{}, ErrNotFound
	}
	return s.one(ctx, "content_hash = ?", hash)
}

// List returns records newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit, offset int) ([]doctree.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectCols+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []doctree.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
