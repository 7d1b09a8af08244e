// Package ledger records which images have been labeled, so an interrupted session
// can resume where it stopped.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when an image has no ledger entry.
var ErrNotFound = errors.New("ledger entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS labeled_images (
    image_path       TEXT PRIMARY KEY,
    label_path       TEXT NOT NULL,
    annotation_count INTEGER NOT NULL,
    session_id       TEXT NOT NULL,
    saved_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS labeled_images_session ON labeled_images(session_id);
`

// Entry is one labeled image.
type Entry struct {
	ImagePath       string    `json:"image_path"`
	LabelPath       string    `json:"label_path"`
	AnnotationCount int       `json:"annotation_count"`
	SessionID       string    `json:"session_id"`
	SavedAt         time.Time `json:"saved_at"`
}

// Ledger is a SQLite-backed progress store.
type Ledger struct {
	db *sql.DB
}

// NewSessionID returns a fresh identifier for an annotation session.
func NewSessionID() string {
	return uuid.NewString()
}

// Open opens or creates the ledger database at path and applies the schema.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir ledger dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts or replaces the entry for e.ImagePath. A zero SavedAt is set to now.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
        INSERT INTO labeled_images (image_path, label_path, annotation_count, session_id, saved_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(image_path) DO UPDATE SET
            label_path = excluded.label_path,
            annotation_count = excluded.annotation_count,
            session_id = excluded.session_id,
            saved_at = excluded.saved_at
    `, e.ImagePath, e.LabelPath, e.AnnotationCount, e.SessionID, e.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record %s: %w", e.ImagePath, err)
	}
	return nil
}

// Get returns the entry for imagePath or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, imagePath string) (*Entry, error) {
	row := l.db.QueryRowContext(ctx, `
        SELECT image_path, label_path, annotation_count, session_id, saved_at
        FROM labeled_images
        WHERE image_path = ?
    `, imagePath)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", imagePath, err)
	}
	return e, nil
}

// IsLabeled reports whether imagePath has an entry.
func (l *Ledger) IsLabeled(ctx context.Context, imagePath string) (bool, error) {
	_, err := l.Get(ctx, imagePath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns every entry ordered by image path.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT image_path, label_path, annotation_count, session_id, saved_at
        FROM labeled_images
        ORDER BY image_path
    `)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var savedAt string
	if err := s.Scan(&e.ImagePath, &e.LabelPath, &e.AnnotationCount, &e.SessionID, &savedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return nil, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
	}
	e.SavedAt = t
	return &e, nil
}
