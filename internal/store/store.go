// Package store persists classification records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no record exists for a requested id.
var ErrNotFound = errors.New("classification not found")

// Record is one persisted classification.
type Record struct {
	ID              string             `json:"id"`
	PredictedClass  string             `json:"predicted_class"`
	Confidence      float64            `json:"confidence"`
	AllPredictions  map[string]float64 `json:"all_predictions"`
	Recommendations []string           `json:"recommendations"`
	IsPreprocessed  bool               `json:"is_preprocessed"`
	ProcessingTime  float64            `json:"processing_time"`
	ImageSize       string             `json:"image_size"`
	ImageURL        string             `json:"image_url"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Store wraps the SQLite database holding classification history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS classifications (
			id               TEXT PRIMARY KEY,
			predicted_class  TEXT NOT NULL,
			confidence       REAL NOT NULL,
			all_predictions  TEXT NOT NULL,
			recommendations  TEXT NOT NULL,
			is_preprocessed  INTEGER NOT NULL,
			processing_time  REAL,
			image_size       TEXT,
			image_url        TEXT,
			created_at       TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_classifications_created_at
			ON classifications(created_at DESC);
	`)
	return err
}

// Save inserts a record. A zero CreatedAt is stamped with the current time.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	predictions, err := json.Marshal(rec.AllPredictions)
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}
	recs, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classifications
			(id, predicted_class, confidence, all_predictions, recommendations,
			 is_preprocessed, processing_time, image_size, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PredictedClass, rec.Confidence, string(predictions), string(recs),
		rec.IsPreprocessed, rec.ProcessingTime, rec.ImageSize, rec.ImageURL, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	return nil
}

// Get retrieves one record by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, predicted_class, confidence, all_predictions, recommendations,
		       is_preprocessed, processing_time, image_size, image_url, created_at
		FROM classifications WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListRecent returns the newest n records, newest first.
func (s *Store) ListRecent(ctx context.Context, n int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, predicted_class, confidence, all_predictions, recommendations,
		       is_preprocessed, processing_time, image_size, image_url, created_at
		FROM classifications ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var predictions, recs string
	err := row.Scan(&rec.ID, &rec.PredictedClass, &rec.Confidence, &predictions, &recs,
		&rec.IsPreprocessed, &rec.ProcessingTime, &rec.ImageSize, &rec.ImageURL, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(predictions), &rec.AllPredictions); err != nil {
		return nil, fmt.Errorf("unmarshal predictions: %w", err)
	}
	if err := json.Unmarshal([]byte(recs), &rec.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return &rec, nil
}

// Ping checks database connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
