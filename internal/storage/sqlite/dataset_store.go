// Package sqlite mirrors the enriched dataset into a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

const migration = `
CREATE TABLE IF NOT EXISTS nominations (
	run_id        TEXT NOT NULL,
	edition       INTEGER NOT NULL,
	label         TEXT NOT NULL,
	ceremony_date TEXT NOT NULL,
	category      TEXT NOT NULL,
	is_winner     INTEGER NOT NULL,
	film          TEXT NOT NULL,
	source_url    TEXT NOT NULL,
	release_year  INTEGER NOT NULL,
	cost          REAL,
	director      TEXT,
	runtime       TEXT,
	imdb_id       TEXT
);

CREATE INDEX IF NOT EXISTS idx_nominations_run_id ON nominations(run_id);
CREATE INDEX IF NOT EXISTS idx_nominations_film ON nominations(film, release_year);
`

const insertRow = `
INSERT INTO nominations (
	run_id, edition, label, ceremony_date, category, is_winner, film,
	source_url, release_year, cost, director, runtime, imdb_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// DatasetStore writes enriched rows into SQLite.
type DatasetStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DatasetStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sink.sqlite.path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &DatasetStore{db: db}, nil
}

// StoreRows inserts rows tagged with runID in one transaction.
func (s *DatasetStore) StoreRows(ctx context.Context, runID string, rows []oscar.EnrichedRow) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			runID,
			r.Edition,
			r.Label,
			r.Date.Format("2006-01-02"),
			r.Category,
			r.IsWinner,
			r.Film,
			r.SourceURL,
			r.Release(),
			nullFloat(r.Cost),
			nullString(r.Director),
			nullString(r.Runtime),
			nullString(r.IMDbID),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert %s/%s: %w", r.Label, r.Film, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// CountRows reports how many rows a run stored.
func (s *DatasetStore) CountRows(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nominations WHERE run_id = ?", runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count rows: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *DatasetStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
