// Package postgres mirrors the enriched dataset into Postgres.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// DefaultTable receives dataset rows when no table is configured.
const DefaultTable = "oscar_nominations"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for dataset rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type txPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// DatasetStore writes enriched rows into Postgres, one transaction per run.
type DatasetStore struct {
	pool  txPool
	table string
}

// NewDatasetStore connects a pool using cfg.
func NewDatasetStore(ctx context.Context, cfg Config) (*DatasetStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sink.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewDatasetStoreWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewDatasetStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewDatasetStoreWithPool(pool txPool, table string) (*DatasetStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &DatasetStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the dataset table when missing.
func (s *DatasetStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id        TEXT NOT NULL,
	edition       INTEGER NOT NULL,
	label         TEXT NOT NULL,
	ceremony_date DATE NOT NULL,
	category      TEXT NOT NULL,
	is_winner     BOOLEAN NOT NULL,
	film          TEXT NOT NULL,
	source_url    TEXT NOT NULL,
	release_year  INTEGER NOT NULL,
	cost          DOUBLE PRECISION,
	director      TEXT,
	runtime       TEXT,
	imdb_id       TEXT
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// StoreRows inserts rows tagged with runID atomically.
func (s *DatasetStore) StoreRows(ctx context.Context, runID string, rows []oscar.EnrichedRow) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	edition,
	label,
	ceremony_date,
	category,
	is_winner,
	film,
	source_url,
	release_year,
	cost,
	director,
	runtime,
	imdb_id
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)`, s.table)

	for _, r := range rows {
		if _, err := tx.Exec(ctx, query, rowArgs(runID, r)...); err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.Label, r.Film, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit dataset rows: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *DatasetStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func rowArgs(runID string, r oscar.EnrichedRow) []any {
	return []any{
		runID,
		r.Edition,
		r.Label,
		r.Date,
		r.Category,
		r.IsWinner,
		r.Film,
		r.SourceURL,
		r.Release(),
		r.Cost,
		r.Director,
		r.Runtime,
		r.IMDbID,
	}
}
