// Package store persists check-run history to PostgreSQL.
//
// Persistence is optional: the pipeline runs fine without a database, and a
// failed save never fails a run. The store owns its schema and creates it on
// startup, so a fresh database needs no migration step.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/DataCheck/internal/config"
)

// RunRecord is one persisted check run.
type RunRecord struct {
	ID        uuid.UUID       `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Overall   string          `json:"overall"`
	Datasets  []DatasetRecord `json:"datasets,omitempty"`
}

// DatasetRecord is the persisted verdict for one dataset within a run.
// Report carries the full JSON-encoded outcome for later inspection.
type DatasetRecord struct {
	Dataset    string `json:"dataset"`
	Status     string `json:"status"`
	Detail     string `json:"detail"`
	Rows       int64  `json:"rows"`
	Violations int64  `json:"violations"`
	Report     []byte `json:"-"`
}

// Store wraps a pgx connection pool with the run-history queries.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database described by cfg, verifies the connection,
// and ensures the run-history tables exist.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// bootstrap creates the run-history tables if they do not exist.
func (s *Store) bootstrap(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS check_runs (
    id          UUID PRIMARY KEY,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL,
    overall     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dataset_reports (
    run_id          UUID NOT NULL REFERENCES check_runs(id) ON DELETE CASCADE,
    dataset         TEXT NOT NULL,
    status          TEXT NOT NULL,
    detail          TEXT,
    row_count       BIGINT NOT NULL DEFAULT 0,
    violation_count BIGINT NOT NULL DEFAULT 0,
    report          JSONB,
    PRIMARY KEY (run_id, dataset)
);

CREATE INDEX IF NOT EXISTS idx_check_runs_started_at
    ON check_runs(started_at DESC);
`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// SaveRun writes a run and its per-dataset reports in one transaction.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO check_runs (id, started_at, duration_ms, overall)
		 VALUES ($1, $2, $3, $4)`,
		rec.ID.String(),
		pgtype.Timestamptz{Time: rec.StartedAt, Valid: true},
		rec.Duration.Milliseconds(),
		rec.Overall,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, ds := range rec.Datasets {
		_, err = tx.Exec(ctx,
			`INSERT INTO dataset_reports (run_id, dataset, status, detail, row_count, violation_count, report)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID.String(),
			ds.Dataset,
			ds.Status,
			toPgText(ds.Detail),
			ds.Rows,
			ds.Violations,
			ds.Report,
		)
		if err != nil {
			return fmt.Errorf("insert report for %s: %w", ds.Dataset, err)
		}
	}

	return tx.Commit(ctx)
}

// ListRuns returns the most recent runs, newest first, without their
// per-dataset reports.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, started_at, duration_ms, overall
		 FROM check_runs
		 ORDER BY started_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its per-dataset reports.
// Returns pgx.ErrNoRows (wrapped) when the run does not exist.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, started_at, duration_ms, overall
		 FROM check_runs WHERE id = $1`, id.String())

	rec, err := scanRun(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT dataset, status, detail, row_count, violation_count, report
		 FROM dataset_reports
		 WHERE run_id = $1
		 ORDER BY dataset`, id.String())
	if err != nil {
		return nil, fmt.Errorf("get reports for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ds DatasetRecord
		var detail pgtype.Text
		if err := rows.Scan(&ds.Dataset, &ds.Status, &detail, &ds.Rows, &ds.Violations, &ds.Report); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		ds.Detail = detail.String
		rec.Datasets = append(rec.Datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanRun reads one check_runs row via the given Scan function.
func scanRun(scan func(dest ...any) error) (RunRecord, error) {
	var (
		rec        RunRecord
		idStr      string
		startedAt  pgtype.Timestamptz
		durationMs int64
	)
	if err := scan(&idStr, &startedAt, &durationMs, &rec.Overall); err != nil {
		return RunRecord{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse run id: %w", err)
	}
	rec.ID = id
	rec.StartedAt = startedAt.Time
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return rec, nil
}

// toPgText converts a string to pgtype.Text, mapping empty to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
