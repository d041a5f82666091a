package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scrape_results (
	id             TEXT PRIMARY KEY,
	run_label      TEXT NOT NULL,
	url            TEXT NOT NULL,
	title          TEXT,
	query          TEXT,
	status         TEXT NOT NULL,
	method         TEXT,
	failure_reason TEXT,
	char_count     INTEGER NOT NULL DEFAULT 0,
	fetched_at     TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scrape_results_run ON scrape_results(run_label);
CREATE INDEX IF NOT EXISTS idx_scrape_results_status ON scrape_results(status);
`

type postgresBackend struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, dsn string) (Backend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres backend requires a dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &postgresBackend{pool: pool}, nil
}

func (p *postgresBackend) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if _, err := tx.Exec(ctx, `
			INSERT INTO scrape_results
				(id, run_label, url, title, query, status, method, failure_reason, char_count, fetched_at, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				char_count = EXCLUDED.char_count,
				failure_reason = EXCLUDED.failure_reason`,
			r.ID, r.RunLabel, r.URL, r.Title, r.Query, r.Status, r.Method,
			r.FailureReason, r.CharCount, r.FetchedAt, r.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.URL, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (p *postgresBackend) Close() error {
	p.pool.Close()
	return nil
}
