package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
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
	fetched_at     TIMESTAMP NOT NULL,
	duration_ms    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scrape_results_run ON scrape_results(run_label);
CREATE INDEX IF NOT EXISTS idx_scrape_results_status ON scrape_results(status);
`

type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string) (Backend, error) {
	if path == "" {
		path = "scrape_results.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO scrape_results
			(id, run_label, url, title, query, status, method, failure_reason, char_count, fetched_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.RunLabel, r.URL, r.Title, r.Query, r.Status, r.Method,
			r.FailureReason, r.CharCount, r.FetchedAt, r.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *sqliteBackend) Close() error {
	return s.db.Close()
}
