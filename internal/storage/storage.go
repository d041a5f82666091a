package storage

import (
	"context"
	"fmt"
	"time"
)

// Record is one persisted scrape outcome. Content itself is not stored, only
// what a later audit of the run needs.
type Record struct {
	ID            string
	RunLabel      string
	URL           string
	Title         string
	Query         string
	Status        string
	Method        string
	FailureReason string
	CharCount     int
	FetchedAt     time.Time
	Duration      time.Duration
}

// Backend persists scrape outcomes.
type Backend interface {
	Save(ctx context.Context, records []Record) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is "sqlite", "postgres", "json", "csv" or "none".
	Backend string
	// DSN is the postgres connection string.
	DSN string
	// Path is the file path for sqlite, json and csv backends.
	Path string
}

// Open creates the configured backend. "none" (or empty) yields a backend
// that discards records.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", "none":
		return nopBackend{}, nil
	case "sqlite":
		return openSQLite(ctx, cfg.Path)
	case "postgres":
		return openPostgres(ctx, cfg.DSN)
	case "json":
		return newJSONBackend(cfg.Path), nil
	case "csv":
		return newCSVBackend(cfg.Path), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

type nopBackend struct{}

func (nopBackend) Save(context.Context, []Record) error { return nil }
func (nopBackend) Close() error                         { return nil }
