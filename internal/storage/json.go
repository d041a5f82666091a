package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type jsonRecord struct {
	ID            string    `json:"id"`
	RunLabel      string    `json:"run_label"`
	URL           string    `json:"url"`
	Title         string    `json:"title,omitempty"`
	Query         string    `json:"query,omitempty"`
	Status        string    `json:"status"`
	Method        string    `json:"method,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CharCount     int       `json:"char_count"`
	FetchedAt     time.Time `json:"fetched_at"`
	DurationMS    int64     `json:"duration_ms"`
}

// jsonBackend appends records as JSON lines, one object per row, so partial
// runs still leave a readable file.
type jsonBackend struct {
	mu   sync.Mutex
	path string
}

func newJSONBackend(path string) Backend {
	if path == "" {
		path = "scrape_results.jsonl"
	}
	return &jsonBackend{path: path}
}

func (j *jsonBackend) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", j.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		row := jsonRecord{
			ID:            r.ID,
			RunLabel:      r.RunLabel,
			URL:           r.URL,
			Title:         r.Title,
			Query:         r.Query,
			Status:        r.Status,
			Method:        r.Method,
			FailureReason: r.FailureReason,
			CharCount:     r.CharCount,
			FetchedAt:     r.FetchedAt,
			DurationMS:    r.Duration.Milliseconds(),
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.URL, err)
		}
	}
	return nil
}

func (j *jsonBackend) Close() error { return nil }
