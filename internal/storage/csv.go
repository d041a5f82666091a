package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{
	"id", "run_label", "url", "title", "query", "status",
	"method", "failure_reason", "char_count", "fetched_at", "duration_ms",
}

type csvBackend struct {
	mu   sync.Mutex
	path string
}

func newCSVBackend(path string) Backend {
	if path == "" {
		path = "scrape_results.csv"
	}
	return &csvBackend{path: path}
}

func (c *csvBackend) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	info, statErr := os.Stat(c.path)
	writeHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, r := range records {
		row := []string{
			r.ID, r.RunLabel, r.URL, r.Title, r.Query, r.Status,
			r.Method, r.FailureReason,
			strconv.Itoa(r.CharCount),
			r.FetchedAt.Format(time.RFC3339),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.URL, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func (c *csvBackend) Close() error { return nil }
