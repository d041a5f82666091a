package scraper

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies the outcome of fetching one URL.
type Status string

const (
	// StatusSuccess means extraction produced enough text to summarize.
	StatusSuccess Status = "success"
	// StatusPartial means some text was extracted but too little to trust.
	StatusPartial Status = "partial"
	// StatusFailed means the fetch or extraction produced nothing usable.
	StatusFailed Status = "failed"
)

// ScrapeResult records the outcome of one URL fetch. Every discovered URL
// yields exactly one result whatever happened to it, so the report always
// accounts for the full candidate set.
type ScrapeResult struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	Title         string        `json:"title,omitempty"`
	Query         string        `json:"query,omitempty"`
	Status        Status        `json:"status"`
	Content       string        `json:"content,omitempty"`
	CharCount     int           `json:"char_count"`
	Method        string        `json:"method,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	FetchedAt     time.Time     `json:"fetched_at"`
	Duration      time.Duration `json:"duration"`
}

func newResult(url, title, query string) ScrapeResult {
	return ScrapeResult{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     title,
		Query:     query,
		FetchedAt: time.Now().UTC(),
	}
}

// Usable reports whether the result carries content worth summarizing.
func (r ScrapeResult) Usable() bool {
	return r.Status == StatusSuccess
}
