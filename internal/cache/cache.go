// Package cache is a semantic report cache: lookups match on embedding
// similarity rather than exact text, so "silver metallics" can reuse the
// report produced for "liquid chrome accents".
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stylewatch/trendscout/internal/llm"
	"github.com/stylewatch/trendscout/internal/metrics"
)

// DefaultDistanceThreshold is the cosine distance below which two themes are
// considered the same research question.
const DefaultDistanceThreshold = 0.2

const schema = `
CREATE TABLE IF NOT EXISTS report_cache (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	report     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Cache stores finished reports keyed by the embedding of the theme that
// produced them. All failures degrade to a miss; the cache must never be the
// reason a run dies.
type Cache struct {
	db        *sql.DB
	embedder  llm.Embedder
	threshold float64
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Open creates or opens the cache database.
func Open(path string, embedder llm.Embedder, threshold float64, m *metrics.Metrics, logger *slog.Logger) (*Cache, error) {
	if path == "" {
		path = "trend_cache.db"
	}
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{
		db:        db,
		embedder:  embedder,
		threshold: threshold,
		metrics:   m,
		logger:    logger,
	}, nil
}

func (c *Cache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(outcome).Inc()
	}
}

// Lookup returns the cached report JSON for the semantically closest stored
// query, if one sits inside the distance threshold.
func (c *Cache) Lookup(ctx context.Context, query string) (string, bool) {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.logger.Warn("cache lookup degraded to miss", "error", err)
		c.observe("error")
		return "", false
	}

	rows, err := c.db.QueryContext(ctx, `SELECT query, embedding, report FROM report_cache`)
	if err != nil {
		c.logger.Warn("cache lookup degraded to miss", "error", err)
		c.observe("error")
		return "", false
	}
	defer rows.Close()

	var (
		bestDistance = math.Inf(1)
		bestQuery    string
		bestReport   string
	)
	for rows.Next() {
		var storedQuery, report string
		var raw []byte
		if err := rows.Scan(&storedQuery, &raw, &report); err != nil {
			continue
		}
		var stored []float64
		if err := json.Unmarshal(raw, &stored); err != nil {
			continue
		}
		if d := cosineDistance(vector, stored); d < bestDistance {
			bestDistance = d
			bestQuery = storedQuery
			bestReport = report
		}
	}
	if err := rows.Err(); err != nil {
		c.logger.Warn("cache lookup degraded to miss", "error", err)
		c.observe("error")
		return "", false
	}

	if bestDistance < c.threshold {
		c.logger.Info("semantic cache hit",
			"query", query, "matched", bestQuery, "distance", bestDistance)
		c.observe("hit")
		return bestReport, true
	}
	c.observe("miss")
	return "", false
}

// Add stores a finished report under the query's embedding. The row id is
// the SHA-256 of the query, so re-running the same theme overwrites rather
// than accumulates.
func (c *Cache) Add(ctx context.Context, query, reportJSON string) error {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to embed cache key: %w", err)
	}

	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	sum := sha256.Sum256([]byte(query))
	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO report_cache (id, query, embedding, report, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		hex.EncodeToString(sum[:]), query, raw, reportJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// cosineDistance is 1 - cosine similarity. Mismatched or degenerate vectors
// count as maximally distant.
func cosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
