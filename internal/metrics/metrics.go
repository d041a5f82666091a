package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instrumentation for one research run. All collectors are
// registered on a caller-supplied registry so tests can use isolated ones.
type Metrics struct {
	registry *prometheus.Registry

	SearchQueries  *prometheus.CounterVec
	PagesScraped   *prometheus.CounterVec
	ScrapeDuration prometheus.Histogram
	LLMCalls       *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendscout_search_queries_total",
			Help: "Search queries issued, by outcome.",
		}, []string{"outcome"}),
		PagesScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendscout_pages_scraped_total",
			Help: "Pages scraped, by status and fetch method.",
		}, []string{"status", "method"}),
		ScrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trendscout_scrape_duration_seconds",
			Help:    "Wall-clock duration of individual page fetches.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendscout_llm_calls_total",
			Help: "Model API calls, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendscout_cache_lookups_total",
			Help: "Semantic cache lookups, by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.SearchQueries,
		m.PagesScraped,
		m.ScrapeDuration,
		m.LLMCalls,
		m.CacheLookups,
	)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics endpoint until the context is cancelled.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// ObserveSearch records one issued search query.
func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchQueries.WithLabelValues(outcome).Inc()
}

// ObserveScrape records one finished page fetch.
func (m *Metrics) ObserveScrape(status, method string, d time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "none"
	}
	m.PagesScraped.WithLabelValues(status, method).Inc()
	m.ScrapeDuration.Observe(d.Seconds())
}
