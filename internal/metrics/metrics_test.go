package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()

	m.SearchQueries.WithLabelValues("ok").Inc()
	m.ObserveScrape("success", "http", 2*time.Second)
	m.ObserveScrape("failed", "", time.Second)
	m.LLMCalls.WithLabelValues("generate_text", "ok").Inc()
	m.CacheLookups.WithLabelValues("hit").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	out := string(body)

	for _, want := range []string{
		`trendscout_search_queries_total{outcome="ok"} 1`,
		`trendscout_pages_scraped_total{method="http",status="success"} 1`,
		`trendscout_pages_scraped_total{method="none",status="failed"} 1`,
		`trendscout_llm_calls_total{operation="generate_text",outcome="ok"} 1`,
		`trendscout_cache_lookups_total{outcome="hit"} 1`,
		`trendscout_scrape_duration_seconds_count 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestObserveScrapeNilReceiver(t *testing.T) {
	var m *Metrics
	// Must not panic when metrics are disabled.
	m.ObserveScrape("success", "http", time.Second)
}

func TestIsolatedRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	a.SearchQueries.WithLabelValues("ok").Inc()
	_ = b
}
