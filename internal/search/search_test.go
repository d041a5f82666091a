package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubProvider struct {
	results map[string][]Result
	errs    map[string]error
}

func (s *stubProvider) Search(_ context.Context, query string) ([]Result, error) {
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.results[query], nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectSurvivesFailedQueries(t *testing.T) {
	provider := &stubProvider{
		results: map[string][]Result{
			"good": {{Title: "A", Link: "https://example.com/a"}},
		},
		errs: map[string]error{
			"bad": errors.New("quota exceeded"),
		},
	}

	got := Collect(context.Background(), provider, []string{"good", "bad"}, discard(), nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Link != "https://example.com/a" {
		t.Errorf("unexpected result %+v", got[0])
	}
}

func TestCollectAllQueriesFail(t *testing.T) {
	provider := &stubProvider{
		errs: map[string]error{
			"q1": errors.New("boom"),
			"q2": errors.New("boom"),
		},
	}
	got := Collect(context.Background(), provider, []string{"q1", "q2"}, discard(), nil)
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestCollectDeduplicates(t *testing.T) {
	provider := &stubProvider{
		results: map[string][]Result{
			"q1": {{Link: "https://example.com/story"}},
			"q2": {{Link: "https://example.com/story/"}, {Link: "https://example.com/other"}},
		},
	}
	got := Collect(context.Background(), provider, []string{"q1", "q2"}, discard(), nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique results, got %d: %+v", len(got), got)
	}
}

func TestFilterApply(t *testing.T) {
	f := Filter{
		IgnoredExtensions: []string{".pdf", ".jpg"},
		IgnoredDomains:    []string{"pinterest.", "youtube.com"},
	}

	in := []Result{
		{Link: "https://www.vogue.com/article/trends"},
		{Link: "https://www.wgsn.com/report.PDF"},
		{Link: "https://br.pinterest.com/pin/123"},
		{Link: "https://www.youtube.com/watch?v=abc"},
		{Link: "ftp://example.com/file"},
		{Link: "https://www.dazeddigital.com/fashion/article"},
	}

	got := f.Apply(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 survivors, got %d: %+v", len(got), got)
	}
	for _, r := range got {
		if r.Link != "https://www.vogue.com/article/trends" &&
			r.Link != "https://www.dazeddigital.com/fashion/article" &&
			r.Link != "ftp://example.com/file" {
			t.Errorf("unexpected survivor %q", r.Link)
		}
	}

	again := f.Apply(got)
	if len(again) != len(got) {
		t.Errorf("filter not idempotent: %d then %d survivors", len(got), len(again))
	}
}

func TestGoogleSearchParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in request")
		}
		if r.URL.Query().Get("cx") != "test-cx" {
			t.Errorf("missing engine id in request")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"items": [
				{"title": "Trend report", "link": "https://example.com/trends", "snippet": "about trends"},
				{"title": "No link item", "link": "", "snippet": "dropped"}
			]
		}`)
	}))
	defer srv.Close()

	g, err := NewGoogle(GoogleConfig{
		APIKey:   "test-key",
		EngineID: "test-cx",
		Endpoint: srv.URL,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}

	got, err := g.Search(context.Background(), "fashion trends")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Link != "https://example.com/trends" || got[0].Query != "fashion trends" {
		t.Errorf("unexpected result %+v", got[0])
	}
}

func TestGoogleSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"code": 429, "message": "Quota exceeded"}}`)
	}))
	defer srv.Close()

	g, err := NewGoogle(GoogleConfig{APIKey: "k", EngineID: "cx", Endpoint: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewGoogle: %v", err)
	}

	if _, err := g.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestNewGoogleRequiresCredentials(t *testing.T) {
	if _, err := NewGoogle(GoogleConfig{EngineID: "cx"}, nil, nil); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewGoogle(GoogleConfig{APIKey: "k"}, nil, nil); err == nil {
		t.Error("expected error without engine id")
	}
}
