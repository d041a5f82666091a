package search

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stylewatch/trendscout/internal/metrics"
)

// Result is one organic hit returned by a provider.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Query   string `json:"query"`
}

// Provider turns a query string into search results.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Collect fans the queries out across the provider concurrently and returns
// the deduplicated union of their results. A query that fails is logged and
// contributes nothing; only context cancellation aborts the whole pass.
func Collect(ctx context.Context, provider Provider, queries []string, logger *slog.Logger, m *metrics.Metrics) []Result {
	var (
		mu      sync.Mutex
		results []Result
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, query := range queries {
		g.Go(func() error {
			hits, err := provider.Search(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.ObserveSearch("error")
				logger.Warn("search query failed", "query", query, "error", err)
				return nil
			}
			m.ObserveSearch("ok")
			mu.Lock()
			results = append(results, hits...)
			mu.Unlock()
			return nil
		})
	}
	// Only context errors propagate out of the group.
	_ = g.Wait()

	return dedupe(results)
}

func dedupe(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		key := canonical(r.Link)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Link < out[j].Link })
	return out
}

func canonical(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// Filter drops results that cannot yield article text: binary or image
// extensions and domains known to block or distract (social platforms,
// marketplaces).
type Filter struct {
	IgnoredExtensions []string
	IgnoredDomains    []string
}

// Apply returns the results worth fetching, preserving order.
func (f Filter) Apply(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if f.keep(r.Link) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) keep(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range f.IgnoredExtensions {
		if strings.HasSuffix(path, strings.ToLower(ext)) {
			return false
		}
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range f.IgnoredDomains {
		if strings.Contains(host, strings.ToLower(domain)) {
			return false
		}
	}
	return true
}
