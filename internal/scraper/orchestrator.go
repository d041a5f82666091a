package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stylewatch/trendscout/internal/brief"
	"github.com/stylewatch/trendscout/internal/metrics"
	"github.com/stylewatch/trendscout/internal/report"
	"github.com/stylewatch/trendscout/internal/search"
	"github.com/stylewatch/trendscout/internal/storage"
)

// Fetcher turns a URL into page HTML. Both the HTTP fast path and the
// headless browser satisfy this.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Orchestrator runs a full research pass: expand the brief into queries,
// search, filter, fetch every surviving URL under a concurrency cap, and
// account for each one in the summary.
type Orchestrator struct {
	provider search.Provider
	filter   search.Filter

	fast      Fetcher
	browser   Fetcher
	robots    *RobotsGate
	extractor Extractor

	store   storage.Backend
	metrics *metrics.Metrics
	logger  *slog.Logger

	concurrency int
}

// OrchestratorConfig wires an Orchestrator. Provider is required; browser,
// robots, store and metrics may be nil to disable those stages.
type OrchestratorConfig struct {
	Provider    search.Provider
	Filter      search.Filter
	Fast        Fetcher
	Browser     Fetcher
	Robots      *RobotsGate
	Extractor   Extractor
	Store       storage.Backend
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Concurrency int
}

// NewOrchestrator validates the wiring and returns an orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("search provider is required")
	}
	if cfg.Fast == nil {
		return nil, fmt.Errorf("fast-path fetcher is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == (Extractor{}) {
		cfg.Extractor = NewExtractor()
	}
	return &Orchestrator{
		provider:    cfg.Provider,
		filter:      cfg.Filter,
		fast:        cfg.Fast,
		browser:     cfg.Browser,
		robots:      cfg.Robots,
		extractor:   cfg.Extractor,
		store:       cfg.Store,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}, nil
}

// Research is the outcome of one full gathering pass.
type Research struct {
	Results []ScrapeResult
	Summary report.Summary
}

// Contents returns the extracted text of the usable results, in result order.
func (r *Research) Contents() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Usable() {
			out = append(out, res.Content)
		}
	}
	return out
}

// GatherDocuments executes the research pass for the brief. An empty result
// set is a valid outcome, not an error: discovery can legitimately come up
// dry and the caller decides what that means.
func (o *Orchestrator) GatherDocuments(ctx context.Context, b brief.CreativeBrief) (*Research, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	queries := b.Queries()

	o.logger.Info("starting research", "brief", b.Label(), "queries", len(queries))

	hits := search.Collect(ctx, o.provider, queries, o.logger, o.metrics)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	discovered := len(hits)

	candidates := o.filter.Apply(hits)
	o.logger.Info("search complete", "discovered", discovered, "after_filter", len(candidates))

	if len(candidates) == 0 {
		return &Research{
			Summary: report.Build(b.Label(), queries, discovered, nil, time.Since(started)),
		}, nil
	}

	results := make([]ScrapeResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, hit := range candidates {
		g.Go(func() error {
			results[i] = o.scrapeOne(gctx, hit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	research := &Research{Results: results}
	research.Summary = report.Build(b.Label(), queries, discovered, outcomes(results), time.Since(started))

	o.persist(ctx, b.Label(), results)

	o.logger.Info("research complete",
		"succeeded", research.Summary.Succeeded,
		"partial", research.Summary.Partial,
		"failed", research.Summary.Failed,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return research, nil
}

// scrapeOne fetches and extracts a single URL. It never returns an error or
// panics out; every path ends in a classified ScrapeResult.
func (o *Orchestrator) scrapeOne(ctx context.Context, hit search.Result) (result ScrapeResult) {
	result = newResult(hit.Link, hit.Title, hit.Query)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusFailed
			result.Content = ""
			result.FailureReason = fmt.Sprintf("panic during scrape: %v", r)
			o.logger.Error("scrape panicked", "url", hit.Link, "panic", r)
		}
		result.Duration = time.Since(started)
		result.CharCount = len(result.Content)
		o.metrics.ObserveScrape(string(result.Status), result.Method, result.Duration)
	}()

	if o.robots != nil && !o.robots.Allowed(ctx, hit.Link) {
		result.Status = StatusFailed
		result.FailureReason = "disallowed by robots.txt"
		return result
	}

	extracted, method, err := o.fetchAndExtract(ctx, hit.Link)
	if err != nil {
		result.Status = StatusFailed
		result.FailureReason = err.Error()
		o.logger.Warn("scrape failed", "url", hit.Link, "error", err)
		return result
	}

	result.Status = extracted.Status
	result.Content = extracted.Text
	result.Method = method
	if extracted.Title != "" {
		result.Title = extracted.Title
	}
	if extracted.Status == StatusPartial {
		result.FailureReason = "content below minimum length"
	}
	if extracted.Status == StatusFailed {
		result.Content = ""
		result.FailureReason = "no content extracted"
	}
	return result
}

// fetchAndExtract tries the cheap HTTP path first and escalates to the
// browser when the fast path is blocked, fails, or yields a thin document
// (usually a JavaScript shell).
func (o *Orchestrator) fetchAndExtract(ctx context.Context, pageURL string) (Extracted, string, error) {
	var fastExtracted *Extracted

	html, fastErr := o.fast.Fetch(ctx, pageURL)
	if fastErr == nil {
		extracted, err := o.extractor.Extract(html)
		if err == nil && extracted.Status == StatusSuccess {
			return extracted, "http", nil
		}
		if err == nil {
			fastExtracted = &extracted
		}
		if o.browser == nil {
			if err != nil {
				return Extracted{}, "http", err
			}
			return extracted, "http", nil
		}
	} else if o.browser == nil {
		return Extracted{}, "http", fastErr
	} else if IsBlocked(fastErr) {
		o.logger.Debug("fast path blocked, escalating", "url", pageURL, "reason", fastErr)
	}

	html, err := o.browser.Fetch(ctx, pageURL)
	if err != nil {
		// The thin fast-path document is still better than nothing.
		if fastExtracted != nil {
			return *fastExtracted, "http", nil
		}
		if fastErr != nil {
			return Extracted{}, "browser", fmt.Errorf("fast path: %v; browser: %w", fastErr, err)
		}
		return Extracted{}, "browser", err
	}

	extracted, err := o.extractor.Extract(html)
	if err != nil {
		return Extracted{}, "browser", err
	}
	return extracted, "browser", nil
}

func (o *Orchestrator) persist(ctx context.Context, runLabel string, results []ScrapeResult) {
	if o.store == nil {
		return
	}
	records := make([]storage.Record, len(results))
	for i, r := range results {
		records[i] = storage.Record{
			ID:            r.ID,
			RunLabel:      runLabel,
			URL:           r.URL,
			Title:         r.Title,
			Query:         r.Query,
			Status:        string(r.Status),
			Method:        r.Method,
			FailureReason: r.FailureReason,
			CharCount:     r.CharCount,
			FetchedAt:     r.FetchedAt,
			Duration:      r.Duration,
		}
	}
	if err := o.store.Save(ctx, records); err != nil {
		o.logger.Warn("failed to persist scrape records", "error", err)
	}
}

func outcomes(results []ScrapeResult) []report.Outcome {
	out := make([]report.Outcome, len(results))
	for i, r := range results {
		out[i] = report.Outcome{
			URL:      r.URL,
			Status:   string(r.Status),
			Method:   r.Method,
			Chars:    r.CharCount,
			Reason:   r.FailureReason,
			Duration: r.Duration,
		}
	}
	return out
}
