// Command trendscout researches fashion trends for a creative brief and
// produces a validated trend report plus image-generation prompts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stylewatch/trendscout/internal/brief"
	"github.com/stylewatch/trendscout/internal/cache"
	"github.com/stylewatch/trendscout/internal/config"
	"github.com/stylewatch/trendscout/internal/fingerprint"
	"github.com/stylewatch/trendscout/internal/geo"
	"github.com/stylewatch/trendscout/internal/llm"
	"github.com/stylewatch/trendscout/internal/logging"
	"github.com/stylewatch/trendscout/internal/metrics"
	"github.com/stylewatch/trendscout/internal/scraper"
	"github.com/stylewatch/trendscout/internal/search"
	"github.com/stylewatch/trendscout/internal/storage"
	"github.com/stylewatch/trendscout/internal/workflow"
	"github.com/stylewatch/trendscout/pkg/proxy"
	"github.com/stylewatch/trendscout/pkg/ratelimit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trendscout: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		seasonFlag   = flag.String("season", "", "target season: ss or aw (default: upcoming)")
		yearFlag     = flag.Int("year", 0, "target year (default: upcoming)")
		themeFlag    = flag.String("theme", "", "theme hint for the brief (required)")
		audienceFlag = flag.String("audience", "", "target audience, e.g. womenswear")
		regionFlag   = flag.String("region", "", "region for street style coverage")
		configFlag   = flag.String("config", "", "path to YAML configuration file")
	)
	flag.Parse()

	if *configFlag != "" {
		os.Setenv("TRENDSCOUT_CONFIG", *configFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	season, err := brief.ParseSeason(*seasonFlag)
	if err != nil {
		return err
	}
	b := brief.New(season, *yearFlag, time.Now())
	b.Theme = *themeFlag
	b.Audience = *audienceFlag
	b.Region = *regionFlag
	b.ExcludedSites = cfg.Search.ExcludedSites

	if b.Region == "" && cfg.Research.AutoRegion {
		locator, err := geo.NewLocator(nil, logger)
		if err != nil {
			return err
		}
		if loc := locator.Locate(ctx, ""); loc != "" {
			logger.Info("using detected region", "region", loc)
			b.Region = loc
		}
	}
	if err := b.Validate(); err != nil {
		return err
	}

	m := metrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Port); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	store, err := storage.Open(ctx, storage.Config{
		Backend: cfg.Storage.Backend,
		DSN:     cfg.Storage.DSN,
		Path:    cfg.Storage.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	limiter := ratelimit.NewLimiter(cfg.Search.RequestsPerSecond, cfg.Search.Jitter)
	defer limiter.Stop()

	provider, err := search.NewGoogle(search.GoogleConfig{
		APIKey:          cfg.Search.APIKey,
		EngineID:        cfg.Search.EngineID,
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
	}, nil, limiter)
	if err != nil {
		return err
	}

	var proxies *proxy.Pool
	if cfg.Scrape.ProxyFile != "" {
		proxies = proxy.NewPool(proxy.Config{})
		if err := proxies.LoadFile(cfg.Scrape.ProxyFile); err != nil {
			return err
		}
	}

	fast, err := scraper.NewHTTPFetcher(scraper.HTTPFetcherConfig{
		Fingerprint: fingerprint.Profile(cfg.Scrape.Fingerprint),
		UserAgents:  cfg.Scrape.UserAgents,
		Proxies:     proxies,
	})
	if err != nil {
		return err
	}

	var browser scraper.Fetcher
	if !cfg.Scrape.DisableBrowser {
		browser = scraper.NewBrowserFetcher(scraper.BrowserConfig{
			UserAgent:    cfg.Scrape.BrowserUserAgent,
			Budget:       cfg.Scrape.FetchBudget(),
			ContentFloor: cfg.Scrape.MinContentChars,
		}, logger)
	}

	var robots *scraper.RobotsGate
	if cfg.Scrape.RespectRobots {
		robots, err = scraper.NewRobotsGate(nil, "trendscout")
		if err != nil {
			return err
		}
	}

	orchestrator, err := scraper.NewOrchestrator(scraper.OrchestratorConfig{
		Provider: provider,
		Filter: search.Filter{
			IgnoredExtensions: cfg.Search.IgnoredExtensions,
			IgnoredDomains:    cfg.Search.IgnoredDomains,
		},
		Fast:    fast,
		Browser: browser,
		Robots:  robots,
		Extractor: scraper.Extractor{
			MinChars: cfg.Scrape.MinContentChars,
			MaxChars: cfg.Scrape.MaxContentChars,
		},
		Store:       store,
		Metrics:     m,
		Logger:      logger,
		Concurrency: cfg.Scrape.Concurrency,
	})
	if err != nil {
		return err
	}

	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		MaxAttempts:    cfg.LLM.MaxAttempts,
	}, m, logger)
	if err != nil {
		return err
	}

	var reportCache workflow.ReportCache
	if !cfg.Cache.Disabled {
		c, err := cache.Open(cfg.Cache.Path, gemini, cfg.Cache.DistanceThreshold, m, logger)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer c.Close()
		reportCache = c
	}

	wf, err := workflow.New(orchestrator, gemini, gemini, reportCache, logger, workflow.Config{
		BatchSize:       cfg.LLM.BatchSize,
		BatchDelay:      cfg.LLM.BatchDelay(),
		ResultsDir:      cfg.Results.Dir,
		ReportFilename:  cfg.Results.ReportFilename,
		PromptsFilename: cfg.Results.PromptsFilename,
	})
	if err != nil {
		return err
	}

	return wf.RunCreativeProcess(ctx, b)
}
