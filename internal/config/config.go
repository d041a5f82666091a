package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "TRENDSCOUT_CONFIG"
	searchKeyEnv   = "GOOGLE_API_KEY"
	engineIDEnv    = "SEARCH_ENGINE_ID"
	geminiKeyEnv   = "GEMINI_API_KEY"
	databaseDSNEnv = "DATABASE_DSN"
)

// Config holds every setting the application needs. Values come from
// defaults, then an optional YAML file, then environment overrides.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Search   SearchConfig   `yaml:"search"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Results  ResultsConfig  `yaml:"results"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Research ResearchConfig `yaml:"research"`
}

// LoggingConfig controls console log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SearchConfig describes the Google Custom Search adapter.
type SearchConfig struct {
	APIKey            string   `yaml:"apiKey"`
	EngineID          string   `yaml:"engineId"`
	ResultsPerQuery   int      `yaml:"resultsPerQuery"`
	RequestsPerSecond float64  `yaml:"requestsPerSecond"`
	Jitter            float64  `yaml:"jitter"`
	ExcludedSites     []string `yaml:"excludedSites"`
	IgnoredDomains    []string `yaml:"ignoredDomains"`
	IgnoredExtensions []string `yaml:"ignoredExtensions"`
}

// ScrapeConfig bounds the fetch-and-extract pipeline.
type ScrapeConfig struct {
	Concurrency      int      `yaml:"concurrency"`
	FetchBudgetSecs  int      `yaml:"fetchBudgetSeconds"`
	MinContentChars  int      `yaml:"minContentChars"`
	MaxContentChars  int      `yaml:"maxContentChars"`
	RespectRobots    bool     `yaml:"respectRobots"`
	Fingerprint      string   `yaml:"fingerprint"`
	UserAgents       []string `yaml:"userAgents"`
	ProxyFile        string   `yaml:"proxyFile"`
	DisableBrowser   bool     `yaml:"disableBrowser"`
	BrowserUserAgent string   `yaml:"browserUserAgent"`
}

// FetchBudget returns the per-URL wall-clock budget.
func (s ScrapeConfig) FetchBudget() time.Duration {
	if s.FetchBudgetSecs <= 0 {
		return 90 * time.Second
	}
	return time.Duration(s.FetchBudgetSecs) * time.Second
}

// LLMConfig describes the Gemini client and its batching limits.
type LLMConfig struct {
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embeddingModel"`
	BatchSize      int    `yaml:"batchSize"`
	BatchDelaySecs int    `yaml:"batchDelaySeconds"`
	MaxAttempts    int    `yaml:"maxAttempts"`
}

// BatchDelay returns the pause between summarization batches.
func (l LLMConfig) BatchDelay() time.Duration {
	if l.BatchDelaySecs <= 0 {
		return 61 * time.Second
	}
	return time.Duration(l.BatchDelaySecs) * time.Second
}

// CacheConfig describes the semantic report cache.
type CacheConfig struct {
	Path              string  `yaml:"path"`
	DistanceThreshold float64 `yaml:"distanceThreshold"`
	Disabled          bool    `yaml:"disabled"`
}

// StorageConfig selects the scrape-outcome persistence backend.
type StorageConfig struct {
	// Backend is one of "sqlite", "postgres", "json", "csv" or "none".
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
	Path    string `yaml:"path"`
}

// ResultsConfig names the output artifacts.
type ResultsConfig struct {
	Dir             string `yaml:"dir"`
	ReportFilename  string `yaml:"reportFilename"`
	PromptsFilename string `yaml:"promptsFilename"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ResearchConfig tunes brief preparation.
type ResearchConfig struct {
	// AutoRegion fills an empty brief region from IP geolocation.
	AutoRegion bool `yaml:"autoRegion"`
}

// Load reads YAML configuration (if TRENDSCOUT_CONFIG points at a file) over
// the defaults and applies environment overrides. A broken file is an error;
// a missing one is not.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(searchKeyEnv); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv(engineIDEnv); v != "" {
		c.Search.EngineID = v
	}
	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}
}

// Validate checks settings that have no workable fallback.
func (c Config) Validate() error {
	if c.Search.APIKey == "" {
		return fmt.Errorf("search api key is not set (%s)", searchKeyEnv)
	}
	if c.Search.EngineID == "" {
		return fmt.Errorf("search engine id is not set (%s)", engineIDEnv)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is not set (%s)", geminiKeyEnv)
	}
	return nil
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Search: SearchConfig{
			ResultsPerQuery:   2,
			RequestsPerSecond: 5,
			Jitter:            0.2,
			ExcludedSites:     []string{"pinterest.com", "amazon.com"},
			IgnoredDomains:    []string{"pinterest.", "amazon.", "youtube.com", "tiktok.com", "instagram.com", "facebook.com"},
			IgnoredExtensions: []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".zip", ".mp4"},
		},
		Scrape: ScrapeConfig{
			Concurrency:     4,
			FetchBudgetSecs: 90,
			MinContentChars: 200,
			MaxContentChars: 150000,
			RespectRobots:   true,
			Fingerprint:     "chrome",
		},
		LLM: LLMConfig{
			Model:          "gemini-2.5-flash",
			EmbeddingModel: "gemini-embedding-001",
			BatchSize:      5,
			BatchDelaySecs: 61,
			MaxAttempts:    3,
		},
		Cache: CacheConfig{
			Path:              "trend_cache.db",
			DistanceThreshold: 0.2,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    "scrape_results.db",
		},
		Results: ResultsConfig{
			Dir:             "results",
			ReportFilename:  "itemized_fashion_trends.json",
			PromptsFilename: "generated_prompts.json",
		},
		Metrics: MetricsConfig{Port: 9090},
		Research: ResearchConfig{
			AutoRegion: false,
		},
	}
}
