// Package workflow runs the full creative process: cache check, research,
// summarization, synthesis, validation, and artifact generation.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stylewatch/trendscout/internal/batch"
	"github.com/stylewatch/trendscout/internal/brief"
	"github.com/stylewatch/trendscout/internal/llm"
	"github.com/stylewatch/trendscout/internal/relevance"
	"github.com/stylewatch/trendscout/internal/scraper"
	"github.com/stylewatch/trendscout/internal/trend"
)

// Researcher gathers source documents for a brief.
type Researcher interface {
	GatherDocuments(ctx context.Context, b brief.CreativeBrief) (*scraper.Research, error)
}

// ReportCache is the semantic cache surface the workflow needs.
type ReportCache interface {
	Lookup(ctx context.Context, query string) (string, bool)
	Add(ctx context.Context, query, reportJSON string) error
}

// Config tunes the workflow.
type Config struct {
	// BatchSize is how many summarization calls run per quota window.
	BatchSize int
	// BatchDelay is the pause between summarization batches.
	BatchDelay time.Duration
	// MaxDocChars truncates documents before summarization.
	MaxDocChars int
	// ResultsDir receives the output artifacts.
	ResultsDir string
	// ReportFilename and PromptsFilename name the artifacts inside ResultsDir.
	ReportFilename  string
	PromptsFilename string
}

func (c *Config) fillDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 61 * time.Second
	}
	if c.MaxDocChars <= 0 {
		c.MaxDocChars = 150000
	}
	if c.ResultsDir == "" {
		c.ResultsDir = "results"
	}
	if c.ReportFilename == "" {
		c.ReportFilename = "itemized_fashion_trends.json"
	}
	if c.PromptsFilename == "" {
		c.PromptsFilename = "generated_prompts.json"
	}
}

// invalidResponseFilename receives synthesis output that failed validation,
// kept for postmortem.
const invalidResponseFilename = "invalid_llm_response.json"

// Workflow executes the creative process end to end.
type Workflow struct {
	research Researcher
	text     llm.TextGenerator
	synth    llm.JSONGenerator
	cache    ReportCache
	logger   *slog.Logger
	cfg      Config
}

// New wires a workflow. cache may be nil to disable caching.
func New(research Researcher, text llm.TextGenerator, synth llm.JSONGenerator, cache ReportCache, logger *slog.Logger, cfg Config) (*Workflow, error) {
	if research == nil {
		return nil, fmt.Errorf("researcher is required")
	}
	if text == nil || synth == nil {
		return nil, fmt.Errorf("text and json generators are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.fillDefaults()
	return &Workflow{
		research: research,
		text:     text,
		synth:    synth,
		cache:    cache,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

// RunCreativeProcess executes the workflow for one brief. It returns an
// error only when the process halts without producing a report.
func (w *Workflow) RunCreativeProcess(ctx context.Context, b brief.CreativeBrief) error {
	if err := b.Validate(); err != nil {
		return err
	}
	label := b.Label()
	w.logger.Info("starting creative process", "brief", label)

	if w.tryCachedReport(ctx, label) {
		return nil
	}

	research, err := w.research.GatherDocuments(ctx, b)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	contents := research.Contents()
	if len(contents) == 0 {
		return fmt.Errorf("halting: no content was successfully scraped")
	}

	scorer := relevance.NewScorer(briefTerms(b)...)
	contents = scorer.Rank(contents)

	summaries, err := w.summarize(ctx, contents)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	valid := filterSummaries(summaries)
	if len(valid) == 0 {
		return fmt.Errorf("halting: no valid summaries were generated")
	}
	w.logger.Info("summarization complete", "documents", len(contents), "valid_summaries", len(valid))

	report, err := w.synthesize(ctx, valid, b)
	if err != nil {
		return err
	}

	if err := w.writeJSON(w.cfg.ReportFilename, report); err != nil {
		return err
	}

	if w.cache != nil {
		raw, err := json.Marshal(report)
		if err == nil {
			if err := w.cache.Add(ctx, label, string(raw)); err != nil {
				w.logger.Warn("failed to cache report", "error", err)
			}
		}
	}

	if err := w.writeImagePrompts(report); err != nil {
		return err
	}

	w.logger.Info("creative process complete", "brief", label)
	return nil
}

// tryCachedReport serves the run from the semantic cache when possible. A
// cached report that no longer validates is ignored and the run proceeds.
func (w *Workflow) tryCachedReport(ctx context.Context, label string) bool {
	if w.cache == nil {
		return false
	}
	raw, hit := w.cache.Lookup(ctx, label)
	if !hit {
		return false
	}

	var report trend.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		w.logger.Warn("cached report unreadable, running full workflow", "error", err)
		return false
	}
	if err := report.Validate(); err != nil {
		w.logger.Warn("cached report invalid, running full workflow", "error", err)
		return false
	}

	w.logger.Info("serving run from semantic cache", "brief", label)
	if err := w.writeJSON(w.cfg.ReportFilename, &report); err != nil {
		w.logger.Warn("failed to write cached report", "error", err)
		return false
	}
	if err := w.writeImagePrompts(&report); err != nil {
		w.logger.Warn("failed to write prompts from cached report", "error", err)
		return false
	}
	return true
}

// summarize condenses each document in rate-limit-sized batches. A document
// whose summarization fails for transient reasons is treated as carrying no
// information; a quota rejection aborts the run outright.
func (w *Workflow) summarize(ctx context.Context, contents []string) ([]string, error) {
	return batch.Run(ctx, contents, w.cfg.BatchSize, w.cfg.BatchDelay,
		func(ctx context.Context, doc string) (string, error) {
			if len(doc) > w.cfg.MaxDocChars {
				doc = doc[:w.cfg.MaxDocChars]
			}
			summary, err := w.text.GenerateText(ctx, trend.SummarizationPrompt(doc))
			if err != nil {
				if llm.IsQuota(err) {
					return "", err
				}
				w.logger.Warn("document summarization failed", "error", err)
				return trend.NoRelevantInformation, nil
			}
			return summary, nil
		})
}

func filterSummaries(summaries []string) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s == "" || strings.Contains(s, trend.NoRelevantInformation) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// synthesize produces the final validated report. Output that fails
// validation is preserved on disk for inspection before the run halts.
func (w *Workflow) synthesize(ctx context.Context, summaries []string, b brief.CreativeBrief) (*trend.Report, error) {
	prompt, err := trend.SynthesisPrompt(summaries, string(b.Season), b.Year)
	if err != nil {
		return nil, err
	}

	var report trend.Report
	if err := w.synth.GenerateJSON(ctx, prompt, &report); err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	if err := report.Validate(); err != nil {
		if werr := w.writeJSON(invalidResponseFilename, &report); werr != nil {
			w.logger.Warn("failed to preserve invalid response", "error", werr)
		}
		return nil, fmt.Errorf("halting: synthesized report failed validation: %w", err)
	}
	return &report, nil
}

func (w *Workflow) writeImagePrompts(report *trend.Report) error {
	prompts, err := trend.ImagePrompts(report)
	if err != nil {
		return fmt.Errorf("prompt generation failed: %w", err)
	}
	return w.writeJSON(w.cfg.PromptsFilename, prompts)
}

func (w *Workflow) writeJSON(filename string, v any) error {
	if err := os.MkdirAll(w.cfg.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	path := filepath.Join(w.cfg.ResultsDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.logger.Info("wrote artifact", "path", path)
	return nil
}

func briefTerms(b brief.CreativeBrief) []string {
	var terms []string
	for _, field := range []string{b.Theme, b.Audience, b.Region} {
		terms = append(terms, strings.Fields(strings.ToLower(field))...)
	}
	return terms
}
