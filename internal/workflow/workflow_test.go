package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stylewatch/trendscout/internal/brief"
	"github.com/stylewatch/trendscout/internal/llm"
	"github.com/stylewatch/trendscout/internal/scraper"
	"github.com/stylewatch/trendscout/internal/trend"
)

type stubResearcher struct {
	research *scraper.Research
	err      error
	called   bool
}

func (s *stubResearcher) GatherDocuments(context.Context, brief.CreativeBrief) (*scraper.Research, error) {
	s.called = true
	return s.research, s.err
}

type stubText struct {
	fn func(prompt string) (string, error)
}

func (s *stubText) GenerateText(_ context.Context, prompt string) (string, error) {
	return s.fn(prompt)
}

type stubSynth struct {
	report *trend.Report
	err    error
}

func (s *stubSynth) GenerateJSON(_ context.Context, _ string, out any) error {
	if s.err != nil {
		return s.err
	}
	raw, _ := json.Marshal(s.report)
	return json.Unmarshal(raw, out)
}

type stubCache struct {
	stored map[string]string
	hit    string
}

func (s *stubCache) Lookup(context.Context, string) (string, bool) {
	return s.hit, s.hit != ""
}

func (s *stubCache) Add(_ context.Context, query, reportJSON string) error {
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	s.stored[query] = reportJSON
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBrief() brief.CreativeBrief {
	return brief.CreativeBrief{Season: brief.SeasonSpringSummer, Year: 2026, Theme: "liquid chrome"}
}

func validReport() *trend.Report {
	return &trend.Report{
		Season:           "Spring/Summer",
		Year:             2026,
		OverarchingTheme: "Liquid Chrome",
		KeyPieces: []trend.KeyPiece{{
			Name:        "Molten Slip Dress",
			Description: "Centerpiece of the metallic story.",
			Fabrics:     []trend.FabricTrend{{Material: "Silk"}},
			Colors:      []trend.ColorTrend{{Name: "Mercury"}},
		}},
	}
}

func successfulResearch() *scraper.Research {
	return &scraper.Research{Results: []scraper.ScrapeResult{
		{Status: scraper.StatusSuccess, Content: "runway collection silhouette coverage with plenty of detail"},
		{Status: scraper.StatusSuccess, Content: "a second document about fabric and palette directions"},
		{Status: scraper.StatusPartial, Content: "short"},
	}}
}

func newTestWorkflow(t *testing.T, r Researcher, text llm.TextGenerator, synth llm.JSONGenerator, cache ReportCache) (*Workflow, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := New(r, text, synth, cache, testLogger(), Config{
		BatchSize:  2,
		BatchDelay: 1, // nanosecond, keep tests fast
		ResultsDir: dir,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, dir
}

func readArtifact(t *testing.T, dir, name string, out any) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal %s: %v", name, err)
	}
}

func TestRunHappyPathWritesArtifacts(t *testing.T) {
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) { return "- metallic fabrics trending", nil }}
	synth := &stubSynth{report: validReport()}
	cache := &stubCache{}

	w, dir := newTestWorkflow(t, research, text, synth, cache)
	if err := w.RunCreativeProcess(context.Background(), testBrief()); err != nil {
		t.Fatalf("RunCreativeProcess: %v", err)
	}

	var report trend.Report
	readArtifact(t, dir, "itemized_fashion_trends.json", &report)
	if report.OverarchingTheme != "Liquid Chrome" {
		t.Errorf("report artifact wrong: %+v", report)
	}

	var prompts map[string]trend.PiecePrompts
	readArtifact(t, dir, "generated_prompts.json", &prompts)
	if _, ok := prompts["Molten Slip Dress"]; !ok {
		t.Error("prompts artifact missing key piece")
	}

	if len(cache.stored) != 1 {
		t.Errorf("expected report cached, got %v", cache.stored)
	}
}

func TestRunCacheHitBypassesResearch(t *testing.T) {
	raw, _ := json.Marshal(validReport())
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) {
		t.Error("summarization should not run on cache hit")
		return "", nil
	}}
	synth := &stubSynth{report: validReport()}
	cache := &stubCache{hit: string(raw)}

	w, dir := newTestWorkflow(t, research, text, synth, cache)
	if err := w.RunCreativeProcess(context.Background(), testBrief()); err != nil {
		t.Fatalf("RunCreativeProcess: %v", err)
	}
	if research.called {
		t.Error("research should not run on cache hit")
	}

	var report trend.Report
	readArtifact(t, dir, "itemized_fashion_trends.json", &report)
	if report.Year != 2026 {
		t.Errorf("cached report not written: %+v", report)
	}
}

func TestRunCorruptCacheFallsThrough(t *testing.T) {
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) { return "- summary", nil }}
	synth := &stubSynth{report: validReport()}
	cache := &stubCache{hit: "{not valid json"}

	w, _ := newTestWorkflow(t, research, text, synth, cache)
	if err := w.RunCreativeProcess(context.Background(), testBrief()); err != nil {
		t.Fatalf("RunCreativeProcess: %v", err)
	}
	if !research.called {
		t.Error("corrupt cache entry should fall through to full workflow")
	}
}

func TestRunHaltsOnEmptyResearch(t *testing.T) {
	research := &stubResearcher{research: &scraper.Research{}}
	text := &stubText{fn: func(string) (string, error) { return "x", nil }}
	synth := &stubSynth{report: validReport()}

	w, _ := newTestWorkflow(t, research, text, synth, nil)
	err := w.RunCreativeProcess(context.Background(), testBrief())
	if err == nil || !strings.Contains(err.Error(), "no content") {
		t.Fatalf("expected halt on empty research, got %v", err)
	}
}

func TestRunHaltsWhenAllSummariesIrrelevant(t *testing.T) {
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) { return trend.NoRelevantInformation, nil }}
	synth := &stubSynth{report: validReport()}

	w, _ := newTestWorkflow(t, research, text, synth, nil)
	err := w.RunCreativeProcess(context.Background(), testBrief())
	if err == nil || !strings.Contains(err.Error(), "no valid summaries") {
		t.Fatalf("expected halt on irrelevant summaries, got %v", err)
	}
}

func TestRunQuotaAbortsSummarization(t *testing.T) {
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) { return "", llm.ErrQuotaExhausted }}
	synth := &stubSynth{report: validReport()}

	w, _ := newTestWorkflow(t, research, text, synth, nil)
	err := w.RunCreativeProcess(context.Background(), testBrief())
	if !errors.Is(err, llm.ErrQuotaExhausted) {
		t.Fatalf("expected quota error to surface, got %v", err)
	}
}

func TestRunTransientSummarizationFailuresAreAbsorbed(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			return "", errors.New("connection reset")
		}
		return "- usable summary", nil
	}}
	synth := &stubSynth{report: validReport()}

	w, _ := newTestWorkflow(t, research, text, synth, nil)
	if err := w.RunCreativeProcess(context.Background(), testBrief()); err != nil {
		t.Fatalf("transient failure should not halt the run: %v", err)
	}
}

func TestRunInvalidSynthesisPreserved(t *testing.T) {
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(string) (string, error) { return "- summary", nil }}
	invalid := validReport()
	invalid.KeyPieces = nil
	synth := &stubSynth{report: invalid}

	w, dir := newTestWorkflow(t, research, text, synth, nil)
	err := w.RunCreativeProcess(context.Background(), testBrief())
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation halt, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, invalidResponseFilename)); statErr != nil {
		t.Error("invalid synthesis output should be preserved on disk")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "itemized_fashion_trends.json")); statErr == nil {
		t.Error("no report artifact should exist after validation failure")
	}
}

func TestRunOnlySuccessContentSummarized(t *testing.T) {
	var mu sync.Mutex
	var prompts []string
	research := &stubResearcher{research: successfulResearch()}
	text := &stubText{fn: func(prompt string) (string, error) {
		mu.Lock()
		prompts = append(prompts, prompt)
		mu.Unlock()
		return "- summary", nil
	}}
	synth := &stubSynth{report: validReport()}

	w, _ := newTestWorkflow(t, research, text, synth, nil)
	if err := w.RunCreativeProcess(context.Background(), testBrief()); err != nil {
		t.Fatalf("RunCreativeProcess: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("expected 2 summarizations for 2 successes, got %d", len(prompts))
	}
	for _, p := range prompts {
		if strings.Contains(p, "short") {
			t.Error("partial result content leaked into summarization")
		}
	}
}
