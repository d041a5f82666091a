// Package llm wraps the Gemini API behind small interfaces so the pipeline
// and its tests never touch the SDK directly.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/stylewatch/trendscout/internal/metrics"
	"github.com/stylewatch/trendscout/pkg/retry"
)

// TextGenerator produces free-form prose from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// JSONGenerator produces a response conforming to the JSON shape of out.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// Embedder maps text to a vector for semantic similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ErrQuotaExhausted marks a hard rate-limit rejection. Retrying inside the
// same quota window only burns more of it, so callers abort the run instead.
var ErrQuotaExhausted = errors.New("model quota exhausted")

// IsQuota reports whether err is a quota rejection.
func IsQuota(err error) bool {
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	return strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}

// Config configures the Gemini client.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxAttempts    int
}

// Gemini implements TextGenerator, JSONGenerator and Embedder against the
// Gemini API.
type Gemini struct {
	client         *genai.Client
	model          string
	embeddingModel string
	policy         retry.Policy
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewGemini creates the client. metrics may be nil.
func NewGemini(ctx context.Context, cfg Config, m *metrics.Metrics, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "gemini-embedding-001"
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	policy := retry.Default()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	policy.Retryable = func(err error) bool { return !IsQuota(err) }

	return &Gemini{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		policy:         policy,
		metrics:        m,
		logger:         logger,
	}, nil
}

func (g *Gemini) observe(operation string, err error) {
	if g.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if IsQuota(err) {
			outcome = "quota"
		}
	}
	g.metrics.LLMCalls.WithLabelValues(operation, outcome).Inc()
}

// GenerateText runs one prompt and returns the model's text.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return fmt.Errorf("generate content failed: %w", err)
		}
		text = resp.Text()
		if text == "" {
			return fmt.Errorf("model returned empty response")
		}
		return nil
	})
	g.observe("generate_text", err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateJSON runs one prompt in JSON mode and unmarshals the response.
func (g *Gemini) GenerateJSON(ctx context.Context, prompt string, out any) error {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}

	err := g.policy.Do(ctx, func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			return fmt.Errorf("generate content failed: %w", err)
		}
		raw := StripFences(resp.Text())
		if raw == "" {
			return fmt.Errorf("model returned empty response")
		}
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			return fmt.Errorf("model returned invalid json: %w", err)
		}
		return nil
	})
	g.observe("generate_json", err)
	return err
}

// Embed returns the embedding vector for the text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	var vector []float64
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), nil)
		if err != nil {
			return fmt.Errorf("embed content failed: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return fmt.Errorf("model returned empty embedding")
		}
		values := resp.Embeddings[0].Values
		vector = make([]float64, len(values))
		for i, v := range values {
			vector[i] = float64(v)
		}
		return nil
	})
	g.observe("embed", err)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// StripFences removes a markdown code fence around a JSON payload. Models
// sometimes wrap JSON-mode output anyway.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
