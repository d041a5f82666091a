package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stylewatch/trendscout/pkg/httpclient"
	"github.com/stylewatch/trendscout/pkg/ratelimit"
)

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// GoogleConfig configures the Custom Search JSON API adapter.
type GoogleConfig struct {
	APIKey          string
	EngineID        string
	ResultsPerQuery int
	// Endpoint overrides the API base URL, used in tests.
	Endpoint string
}

// Google queries the Google Custom Search JSON API. Requests share one rate
// limiter so concurrent queries stay inside the API quota.
type Google struct {
	cfg     GoogleConfig
	client  *httpclient.Client
	limiter *ratelimit.Limiter
}

// NewGoogle builds the adapter. limiter may be nil to disable pacing.
func NewGoogle(cfg GoogleConfig, client *httpclient.Client, limiter *ratelimit.Limiter) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google search: api key is required")
	}
	if cfg.EngineID == "" {
		return nil, fmt.Errorf("google search: engine id is required")
	}
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = 2
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = googleEndpoint
	}
	if client == nil {
		var err error
		client, err = httpclient.New(httpclient.Config{})
		if err != nil {
			return nil, err
		}
	}
	return &Google{cfg: cfg, client: client, limiter: limiter}, nil
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search runs one query and returns up to ResultsPerQuery organic hits.
func (g *Google) Search(ctx context.Context, query string) ([]Result, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("key", g.cfg.APIKey)
	params.Set("cx", g.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(g.cfg.ResultsPerQuery))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("search api error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return nil, fmt.Errorf("search api returned status %d", resp.StatusCode)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Query:   query,
		})
	}
	return results, nil
}
