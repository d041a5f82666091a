// Package geo resolves the caller's rough location from their public IP so
// a brief without a region can still get localized street-style coverage.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stylewatch/trendscout/pkg/httpclient"
)

const cacheTTL = time.Hour

// endpoint is one geolocation provider with its response parser. Providers
// are tried in order; each has its own response shape.
type endpoint struct {
	name  string
	url   string
	parse func([]byte) string
}

func defaultEndpoints() []endpoint {
	return []endpoint{
		{
			name: "ip-api.com",
			url:  "https://ip-api.com/json",
			parse: func(raw []byte) string {
				var body struct {
					Status  string `json:"status"`
					City    string `json:"city"`
					Country string `json:"country"`
				}
				if json.Unmarshal(raw, &body) != nil || body.Status != "success" {
					return ""
				}
				return join(body.City, body.Country)
			},
		},
		{
			name: "ipapi.co",
			url:  "https://ipapi.co/json/",
			parse: func(raw []byte) string {
				var body struct {
					City        string `json:"city"`
					CountryName string `json:"country_name"`
				}
				if json.Unmarshal(raw, &body) != nil {
					return ""
				}
				return join(body.City, body.CountryName)
			},
		},
		{
			name: "ipinfo.io",
			url:  "https://ipinfo.io/json",
			parse: func(raw []byte) string {
				var body struct {
					City    string `json:"city"`
					Country string `json:"country"`
				}
				if json.Unmarshal(raw, &body) != nil {
					return ""
				}
				return join(body.City, body.Country)
			},
		},
	}
}

func join(city, country string) string {
	if city == "" || country == "" {
		return ""
	}
	return city + ", " + country
}

// Locator resolves and caches the caller's location.
type Locator struct {
	client    *httpclient.Client
	endpoints []endpoint
	logger    *slog.Logger

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
}

// NewLocator builds a locator with the standard provider chain.
func NewLocator(client *httpclient.Client, logger *slog.Logger) (*Locator, error) {
	if client == nil {
		var err error
		client, err = httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		client:    client,
		endpoints: defaultEndpoints(),
		logger:    logger,
	}, nil
}

// Locate returns "City, Country" for the public IP, or fallback when every
// provider fails. Successful lookups are cached for an hour.
func (l *Locator) Locate(ctx context.Context, fallback string) string {
	l.mu.Lock()
	if l.cached != "" && time.Since(l.cachedAt) < cacheTTL {
		cached := l.cached
		l.mu.Unlock()
		return cached
	}
	l.mu.Unlock()

	for _, ep := range l.endpoints {
		location, err := l.query(ctx, ep)
		if err != nil {
			l.logger.Debug("geolocation provider failed", "provider", ep.name, "error", err)
			continue
		}
		if location == "" {
			continue
		}

		l.mu.Lock()
		l.cached = location
		l.cachedAt = time.Now()
		l.mu.Unlock()

		l.logger.Info("resolved location", "provider", ep.name, "location", location)
		return location
	}

	l.logger.Warn("all geolocation providers failed", "fallback", fallback)
	return fallback
}

func (l *Locator) query(ctx context.Context, ep endpoint) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url, nil)
	if err != nil {
		return "", err
	}

	resp, err := l.client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	return ep.parse(raw), nil
}
