package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stylewatch/trendscout/internal/bypass"
	"github.com/stylewatch/trendscout/internal/fingerprint"
	"github.com/stylewatch/trendscout/pkg/httpclient"
	"github.com/stylewatch/trendscout/pkg/proxy"
	"github.com/stylewatch/trendscout/pkg/useragent"
)

const maxBodyBytes = 4 << 20

// HTTPFetcher is the fast path: a plain GET with a browser TLS fingerprint
// and rotated User-Agent. Cheap enough to try on every URL before paying for
// a headless browser session.
type HTTPFetcher struct {
	client    *httpclient.Client
	agents    *useragent.Pool
	proxies   *proxy.Pool
	detectors []bypass.Detector
}

// HTTPFetcherConfig configures the fast path.
type HTTPFetcherConfig struct {
	Fingerprint fingerprint.Profile
	UserAgents  []string
	Proxies     *proxy.Pool
}

// NewHTTPFetcher builds the fast-path fetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		agents:    useragent.NewPool(cfg.UserAgents),
		proxies:   cfg.Proxies,
		detectors: bypass.DefaultDetectors(),
	}

	var proxyFunc func(*http.Request) (*url.URL, error)
	if cfg.Proxies != nil {
		proxyFunc = func(*http.Request) (*url.URL, error) {
			return cfg.Proxies.Next(), nil
		}
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		MaxRedirects: 5,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, err
	}
	f.client = client
	return f, nil
}

// errBlocked signals that the fast path was stopped by bot protection and a
// browser attempt is worthwhile.
type errBlocked struct {
	source string
}

func (e errBlocked) Error() string {
	return fmt.Sprintf("blocked by %s", e.source)
}

// IsBlocked reports whether err indicates anti-bot interference.
func IsBlocked(err error) bool {
	_, ok := err.(errBlocked)
	return ok
}

// Fetch performs one GET and returns the response HTML. Anti-bot blocks and
// non-HTML responses return errors so the caller can escalate or give up.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.agents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	page := &bypass.Page{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}
	if blocked, source := bypass.Detect(page, f.detectors); blocked {
		return "", errBlocked{source: source}
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		return "", fmt.Errorf("non-html content type %q", ct)
	}

	html := string(body)
	if bypass.ChallengeHTML(html) {
		return "", errBlocked{source: "challenge page"}
	}
	return html, nil
}
