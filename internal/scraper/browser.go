package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserConfig configures the headless fallback.
type BrowserConfig struct {
	// UserAgent overrides Chrome's default agent string.
	UserAgent string
	// Budget is the wall-clock limit for one page, teardown included.
	Budget time.Duration
	// ProxyURL routes browser traffic, e.g. "http://host:port".
	ProxyURL string
	// ContentFloor is the rendered-text length at which a wait strategy is
	// considered satisfied.
	ContentFloor int
}

// BrowserFetcher renders JavaScript-heavy pages in a disposable headless
// Chrome session. Each Fetch gets its own browser process so a wedged page
// cannot poison later fetches.
type BrowserFetcher struct {
	cfg    BrowserConfig
	logger *slog.Logger
}

// NewBrowserFetcher builds the fallback fetcher.
func NewBrowserFetcher(cfg BrowserConfig, logger *slog.Logger) *BrowserFetcher {
	if cfg.Budget <= 0 {
		cfg.Budget = 60 * time.Second
	}
	if cfg.ContentFloor <= 0 {
		cfg.ContentFloor = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserFetcher{cfg: cfg, logger: logger}
}

// blockedURLPatterns keeps the session from downloading assets that add
// nothing to text extraction.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.mp4", "*.webm",
	"*googletagmanager.com*", "*google-analytics.com*",
	"*doubleclick.net*", "*facebook.net*", "*hotjar.com*",
}

// consentScript clicks the accept button of the common cookie banners so the
// overlay does not occlude content in the rendered DOM.
const consentScript = `(() => {
	const labels = ["accept all", "accept cookies", "i accept", "agree", "got it", "accept"];
	const candidates = document.querySelectorAll("button, [role='button'], a");
	for (const el of candidates) {
		const text = (el.textContent || "").trim().toLowerCase();
		if (labels.some(l => text === l || text.startsWith(l))) {
			el.click();
			return true;
		}
	}
	return false;
})()`

// Fetch renders the page and returns its final HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Budget)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	if b.cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(b.cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// Teardown is bounded so a hung Chrome cannot hold the worker slot.
	defer func() {
		done := make(chan struct{})
		go func() {
			_ = chromedp.Cancel(taskCtx)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			b.logger.Warn("browser teardown timed out", "url", pageURL)
		}
		taskCancel()
		allocCancel()
	}()

	if err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetBlockedURLs(blockedURLPatterns),
		chromedp.Navigate(pageURL),
	); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	b.waitForContent(taskCtx, pageURL)
	b.dismissConsent(taskCtx)

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture document: %w", err)
	}
	return html, nil
}

// waitForContent tries progressively weaker readiness signals, each under its
// own timeout, accepting as soon as the rendered text clears the floor.
// Failures here are not fatal; whatever HTML exists is still captured.
func (b *BrowserFetcher) waitForContent(ctx context.Context, pageURL string) {
	strategies := []struct {
		name    string
		timeout time.Duration
		action  chromedp.Action
	}{
		{"article region", 8 * time.Second, chromedp.WaitVisible("article, main", chromedp.ByQuery)},
		{"body ready", 5 * time.Second, chromedp.WaitReady("body", chromedp.ByQuery)},
		{"settle", 3 * time.Second, chromedp.Sleep(3 * time.Second)},
	}

	for _, s := range strategies {
		waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := chromedp.Run(waitCtx, s.action)
		cancel()
		if err != nil {
			b.logger.Debug("wait strategy missed", "strategy", s.name, "url", pageURL, "error", err)
		}
		if b.renderedLength(ctx) >= b.cfg.ContentFloor {
			return
		}
	}
}

func (b *BrowserFetcher) renderedLength(ctx context.Context) int {
	evalCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var n int
	if err := chromedp.Run(evalCtx,
		chromedp.Evaluate(`document.body ? document.body.innerText.length : 0`, &n),
	); err != nil {
		return 0
	}
	return n
}

func (b *BrowserFetcher) dismissConsent(ctx context.Context) {
	evalCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(consentScript, &clicked)); err != nil {
		return
	}
	if clicked {
		// Give the page a beat to reflow without the overlay.
		settleCtx, settleCancel := context.WithTimeout(ctx, time.Second)
		defer settleCancel()
		_ = chromedp.Run(settleCtx, chromedp.Sleep(500*time.Millisecond))
	}
}
