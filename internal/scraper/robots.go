package scraper

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/stylewatch/trendscout/pkg/httpclient"
)

// RobotsGate answers whether a URL may be fetched under the site's
// robots.txt. Rules are cached per host for the lifetime of a run. Lookups
// fail open: an unreachable or unparseable robots.txt never blocks research.
type RobotsGate struct {
	client *httpclient.Client
	agent  string

	mu    sync.Mutex
	cache map[string]*robotstxt.Group
}

// NewRobotsGate builds a gate checking rules for the given agent token.
func NewRobotsGate(client *httpclient.Client, agent string) (*RobotsGate, error) {
	if client == nil {
		var err error
		client, err = httpclient.New(httpclient.Config{})
		if err != nil {
			return nil, err
		}
	}
	if agent == "" {
		agent = "trendscout"
	}
	return &RobotsGate{
		client: client,
		agent:  agent,
		cache:  make(map[string]*robotstxt.Group),
	}, nil
}

// Allowed reports whether pageURL may be fetched.
func (g *RobotsGate) Allowed(ctx context.Context, pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	group := g.group(ctx, u)
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// group returns the cached rule group for the URL's host, fetching robots.txt
// on first sight. A nil group means no restrictions apply.
func (g *RobotsGate) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	host := u.Scheme + "://" + u.Host

	g.mu.Lock()
	group, ok := g.cache[host]
	g.mu.Unlock()
	if ok {
		return group
	}

	group = g.fetch(ctx, host)

	g.mu.Lock()
	g.cache[host] = group
	g.mu.Unlock()
	return group
}

func (g *RobotsGate) fetch(ctx context.Context, host string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.agent)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data.FindGroup(g.agent)
}
