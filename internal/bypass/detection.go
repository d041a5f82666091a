package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Page is the slice of an HTTP response the detectors need.
type Page struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector inspects a fetched page and reports whether a bot-protection
// layer blocked or challenged the request, and which one.
type Detector func(p *Page) (blocked bool, source string)

// DefaultDetectors returns the standard detector chain.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Detect runs the page through the detectors, returning the first hit.
func Detect(p *Page, detectors []Detector) (bool, string) {
	if p == nil {
		return false, ""
	}
	for _, d := range detectors {
		if blocked, source := d(p); blocked {
			return true, source
		}
	}
	return false, ""
}

// ChallengeHTML reports whether rendered HTML still shows an interstitial
// challenge rather than real content. Used on browser-fetched documents,
// where status codes are not available.
func ChallengeHTML(html string) bool {
	lower := strings.ToLower(html)
	for _, pattern := range []string{
		"verifying you are human",
		"verify you are human",
		"checking your browser",
		"enable javascript and cookies to continue",
		"attention required! | cloudflare",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func header(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	return h.Get(key)
}

func detectCloudflare(p *Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden || p.StatusCode == http.StatusServiceUnavailable {
		if strings.Contains(strings.ToLower(header(p.Headers, "Server")), "cloudflare") {
			return true, "Cloudflare"
		}
		if bytes.Contains(p.Body, []byte("cf-browser-verification")) ||
			bytes.Contains(p.Body, []byte("cf-turnstile")) ||
			bytes.Contains(p.Body, []byte("Attention Required! | Cloudflare")) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(p *Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(p.Headers, "Server")), "akamai") {
			return true, "Akamai"
		}
		// Akamai's block page is a generic "Access Denied" with a reference id
		if bytes.Contains(p.Body, []byte("Reference #")) && bytes.Contains(p.Body, []byte("Access Denied")) {
			return true, "Akamai"
		}
	}
	return false, ""
}

func detectDataDome(p *Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(p.Headers, "Server")), "datadome") {
			return true, "DataDome"
		}
		if header(p.Headers, "X-DataDome") != "" || header(p.Headers, "X-DataDome-Response") != "" {
			return true, "DataDome"
		}
		if bytes.Contains(p.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(p.Body, []byte("datadome")) {
			return true, "DataDome"
		}
	}
	return false, ""
}

func detectPerimeterX(p *Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden {
		if header(p.Headers, "X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}
		if bytes.Contains(p.Body, []byte("client.perimeterx.net")) ||
			bytes.Contains(p.Body, []byte("px-captcha")) ||
			bytes.Contains(p.Body, []byte("_pxBlock")) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
