package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction limits. Anything under MinContentChars is navigation chrome or
// a challenge page, not an article; anything over MaxContentChars blows the
// summarization context for no gain.
const (
	DefaultMinContentChars = 200
	DefaultMaxContentChars = 150000
)

// contentSelectors is tried in order; the first match wide enough wins.
// Fashion publications almost always wrap the story in one of these.
var contentSelectors = []string{
	"article",
	"main",
	"[role='main']",
	"div.article-body",
	"div.post-content",
	"div.entry-content",
	"div#content",
}

// junkSelectors are stripped before text extraction regardless of where the
// content was found.
var junkSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form", "button",
	"[class*='cookie']", "[class*='newsletter']", "[id*='comments']",
}

// Extractor reduces raw HTML to readable article text.
type Extractor struct {
	MinChars int
	MaxChars int
}

// NewExtractor returns an extractor with the default length limits.
func NewExtractor() Extractor {
	return Extractor{MinChars: DefaultMinContentChars, MaxChars: DefaultMaxContentChars}
}

// Extracted is the outcome of one extraction pass.
type Extracted struct {
	Title  string
	Text   string
	Status Status
}

// Extract parses the document, strips non-content nodes, and pulls text from
// the most article-like region. The status encodes whether the text clears
// the minimum length; text over the maximum is truncated, not rejected.
func (e Extractor) Extract(html string) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extracted{Status: StatusFailed}, fmt.Errorf("failed to parse document: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	for _, sel := range junkSelectors {
		doc.Find(sel).Remove()
	}

	var region *goquery.Selection
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			region = s
			break
		}
	}
	if region == nil {
		region = doc.Find("body").First()
	}

	text := collapseWhitespace(region.Text())

	min := e.MinChars
	if min <= 0 {
		min = DefaultMinContentChars
	}
	max := e.MaxChars
	if max <= 0 {
		max = DefaultMaxContentChars
	}

	out := Extracted{Title: title, Text: text}
	switch {
	case len(text) == 0:
		out.Status = StatusFailed
	case len(text) < min:
		out.Status = StatusPartial
	default:
		out.Status = StatusSuccess
		if len(text) > max {
			out.Text = text[:max]
		}
	}
	return out, nil
}

// collapseWhitespace joins text fragments into single-spaced lines, keeping
// paragraph breaks so the summarizer sees document structure.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
