package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Outcome is one URL's fate in a research run.
type Outcome struct {
	URL      string        `json:"url"`
	Status   string        `json:"status"`
	Method   string        `json:"method,omitempty"`
	Chars    int           `json:"chars"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Summary is the scrape audit for one research run: every candidate URL and
// how it ended up, with totals.
type Summary struct {
	Title       string        `json:"title"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`
	Queries     []string      `json:"queries"`
	Discovered  int           `json:"discovered"`
	Fetched     int           `json:"fetched"`
	Succeeded   int           `json:"succeeded"`
	Partial     int           `json:"partial"`
	Failed      int           `json:"failed"`
	Outcomes    []Outcome     `json:"outcomes"`
}

// Build assembles a summary, computing the totals from the outcomes.
func Build(title string, queries []string, discovered int, outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{
		Title:       title,
		GeneratedAt: time.Now().UTC(),
		Duration:    elapsed,
		Queries:     queries,
		Discovered:  discovered,
		Fetched:     len(outcomes),
		Outcomes:    outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case "success":
			s.Succeeded++
		case "partial":
			s.Partial++
		default:
			s.Failed++
		}
	}
	sort.SliceStable(s.Outcomes, func(i, j int) bool {
		return s.Outcomes[i].URL < s.Outcomes[j].URL
	})
	return s
}

// WriteJSON emits the summary as indented JSON.
func (s Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// WriteText emits a terminal-friendly rendering.
func (s Summary) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Research run: %s\n", s.Title)
	fmt.Fprintf(w, "Generated:    %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:     %s\n\n", s.Duration.Round(time.Millisecond))

	fmt.Fprintf(w, "Queries (%d):\n", len(s.Queries))
	for _, q := range s.Queries {
		fmt.Fprintf(w, "  - %s\n", q)
	}

	fmt.Fprintf(w, "\nURLs: %d discovered, %d fetched\n", s.Discovered, s.Fetched)
	fmt.Fprintf(w, "  success: %d   partial: %d   failed: %d\n\n", s.Succeeded, s.Partial, s.Failed)

	for _, o := range s.Outcomes {
		fmt.Fprintf(w, "  [%s] %s (%d chars, %s)", o.Status, o.URL, o.Chars, o.Duration.Round(time.Millisecond))
		if o.Reason != "" {
			fmt.Fprintf(w, " - %s", o.Reason)
		}
		fmt.Fprintln(w)
	}
	return nil
}
