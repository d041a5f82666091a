package brief

import (
	"fmt"
	"strings"
	"time"
)

// Season names the fashion calendar half the research targets.
type Season string

const (
	SeasonSpringSummer Season = "Spring/Summer"
	SeasonAutumnWinter Season = "Autumn/Winter"
)

// CreativeBrief frames a research run: the season and year under study plus
// optional styling of the question (theme, audience, region). The brief is
// the unit of caching, so two briefs that read the same produce the same
// report.
type CreativeBrief struct {
	Season   Season `json:"season"`
	Year     int    `json:"year"`
	Theme    string `json:"theme,omitempty"`
	Audience string `json:"audience,omitempty"`
	Region   string `json:"region,omitempty"`

	// ExcludedSites are appended to every query as -site: operators.
	// Empty means the default aggregator exclusions.
	ExcludedSites []string `json:"-"`
}

// New builds a brief, filling season and year from the clock when absent.
// January through June is treated as lead time for Autumn/Winter of the same
// year, July onward as lead time for next year's Spring/Summer.
func New(season Season, year int, now time.Time) CreativeBrief {
	if season == "" || year == 0 {
		defSeason, defYear := upcoming(now)
		if season == "" {
			season = defSeason
		}
		if year == 0 {
			year = defYear
		}
	}
	return CreativeBrief{Season: season, Year: year}
}

func upcoming(now time.Time) (Season, int) {
	if now.Month() <= time.June {
		return SeasonAutumnWinter, now.Year()
	}
	return SeasonSpringSummer, now.Year() + 1
}

// ParseSeason accepts the canonical season names plus common shorthand.
func ParseSeason(value string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "", nil
	case "spring/summer", "spring summer", "ss":
		return SeasonSpringSummer, nil
	case "autumn/winter", "autumn winter", "fall/winter", "fall winter", "aw", "fw":
		return SeasonAutumnWinter, nil
	}
	return "", fmt.Errorf("unknown season %q", value)
}

// Validate rejects briefs that cannot drive a sensible search.
func (b CreativeBrief) Validate() error {
	switch b.Season {
	case SeasonSpringSummer, SeasonAutumnWinter:
	default:
		return fmt.Errorf("invalid season %q", b.Season)
	}
	if b.Year < 2000 || b.Year > 2100 {
		return fmt.Errorf("invalid year %d", b.Year)
	}
	if strings.TrimSpace(b.Theme) == "" {
		return fmt.Errorf("brief requires a theme")
	}
	return nil
}

// Label renders the brief for report titles and cache lookups, for example
// "Spring/Summer 2026 womenswear minimalism (Paris)".
func (b CreativeBrief) Label() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d", b.Season, b.Year)
	if b.Audience != "" {
		sb.WriteString(" " + b.Audience)
	}
	if b.Theme != "" {
		sb.WriteString(" " + b.Theme)
	}
	if b.Region != "" {
		fmt.Fprintf(&sb, " (%s)", b.Region)
	}
	return sb.String()
}

// defaultExcludedSites trims the aggregator noise that otherwise dominates
// fashion search results.
var defaultExcludedSites = []string{"pinterest.com", "amazon.com"}

func (b CreativeBrief) exclusions() string {
	sites := b.ExcludedSites
	if len(sites) == 0 {
		sites = defaultExcludedSites
	}
	parts := make([]string, len(sites))
	for i, site := range sites {
		parts[i] = "-site:" + site
	}
	return strings.Join(parts, " ")
}

// Queries expands the brief into the search queries for one research run.
// Each query targets a publication tier the trend desks actually read; the
// street-style and local-designer queries are only emitted when the brief
// names a region.
func (b CreativeBrief) Queries() []string {
	season := string(b.Season)
	year := b.Year

	queries := []string{
		fmt.Sprintf("WGSN fashion trend forecast %s %d", season, year),
		fmt.Sprintf("Vogue Runway %s %d collections %s", season, year, b.Theme),
		fmt.Sprintf("Business of Fashion %s trends %s %d", b.Audience, season, year),
		fmt.Sprintf("Dazed fashion %s aesthetics %s %d", b.Theme, season, year),
	}
	if b.Region != "" {
		queries = append(queries,
			fmt.Sprintf("%s street style trends %s %d", b.Region, season, year),
			fmt.Sprintf("%s emerging designers fashion %s %d", b.Region, season, year))
	}

	exclusions := b.exclusions()
	for i, q := range queries {
		queries[i] = strings.Join(strings.Fields(q), " ") + " " + exclusions
	}
	return queries
}
