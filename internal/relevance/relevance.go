// Package relevance scores extracted documents for how much fashion-trend
// signal they carry. The workflow uses it to order documents before
// summarization, so the strongest material is processed inside the earliest
// quota windows.
package relevance

import (
	"sort"
	"strings"
)

// baseTerms is the general trend vocabulary. Any hit counts, at weight 1.
var baseTerms = []string{
	"trend", "collection", "runway", "silhouette", "fabric", "textile",
	"palette", "color", "colour", "season", "designer", "couture",
	"ready-to-wear", "streetwear", "tailoring", "aesthetic", "style",
	"garment", "knitwear", "denim", "layering", "print", "texture",
}

// Scorer measures term density against a base vocabulary plus the terms of
// the active brief, which weigh double.
type Scorer struct {
	base  []string
	brief []string
}

// NewScorer builds a scorer. briefTerms come from the creative brief (theme,
// audience, region words) and may be empty.
func NewScorer(briefTerms ...string) *Scorer {
	cleaned := make([]string, 0, len(briefTerms))
	for _, t := range briefTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return &Scorer{base: baseTerms, brief: cleaned}
}

// Score returns hits per thousand characters, so long pages do not win on
// volume alone. Empty text scores zero.
func (s *Scorer) Score(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	var hits float64
	for _, term := range s.base {
		hits += float64(strings.Count(lower, term))
	}
	for _, term := range s.brief {
		hits += 2 * float64(strings.Count(lower, term))
	}
	return hits * 1000 / float64(len(lower))
}

// Rank returns the documents ordered by descending score. The input is not
// modified; ties keep their original order.
func (s *Scorer) Rank(docs []string) []string {
	type scored struct {
		doc   string
		score float64
	}
	items := make([]scored, len(docs))
	for i, d := range docs {
		items[i] = scored{doc: d, score: s.Score(d)}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.doc
	}
	return out
}
