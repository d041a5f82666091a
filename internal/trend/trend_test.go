package trend

import (
	"encoding/json"
	"strings"
	"testing"
)

func validReport() *Report {
	return &Report{
		Season:            "Spring/Summer",
		Year:              2026,
		OverarchingTheme:  "Liquid Chrome",
		CulturalDrivers:   []string{"post-digital escapism"},
		InfluentialModels: []string{"Mona Tougaard"},
		Accessories: map[string][]string{
			"Bags":     {"metallic hobo"},
			"Footwear": {"square-toe mule"},
		},
		KeyPieces: []KeyPiece{
			{
				Name:        "Molten Slip Dress",
				Description: "The centerpiece of the liquid metal story.",
				Fabrics:     []FabricTrend{{Material: "Silk Charmeuse", Sustainable: true}},
				Colors:      []ColorTrend{{Name: "Mercury", PantoneCode: "14-5002 TCX", HexValue: "#A8A9AD"}},
				Silhouettes: []string{"bias cut"},
				DetailsTrims: []string{
					"cowl neck", "chain strap",
				},
				SuggestedPairings: []string{"leather moto jacket"},
			},
		},
	}
}

func TestValidateAcceptsCompleteReport(t *testing.T) {
	if err := validReport().Validate(); err != nil {
		t.Fatalf("valid report rejected: %v", err)
	}
}

func TestValidateRejectsStructuralGaps(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Report)
	}{
		{"missing season", func(r *Report) { r.Season = "" }},
		{"implausible year", func(r *Report) { r.Year = 1650 }},
		{"missing theme", func(r *Report) { r.OverarchingTheme = "" }},
		{"no key pieces", func(r *Report) { r.KeyPieces = nil }},
		{"piece without name", func(r *Report) { r.KeyPieces[0].Name = "" }},
		{"piece without description", func(r *Report) { r.KeyPieces[0].Description = "" }},
		{"color without name", func(r *Report) { r.KeyPieces[0].Colors[0].Name = "" }},
		{"fabric without material", func(r *Report) { r.KeyPieces[0].Fabrics[0].Material = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validReport()
			tc.mutate(r)
			if err := r.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(validReport())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"detailed_key_pieces"`) {
		t.Error("report json missing detailed_key_pieces field")
	}

	var back Report
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := back.Validate(); err != nil {
		t.Errorf("round-tripped report invalid: %v", err)
	}
}

func TestSummarizationPrompt(t *testing.T) {
	got := SummarizationPrompt("the document body")
	if !strings.Contains(got, "the document body") {
		t.Error("prompt missing document text")
	}
	if !strings.Contains(got, NoRelevantInformation) {
		t.Error("prompt missing the no-information sentinel instruction")
	}
}

func TestSynthesisPrompt(t *testing.T) {
	got, err := SynthesisPrompt([]string{"summary one", "summary two"}, "Spring/Summer", 2026)
	if err != nil {
		t.Fatalf("SynthesisPrompt: %v", err)
	}
	if !strings.Contains(got, "summary one") || !strings.Contains(got, "summary two") {
		t.Error("prompt missing summaries")
	}
	if !strings.Contains(got, "--- DOCUMENT SUMMARY ---") {
		t.Error("summaries not joined with the document separator")
	}
	if !strings.Contains(got, `"season": "Spring/Summer"`) {
		t.Error("schema not filled with season")
	}
	if !strings.Contains(got, `"year": 2026`) {
		t.Error("schema not filled with year")
	}
}

func TestImagePrompts(t *testing.T) {
	prompts, err := ImagePrompts(validReport())
	if err != nil {
		t.Fatalf("ImagePrompts: %v", err)
	}
	p, ok := prompts["Molten Slip Dress"]
	if !ok {
		t.Fatalf("missing prompts for key piece, got keys %v", keys(prompts))
	}

	if !strings.Contains(p.InspirationBoard, "Liquid Chrome") {
		t.Error("inspiration board missing theme")
	}
	if !strings.Contains(p.MoodBoard, "Silk Charmeuse") {
		t.Error("mood board missing fabric swatches")
	}
	if !strings.Contains(p.FinalGarment, "Mercury Molten Slip Dress") {
		t.Error("garment prompt missing color and piece name")
	}
	if !strings.Contains(p.FinalGarment, "Mona Tougaard") {
		t.Error("garment prompt missing model style")
	}
}

func TestImagePromptsDefaults(t *testing.T) {
	r := validReport()
	r.InfluentialModels = nil
	r.KeyPieces[0].Fabrics = nil
	r.KeyPieces[0].Colors = nil
	r.KeyPieces[0].Silhouettes = nil

	prompts, err := ImagePrompts(r)
	if err != nil {
		t.Fatalf("ImagePrompts: %v", err)
	}
	p := prompts["Molten Slip Dress"]
	if !strings.Contains(p.FinalGarment, "a fashion model") {
		t.Error("expected fallback model style")
	}
	if !strings.Contains(p.FinalGarment, "a core color") {
		t.Error("expected fallback color")
	}
	if !strings.Contains(p.FinalGarment, "a modern silhouette") {
		t.Error("expected fallback silhouette")
	}
}

func TestImagePromptsEmptyReport(t *testing.T) {
	if _, err := ImagePrompts(&Report{}); err == nil {
		t.Fatal("expected error for report without key pieces")
	}
}

func keys(m map[string]PiecePrompts) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
