package trend

import (
	"fmt"
	"strings"
	"text/template"
)

// SummarizationPrompt wraps one scraped document in the research-assistant
// instructions. Documents carrying nothing useful come back as exactly
// NoRelevantInformation, which the workflow filters out.
const NoRelevantInformation = "No relevant information."

const summarizationTemplate = `Your role is a meticulous Research Assistant for a high-end fashion magazine.
Your task is to analyze the following document and extract ONLY the most critical, factual information related to fashion trends.

RULES:
1. Focus exclusively on: specific trends, designer/brand names, collection names, garment types, colors, fabrics, materials, textures, prints, patterns, and silhouettes.
2. Ignore all marketing language, opinions, boilerplate text (like 'cookie policy' or 'subscribe'), and irrelevant filler content.
3. Present the extracted information as a concise, bulleted list.
4. If the document contains no relevant fashion information, respond with only the text "No relevant information."

DOCUMENT TEXT:
---
%s
---`

// SummarizationPrompt builds the per-document extraction prompt.
func SummarizationPrompt(documentText string) string {
	return fmt.Sprintf(summarizationTemplate, documentText)
}

const synthesisTemplate = `You are the Lead Trend Forecaster for 'The Future of Fashion', a globally respected trend analysis firm.
Your task is to synthesize the provided collection of research summaries into a single, cohesive, and insightful fashion trend report.
You MUST base your analysis strictly on the information provided in the summaries below. Do not invent or hallucinate information.

**ADDITIONAL RULES:**
1. All lists in your response must be de-duplicated and contain only unique items.
2. For the 'colors' array, you MUST provide real Pantone TCX codes and their corresponding hex values. Find the closest match if the exact one is unknown. **DO NOT leave 'pantone_code' or 'hex_value' as null.**

RESEARCH SUMMARIES:
---
{{.Context}}
---

Based ONLY on the provided research, generate a single, valid JSON object for the {{.Season}} {{.Year}} season.
The JSON object MUST strictly adhere to the following schema.

SCHEMA:
{
  "season": "{{.Season}}",
  "year": {{.Year}},
  "overarching_theme": "A concise, evocative name for the entire collection's theme.",
  "cultural_drivers": ["A list of the high-level socio-cultural influences driving the trend."],
  "influential_models": ["A list of names of models or style icons. CRITICAL: If no specific names are found, suggest 2-3 archetypal style icons who embody the theme."],
  "accessories": {
    "Bags": ["A list of relevant bag styles."],
    "Footwear": ["A list of relevant shoe and boot styles."],
    "Jewelry": ["A list of relevant jewelry styles."],
    "Other": ["A list of other relevant accessories like hats, belts, or scarves."]
  },
  "detailed_key_pieces": [
    {
      "key_piece_name": "The descriptive name of a key garment identified in the research.",
      "description": "A brief, insightful explanation of this item's role and significance.",
      "inspired_by_designers": ["CRITICAL: Based on the aesthetic, suggest 1-2 real-world designers known for this type of garment."],
      "fabrics": [
        {
          "material": "The base material (e.g., 'Leather', 'Organic Cotton').",
          "texture": "The specific surface texture (e.g., 'Pebbled', 'Satin Weave').",
          "sustainable": "boolean indicating if the primary material is sustainable.",
          "sustainability_comment": "INSIGHT: If 'sustainable' is false, provide a brief, specific alternative. If true, state why."
        }
      ],
      "colors": [
        {
          "name": "The common name of the color.",
          "pantone_code": "CRITICAL: The official Pantone TCX code. MUST NOT BE NULL.",
          "hex_value": "CRITICAL: The hex value of the color. MUST NOT BE NULL."
        }
      ],
      "silhouettes": ["A list of specific cuts and shapes for this item."],
      "details_trims": ["A list of specific design details, hardware, or trims."],
      "suggested_pairings": ["A list of other items this piece could be styled with."]
    }
  ]
}`

var synthesisTmpl = template.Must(template.New("synthesis").Parse(synthesisTemplate))

// summarySeparator joins document summaries into the synthesis context.
const summarySeparator = "\n\n--- DOCUMENT SUMMARY ---\n\n"

// SynthesisPrompt builds the final report prompt from the valid summaries.
func SynthesisPrompt(summaries []string, season string, year int) (string, error) {
	var sb strings.Builder
	err := synthesisTmpl.Execute(&sb, struct {
		Context string
		Season  string
		Year    int
	}{
		Context: strings.Join(summaries, summarySeparator),
		Season:  season,
		Year:    year,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render synthesis prompt: %w", err)
	}
	return sb.String(), nil
}

// PiecePrompts holds the three image prompts generated per key piece.
type PiecePrompts struct {
	InspirationBoard string `json:"inspiration_board"`
	MoodBoard        string `json:"mood_board"`
	FinalGarment     string `json:"final_garment"`
}

var (
	inspirationTmpl = template.Must(template.New("inspiration").Parse(
		`A highly detailed, atmospheric inspiration board for a fashion collection.
Theme: '{{.Theme}}'.
Focus: The conceptual idea of a '{{.PieceName}}'.
Core feelings are driven by: {{.CulturalDrivers}}.
The aesthetic is influenced by figures like {{.ModelStyle}}.
The board contains evocative, abstract images, textures, and scribbled notes related to the theme.
Style: Cinematic, moody lighting, ultra-realistic photo, high detail, 8k.`))

	moodTmpl = template.Must(template.New("mood").Parse(
		`A professional fashion designer's mood board, clean and meticulously organized.
Focus: Defining the materials for a '{{.PieceName}}'.
The board features hyper-realistic, physical fabric swatches of: {{.FabricNames}}.
A color palette is neatly arranged with Pantone-style swatches of: {{.ColorNames}}.
Also includes close-up shots of key trims and hardware: {{.DetailsTrims}}.
Style: Shot on a clean, minimalist surface, top-down view (flat lay), perfect studio lighting, macro details, 8k.`))

	garmentTmpl = template.Must(template.New("garment").Parse(
		`Full-body editorial fashion photograph for a Vogue lookbook.
A runway model, with the presence of {{.ModelStyle}}, is wearing a stunning '{{.MainColor}} {{.PieceName}}' crafted from high-quality {{.MainFabric}}.
The design's silhouette is clearly {{.Silhouette}}.
Key details visible on the garment are: {{.DetailsTrims}}.
Shot in a minimalist concrete studio, dynamic pose, cinematic lighting, hyper-detailed, 8k.`))
)

// ImagePrompts derives the per-piece image prompts from a validated report.
// The map is keyed by key piece name.
func ImagePrompts(r *Report) (map[string]PiecePrompts, error) {
	if len(r.KeyPieces) == 0 {
		return nil, fmt.Errorf("report has no key pieces to illustrate")
	}

	modelStyle := "a fashion model"
	if len(r.InfluentialModels) > 0 {
		modelStyle = r.InfluentialModels[0]
	}

	out := make(map[string]PiecePrompts, len(r.KeyPieces))
	for _, piece := range r.KeyPieces {
		mainFabric := "a high-quality fabric"
		if len(piece.Fabrics) > 0 {
			mainFabric = piece.Fabrics[0].Material
		}
		mainColor := "a core color"
		if len(piece.Colors) > 0 {
			mainColor = piece.Colors[0].Name
		}
		silhouette := "a modern silhouette"
		if len(piece.Silhouettes) > 0 {
			silhouette = piece.Silhouettes[0]
		}

		fabricNames := make([]string, 0, len(piece.Fabrics))
		for _, f := range piece.Fabrics {
			fabricNames = append(fabricNames, f.Material)
		}
		colorNames := make([]string, 0, len(piece.Colors))
		for _, c := range piece.Colors {
			colorNames = append(colorNames, c.Name)
		}

		data := struct {
			Theme           string
			PieceName       string
			CulturalDrivers string
			ModelStyle      string
			FabricNames     string
			ColorNames      string
			DetailsTrims    string
			MainColor       string
			MainFabric      string
			Silhouette      string
		}{
			Theme:           r.OverarchingTheme,
			PieceName:       piece.Name,
			CulturalDrivers: strings.Join(r.CulturalDrivers, ", "),
			ModelStyle:      modelStyle,
			FabricNames:     strings.Join(fabricNames, ", "),
			ColorNames:      strings.Join(colorNames, ", "),
			DetailsTrims:    strings.Join(piece.DetailsTrims, ", "),
			MainColor:       mainColor,
			MainFabric:      mainFabric,
			Silhouette:      silhouette,
		}

		var prompts PiecePrompts
		var sb strings.Builder
		if err := inspirationTmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("failed to render inspiration prompt: %w", err)
		}
		prompts.InspirationBoard = sb.String()

		sb.Reset()
		if err := moodTmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("failed to render mood board prompt: %w", err)
		}
		prompts.MoodBoard = sb.String()

		sb.Reset()
		if err := garmentTmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("failed to render garment prompt: %w", err)
		}
		prompts.FinalGarment = sb.String()

		out[piece.Name] = prompts
	}
	return out, nil
}
