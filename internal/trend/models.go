// Package trend defines the structured trend report and the prompts that
// produce and consume it.
package trend

import (
	"errors"
	"fmt"
)

// ColorTrend is one color in a key piece's palette. Pantone and hex values
// are demanded from the model, but older cached reports may lack them.
type ColorTrend struct {
	Name        string `json:"name"`
	PantoneCode string `json:"pantone_code,omitempty"`
	HexValue    string `json:"hex_value,omitempty"`
}

// FabricTrend is one recommended fabric.
type FabricTrend struct {
	Material              string `json:"material"`
	Texture               string `json:"texture,omitempty"`
	Sustainable           bool   `json:"sustainable"`
	SustainabilityComment string `json:"sustainability_comment,omitempty"`
}

// KeyPiece is the detailed breakdown of one garment.
type KeyPiece struct {
	Name                string        `json:"key_piece_name"`
	Description         string        `json:"description"`
	InspiredByDesigners []string      `json:"inspired_by_designers,omitempty"`
	Fabrics             []FabricTrend `json:"fabrics"`
	Colors              []ColorTrend  `json:"colors"`
	Silhouettes         []string      `json:"silhouettes"`
	DetailsTrims        []string      `json:"details_trims"`
	SuggestedPairings   []string      `json:"suggested_pairings"`
}

// Report is the synthesized trend report for one season.
type Report struct {
	Season            string              `json:"season"`
	Year              int                 `json:"year"`
	OverarchingTheme  string              `json:"overarching_theme"`
	CulturalDrivers   []string            `json:"cultural_drivers"`
	InfluentialModels []string            `json:"influential_models"`
	Accessories       map[string][]string `json:"accessories"`
	KeyPieces         []KeyPiece          `json:"detailed_key_pieces"`
}

// Validate checks the structural requirements a downstream consumer relies
// on. A report that fails here is discarded, not repaired.
func (r *Report) Validate() error {
	if r.Season == "" {
		return errors.New("report missing season")
	}
	if r.Year < 2000 || r.Year > 2100 {
		return fmt.Errorf("report has implausible year %d", r.Year)
	}
	if r.OverarchingTheme == "" {
		return errors.New("report missing overarching theme")
	}
	if len(r.KeyPieces) == 0 {
		return errors.New("report has no key pieces")
	}
	for i, piece := range r.KeyPieces {
		if piece.Name == "" {
			return fmt.Errorf("key piece %d missing name", i)
		}
		if piece.Description == "" {
			return fmt.Errorf("key piece %q missing description", piece.Name)
		}
		for j, c := range piece.Colors {
			if c.Name == "" {
				return fmt.Errorf("key piece %q color %d missing name", piece.Name, j)
			}
		}
		for j, f := range piece.Fabrics {
			if f.Material == "" {
				return fmt.Errorf("key piece %q fabric %d missing material", piece.Name, j)
			}
		}
	}
	return nil
}
