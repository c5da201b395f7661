package vision

import (
	"errors"
	"testing"

	"github.com/revibe-studio/revibe/internal/models"
)

const validAnalysisJSON = `{
	"style": "scandinavian",
	"overall_assessment": "Bright room with dated decor",
	"transformation_concept": "Layered natural textures",
	"recommendations": [
		{
			"area": "Seating Area",
			"type": "throw pillows",
			"description": "2-3 square throw pillows, 18x18 inches, terracotta linen",
			"priority": "High",
			"estimatedCost": "$40-60",
			"placement": "On the sofa, alternating colors"
		},
		{
			"area": "Lighting",
			"type": "floor lamp",
			"description": "Rattan floor lamp, 60-65 inches tall",
			"priority": "Medium"
		}
	],
	"color_palette": {
		"primary": ["cream", "terracotta"],
		"accent": ["sage"],
		"neutral": ["white"]
	},
	"materials": ["linen", "rattan"],
	"lighting": "Warm ambient lighting",
	"styling": "Minimal, natural accents"
}`

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bare json", raw: validAnalysisJSON},
		{name: "json code fence", raw: "```json\n" + validAnalysisJSON + "\n```"},
		{name: "anonymous code fence", raw: "```\n" + validAnalysisJSON + "\n```"},
		{name: "surrounding prose", raw: "Here is the design plan:\n" + validAnalysisJSON + "\nLet me know if you need more."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(tt.raw)
			if err != nil {
				t.Fatalf("ParseAnalysis: %v", err)
			}
			if analysis.Style != "scandinavian" {
				t.Errorf("Unexpected style %q", analysis.Style)
			}
			if len(analysis.Recommendations) != 2 {
				t.Fatalf("Expected 2 recommendations, got %d", len(analysis.Recommendations))
			}
			if analysis.Recommendations[0].Type != "throw pillows" {
				t.Errorf("Unexpected first recommendation %+v", analysis.Recommendations[0])
			}
			if analysis.Recommendations[0].EstimatedCost != "$40-60" {
				t.Errorf("Unexpected estimated cost %q", analysis.Recommendations[0].EstimatedCost)
			}
			if len(analysis.Palette.Primary) != 2 {
				t.Errorf("Unexpected palette %+v", analysis.Palette)
			}
		})
	}
}

func TestParseAnalysisDropsItemsWithoutType(t *testing.T) {
	raw := `{
		"recommendations": [
			{"area": "Walls", "type": "", "description": "untyped"},
			{"area": "Lighting", "type": "floor lamp", "description": "ok"},
			{"area": "Floor", "type": "   ", "description": "whitespace type"}
		],
		"color_palette": {"primary": ["white"]}
	}`
	analysis, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	if len(analysis.Recommendations) != 1 {
		t.Fatalf("Expected 1 searchable recommendation, got %d", len(analysis.Recommendations))
	}
	if analysis.Recommendations[0].Type != "floor lamp" {
		t.Errorf("Wrong recommendation kept: %+v", analysis.Recommendations[0])
	}
}

func TestParseAnalysisMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "no json object", raw: "I cannot analyze this image."},
		{name: "truncated json", raw: `{"style": "modern", "recommendations": [`},
		{name: "wrong shape", raw: `{"recommendations": "not a list"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.raw)
			if !errors.Is(err, models.ErrAnalysisFailed) {
				t.Errorf("Expected ErrAnalysisFailed, got %v", err)
			}
		})
	}
}
