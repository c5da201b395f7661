package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/revibe-studio/revibe/internal/composite"
	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/shopping"
	"github.com/revibe-studio/revibe/internal/synthesis"
	"github.com/revibe-studio/revibe/internal/vision"
)

// Params bundles the per-stage parameter tables for one mode. The
// orchestrator passes each stage only its own struct and never
// interprets the values itself, so adding a mode is a local change.
type Params struct {
	Analysis  vision.Params    `yaml:"analysis"`
	Search    shopping.Params  `yaml:"search"`
	Composite composite.Params `yaml:"composite"`
	Synthesis synthesis.Params `yaml:"synthesis"`
}

// DefaultParams returns the built-in parameter table for a mode. The
// constants are configurable defaults, not a compatibility contract;
// LoadModeTable lets deployments override any subset.
func DefaultParams(mode models.Mode) Params {
	if mode == models.ModeFast {
		return Params{
			Analysis: vision.Params{
				Model:           "gemini-2.0-flash-lite",
				MaxOutputTokens: 2048,
				Temperature:     0,
			},
			Search: shopping.Params{
				MaxTypes:            3,
				AlternativesPerType: 3,
				SearchDepth:         5,
				Workers:             8,
				EarlyExitRatio:      0.7,
			},
			Composite: composite.Params{
				ThumbSize:  150,
				MaxBaseDim: 768,
				MaxDim:     768,
				Columns:    3,
			},
			Synthesis: synthesis.Params{
				Model:       "gemini-2.0-flash-preview-image-generation",
				Fidelity:    "low",
				Temperature: 0.2,
			},
		}
	}
	return Params{
		Analysis: vision.Params{
			Model:           "gemini-2.0-flash",
			MaxOutputTokens: 3072,
			Temperature:     0.7,
		},
		Search: shopping.Params{
			MaxTypes:            12,
			AlternativesPerType: 3,
			SearchDepth:         10,
			Workers:             8,
			EarlyExitRatio:      0.7,
		},
		Composite: composite.Params{
			ThumbSize:  200,
			MaxBaseDim: 1024,
			MaxDim:     1024,
			Columns:    3,
		},
		Synthesis: synthesis.Params{
			Model:       "gemini-2.0-flash-preview-image-generation",
			Fidelity:    "high",
			Temperature: 0.4,
		},
	}
}

// ModeTable maps each mode to its stage parameters.
type ModeTable map[models.Mode]Params

// DefaultModeTable returns the built-in fast/standard tables.
func DefaultModeTable() ModeTable {
	return ModeTable{
		models.ModeFast:     DefaultParams(models.ModeFast),
		models.ModeStandard: DefaultParams(models.ModeStandard),
	}
}

// LoadModeTable overlays a YAML override file onto the defaults. Keys
// absent from the file keep their built-in values. An empty path
// returns the defaults unchanged.
func LoadModeTable(path string) (ModeTable, error) {
	table := DefaultModeTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read modes file: %w", err)
	}

	fast := table[models.ModeFast]
	standard := table[models.ModeStandard]
	overlay := struct {
		Fast     *Params `yaml:"fast"`
		Standard *Params `yaml:"standard"`
	}{Fast: &fast, Standard: &standard}

	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse modes file: %w", err)
	}

	table[models.ModeFast] = fast
	table[models.ModeStandard] = standard
	return table, nil
}
