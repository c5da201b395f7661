package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/revibe-studio/revibe/internal/models"
)

func TestDefaultParams(t *testing.T) {
	fast := DefaultParams(models.ModeFast)
	standard := DefaultParams(models.ModeStandard)

	if fast.Analysis.Model != "gemini-2.0-flash-lite" {
		t.Errorf("Unexpected fast analysis model %q", fast.Analysis.Model)
	}
	if standard.Analysis.Model != "gemini-2.0-flash" {
		t.Errorf("Unexpected standard analysis model %q", standard.Analysis.Model)
	}
	if fast.Search.MaxTypes != 3 || standard.Search.MaxTypes != 12 {
		t.Errorf("Unexpected max types: fast=%d standard=%d", fast.Search.MaxTypes, standard.Search.MaxTypes)
	}
	if fast.Search.Workers != standard.Search.Workers {
		t.Error("Worker pool size should not vary by mode")
	}
	if fast.Search.EarlyExitRatio != standard.Search.EarlyExitRatio {
		t.Error("Early exit ratio should not vary by mode")
	}
	if fast.Composite.ThumbSize != 150 || standard.Composite.ThumbSize != 200 {
		t.Errorf("Unexpected thumb sizes: fast=%d standard=%d", fast.Composite.ThumbSize, standard.Composite.ThumbSize)
	}
	if fast.Synthesis.Fidelity != "low" || standard.Synthesis.Fidelity != "high" {
		t.Errorf("Unexpected fidelity: fast=%q standard=%q", fast.Synthesis.Fidelity, standard.Synthesis.Fidelity)
	}
}

func TestLoadModeTableEmptyPath(t *testing.T) {
	table, err := LoadModeTable("")
	if err != nil {
		t.Fatalf("LoadModeTable: %v", err)
	}
	if table[models.ModeFast].Search.MaxTypes != 3 {
		t.Error("Empty path should return the built-in defaults")
	}
}

func TestLoadModeTableOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.yaml")
	override := `fast:
  analysis:
    model: gemini-experimental
  search:
    max_types: 5
`
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("write modes file: %v", err)
	}

	table, err := LoadModeTable(path)
	if err != nil {
		t.Fatalf("LoadModeTable: %v", err)
	}

	fast := table[models.ModeFast]
	if fast.Analysis.Model != "gemini-experimental" {
		t.Errorf("Override not applied, model=%q", fast.Analysis.Model)
	}
	if fast.Search.MaxTypes != 5 {
		t.Errorf("Override not applied, max_types=%d", fast.Search.MaxTypes)
	}

	// Unmentioned keys keep their defaults.
	if fast.Analysis.MaxOutputTokens != 2048 {
		t.Errorf("Default lost, max_output_tokens=%d", fast.Analysis.MaxOutputTokens)
	}
	if fast.Composite.ThumbSize != 150 {
		t.Errorf("Default lost, thumb_size=%d", fast.Composite.ThumbSize)
	}

	// The other mode is untouched.
	if table[models.ModeStandard].Analysis.Model != "gemini-2.0-flash" {
		t.Error("Standard mode changed by a fast-only override")
	}
}

func TestLoadModeTableErrors(t *testing.T) {
	if _, err := LoadModeTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fast: [not a map"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadModeTable(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
