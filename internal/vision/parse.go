package vision

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/revibe-studio/revibe/internal/models"
)

// ParseAnalysis validates the model's JSON response against the
// expected analysis schema. Any shape mismatch is a single typed
// failure rather than malformed data leaking into the pipeline.
func ParseAnalysis(raw string) (*models.Analysis, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return nil, fmt.Errorf("%w: response is not valid analysis JSON: %v", models.ErrAnalysisFailed, err)
	}

	// Items without a product type cannot be searched; drop them rather
	// than letting empty queries reach the search stage.
	kept := analysis.Recommendations[:0]
	for _, rec := range analysis.Recommendations {
		if strings.TrimSpace(rec.Type) == "" {
			slog.Warn("Dropping recommendation without product type", "area", rec.Area)
			continue
		}
		kept = append(kept, rec)
	}
	analysis.Recommendations = kept

	return &analysis, nil
}

// extractJSON pulls the JSON object out of a response that may be
// wrapped in markdown code fences or surrounding prose.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
		return strings.TrimSpace(s), nil
	}

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") {
		return s, nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON object found in response", models.ErrAnalysisFailed)
	}
	return s[start : end+1], nil
}
