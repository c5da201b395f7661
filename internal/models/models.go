package models

import "fmt"

// Mode selects the speed/quality trade-off for a pipeline run.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeStandard Mode = "standard"
)

// ParseMode validates a user-supplied mode string. An empty string
// defaults to standard mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeStandard):
		return ModeStandard, nil
	case string(ModeFast):
		return ModeFast, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (expected fast or standard)", ErrInvalidInput, s)
	}
}

// RunConfig is the immutable configuration of one pipeline run.
type RunConfig struct {
	RoomType           string `json:"room_type,omitempty"`
	DesignStyle        string `json:"design_style,omitempty"`
	BudgetTier         string `json:"budget_tier,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	Mode               Mode   `json:"mode"`
}

// RecommendationItem is one product suggestion produced by vision analysis.
// Read-only once produced; ordering reflects the analysis priority.
type RecommendationItem struct {
	Area          string `json:"area"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	EstimatedCost string `json:"estimatedCost,omitempty"`
	Placement     string `json:"placement,omitempty"`
}

// ColorPalette groups the colors suggested by the analysis.
type ColorPalette struct {
	Primary []string `json:"primary"`
	Accent  []string `json:"accent,omitempty"`
	Neutral []string `json:"neutral,omitempty"`
}

// Analysis is the structured output of the vision analysis stage.
type Analysis struct {
	Style                 string               `json:"style,omitempty"`
	OverallAssessment     string               `json:"overall_assessment,omitempty"`
	TransformationConcept string               `json:"transformation_concept,omitempty"`
	Recommendations       []RecommendationItem `json:"recommendations"`
	Palette               ColorPalette         `json:"color_palette"`
	Materials             []string             `json:"materials,omitempty"`
	Lighting              string               `json:"lighting,omitempty"`
	Styling               string               `json:"styling,omitempty"`
}

// ProductCandidate is one real, purchasable product matched to a
// recommendation item. It is only created after its image was
// successfully downloaded into the session products directory.
type ProductCandidate struct {
	Name        string   `json:"name"`
	ProductType string   `json:"product_type"`
	Area        string   `json:"area,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Retailer    string   `json:"retailer"`
	URL         string   `json:"url"`
	Rating      *float64 `json:"rating,omitempty"`
	Reviews     *int     `json:"reviews,omitempty"`
	ImagePath   string   `json:"image_ref"`
}

// DesignResult is the aggregate outcome of a successful pipeline run.
type DesignResult struct {
	Success       bool               `json:"success"`
	SessionID     string             `json:"session_id"`
	FinalDesign   string             `json:"final_design_ref"`
	Products      []ProductCandidate `json:"products"`
	ProductsUsed  int                `json:"products_used"`
	StepDurations map[string]float64 `json:"step_durations"`
	TotalDuration float64            `json:"total_duration"`
}
