// Package vision adapts the pipeline to the external vision-analysis
// service. It is a thin request/response mapper: parameters in, a
// validated recommendation list out.
package vision

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/prompts"
)

// Params are the mode-dependent request parameters for one analysis
// call. The adapter forwards them verbatim; it holds no pipeline logic.
type Params struct {
	Model           string  `yaml:"model"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
	Temperature     float32 `yaml:"temperature"`
}

// Analyzer sends a room photo plus style/budget parameters to the
// vision model and returns the structured recommendation list.
type Analyzer struct {
	apiKey string
}

func NewAnalyzer(apiKey string) *Analyzer {
	return &Analyzer{apiKey: apiKey}
}

// Analyze submits the image and returns the parsed analysis. Any
// transport or response-shape failure maps to ErrAnalysisFailed.
func (a *Analyzer) Analyze(ctx context.Context, imageData []byte, format string, cfg models.RunConfig, params Params) (*models.Analysis, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", models.ErrAnalysisFailed)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create client: %v", models.ErrAnalysisFailed, err)
	}
	defer client.Close()

	model := client.GenerativeModel(params.Model)
	model.SetTemperature(params.Temperature)
	model.SetMaxOutputTokens(params.MaxOutputTokens)

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompts.Analysis(cfg)),
		genai.ImageData(format, imageData),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAnalysisFailed, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	return ParseAnalysis(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", models.ErrAnalysisFailed)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content returned", models.ErrAnalysisFailed)
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("%w: unexpected response part type", models.ErrAnalysisFailed)
}
