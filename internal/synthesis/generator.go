// Package synthesis adapts the pipeline to the external image-synthesis
// service: composite images plus a generation prompt in, final design
// image bytes out.
package synthesis

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/revibe-studio/revibe/internal/models"
)

// Params are the mode-dependent request parameters for one synthesis
// call. Fidelity trades output quality for latency; "low" pins the
// sampler for deterministic, faster generations.
type Params struct {
	Model       string  `yaml:"model"`
	Fidelity    string  `yaml:"fidelity"`
	Temperature float32 `yaml:"temperature"`
}

// Generator sends the composite image(s) and a prompt to the image
// model and retrieves the generated design.
type Generator struct {
	apiKey string
}

func NewGenerator(apiKey string) *Generator {
	return &Generator{apiKey: apiKey}
}

// Generate returns the bytes of the synthesized image. Any transport or
// response-shape failure maps to ErrSynthesisFailed.
func (g *Generator) Generate(ctx context.Context, compositePaths []string, prompt string, params Params) ([]byte, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", models.ErrSynthesisFailed)
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, path := range compositePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read composite %s: %v", models.ErrSynthesisFailed, path, err)
		}
		parts = append(parts, genai.ImageData("png", data))
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create client: %v", models.ErrSynthesisFailed, err)
	}
	defer client.Close()

	model := client.GenerativeModel(params.Model)
	model.SetTemperature(params.Temperature)
	if params.Fidelity == "low" {
		// Deterministic sampling keeps low-fidelity runs fast and
		// reproducible.
		model.SetTopK(1)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSynthesisFailed, err)
	}

	return extractImage(resp)
}

func extractImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", models.ErrSynthesisFailed)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content returned", models.ErrSynthesisFailed)
	}
	for _, part := range candidate.Content.Parts {
		if blob, ok := part.(genai.Blob); ok && strings.HasPrefix(blob.MIMEType, "image/") {
			if len(blob.Data) == 0 {
				return nil, fmt.Errorf("%w: empty image data returned", models.ErrSynthesisFailed)
			}
			return blob.Data, nil
		}
	}
	return nil, fmt.Errorf("%w: no image part in response", models.ErrSynthesisFailed)
}
