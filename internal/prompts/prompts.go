// Package prompts centralizes the prompt templates sent to the vision
// and image-generation models so they can be edited in one place.
package prompts

import (
	"fmt"
	"strings"

	"github.com/revibe-studio/revibe/internal/models"
)

// Analysis builds the vision-analysis prompt for a room photo. The
// model is asked for a strict JSON body so the adapter can validate the
// response shape.
func Analysis(cfg models.RunConfig) string {
	roomType := cfg.RoomType
	if roomType == "" {
		roomType = "room"
	}
	style := cfg.DesignStyle
	if style == "" {
		style = "modern"
	}
	instructions := cfg.CustomInstructions
	if instructions == "" {
		instructions = "Create an appealing and functional design"
	}

	var budget string
	if cfg.BudgetTier != "" {
		budget = fmt.Sprintf("\nBudget Tier: %s. Keep estimated costs within this tier.", cfg.BudgetTier)
	}

	return fmt.Sprintf(`As a professional interior design expert, analyze the provided %s photo and create a design transformation plan.

Design Style: %s
Custom Instructions: %s%s

Carefully analyze the image to understand the current layout, existing furniture, colors, materials, lighting conditions and architectural features.

DESIGN PHILOSOPHY: Enhance the existing space through strategic additions rather than complete furniture replacement. Emphasize decorative elements, accessories, lighting and textiles that work with the existing pieces.

For each recommendation include EXACT product specifications (sizes, materials, colors, patterns), specific style descriptors, and placement details, ordered from highest to lowest priority.

Examples of the expected specificity:
- "2-3 square throw pillows, 18x18 inches, terracotta linen texture with tassel trim"
- "Rattan floor lamp, 60-65 inches tall, natural woven shade, black metal base"
- "Jute area rug, 5x8 feet, natural fiber with geometric border pattern"

Respond with ONLY a JSON object in this exact structure:
{
    "style": "string",
    "overall_assessment": "detailed assessment of the current state",
    "transformation_concept": "comprehensive design transformation concept",
    "recommendations": [
        {
            "area": "specific area (e.g. 'Seating Area', 'Lighting', 'Wall Decor')",
            "type": "product type (e.g. 'throw pillows', 'floor lamp', 'wall art')",
            "description": "detailed product description with exact specifications",
            "priority": "High/Medium/Low",
            "estimatedCost": "cost range",
            "placement": "specific placement instructions"
        }
    ],
    "color_palette": {
        "primary": ["main colors"],
        "accent": ["accent colors"],
        "neutral": ["neutral colors"]
    },
    "materials": ["list", "of", "materials"],
    "lighting": "lighting recommendations",
    "styling": "styling and decor recommendations"
}`, roomType, style, instructions, budget)
}

// Synthesis builds the image-generation prompt for overlaying the
// searched products from the composite grid into the base room.
func Synthesis(products []models.ProductCandidate) string {
	var sb strings.Builder
	sb.WriteString("Overlay the product images from the grid into the room shown in the first cell.\n\nREAL PRODUCTS TO ADD:\n")
	for i, p := range products {
		area := p.Area
		if area == "" {
			area = "General"
		}
		price := ""
		if p.Price != nil {
			price = fmt.Sprintf(" ($%.2f)", *p.Price)
		}
		fmt.Fprintf(&sb, "%d. %s - %s - %s%s\n", i+1, p.Name, area, p.Retailer, price)
	}
	sb.WriteString(`
Rules:
- Keep the original room EXACTLY as is: same dimensions, furniture and camera position.
- Place the products exactly as they appear in the grid cells; do not alter their colors, shapes or textures.
- Put each product in a logical, functional location within the room.
- Keep the overall design cohesive and professional.
- Do not add any items beyond the specified products.`)
	return sb.String()
}

// SynthesisBaseOnly is used when product search yielded no candidates
// and the run proceeds with the base image alone.
func SynthesisBaseOnly(cfg models.RunConfig) string {
	style := cfg.DesignStyle
	if style == "" {
		style = "modern"
	}
	return fmt.Sprintf(`Transform this interior to a cohesive %s style with professional interior design quality.

Rules:
- Keep the same room layout and camera perspective.
- Restyle through decor, textiles and lighting rather than structural changes.
- Maintain realistic proportions and lighting.`, style)
}
