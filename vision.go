package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultVisionModel = "claude-sonnet-4-5-20250929"
const visionMaxTokens = 1024

// analysisPrompt instructs the model to describe the photographed dish as a
// strict JSON payload. The parser tolerates deviations from this shape.
const analysisPrompt = `Carefully analyze this food image and provide accurate calorie information.

CRITICAL RULES:
1. COUNT EXACTLY what you see - only clearly visible items
2. DO NOT guess or assume hidden food items
3. If uncertain about quantity, mention it in portion_size
4. Use realistic portion sizes (standard serving sizes)
5. Consider thickness, density, and ingredients of dishes

RESPONSE FORMAT - strict JSON:
{
    "food_items": [
        {
            "name": "exact food item name",
            "portion_size": "specific amount with units (e.g., 4 pieces, 1 medium plate, 200ml)",
            "calories": calorie_number,
            "proteins": protein_grams_number,
            "carbs": carbs_grams_number,
            "fats": fat_grams_number,
            "certainty": "high/medium/low - how confident you are about this item"
        }
    ],
    "total_calories": total_calorie_number,
    "confidence": number_from_0_to_100,
    "analysis_notes": "brief notes about what was difficult to determine or caused uncertainty"
}

If no food is visible, return confidence: 0 and explain what you see in analysis_notes.`

// VisionClient produces the raw model text the response parser consumes.
type VisionClient interface {
	Describe(ctx context.Context, imageJPEG []byte) (string, error)
}

type AnthropicVision struct {
	client anthropic.Client
	model  string
}

func NewAnthropicVision(apiKey, model string) *AnthropicVision {
	if model == "" {
		model = defaultVisionModel
	}
	return &AnthropicVision{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (v *AnthropicVision) Describe(ctx context.Context, imageJPEG []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(imageJPEG)

	message, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(v.model),
		MaxTokens: visionMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/jpeg", encoded),
				anthropic.NewTextBlock(analysisPrompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("vision response model=%s size=%d tokens_in=%d tokens_out=%d",
				v.model, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in vision response")
}
