package main

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// imageSuffix is appended to every image prompt so the model returns a
// single full-bleed picture suitable for cutting, with no frame, border or
// caption that would end up on puzzle pieces.
const imageSuffix = ", full-bleed single image, no border, no frame, no text, no watermark"

// GenerateImage asks the image model for one picture matching the prompt and
// returns the raw encoded bytes (PNG or JPEG) of the first image part.
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt + imageSuffix},
			},
		}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("no image in gemini response")
}
