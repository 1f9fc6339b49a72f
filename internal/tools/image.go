package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

func (r *Registry) imageTool() *Tool {
	return &Tool{
		Name:        "generateImage",
		Description: "Generate an image based on a textual prompt.",
		Kind:        KindImage,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "The prompt for the image generation.",
				},
			},
			"required": []string{"prompt"},
		},
		Handler: r.generateImage,
	}
}

// generateImage renders the prompt with the image model, uploads the bytes
// to the public bucket under a timestamped path, and returns the public URL.
func (r *Registry) generateImage(ctx context.Context, args map[string]any) Result {
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return Fail("prompt is required")
	}

	if r.images == nil || r.bucket == nil {
		return Fail("image generation is not configured")
	}

	data, err := r.images.GenerateImage(ctx, r.cfg.ImageModel, prompt)
	if err != nil {
		slog.Error("Image generation failed", "error", err)
		return Fail("Sorry, I was unable to generate the image.")
	}

	path := fmt.Sprintf("public/%d.png", time.Now().UnixMilli())
	publicURL, err := r.bucket.Upload(ctx, path, "image/png", data)
	if err != nil {
		slog.Error("Image upload failed", "path", path, "error", err)
		return Fail("Sorry, I was unable to generate the image.")
	}

	return OK(map[string]any{
		"imageUrl": publicURL,
		"prompt":   prompt,
	})
}
