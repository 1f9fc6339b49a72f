package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/samchat/samchat/internal/config"
)

// Transcriber converts an audio upload to text.
type Transcriber interface {
	Transcribe(ctx context.Context, model, filename string, audio io.Reader) (string, error)
}

type TranscribeHandler struct {
	cfg         *config.Config
	transcriber Transcriber
}

func NewTranscribeHandler(cfg *config.Config, transcriber Transcriber) *TranscribeHandler {
	return &TranscribeHandler{cfg: cfg, transcriber: transcriber}
}

// Transcribe accepts a multipart "audio" file and returns its transcript.
func (h *TranscribeHandler) Transcribe(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "No audio file provided",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to read audio file",
		})
	}
	defer file.Close()

	text, err := h.transcriber.Transcribe(c.Context(), h.cfg.TranscribeModel, fileHeader.Filename, file)
	if err != nil {
		slog.Error("Transcription failed", "filename", fileHeader.Filename, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to transcribe audio",
		})
	}

	return c.JSON(fiber.Map{"text": text})
}
