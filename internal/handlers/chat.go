package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samchat/samchat/internal/chat"
	"github.com/samchat/samchat/internal/config"
	"github.com/samchat/samchat/internal/llm"
	"github.com/samchat/samchat/internal/models"
	"gorm.io/gorm"
)

// ─── ChatHandler ────────────────────────────────────────────────────────────

type ChatHandler struct {
	cfg    *config.Config
	db     *gorm.DB
	engine *chat.Engine
}

func NewChatHandler(cfg *config.Config, db *gorm.DB, engine *chat.Engine) *ChatHandler {
	return &ChatHandler{cfg: cfg, db: db, engine: engine}
}

// ─── Request / events ───────────────────────────────────────────────────────

type chatRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Data struct {
		ConversationID string `json:"conversationId"`
	} `json:"data"`
	SelectedModel string `json:"selectedModel"`
}

// sseSink writes engine events to the response as SSE frames.
type sseSink struct {
	w *bufio.Writer
}

func (s *sseSink) event(payload map[string]any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.w.Flush()
}

func (s *sseSink) Token(text string) {
	s.event(map[string]any{"type": "token", "token": text})
}

func (s *sseSink) ToolCall(inv chat.ToolInvocation) {
	s.event(map[string]any{"type": "tool_call", "invocation": inv})
}

func (s *sseSink) ToolResult(inv chat.ToolInvocation) {
	s.event(map[string]any{"type": "tool_result", "invocation": inv})
}

// ─── Stream ─────────────────────────────────────────────────────────────────

// Stream runs one chat turn and streams the result as SSE. Auth is
// enforced by the JWT middleware before any model or tool work happens.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uuid.UUID)
	email, _ := c.Locals("email").(string)

	var req chatRequest
	if err := c.BodyParser(&req); err != nil || len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Messages are required",
		})
	}

	model := req.SelectedModel
	if model == "" {
		model = h.cfg.DefaultModel
	}

	// Verify conversation ownership up front so the failure is a plain
	// JSON error, not a mid-stream event. The handler only streams;
	// persisting the turn is the client's job.
	if req.Data.ConversationID != "" {
		convID, err := uuid.Parse(req.Data.ConversationID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid conversation ID",
			})
		}
		var found models.Conversation
		if err := h.db.First(&found, "id = ? AND user_id = ?", convID, userID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Conversation not found",
			})
		}
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	system := chat.SystemPrompt(userID.String(), email, h.cfg.ScreenerBaseURL, time.Now())

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	engine := h.engine
	timeout := time.Duration(h.cfg.ChatTimeoutSecs) * time.Second

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		sink := &sseSink{w: w}

		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Chat stream panicked", "panic", rec)
				sink.event(map[string]any{"type": "error", "message": "An unexpected error occurred."})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := engine.Run(ctx, model, system, messages, sink); err != nil {
			slog.Error("Chat turn failed", "model", model, "error", err)
			sink.event(map[string]any{"type": "error", "message": "AI service unavailable"})
			return
		}

		sink.event(map[string]any{"type": "done", "done": true})
	})

	return nil
}
