package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samchat/samchat/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultConversationTitle = "New Chat"

type ConversationHandler struct {
	db *gorm.DB
}

func NewConversationHandler(db *gorm.DB) *ConversationHandler {
	return &ConversationHandler{db: db}
}

// ─── Ownership ──────────────────────────────────────────────────────────────

// ownedConversation loads a conversation only if it belongs to the
// authenticated user. Someone else's conversation is indistinguishable
// from a missing one.
func ownedConversation(db *gorm.DB, c *fiber.Ctx) (*models.Conversation, error) {
	userID, _ := c.Locals("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid conversation ID",
		})
	}

	var conv models.Conversation
	if err := db.First(&conv, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Conversation not found",
		})
	}
	return &conv, nil
}

// ─── CRUD ───────────────────────────────────────────────────────────────────

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uuid.UUID)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 50 {
		perPage = 20
	}

	var convs []models.Conversation
	var total int64
	h.db.Model(&models.Conversation{}).Where("user_id = ?", userID).Count(&total)
	h.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&convs)

	type convSummary struct {
		ID        uuid.UUID `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	summaries := make([]convSummary, len(convs))
	for i, conv := range convs {
		summaries[i] = convSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		}
	}

	return c.JSON(fiber.Map{
		"conversations": summaries,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
	})
}

func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uuid.UUID)

	var req struct {
		Title string `json:"title"`
	}
	_ = c.BodyParser(&req)
	if req.Title == "" {
		req.Title = defaultConversationTitle
	}

	conv := models.Conversation{
		UserID: userID,
		Title:  req.Title,
	}
	if err := h.db.Create(&conv).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create conversation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	conv, err := ownedConversation(h.db, c)
	if err != nil {
		return err
	}
	return c.JSON(conv)
}

func (h *ConversationHandler) UpdateTitle(c *fiber.Ctx) error {
	conv, err := ownedConversation(h.db, c)
	if err != nil {
		return err
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Title is required",
		})
	}

	h.db.Model(conv).Update("title", req.Title)
	return c.JSON(fiber.Map{"message": "Title updated"})
}

func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	conv, err := ownedConversation(h.db, c)
	if err != nil {
		return err
	}

	h.db.Delete(conv)
	return c.JSON(fiber.Map{"message": "Conversation deleted"})
}

// ─── Messages ───────────────────────────────────────────────────────────────

func (h *ConversationHandler) ListMessages(c *fiber.Ctx) error {
	conv, err := ownedConversation(h.db, c)
	if err != nil {
		return err
	}

	var messages []models.Message
	h.db.Where("conversation_id = ?", conv.ID).Order("created_at ASC").Find(&messages)

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ConversationHandler) CreateMessage(c *fiber.Ctx) error {
	conv, err := ownedConversation(h.db, c)
	if err != nil {
		return err
	}

	var req struct {
		ID              uuid.UUID      `json:"id"`
		Role            string         `json:"role"`
		Content         string         `json:"content"`
		ToolInvocations datatypes.JSON `json:"tool_invocations"`
	}
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Role is required",
		})
	}

	msg, err := appendMessage(h.db, conv, req.ID, req.Role, req.Content, req.ToolInvocations)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to save message",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// appendMessage persists one message. The first user message into a
// conversation still carrying the default title retitles it from the
// message content; later messages never touch the title.
func appendMessage(db *gorm.DB, conv *models.Conversation, id uuid.UUID, role, content string, invocations datatypes.JSON) (*models.Message, error) {
	if invocations == nil {
		invocations = datatypes.JSON("[]")
	}

	msg := models.Message{
		ID:              id,
		ConversationID:  conv.ID,
		Role:            role,
		Content:         content,
		ToolInvocations: invocations,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}

	if role == "user" && conv.Title == defaultConversationTitle && content != "" {
		title := truncate(content, 50)
		if err := db.Model(conv).Update("title", title).Error; err == nil {
			conv.Title = title
		}
	} else {
		// Keep updated_at moving so the list sorts by recent activity.
		db.Model(conv).Update("updated_at", time.Now())
	}

	return &msg, nil
}

// truncate counts runes, not bytes, so a cut title is still valid UTF-8.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
