package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samchat/samchat/internal/config"
	"github.com/samchat/samchat/internal/handlers"
	"github.com/samchat/samchat/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	conversationHandler *handlers.ConversationHandler,
	transcribeHandler *handlers.TranscribeHandler,
	systemHandler *handlers.SystemHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/register", authHandler.Register)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Auth (protected)
	api.Get("/auth/me", authHandler.Me)

	// Chat
	api.Post("/chat", chatHandler.Stream)
	api.Post("/transcribe", transcribeHandler.Transcribe)

	// Conversations
	api.Get("/conversations", conversationHandler.List)
	api.Post("/conversations", conversationHandler.Create)
	api.Get("/conversations/:id", conversationHandler.Get)
	api.Put("/conversations/:id/title", conversationHandler.UpdateTitle)
	api.Delete("/conversations/:id", conversationHandler.Delete)
	api.Get("/conversations/:id/messages", conversationHandler.ListMessages)
	api.Post("/conversations/:id/messages", conversationHandler.CreateMessage)
}
