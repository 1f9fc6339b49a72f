package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samchat/samchat/internal/chat"
	"github.com/samchat/samchat/internal/config"
	"github.com/samchat/samchat/internal/database"
	"github.com/samchat/samchat/internal/handlers"
	"github.com/samchat/samchat/internal/llm"
	"github.com/samchat/samchat/internal/mcp"
	"github.com/samchat/samchat/internal/routes"
	"github.com/samchat/samchat/internal/storage"
	"github.com/samchat/samchat/internal/tools"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting samchat", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB

	// ─── Model provider ──────────────────────────────────────────────────
	provider := llm.NewOpenAI(cfg.ProviderAPIKey, cfg.ProviderBaseURL)

	// ─── Tools ───────────────────────────────────────────────────────────
	bucket := storage.NewBucket(cfg.StorageURL, cfg.StorageBucket, cfg.StorageToken)
	registry := tools.NewRegistry(cfg, db, provider, bucket)

	// ─── MCP ─────────────────────────────────────────────────────────────
	mcpServers, err := mcp.LoadConfig(cfg.MCPConfigPath)
	if err != nil {
		slog.Error("Failed to load MCP config", "path", cfg.MCPConfigPath, "error", err)
		os.Exit(1)
	}
	mcpManager := mcp.NewManager(mcpServers)
	slog.Info("MCP servers configured", "count", len(mcpServers))

	// ─── Engine ──────────────────────────────────────────────────────────
	engine := chat.NewEngine(provider, registry, mcpManager, cfg.ChatMaxSteps)

	// ─── Handlers ────────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg, db)
	chatHandler := handlers.NewChatHandler(cfg, db, engine)
	conversationHandler := handlers.NewConversationHandler(db)
	transcribeHandler := handlers.NewTranscribeHandler(cfg, provider)
	systemHandler := handlers.NewSystemHandler(db)

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "samchat v" + handlers.Version,
		ServerHeader: "samchat",
		BodyLimit:    25 * 1024 * 1024, // audio uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, chatHandler, conversationHandler,
		transcribeHandler, systemHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down samchat...")

		mcpManager.Close()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("samchat listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
