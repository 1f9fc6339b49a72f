package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/samchat/samchat/internal/chat"
	"github.com/samchat/samchat/internal/config"
	"github.com/samchat/samchat/internal/llm"
	"github.com/samchat/samchat/internal/middleware"
	"github.com/samchat/samchat/internal/models"
	"github.com/samchat/samchat/internal/tools"
	"gorm.io/gorm"
)

// countingLLM returns a scripted answer and counts how often the model
// is invoked.
type countingLLM struct {
	calls   atomic.Int64
	content string
}

func (f *countingLLM) StreamStep(_ context.Context, req llm.StepRequest, onToken func(string)) (*llm.StepResult, error) {
	f.calls.Add(1)
	if onToken != nil {
		onToken(f.content)
	}
	return &llm.StepResult{
		Message:      llm.Message{Role: "assistant", Content: f.content},
		FinishReason: "stop",
	}, nil
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
	llm *countingLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		DefaultModel:    "gpt-4o",
		TranscribeModel: "whisper-1",
		ChatMaxSteps:    10,
		ChatTimeoutSecs: 30,
		ScreenerBaseURL: "http://screener.local",
	}

	model := &countingLLM{content: "Hello from the assistant"}
	registry := tools.NewRegistry(cfg, db, nil, nil)
	engine := chat.NewEngine(model, registry, nil, cfg.ChatMaxSteps)

	authHandler := NewAuthHandler(cfg, db)
	chatHandler := NewChatHandler(cfg, db, engine)
	conversationHandler := NewConversationHandler(db)

	app := fiber.New()
	app.Post("/api/auth/register", authHandler.Register)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))
	api.Get("/auth/me", authHandler.Me)
	api.Post("/chat", chatHandler.Stream)
	api.Get("/conversations", conversationHandler.List)
	api.Post("/conversations", conversationHandler.Create)
	api.Get("/conversations/:id", conversationHandler.Get)
	api.Put("/conversations/:id/title", conversationHandler.UpdateTitle)
	api.Delete("/conversations/:id", conversationHandler.Delete)
	api.Get("/conversations/:id/messages", conversationHandler.ListMessages)
	api.Post("/conversations/:id/messages", conversationHandler.CreateMessage)

	return &testEnv{app: app, db: db, cfg: cfg, llm: model}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// register creates an account and returns its access token.
func (e *testEnv) register(t *testing.T, email, password, name string) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatal("register returned no access token")
	}
	return body.AccessToken
}

// createConversation returns the new conversation's ID.
func (e *testEnv) createConversation(t *testing.T, token string) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/api/conversations", token, map[string]string{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create conversation: status %d", resp.StatusCode)
	}
	var conv struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &conv)
	return conv.ID
}
