// Package chatclient holds the client-side chat state for one
// conversation: an ordered message list, optimistic appends, and the
// SSE consumer that mirrors server events into that list.
package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samchat/samchat/internal/chat"
	"github.com/samchat/samchat/internal/tools"
)

// Message is one entry in the client's ordered message list. IDs are
// client-generated so the optimistic append never waits on the server.
type Message struct {
	ID          uuid.UUID             `json:"id"`
	Role        string                `json:"role"`
	Content     string                `json:"content"`
	Invocations []chat.ToolInvocation `json:"tool_invocations,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Event is one decoded server-sent event from POST /api/chat.
type Event struct {
	Type       string              // "token", "tool_call", "tool_result", "done", "error"
	Token      string
	Invocation chat.ToolInvocation
	Message    string
	Err        error // transport-level failure; terminal
}

// Renderer turns a finished tool invocation into display text.
type Renderer func(inv chat.ToolInvocation) string

// Controller maintains the in-memory message list for one conversation
// and talks to the samchat server. All state mutation happens under one
// mutex; readers get copies.
type Controller struct {
	mu sync.Mutex

	baseURL    string
	token      string
	httpClient *http.Client

	model          string
	conversationID string
	messages       []Message
	renderers      map[tools.Kind]Renderer
}

func NewController(baseURL, token string) *Controller {
	return &Controller{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		renderers:  make(map[tools.Kind]Renderer),
	}
}

// SetModel changes the model used for subsequent turns. History is kept.
func (c *Controller) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetConversation points the controller at a server conversation so
// persistence writes have a home. An empty ID disables persistence.
func (c *Controller) SetConversation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversationID = id
}

// Messages returns a snapshot of the ordered message list.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// RegisterRenderer installs the display function for one tool kind.
// Registration is explicit so every kind the server can emit has a
// deliberate rendering decision.
func (c *Controller) RegisterRenderer(kind tools.Kind, r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers[kind] = r
}

// Render dispatches an invocation to its kind's renderer.
func (c *Controller) Render(inv chat.ToolInvocation) string {
	c.mu.Lock()
	r := c.renderers[inv.Kind]
	c.mu.Unlock()
	if r == nil {
		return fmt.Sprintf("[%s: %s]", inv.Kind, inv.Name)
	}
	return r(inv)
}

// ─── Send ───────────────────────────────────────────────────────────────────

// Send appends the user message optimistically, fires its persistence
// write without blocking, and starts the streaming request. Events are
// delivered on the returned channel, which closes when the turn ends.
func (c *Controller) Send(ctx context.Context, content string) <-chan Event {
	events := make(chan Event, 32)

	c.mu.Lock()
	userMsg := Message{
		ID:        uuid.Must(uuid.NewV7()),
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now(),
	}
	c.messages = append(c.messages, userMsg)

	history := make([]wireMessage, 0, len(c.messages))
	for _, m := range c.messages {
		history = append(history, wireMessage{Role: m.Role, Content: m.Content})
	}
	model := c.model
	convID := c.conversationID
	c.mu.Unlock()

	go c.persistMessage(userMsg)

	go c.stream(ctx, model, convID, history, events)

	return events
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Messages []wireMessage `json:"messages"`
	Data     struct {
		ConversationID string `json:"conversationId"`
	} `json:"data"`
	SelectedModel string `json:"selectedModel"`
}

// stream runs the SSE request and mirrors events into the message list.
func (c *Controller) stream(ctx context.Context, model, convID string, history []wireMessage, events chan<- Event) {
	defer close(events)

	payload := chatPayload{Messages: history, SelectedModel: model}
	payload.Data.ConversationID = convID

	body, err := json.Marshal(payload)
	if err != nil {
		events <- Event{Type: "error", Err: err}
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		events <- Event{Type: "error", Err: err}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		events <- Event{Type: "error", Err: err}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		events <- Event{Type: "error", Err: fmt.Errorf("chat request failed: %s", resp.Status)}
		return
	}

	assistant := c.appendAssistant()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}

		var ev struct {
			Type       string              `json:"type"`
			Token      string              `json:"token"`
			Invocation chat.ToolInvocation `json:"invocation"`
			Message    string              `json:"message"`
		}
		if err := json.Unmarshal(bytes.TrimPrefix(line, []byte("data: ")), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "token":
			c.appendContent(assistant, ev.Token)
			events <- Event{Type: "token", Token: ev.Token}
		case "tool_call", "tool_result":
			c.upsertInvocation(assistant, ev.Invocation)
			events <- Event{Type: ev.Type, Invocation: ev.Invocation}
		case "done":
			c.finishAssistant(assistant)
			events <- Event{Type: "done"}
			return
		case "error":
			c.dropIfEmpty(assistant)
			events <- Event{Type: "error", Message: ev.Message}
			return
		}
	}

	// The stream ended without a done event; keep any partial output but
	// never leave a blank assistant entry behind.
	c.dropIfEmpty(assistant)

	if err := scanner.Err(); err != nil {
		events <- Event{Type: "error", Err: err}
	}
}

// appendAssistant adds the placeholder the stream fills in and returns
// its client-generated ID.
func (c *Controller) appendAssistant() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := Message{
		ID:        uuid.Must(uuid.NewV7()),
		Role:      "assistant",
		CreatedAt: time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg.ID
}

func (c *Controller) appendContent(id uuid.UUID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Content += token
			return
		}
	}
}

// upsertInvocation records a pending invocation or replaces it with the
// result-carrying one. The server sends the same invocation ID for both
// states, so a match means the pending-to-result transition.
func (c *Controller) upsertInvocation(id uuid.UUID, inv chat.ToolInvocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID != id {
			continue
		}
		for j := range c.messages[i].Invocations {
			if c.messages[i].Invocations[j].ID == inv.ID {
				c.messages[i].Invocations[j] = inv
				return
			}
		}
		c.messages[i].Invocations = append(c.messages[i].Invocations, inv)
		return
	}
}

// dropIfEmpty removes the assistant placeholder if the stream produced
// neither content nor invocations for it.
func (c *Controller) dropIfEmpty(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID != id {
			continue
		}
		if c.messages[i].Content == "" && len(c.messages[i].Invocations) == 0 {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
		}
		return
	}
}

// finishAssistant persists the completed assistant message.
func (c *Controller) finishAssistant(id uuid.UUID) {
	c.mu.Lock()
	var msg Message
	for i := range c.messages {
		if c.messages[i].ID == id {
			msg = c.messages[i]
			break
		}
	}
	c.mu.Unlock()

	if msg.ID == uuid.Nil {
		return
	}
	go c.persistMessage(msg)
}

// persistMessage writes one message to the conversation store. Failures
// are logged, never surfaced; local state is already authoritative for
// this session.
func (c *Controller) persistMessage(msg Message) {
	c.mu.Lock()
	convID := c.conversationID
	c.mu.Unlock()
	if convID == "" {
		return
	}

	body := map[string]any{
		"id":      msg.ID.String(),
		"role":    msg.Role,
		"content": msg.Content,
	}
	if len(msg.Invocations) > 0 {
		body["tool_invocations"] = msg.Invocations
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.postJSON(ctx, "/api/conversations/"+convID+"/messages", body, nil); err != nil {
		slog.Warn("Failed to persist message", "conversation", convID, "role", msg.Role, "error", err)
	}
}
