package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samchat/samchat/internal/chat"
	"github.com/samchat/samchat/internal/tools"
)

type persistedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// fakeServer serves a scripted /api/chat SSE stream and records
// persistence writes.
func fakeServer(t *testing.T, frames []map[string]any, persisted chan persistedMessage) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			data, _ := json.Marshal(frame)
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
	})

	mux.HandleFunc("/api/conversations/conv-1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var msg persistedMessage
		json.NewDecoder(r.Body).Decode(&msg)
		persisted <- msg
		w.WriteHeader(http.StatusCreated)
	})

	return httptest.NewServer(mux)
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out draining events")
		}
	}
}

func TestControllerOptimisticAppend(t *testing.T) {
	persisted := make(chan persistedMessage, 4)
	srv := fakeServer(t, []map[string]any{{"type": "done", "done": true}}, persisted)
	defer srv.Close()

	c := NewController(srv.URL, "test-token")
	c.SetConversation("conv-1")

	events := c.Send(context.Background(), "hello")

	// The user message is in local state before any server round trip
	// resolves.
	msgs := c.Messages()
	if len(msgs) < 1 || msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Fatalf("messages after Send = %+v", msgs)
	}
	if msgs[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("user message has no client-generated ID")
	}

	drain(t, events)
}

func TestControllerStreamsTurn(t *testing.T) {
	pending := map[string]any{
		"type": "tool_call",
		"invocation": map[string]any{
			"id": "call_1", "name": "generateChart", "kind": "chart",
			"arguments": map[string]any{"chartType": "bar"},
			"state":     "pending",
		},
	}
	result := map[string]any{
		"type": "tool_result",
		"invocation": map[string]any{
			"id": "call_1", "name": "generateChart", "kind": "chart",
			"arguments": map[string]any{"chartType": "bar"},
			"result":    map[string]any{"chartType": "bar"},
			"state":     "result",
		},
	}

	persisted := make(chan persistedMessage, 4)
	srv := fakeServer(t, []map[string]any{
		pending,
		result,
		{"type": "token", "token": "Here "},
		{"type": "token", "token": "you go."},
		{"type": "done", "done": true},
	}, persisted)
	defer srv.Close()

	c := NewController(srv.URL, "test-token")
	c.SetConversation("conv-1")
	c.SetModel("gpt-4o")

	events := drain(t, c.Send(context.Background(), "chart please"))

	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	want := []string{"tool_call", "tool_result", "token", "token", "done"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("event order = %v, want %v", types, want)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user + assistant", len(msgs))
	}
	assistant := msgs[1]
	if assistant.Content != "Here you go." {
		t.Errorf("assistant content = %q", assistant.Content)
	}

	// The pending invocation was replaced, not duplicated.
	if len(assistant.Invocations) != 1 {
		t.Fatalf("got %d invocations, want 1", len(assistant.Invocations))
	}
	if assistant.Invocations[0].State != "result" {
		t.Errorf("invocation state = %q, want result", assistant.Invocations[0].State)
	}

	// Both sides of the turn get persisted, user first.
	var saved []persistedMessage
	for len(saved) < 2 {
		select {
		case msg := <-persisted:
			saved = append(saved, msg)
		case <-time.After(5 * time.Second):
			t.Fatalf("persisted %d messages, want 2", len(saved))
		}
	}
	roles := map[string]string{}
	for _, m := range saved {
		roles[m.Role] = m.Content
	}
	if roles["user"] != "chart please" {
		t.Errorf("persisted user = %q", roles["user"])
	}
	if roles["assistant"] != "Here you go." {
		t.Errorf("persisted assistant = %q", roles["assistant"])
	}
}

func TestControllerServerError(t *testing.T) {
	persisted := make(chan persistedMessage, 4)
	srv := fakeServer(t, []map[string]any{
		{"type": "error", "message": "AI service unavailable"},
	}, persisted)
	defer srv.Close()

	c := NewController(srv.URL, "test-token")
	c.SetConversation("conv-1")

	events := drain(t, c.Send(context.Background(), "hi"))
	last := events[len(events)-1]
	if last.Type != "error" || last.Message != "AI service unavailable" {
		t.Errorf("last event = %+v", last)
	}

	// A turn that failed before producing anything leaves no blank
	// assistant entry in the transcript.
	msgs := c.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages after failed turn, want just the user message", len(msgs))
	}
	if msgs[0].Role != "user" {
		t.Errorf("remaining message role = %q", msgs[0].Role)
	}
}

// Partial output survives an error; only the empty placeholder is
// dropped.
func TestControllerErrorKeepsPartialAssistant(t *testing.T) {
	persisted := make(chan persistedMessage, 4)
	srv := fakeServer(t, []map[string]any{
		{"type": "token", "token": "Half an "},
		{"type": "token", "token": "answer"},
		{"type": "error", "message": "AI service unavailable"},
	}, persisted)
	defer srv.Close()

	c := NewController(srv.URL, "test-token")
	c.SetConversation("conv-1")

	drain(t, c.Send(context.Background(), "hi"))

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user + partial assistant", len(msgs))
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "Half an answer" {
		t.Errorf("partial assistant = %+v", msgs[1])
	}
}

func TestControllerModelSwitchKeepsHistory(t *testing.T) {
	persisted := make(chan persistedMessage, 8)
	srv := fakeServer(t, []map[string]any{{"type": "done", "done": true}}, persisted)
	defer srv.Close()

	c := NewController(srv.URL, "test-token")
	c.SetConversation("conv-1")
	c.SetModel("gpt-4o")

	drain(t, c.Send(context.Background(), "first"))
	c.SetModel("gpt-4o-mini")
	drain(t, c.Send(context.Background(), "second"))

	if c.Model() != "gpt-4o-mini" {
		t.Errorf("Model = %q", c.Model())
	}

	var userContents []string
	for _, m := range c.Messages() {
		if m.Role == "user" {
			userContents = append(userContents, m.Content)
		}
	}
	if len(userContents) != 2 || userContents[0] != "first" || userContents[1] != "second" {
		t.Errorf("user history = %v", userContents)
	}
}

// ─── Renderers ──────────────────────────────────────────────────────────────

func TestRenderDispatch(t *testing.T) {
	c := NewController("http://unused", "")
	RegisterDefaultRenderers(c)

	chartArgs, _ := json.Marshal(map[string]any{
		"chartType": "bar",
		"title":     "Quarterly Revenue",
		"data": []map[string]any{
			{"label": "Q1", "value": 10},
			{"label": "Q2", "value": 20},
		},
	})
	out := c.Render(chat.ToolInvocation{
		Name:      "generateChart",
		Kind:      tools.KindChart,
		Arguments: chartArgs,
		Result:    chartArgs,
		State:     "result",
	})
	if !strings.Contains(out, "Quarterly Revenue") || !strings.Contains(out, "Q2") {
		t.Errorf("chart render = %q", out)
	}
	if !strings.Contains(out, "█") {
		t.Errorf("chart render has no bars: %q", out)
	}
}

func TestRenderErrorPayload(t *testing.T) {
	c := NewController("http://unused", "")
	RegisterDefaultRenderers(c)

	out := c.Render(chat.ToolInvocation{
		Name:   "generateImage",
		Kind:   tools.KindImage,
		Result: json.RawMessage(`{"error":"Sorry, I was unable to generate the image."}`),
		State:  "result",
	})
	if out != "Sorry, I was unable to generate the image." {
		t.Errorf("render = %q", out)
	}
}

func TestRenderUnregisteredKindFallsBack(t *testing.T) {
	c := NewController("http://unused", "")

	out := c.Render(chat.ToolInvocation{Name: "finance_get_price", Kind: tools.KindMCP})
	if !strings.Contains(out, "finance_get_price") {
		t.Errorf("fallback render = %q", out)
	}
}
