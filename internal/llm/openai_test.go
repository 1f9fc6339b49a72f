package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// chunk builds one SSE frame of a chat completion stream.
func chunk(delta map[string]any, finish string) string {
	choice := map[string]any{"index": 0, "delta": delta}
	if finish != "" {
		choice["finish_reason"] = finish
	}
	payload := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion.chunk",
		"model":   "gpt-4o",
		"choices": []any{choice},
	}
	data, _ := json.Marshal(payload)
	return fmt.Sprintf("data: %s\n\n", data)
}

func streamServer(t *testing.T, frames []string, capture *json.RawMessage) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var body json.RawMessage
			json.NewDecoder(r.Body).Decode(&body)
			*capture = body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprint(w, f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStreamStepContent(t *testing.T) {
	srv := streamServer(t, []string{
		chunk(map[string]any{"content": "Hel"}, ""),
		chunk(map[string]any{"content": "lo"}, ""),
		chunk(map[string]any{}, "stop"),
	}, nil)
	defer srv.Close()

	client := NewOpenAI("test-key", srv.URL)

	var tokens []string
	res, err := client.StreamStep(context.Background(), StepRequest{
		Model:    "gpt-4o",
		System:   "be nice",
		Messages: []Message{{Role: "user", Content: "hi"}},
	}, func(tok string) { tokens = append(tokens, tok) })
	if err != nil {
		t.Fatalf("StreamStep: %v", err)
	}

	if res.Message.Content != "Hello" {
		t.Errorf("Content = %q", res.Message.Content)
	}
	if res.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", res.FinishReason)
	}
	if len(tokens) != 2 || tokens[0] != "Hel" || tokens[1] != "lo" {
		t.Errorf("tokens = %q", tokens)
	}
}

// Tool call fragments stream by index with arguments split across
// chunks; they must be reassembled per call.
func TestStreamStepToolCallAccumulation(t *testing.T) {
	srv := streamServer(t, []string{
		chunk(map[string]any{"tool_calls": []any{map[string]any{
			"index": 0, "id": "call_1", "type": "function",
			"function": map[string]any{"name": "generateChart", "arguments": `{"chart`},
		}}}, ""),
		chunk(map[string]any{"tool_calls": []any{map[string]any{
			"index": 0,
			"function": map[string]any{"arguments": `Type":"bar"}`},
		}}}, ""),
		chunk(map[string]any{"tool_calls": []any{map[string]any{
			"index": 1, "id": "call_2", "type": "function",
			"function": map[string]any{"name": "tavilySearch", "arguments": `{"query":"x"}`},
		}}}, ""),
		chunk(map[string]any{}, "tool_calls"),
	}, nil)
	defer srv.Close()

	client := NewOpenAI("test-key", srv.URL)

	res, err := client.StreamStep(context.Background(), StepRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: "user", Content: "chart"}},
	}, nil)
	if err != nil {
		t.Fatalf("StreamStep: %v", err)
	}

	if len(res.Message.ToolCalls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(res.Message.ToolCalls))
	}
	first := res.Message.ToolCalls[0]
	if first.ID != "call_1" || first.Name != "generateChart" {
		t.Errorf("first = %+v", first)
	}
	if first.Arguments != `{"chartType":"bar"}` {
		t.Errorf("arguments = %q, want reassembled JSON", first.Arguments)
	}
	second := res.Message.ToolCalls[1]
	if second.ID != "call_2" || second.Name != "tavilySearch" {
		t.Errorf("second = %+v", second)
	}
	if res.FinishReason != "tool_calls" {
		t.Errorf("FinishReason = %q", res.FinishReason)
	}
}

func TestStreamStepSendsSystemAndTools(t *testing.T) {
	var captured json.RawMessage
	srv := streamServer(t, []string{chunk(map[string]any{"content": "ok"}, "stop")}, &captured)
	defer srv.Close()

	client := NewOpenAI("test-key", srv.URL)

	_, err := client.StreamStep(context.Background(), StepRequest{
		Model:    "gpt-4o",
		System:   "you are sam",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Tools: []ToolSpec{{
			Name:        "generateChart",
			Description: "draw a chart",
			Parameters:  map[string]any{"type": "object"},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("StreamStep: %v", err)
	}

	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Tools []struct {
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(captured, &req); err != nil {
		t.Fatalf("unmarshal captured request: %v", err)
	}

	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != "you are sam" {
		t.Errorf("messages = %+v, want system message first", req.Messages)
	}
	if len(req.Tools) != 1 || req.Tools[0].Function.Name != "generateChart" {
		t.Errorf("tools = %+v", req.Tools)
	}
}
