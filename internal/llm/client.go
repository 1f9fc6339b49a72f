// Package llm abstracts the chat model provider behind a small
// streaming-step interface so the engine can be driven by fakes.
package llm

import "context"

// ToolCall is one function call requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

// Message is a chat message in provider-neutral form.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on tool messages
}

// ToolSpec is a tool definition offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// StepRequest is one streaming completion call. A nil Tools slice means
// the model must answer in text; it cannot call tools.
type StepRequest struct {
	Model    string
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// StepResult is the assembled outcome of one streaming call.
type StepResult struct {
	Message      Message
	FinishReason string
}

// Client performs a single streaming model call. onToken receives each
// content fragment as it arrives; tool call fragments are accumulated
// into the returned message.
type Client interface {
	StreamStep(ctx context.Context, req StepRequest, onToken func(string)) (*StepResult, error)
}
