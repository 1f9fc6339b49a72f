// Package chat runs the streaming tool-call loop for one chat turn.
package chat

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/samchat/samchat/internal/llm"
	"github.com/samchat/samchat/internal/mcp"
	"github.com/samchat/samchat/internal/tools"
)

// ToolInvocation records one tool call and its outcome for streaming to
// the client and persisting with the assistant message.
type ToolInvocation struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      tools.Kind      `json:"kind"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result,omitempty"`
	State     string          `json:"state"` // "pending" until the result arrives, then "result"
}

// Sink receives engine events as they happen. Token carries whole words;
// ToolCall fires when the model requests a tool, ToolResult when the
// outcome is known.
type Sink interface {
	Token(text string)
	ToolCall(inv ToolInvocation)
	ToolResult(inv ToolInvocation)
}

// Turn is the final outcome of one engine run.
type Turn struct {
	Content     string
	Invocations []ToolInvocation
}

// Engine drives the model through a step-capped tool loop: stream a
// completion, execute any requested tools, feed the results back, and
// repeat until the model answers in text or the cap is hit.
type Engine struct {
	llm      llm.Client
	registry *tools.Registry
	mcp      *mcp.Manager
	maxSteps int
}

func NewEngine(client llm.Client, registry *tools.Registry, manager *mcp.Manager, maxSteps int) *Engine {
	if maxSteps <= 0 {
		maxSteps = 10
	}
	return &Engine{
		llm:      client,
		registry: registry,
		mcp:      manager,
		maxSteps: maxSteps,
	}
}

// Run executes one chat turn. Tool failures are fed back to the model as
// error payloads; only model-call failures end the turn with an error.
func (e *Engine) Run(ctx context.Context, model, system string, messages []llm.Message, sink Sink) (*Turn, error) {
	chunker := NewWordChunker(sink.Token)
	specs := e.toolSpecs(ctx)

	msgs := make([]llm.Message, len(messages))
	copy(msgs, messages)

	turn := &Turn{}

	for step := 0; step < e.maxSteps; step++ {
		res, err := e.llm.StreamStep(ctx, llm.StepRequest{
			Model:    model,
			System:   system,
			Messages: msgs,
			Tools:    specs,
		}, chunker.Write)
		if err != nil {
			return nil, err
		}
		chunker.Flush()
		turn.Content += res.Message.Content

		if len(res.Message.ToolCalls) == 0 {
			return turn, nil
		}

		msgs = append(msgs, res.Message)

		for _, tc := range res.Message.ToolCalls {
			inv := ToolInvocation{
				ID:        tc.ID,
				Name:      tc.Name,
				Kind:      e.kindOf(tc.Name),
				Arguments: json.RawMessage(tc.Arguments),
				State:     "pending",
			}
			sink.ToolCall(inv)

			payload := e.execute(ctx, tc)

			inv.Result = json.RawMessage(payload)
			inv.State = "result"
			sink.ToolResult(inv)
			turn.Invocations = append(turn.Invocations, inv)

			msgs = append(msgs, llm.Message{
				Role:       "tool",
				Content:    payload,
				ToolCallID: tc.ID,
			})
		}
	}

	// Cap reached. One last call without tools so the model has to
	// produce a text answer from what it gathered.
	slog.Warn("Tool step cap reached, forcing final answer", "max_steps", e.maxSteps, "model", model)

	res, err := e.llm.StreamStep(ctx, llm.StepRequest{
		Model:    model,
		System:   system,
		Messages: msgs,
	}, chunker.Write)
	if err != nil {
		return nil, err
	}
	chunker.Flush()
	turn.Content += res.Message.Content
	return turn, nil
}

// execute runs one tool call, local or MCP, and always returns a JSON
// payload for the model, errors included.
func (e *Engine) execute(ctx context.Context, tc llm.ToolCall) string {
	if e.registry.Get(tc.Name) != nil {
		return e.registry.Execute(ctx, tc.Name, tc.Arguments).Payload()
	}

	if e.mcp != nil {
		var args map[string]any
		if tc.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				return tools.Fail("invalid arguments for %s: %s", tc.Name, err).Payload()
			}
		}
		text, err := e.mcp.CallTool(ctx, tc.Name, args)
		if err != nil {
			return tools.Fail("%s", err).Payload()
		}
		return tools.OK(text).Payload()
	}

	return tools.Fail("unknown tool: %s", tc.Name).Payload()
}

func (e *Engine) kindOf(name string) tools.Kind {
	if t := e.registry.Get(name); t != nil {
		return t.Kind
	}
	return tools.KindMCP
}

// toolSpecs merges the local registry with the tools discovered from
// enabled MCP servers.
func (e *Engine) toolSpecs(ctx context.Context) []llm.ToolSpec {
	var specs []llm.ToolSpec
	for _, t := range e.registry.List() {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	if e.mcp == nil {
		return specs
	}

	for _, pt := range e.mcp.AllTools(ctx) {
		params := pt.Def.InputSchema
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		specs = append(specs, llm.ToolSpec{
			Name:        pt.Name,
			Description: pt.Def.Description,
			Parameters:  params,
		})
	}
	return specs
}
