package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

// mockTransport is a test double for the Transport interface.
type mockTransport struct {
	mu        sync.Mutex
	responses map[string]*Response // method -> canned response
	sent      []Request            // captured requests
	notifs    []Notification       // captured notifications
	closed    bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		responses: make(map[string]*Response),
	}
}

func (m *mockTransport) addResponse(method string, result any) {
	data, _ := json.Marshal(result)
	m.responses[method] = &Response{
		JSONRPC: jsonrpcVersion,
		Result:  json.RawMessage(data),
	}
}

func (m *mockTransport) addError(method string, code int, msg string) {
	m.responses[method] = &Response{
		JSONRPC: jsonrpcVersion,
		Error:   &RPCError{Code: code, Message: msg},
	}
}

func (m *mockTransport) Send(_ context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *req)
	resp, ok := m.responses[req.Method]
	if !ok {
		return nil, fmt.Errorf("unexpected method: %s", req.Method)
	}
	out := *resp
	out.ID = req.ID
	return &out, nil
}

func (m *mockTransport) Notify(_ context.Context, notif *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifs = append(m.notifs, *notif)
	return nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func initResult(name string) initializeResult {
	var res initializeResult
	res.ProtocolVersion = protocolVersion
	res.ServerInfo.Name = name
	res.ServerInfo.Version = "1.0.0"
	return res
}

func TestClientInitialize(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("initialize", initResult("test-server"))

	client := NewClient("test", mt)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if len(mt.sent) != 1 {
		t.Fatalf("sent %d requests, want 1", len(mt.sent))
	}
	if mt.sent[0].Method != "initialize" {
		t.Errorf("method = %q, want %q", mt.sent[0].Method, "initialize")
	}

	if len(mt.notifs) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(mt.notifs))
	}
	if mt.notifs[0].Method != "notifications/initialized" {
		t.Errorf("notification method = %q, want %q", mt.notifs[0].Method, "notifications/initialized")
	}
}

func TestClientListToolsCaches(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("initialize", initResult("test-server"))
	mt.addResponse("tools/list", toolsListResult{
		Tools: []ToolDefinition{
			{Name: "get_price", Description: "Get a stock price", InputSchema: map[string]any{"type": "object"}},
			{Name: "get_news", Description: "Get company news"},
		},
	})

	client := NewClient("test", mt)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	tools, err := client.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}
	if tools[0].Name != "get_price" {
		t.Errorf("tools[0].Name = %q, want %q", tools[0].Name, "get_price")
	}

	// Second call hits the cache, not the transport.
	if _, err := client.ListTools(context.Background()); err != nil {
		t.Fatalf("ListTools (cached): %v", err)
	}
	if len(mt.sent) != 2 {
		t.Errorf("sent %d requests, want 2 (init + one tools/list)", len(mt.sent))
	}
}

func TestClientCallToolText(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("initialize", initResult("test-server"))
	mt.addResponse("tools/call", callToolResult{
		Content: []ContentBlock{{Type: "text", Text: "AAPL: 227.52"}},
	})

	client := NewClient("test", mt)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	result, err := client.CallTool(context.Background(), "get_price", map[string]any{"symbol": "AAPL"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result != "AAPL: 227.52" {
		t.Errorf("result = %q, want %q", result, "AAPL: 227.52")
	}
}

func TestClientCallToolErrorResult(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("initialize", initResult("test-server"))
	mt.addResponse("tools/call", callToolResult{
		Content: []ContentBlock{{Type: "text", Text: "symbol not found"}},
		IsError: true,
	})

	client := NewClient("test", mt)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	_, err := client.CallTool(context.Background(), "get_price", map[string]any{"symbol": "ZZZZ"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := err.Error(); got != "MCP tool get_price returned error: symbol not found" {
		t.Errorf("error = %q", got)
	}
}

func TestClientCallToolRPCError(t *testing.T) {
	mt := newMockTransport()
	mt.addResponse("initialize", initResult("test-server"))
	mt.addError("tools/call", -32601, "Method not found")

	client := NewClient("test", mt)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := client.CallTool(context.Background(), "nonexistent", nil); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClientClose(t *testing.T) {
	mt := newMockTransport()
	client := NewClient("test", mt)
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mt.closed {
		t.Error("transport was not closed")
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		blocks []ContentBlock
		want   string
	}{
		{
			name:   "single text block",
			blocks: []ContentBlock{{Type: "text", Text: "hello"}},
			want:   "hello",
		},
		{
			name:   "multiple text blocks",
			blocks: []ContentBlock{{Type: "text", Text: "a"}, {Type: "text", Text: "b"}},
			want:   "a\nb",
		},
		{
			name:   "non-text placeholder",
			blocks: []ContentBlock{{Type: "image"}},
			want:   "[image]",
		},
		{
			name:   "empty",
			blocks: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.blocks); got != tt.want {
				t.Errorf("extractText() = %q, want %q", got, tt.want)
			}
		})
	}
}
