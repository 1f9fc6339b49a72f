package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// protocolVersion is advertised during the initialize handshake.
const protocolVersion = "2024-11-05"

// ToolDefinition is an MCP tool as returned by tools/list.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentBlock is a single content item in a tools/call response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type callToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type toolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type initializeResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// Client talks to a single MCP server: initialize, tools/list, tools/call.
type Client struct {
	name      string
	transport Transport
	nextID    atomic.Int64

	mu    sync.RWMutex
	tools []ToolDefinition
}

func NewClient(name string, transport Transport) *Client {
	return &Client{name: name, transport: transport}
}

func (c *Client) Name() string {
	return c.name
}

// Initialize performs the MCP handshake: initialize request followed by
// the notifications/initialized notification.
func (c *Client) Initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "samchat",
			"version": "1.0",
		},
	}

	resp, err := c.send(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("unmarshal initialize result: %w", err)
	}

	slog.Info("MCP server initialized",
		"server", c.name,
		"server_name", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
		"protocol_version", result.ProtocolVersion,
	)

	if err := c.transport.Notify(ctx, NewNotification("notifications/initialized", nil)); err != nil {
		return fmt.Errorf("send initialized notification: %w", err)
	}
	return nil
}

// ListTools calls tools/list. The result is cached for the lifetime of
// the client; the server's toolset is assumed static.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	c.mu.RLock()
	if c.tools != nil {
		defer c.mu.RUnlock()
		return c.tools, nil
	}
	c.mu.RUnlock()

	resp, err := c.send(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	var result toolsListResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal tools/list result: %w", err)
	}

	c.mu.Lock()
	c.tools = result.Tools
	c.mu.Unlock()

	slog.Info("Discovered MCP tools", "server", c.name, "count", len(result.Tools))
	return result.Tools, nil
}

// CallTool invokes a tool and flattens the response content blocks into
// a single string. An isError result comes back as a Go error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}

	resp, err := c.send(ctx, "tools/call", params)
	if err != nil {
		return "", fmt.Errorf("tools/call %s: %w", name, err)
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("unmarshal tools/call result: %w", err)
	}

	text := extractText(result.Content)
	if result.IsError {
		return "", fmt.Errorf("MCP tool %s returned error: %s", name, text)
	}
	return text, nil
}

func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) send(ctx context.Context, method string, params any) (*Response, error) {
	req := NewRequest(c.nextID.Add(1), method, params)

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp, nil
}

// extractText joins text content blocks; non-text blocks become markers.
func extractText(blocks []ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, b.Text)
		default:
			parts = append(parts, fmt.Sprintf("[%s]", b.Type))
		}
	}
	return strings.Join(parts, "\n")
}
