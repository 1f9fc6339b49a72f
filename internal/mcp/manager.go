package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// PrefixedTool is an MCP tool qualified by its server: the exposed name
// is "server_tool" so tools from different servers cannot collide.
type PrefixedTool struct {
	Server string
	Name   string
	Def    ToolDefinition
}

// Manager owns the MCP clients for a fixed set of configured servers.
// Clients are created and initialized on first use and cached for the
// manager's lifetime; the cache is mutex-guarded and injected into
// whatever needs MCP tools rather than living in package globals.
type Manager struct {
	servers []ServerConfig

	mu      sync.Mutex
	clients map[string]*Client
}

func NewManager(servers []ServerConfig) *Manager {
	return &Manager{
		servers: servers,
		clients: make(map[string]*Client),
	}
}

// client returns the cached client for a server, creating and
// initializing it on first use. Only successfully initialized clients
// are cached; a failed server is retried on the next call.
func (m *Manager) client(ctx context.Context, s ServerConfig) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[s.Name]; ok {
		return c, nil
	}

	var transport Transport
	switch s.Type {
	case "http":
		transport = NewHTTPTransport(s.URL, s.Headers)
	case "stdio":
		transport = NewStdioTransport(s.Command, s.Args, s.Env)
	default:
		return nil, fmt.Errorf("unknown transport type %q for server %s", s.Type, s.Name)
	}

	c := NewClient(s.Name, transport)
	if err := c.Initialize(ctx); err != nil {
		transport.Close()
		return nil, err
	}

	m.clients[s.Name] = c
	return c, nil
}

// AllTools discovers the tools of every enabled server, prefixed with
// the server name. Disabled servers are skipped without any network
// activity. A server that fails to connect or list is logged and
// skipped; it never poisons the merged toolset.
func (m *Manager) AllTools(ctx context.Context) []PrefixedTool {
	var all []PrefixedTool

	for _, s := range m.servers {
		if !s.Enabled {
			continue
		}

		c, err := m.client(ctx, s)
		if err != nil {
			slog.Warn("Failed to connect to MCP server", "server", s.Name, "error", err)
			continue
		}

		tools, err := c.ListTools(ctx)
		if err != nil {
			slog.Warn("Failed to list MCP tools", "server", s.Name, "error", err)
			continue
		}

		for _, t := range tools {
			all = append(all, PrefixedTool{
				Server: s.Name,
				Name:   s.Name + "_" + t.Name,
				Def:    t,
			})
		}
	}

	return all
}

// CallTool dispatches a prefixed tool name ("server_tool") to its
// server. Server names cannot contain underscores that also prefix
// another configured server, so longest-prefix matching is unnecessary.
func (m *Manager) CallTool(ctx context.Context, prefixedName string, args map[string]any) (string, error) {
	for _, s := range m.servers {
		if !s.Enabled || !strings.HasPrefix(prefixedName, s.Name+"_") {
			continue
		}

		c, err := m.client(ctx, s)
		if err != nil {
			return "", fmt.Errorf("MCP server %s unavailable: %w", s.Name, err)
		}

		toolName := strings.TrimPrefix(prefixedName, s.Name+"_")
		return c.CallTool(ctx, toolName, args)
	}

	return "", fmt.Errorf("no MCP server for tool %s", prefixedName)
}

// Close shuts down every cached client.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, c := range m.clients {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close MCP client", "server", name, "error", err)
		}
	}
	m.clients = make(map[string]*Client)
}
