package mcp

import "context"

// Transport delivers JSON-RPC messages to a single MCP server.
type Transport interface {
	// Send sends a request and returns the correlated response.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Notify sends a notification; no response is expected.
	Notify(ctx context.Context, notif *Notification) error

	// Close releases transport resources. For stdio transports this
	// terminates the subprocess.
	Close() error
}
