package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPTransport speaks JSON-RPC to a remote MCP server over streamable
// HTTP: every message is an HTTP POST, responses come back in the body.
type HTTPTransport struct {
	url        string
	headers    map[string]string
	httpClient *http.Client

	mu        sync.RWMutex
	sessionID string // Mcp-Session-Id header for session affinity
}

func NewHTTPTransport(url string, headers map[string]string) *HTTPTransport {
	return &HTTPTransport{
		url:     url,
		headers: headers,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *HTTPTransport) post(ctx context.Context, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	t.mu.RLock()
	if t.sessionID != "" {
		req.Header.Set("Mcp-Session-Id", t.sessionID)
	}
	t.mu.RUnlock()

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to %s: %w", t.url, err)
	}

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		t.mu.Lock()
		t.sessionID = sid
		t.mu.Unlock()
	}

	return resp, nil
}

func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	httpResp, err := t.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
		return nil, fmt.Errorf("MCP server returned %d: %s", httpResp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func (t *HTTPTransport) Notify(ctx context.Context, notif *Notification) error {
	httpResp, err := t.post(ctx, notif)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	// 202 Accepted is also fine for notifications.
	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
		return fmt.Errorf("MCP server returned %d for notification: %s", httpResp.StatusCode, string(body))
	}
	return nil
}

// Close is a no-op; the HTTP client manages its own connection pool.
func (t *HTTPTransport) Close() error {
	return nil
}
