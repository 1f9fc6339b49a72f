package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const tavilyEndpoint = "https://api.tavily.com/search"

func (r *Registry) searchTool() *Tool {
	return &Tool{
		Name:        "tavilySearch",
		Description: "Search the web using Tavily for up-to-date information, news, and research.",
		Kind:        KindSearch,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to use.",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.tavilySearch,
	}
}

func (r *Registry) tavilySearch(ctx context.Context, args map[string]any) Result {
	query, _ := args["query"].(string)
	if query == "" {
		return Fail("query is required")
	}

	payload, _ := json.Marshal(map[string]any{
		"api_key":             r.cfg.TavilyAPIKey,
		"query":               query,
		"include_answer":      true,
		"max_results":         5,
		"include_raw_content": false,
		"include_images":      true,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return Fail("Failed to perform search. Please try again.")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Fail("Failed to perform search. Please try again.")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Fail("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return Fail("unexpected search response: %s", err)
	}
	return OK(result)
}
