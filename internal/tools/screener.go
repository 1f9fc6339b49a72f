package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

func (r *Registry) screenerTool() *Tool {
	return &Tool{
		Name: "screenerQueryAgent",
		Description: "Query the screener agent with natural language to get intelligent analysis about companies. " +
			"Use this tool when the user asks questions like \"find companies with high revenue growth\", " +
			"\"which companies have strong fundamentals\", \"analyze market trends\", or any complex analytical " +
			"query about stocks/companies that requires reasoning beyond simple data retrieval. " +
			"This is the primary tool for stock screening and company analysis queries.",
		Kind: KindScreener,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The natural language query to send to the screener query agent.",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.screenerQueryAgent,
	}
}

func (r *Registry) screenerQueryAgent(ctx context.Context, args map[string]any) Result {
	query, _ := args["query"].(string)
	if query == "" {
		return Fail("query is required")
	}

	payload, _ := json.Marshal(map[string]string{"query": query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.ScreenerAgentURL, bytes.NewReader(payload))
	if err != nil {
		return Fail("Failed to query screener agent.")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Fail("Failed to query screener agent.")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Fail("Failed to query agent: %s", resp.Status)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return Fail("unexpected screener response: %s", err)
	}
	return OK(data)
}
