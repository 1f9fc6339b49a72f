package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

func (r *Registry) apiRequestTool() *Tool {
	return &Tool{
		Name: "makeApiRequest",
		Description: "Make an HTTP API request to a specified URL. Supports GET, POST, PUT, DELETE, etc. " +
			"The screener API is available at " + r.cfg.ScreenerBaseURL + ". The available endpoints are " +
			"1. POST /accelerated_concall :-this gets the concall of that company , " +
			"POST /accelerated_peers : This gets peers of that company , " +
			"POST /accelerated_profit_loss : This gets the profit and loss of the company , " +
			"POST /accelerated_quarterly_results :- This gets the quarterly results of that company , " +
			"POST /accelerated_announcements :- This gets the announcements of that company , " +
			"body for all these endpoints have company_name : str",
		Kind: KindAPIRequest,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The URL to make the request to.",
				},
				"method": map[string]any{
					"type":        "string",
					"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
					"description": "The HTTP method to use.",
				},
				"headers": map[string]any{
					"type":        "object",
					"description": "Optional headers to include in the request.",
				},
				"body": map[string]any{
					"description": "Optional body for the request (for POST, PUT, etc.). Can be a JSON object or string.",
				},
			},
			"required": []string{"url", "method"},
		},
		Handler: r.makeAPIRequest,
	}
}

func (r *Registry) makeAPIRequest(ctx context.Context, args map[string]any) Result {
	url, _ := args["url"].(string)
	method, _ := args["method"].(string)
	if url == "" || method == "" {
		return Fail("url and method are required")
	}
	method = strings.ToUpper(method)

	headers := map[string]string{"Content-Type": "application/json"}
	if extra, ok := args["headers"].(map[string]any); ok {
		for k, v := range extra {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	// Echo of the request, returned with both success and failure so the
	// model can see what was actually sent.
	echo := map[string]any{
		"url":     url,
		"method":  method,
		"headers": headers,
		"body":    args["body"],
	}

	var reqBody io.Reader
	if body, ok := args["body"]; ok && body != nil && method != http.MethodGet && method != http.MethodHead {
		switch b := body.(type) {
		case string:
			reqBody = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				return Result{Data: map[string]any{"error": "unserializable request body", "request": echo}}
			}
			reqBody = bytes.NewReader(raw)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return Result{Data: map[string]any{"error": err.Error(), "request": echo}}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Result{Data: map[string]any{"error": err.Error(), "request": echo}}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var data any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &data); err != nil {
			data = string(raw)
		}
	} else {
		data = string(raw)
	}

	respHeaders := map[string]string{}
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	return OK(map[string]any{
		"status":     resp.StatusCode,
		"statusText": resp.Status,
		"headers":    respHeaders,
		"data":       data,
		"request":    echo,
	})
}
