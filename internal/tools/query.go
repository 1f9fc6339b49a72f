package tools

import (
	"context"
	"strings"
)

func (r *Registry) queryTool() *Tool {
	return &Tool{
		Name:        "queryDatabase",
		Description: "Query the application database with SQL.",
		Kind:        KindQuery,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The SQL query to execute.",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.queryDatabase,
	}
}

// queryDatabase runs a single SQL statement on the server's privileged
// connection and returns the rows as JSON objects.
func (r *Registry) queryDatabase(ctx context.Context, args map[string]any) Result {
	query, _ := args["query"].(string)
	if query == "" {
		return Fail("query is required")
	}

	// Trailing semicolons break some drivers in single-statement mode.
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")

	var rows []map[string]any
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return Fail("Error running query: %s", err)
	}

	if len(rows) == 0 {
		return OK(map[string]any{"result": "Query returned no results."})
	}
	return OK(rows)
}
