package tools

import "context"

func (r *Registry) chartTool() *Tool {
	return &Tool{
		Name:        "generateChart",
		Description: "Generate a chart for data visualization. Use this to display data in a graphical format.",
		Kind:        KindChart,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chartType": map[string]any{
					"type":        "string",
					"enum":        []string{"bar", "line", "pie"},
					"description": "The type of chart to generate.",
				},
				"data": map[string]any{
					"type":        "array",
					"description": "The data for the chart, as an array of objects.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"label": map[string]any{
								"type":        "string",
								"description": "The label for a data point.",
							},
							"value": map[string]any{
								"type":        "number",
								"description": "The value for a data point.",
							},
						},
						"required": []string{"label", "value"},
					},
				},
				"xAxis": map[string]any{
					"type":        "string",
					"description": "The key from the data objects to use for the X-axis. This must be 'label'.",
				},
				"yAxis": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "The key(s) from the data objects to use for the Y-axis. This must be 'value'.",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "The title of the chart.",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "A description of the chart.",
				},
			},
			"required": []string{"chartType", "data", "xAxis", "yAxis"},
		},
		Handler: r.generateChart,
	}
}

// generateChart does no server-side work: the arguments come back verbatim
// so the client can render the chart.
func (r *Registry) generateChart(ctx context.Context, args map[string]any) Result {
	return OK(args)
}
