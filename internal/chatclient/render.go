package chatclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samchat/samchat/internal/chat"
	"github.com/samchat/samchat/internal/tools"
)

const chartBarWidth = 30

// RegisterDefaultRenderers installs a display function for every tool
// kind the server can emit. Adding a kind to the enum without a
// renderer here shows up immediately as the bracketed fallback.
func RegisterDefaultRenderers(c *Controller) {
	c.RegisterRenderer(tools.KindSearch, renderSearch)
	c.RegisterRenderer(tools.KindAPIRequest, renderAPIRequest)
	c.RegisterRenderer(tools.KindChart, renderChart)
	c.RegisterRenderer(tools.KindImage, renderImage)
	c.RegisterRenderer(tools.KindQuery, renderQuery)
	c.RegisterRenderer(tools.KindScreener, renderScreener)
	c.RegisterRenderer(tools.KindMCP, renderMCP)
}

// resultError extracts the error field from an error-as-data payload.
func resultError(raw json.RawMessage) (string, bool) {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false
	}
	return payload.Error, payload.Error != ""
}

func renderSearch(inv chat.ToolInvocation) string {
	if inv.State != "result" {
		return "searching the web..."
	}
	if msg, isErr := resultError(inv.Result); isErr {
		return "search failed: " + msg
	}

	var res struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(inv.Result, &res); err != nil {
		return "search results unavailable"
	}

	var b strings.Builder
	if res.Answer != "" {
		b.WriteString(res.Answer)
		b.WriteString("\n")
	}
	for _, r := range res.Results {
		fmt.Fprintf(&b, "  • %s (%s)\n", r.Title, r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAPIRequest(inv chat.ToolInvocation) string {
	var args struct {
		URL    string `json:"url"`
		Method string `json:"method"`
	}
	json.Unmarshal(inv.Arguments, &args)

	if inv.State != "result" {
		return fmt.Sprintf("%s %s ...", args.Method, args.URL)
	}

	var res struct {
		Status     int    `json:"status"`
		StatusText string `json:"statusText"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(inv.Result, &res); err != nil {
		return fmt.Sprintf("%s %s", args.Method, args.URL)
	}
	if res.Error != "" {
		return fmt.Sprintf("%s %s failed: %s", args.Method, args.URL, res.Error)
	}
	return fmt.Sprintf("%s %s → %d %s", args.Method, args.URL, res.Status, res.StatusText)
}

// renderChart draws the pass-through chart payload as labeled text
// bars. Pie charts get the same treatment; proportions read fine as
// bars in a terminal.
func renderChart(inv chat.ToolInvocation) string {
	raw := inv.Result
	if raw == nil {
		raw = inv.Arguments
	}

	var spec struct {
		ChartType string `json:"chartType"`
		Title     string `json:"title"`
		Data      []struct {
			Label string  `json:"label"`
			Value float64 `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &spec); err != nil || len(spec.Data) == 0 {
		return "chart data unavailable"
	}

	maxVal := spec.Data[0].Value
	labelWidth := 0
	for _, d := range spec.Data {
		if d.Value > maxVal {
			maxVal = d.Value
		}
		if len(d.Label) > labelWidth {
			labelWidth = len(d.Label)
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	var b strings.Builder
	if spec.Title != "" {
		fmt.Fprintf(&b, "%s (%s)\n", spec.Title, spec.ChartType)
	}
	for _, d := range spec.Data {
		bar := int(d.Value / maxVal * chartBarWidth)
		if bar < 1 && d.Value > 0 {
			bar = 1
		}
		fmt.Fprintf(&b, "  %-*s %s %g\n", labelWidth, d.Label, strings.Repeat("█", bar), d.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderImage(inv chat.ToolInvocation) string {
	if inv.State != "result" {
		return "generating image..."
	}
	if msg, isErr := resultError(inv.Result); isErr {
		return msg
	}

	var res struct {
		ImageURL string `json:"imageUrl"`
		Prompt   string `json:"prompt"`
	}
	if err := json.Unmarshal(inv.Result, &res); err != nil || res.ImageURL == "" {
		return "image unavailable"
	}
	return fmt.Sprintf("image: %s\n  %q", res.ImageURL, res.Prompt)
}

func renderQuery(inv chat.ToolInvocation) string {
	if inv.State != "result" {
		return "running query..."
	}
	if msg, isErr := resultError(inv.Result); isErr {
		return msg
	}

	var empty struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(inv.Result, &empty); err == nil && empty.Result != "" {
		return empty.Result
	}

	var rows []map[string]any
	if err := json.Unmarshal(inv.Result, &rows); err == nil {
		return fmt.Sprintf("%d row(s)", len(rows))
	}
	return compactJSON(inv.Result)
}

func renderScreener(inv chat.ToolInvocation) string {
	if inv.State != "result" {
		return "querying screener..."
	}
	if msg, isErr := resultError(inv.Result); isErr {
		return msg
	}
	return compactJSON(inv.Result)
}

func renderMCP(inv chat.ToolInvocation) string {
	if inv.State != "result" {
		return inv.Name + "..."
	}
	if msg, isErr := resultError(inv.Result); isErr {
		return msg
	}

	// MCP results are wrapped text; unwrap when possible.
	var text string
	if err := json.Unmarshal(inv.Result, &text); err == nil {
		return text
	}
	return compactJSON(inv.Result)
}

func compactJSON(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 400 {
		s = s[:400] + "…"
	}
	return s
}
