// Package tools defines the local tools exposed to the model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samchat/samchat/internal/config"
	"gorm.io/gorm"
)

// Kind classifies a tool for client-side rendering. The set is closed:
// clients dispatch on it and must handle every member.
type Kind string

const (
	KindSearch     Kind = "search"
	KindAPIRequest Kind = "api_request"
	KindChart      Kind = "chart"
	KindImage      Kind = "image"
	KindQuery      Kind = "query"
	KindScreener   Kind = "screener"
	KindMCP        Kind = "mcp"
)

// Result is the outcome of a tool call: a success payload or an error
// string, never both. Errors are data fed back to the model, not raised.
type Result struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func OK(data any) Result {
	return Result{Data: data}
}

func Fail(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

func (r Result) IsError() bool {
	return r.Error != ""
}

// Payload renders the result as the JSON string handed back to the model.
func (r Result) Payload() string {
	if r.Error != "" {
		b, _ := json.Marshal(map[string]string{"error": r.Error})
		return string(b)
	}
	b, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Sprintf(`{"error":"unserializable tool result: %s"}`, err)
	}
	return string(b)
}

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Kind        Kind           `json:"kind"`
	Handler     func(ctx context.Context, args map[string]any) Result `json:"-"`
}

// ImageGenerator produces raw image bytes for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, error)
}

// Uploader stores a blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Registry manages the local tools for model function calling.
type Registry struct {
	cfg        *config.Config
	db         *gorm.DB
	images     ImageGenerator
	bucket     Uploader
	httpClient *http.Client
	tools      map[string]*Tool
	order      []string
}

func NewRegistry(cfg *config.Config, db *gorm.DB, images ImageGenerator, bucket Uploader) *Registry {
	r := &Registry{
		cfg:    cfg,
		db:     db,
		images: images,
		bucket: bucket,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tools: make(map[string]*Tool),
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.Register(r.searchTool())
	r.Register(r.apiRequestTool())
	r.Register(r.chartTool())
	r.Register(r.imageTool())
	r.Register(r.queryTool())
	r.Register(r.screenerTool())
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns the registered tools in registration order.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute runs a tool by name. Failures (unknown tool, bad arguments,
// handler errors, even panics) come back as error results so the model
// can see them and adjust.
func (r *Registry) Execute(ctx context.Context, name string, argsJSON string) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Fail("tool %s panicked: %v", name, rec)
		}
	}()

	tool := r.tools[name]
	if tool == nil {
		return Fail("unknown tool: %s", name)
	}

	var args map[string]any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return Fail("invalid arguments for %s: %s", name, err)
		}
	}

	return tool.Handler(ctx, args)
}
