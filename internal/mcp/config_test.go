package mcp

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
servers:
  - name: finance
    type: http
    enabled: true
    url: https://mcp.example/finance
    headers:
      Authorization: Bearer abc
  - name: local
    type: stdio
    enabled: false
    command: npx
    args: ["-y", "some-mcp-server"]
`)

	servers, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	if servers[0].Name != "finance" || servers[0].Type != "http" || !servers[0].Enabled {
		t.Errorf("servers[0] = %+v", servers[0])
	}
	if servers[0].Headers["Authorization"] != "Bearer abc" {
		t.Errorf("headers = %v", servers[0].Headers)
	}
	if servers[1].Command != "npx" || servers[1].Enabled {
		t.Errorf("servers[1] = %+v", servers[1])
	}
}

func TestLoadConfigMissingFileIsEmpty(t *testing.T) {
	servers, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if servers != nil {
		t.Errorf("servers = %v, want nil", servers)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("MCP_TEST_TOKEN", "tok-123")
	path := writeConfig(t, `
servers:
  - name: finance
    type: http
    enabled: true
    url: https://mcp.example
    headers:
      Authorization: Bearer ${MCP_TEST_TOKEN}
`)

	servers, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := servers[0].Headers["Authorization"]; got != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want expanded env", got)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing name",
			content: `
servers:
  - type: http
    url: https://x
`,
		},
		{
			name: "http without url",
			content: `
servers:
  - name: a
    type: http
`,
		},
		{
			name: "stdio without command",
			content: `
servers:
  - name: a
    type: stdio
`,
		},
		{
			name: "unknown type",
			content: `
servers:
  - name: a
    type: carrier-pigeon
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
