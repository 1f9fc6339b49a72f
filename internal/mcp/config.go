package mcp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig describes one MCP server entry in the config file.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"` // "http" or "stdio"
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`     // http only
	Headers map[string]string `yaml:"headers"` // http only
	Command string            `yaml:"command"` // stdio only
	Args    []string          `yaml:"args"`    // stdio only
	Env     []string          `yaml:"env"`     // stdio only, "KEY=VALUE"
}

type fileConfig struct {
	Servers []ServerConfig `yaml:"servers"`
}

// LoadConfig reads the MCP server list from a YAML file. Environment
// variables in the file are expanded before parsing. A missing file is
// not an error; it means no MCP servers are configured.
func LoadConfig(path string) ([]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse MCP config %s: %w", path, err)
	}

	for _, s := range cfg.Servers {
		if s.Name == "" {
			return nil, fmt.Errorf("MCP config %s: server with empty name", path)
		}
		switch s.Type {
		case "http":
			if s.URL == "" {
				return nil, fmt.Errorf("MCP server %s: http transport requires url", s.Name)
			}
		case "stdio":
			if s.Command == "" {
				return nil, fmt.Errorf("MCP server %s: stdio transport requires command", s.Name)
			}
		default:
			return nil, fmt.Errorf("MCP server %s: unknown transport type %q", s.Name, s.Type)
		}
	}

	return cfg.Servers, nil
}
