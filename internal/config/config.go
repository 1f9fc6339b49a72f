package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret string

	// Model provider (OpenAI-compatible)
	ProviderAPIKey  string
	ProviderBaseURL string
	DefaultModel    string
	TranscribeModel string
	ImageModel      string

	// Chat loop
	ChatMaxSteps    int // sequential tool-call steps before a forced final answer
	ChatTimeoutSecs int // wall-clock cap on one chat turn

	// Web Search
	TavilyAPIKey string

	// Screener (company data backend)
	ScreenerBaseURL  string
	ScreenerAgentURL string

	// Object storage for generated images
	StorageURL    string
	StorageBucket string
	StorageToken  string

	// MCP
	MCPConfigPath string
}

func Load() *Config {
	maxSteps, _ := strconv.Atoi(getEnv("CHAT_MAX_STEPS", "10"))
	timeoutSecs, _ := strconv.Atoi(getEnv("CHAT_TIMEOUT_SECS", "120"))
	return &Config{
		Port:             getEnv("PORT", "8090"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "samchat_db"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		ProviderAPIKey:   getEnv("PROVIDER_API_KEY", ""),
		ProviderBaseURL:  getEnv("PROVIDER_BASE_URL", "https://api.openai.com/v1"),
		DefaultModel:     getEnv("DEFAULT_MODEL", "gpt-4o"),
		TranscribeModel:  getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		ImageModel:       getEnv("IMAGE_MODEL", "dall-e-3"),
		ChatMaxSteps:     maxSteps,
		ChatTimeoutSecs:  timeoutSecs,
		TavilyAPIKey:     getEnv("TAVILY_API_KEY", ""),
		ScreenerBaseURL:  getEnv("SCREENER_BASE_URL", "http://localhost:8080"),
		ScreenerAgentURL: getEnv("SCREENER_AGENT_URL", "http://localhost:8003/query_agent"),
		StorageURL:       getEnv("STORAGE_URL", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "generated-images"),
		StorageToken:     getEnv("STORAGE_TOKEN", ""),
		MCPConfigPath:    getEnv("MCP_CONFIG", "mcp.yaml"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
