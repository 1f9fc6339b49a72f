package chat

import (
	"strings"
	"testing"
	"time"
)

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	prompt := SystemPrompt("user-123", "sam@example.com", "http://screener.local", now)

	for _, want := range []string{
		"user-123",
		"sam@example.com",
		"The current date is March 2026",
		"Base URL: http://screener.local",
		"tavilySearch",
		"generateChart",
		"screenerQueryAgent",
		"makeApiRequest",
		"generateImage",
		"queryDatabase",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
