package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for AI text-completion providers. The scorer
// only depends on the prompt going out and free-form text coming back;
// everything about interpreting that text lives in the parser.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the AI judge.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CallSpacing time.Duration
	BatchSize   int
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// NewClient creates a completion client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return newGeminiClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
