// Package llm wraps the single-prompt completion backends used by AI search.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"plaiful/internal/config"
)

var (
	ErrNotConfigured = errors.New("llm: not configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Completer sends one prompt and returns the model's text. Implementations
// make a single attempt and never retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New builds the backend named by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	switch cfg.Provider {
	case "anthropic":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &Anthropic{
			apiKey:    cfg.APIKey,
			model:     model,
			maxTokens: maxTokens,
			baseURL:   anthropicBaseURL,
			client:    &http.Client{Timeout: 30 * time.Second},
		}, nil
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.Model, maxTokens)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: gemini, anthropic)", cfg.Provider)
	}
}
