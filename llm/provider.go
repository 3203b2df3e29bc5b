// Package llm wraps the chat-completion backend used for reflection and for
// LLM-assisted page extraction.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/phonewise/phonerag/config"
)

// Provider defines the completion backend interface.
type Provider interface {
	// GenerateCompletion sends a single prompt and returns the model's text.
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// NewLLMProvider creates a provider from config.
func NewLLMProvider(cfg config.LLMConfig) (Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	return newOpenAIProvider(cfg), nil
}
