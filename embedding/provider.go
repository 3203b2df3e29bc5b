// Package embedding turns text into vectors for indexing and search.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/phonewise/phonerag/config"
)

// Provider defines the embedding backend interface.
type Provider interface {
	// GetEmbedding embeds a single text.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	// GetEmbeddings embeds a batch in one call, preserving input order.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions reports the vector width this provider produces.
	Dimensions() int
}

// NewEmbeddingProvider creates a provider from config. When fallback models
// are configured the primary is wrapped in a tiered provider that fails over
// model by model.
func NewEmbeddingProvider(cfg config.EmbeddingConfig) (Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	primary := newOpenAIProvider(cfg, cfg.Model)
	if len(cfg.Fallbacks) == 0 {
		return primary, nil
	}
	providers := []Provider{primary}
	for _, model := range cfg.Fallbacks {
		if strings.TrimSpace(model) == "" {
			continue
		}
		providers = append(providers, newOpenAIProvider(cfg, model))
	}
	return NewTieredProvider(providers), nil
}
