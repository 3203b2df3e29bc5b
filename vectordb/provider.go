// Package vectordb is the vector store layer. The only backend is Qdrant,
// spoken over its REST API; the payload model (nested product_data with a
// keyword-indexed id) leans on Qdrant's nested-field filtering.
package vectordb

import (
	"context"
	"fmt"
	"strings"

	"github.com/phonewise/phonerag/config"
	"github.com/phonewise/phonerag/schema"
)

// VectorStoreProvider defines the vector store backend interface.
type VectorStoreProvider interface {
	// EnsureCollection creates the collection and its payload indexes if they
	// do not exist yet. Safe to call on every startup.
	EnsureCollection(ctx context.Context, dimensions int) error

	// UpsertDocs writes documents as new points. Point ids are always freshly
	// generated; logical identity lives in payload product_data.id.
	UpsertDocs(ctx context.Context, docs []schema.Document) error

	// SearchDocs runs a similarity search with the filter and score threshold
	// from opts.
	SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error)

	// ScrollByFilter pages through points matching the filter without a query
	// vector. Used to locate every chunk of a product for payload updates.
	ScrollByFilter(ctx context.Context, filter *schema.ProductFilter, limit int) ([]StoredPoint, error)

	// SetPayload merges the given payload onto the listed points.
	SetPayload(ctx context.Context, pointIDs []string, payload map[string]interface{}) error

	// Count returns the exact number of points in the collection.
	Count(ctx context.Context) (int, error)
}

// StoredPoint is a point returned by a scroll: its storage id plus payload.
type StoredPoint struct {
	ID      string
	Payload map[string]interface{}
}

// NewVectorStoreProvider creates a provider from config.
func NewVectorStoreProvider(cfg config.VectorDBConfig) (VectorStoreProvider, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("vector_db url is required")
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("vector_db collection is required")
	}
	return newQdrantProvider(cfg), nil
}
