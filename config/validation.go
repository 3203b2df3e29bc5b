package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateVectorDB()...)
	errs = append(errs, c.validateRAG()...)
	errs = append(errs, c.validateCrawl()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateEmbedding() ValidationErrors {
	var errs ValidationErrors

	if c.Embedding.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "embedding.model",
			Message: "embedding model is required",
		})
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions),
		})
	}

	// Typical range for sentence embedding models: 128-4096.
	if c.Embedding.Dimensions > 0 && (c.Embedding.Dimensions < 128 || c.Embedding.Dimensions > 4096) {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions %d is outside typical range [128, 4096]", c.Embedding.Dimensions),
		})
	}

	return errs
}

func (c *Config) validateVectorDB() ValidationErrors {
	var errs ValidationErrors

	if c.VectorDB.URL == "" {
		errs = append(errs, ValidationError{
			Field:   "vectordb.url",
			Message: "vectordb url is required",
		})
	}
	if c.VectorDB.Collection == "" {
		errs = append(errs, ValidationError{
			Field:   "vectordb.collection",
			Message: "collection name is required",
		})
	}

	return errs
}

func (c *Config) validateRAG() ValidationErrors {
	var errs ValidationErrors

	if c.RAG.TopK <= 0 {
		errs = append(errs, ValidationError{
			Field:   "rag.top_k",
			Message: fmt.Sprintf("rag.top_k must be positive, got %d", c.RAG.TopK),
		})
	}

	if c.RAG.TopK > 100 {
		errs = append(errs, ValidationError{
			Field:   "rag.top_k",
			Message: fmt.Sprintf("rag.top_k %d is too large (max recommended: 100)", c.RAG.TopK),
		})
	}

	if c.RAG.Threshold < 0 || c.RAG.Threshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "rag.threshold",
			Message: fmt.Sprintf("rag.threshold must be in [0, 1], got %.2f", c.RAG.Threshold),
		})
	}

	if c.RAG.Splitter.ChunkSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "rag.splitter.chunk_size",
			Message: fmt.Sprintf("chunk_size must be positive, got %d", c.RAG.Splitter.ChunkSize),
		})
	}

	if c.RAG.Splitter.ChunkOverlap < 0 || (c.RAG.Splitter.ChunkSize > 0 && c.RAG.Splitter.ChunkOverlap >= c.RAG.Splitter.ChunkSize) {
		errs = append(errs, ValidationError{
			Field:   "rag.splitter.chunk_overlap",
			Message: fmt.Sprintf("chunk_overlap must be in [0, chunk_size), got %d", c.RAG.Splitter.ChunkOverlap),
		})
	}

	return errs
}

func (c *Config) validateCrawl() ValidationErrors {
	var errs ValidationErrors

	if c.Crawl.MaxPages <= 0 {
		errs = append(errs, ValidationError{
			Field:   "crawl.max_pages",
			Message: fmt.Sprintf("crawl.max_pages must be positive, got %d", c.Crawl.MaxPages),
		})
	}

	if c.Search.Limit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "search.limit",
			Message: fmt.Sprintf("search.limit must be positive, got %d", c.Search.Limit),
		})
	}

	return errs
}
