package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path (YAML), applies environment
// overrides on top and validates the result. An empty path yields defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from environment variables. Only the knobs
// that differ between deployments are exposed; the rest stays in the file.
func applyEnv(cfg *Config) {
	setString(&cfg.VectorDB.URL, "VECTOR_DB_URL")
	setString(&cfg.VectorDB.Collection, "COLLECTION_NAME")
	setString(&cfg.Search.Endpoint, "SEARXNG_API_URL")
	setString(&cfg.Crawl.Endpoint, "CRAWL4AI_API_URL")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setInt(&cfg.Embedding.Dimensions, "EMBEDDING_DIMENSION")
	setInt(&cfg.Crawl.MaxPages, "MAX_CRAWL_PAGES")
	setInt(&cfg.Crawl.TimeoutSec, "CRAWL_TIMEOUT")
	setInt(&cfg.Search.Limit, "SEARCH_LIMIT")
	setInt(&cfg.RAG.TopK, "RAG_TOP_K")
	setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")

	setFloat(&cfg.RAG.Threshold, "RAG_SIMILARITY_THRESHOLD")
	setFloat(&cfg.LLM.Temperature, "LLM_TEMPERATURE")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
