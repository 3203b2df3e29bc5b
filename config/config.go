package config

// Config represents the main configuration for the retrieval/crawl backend.
type Config struct {
	RAG       RAGConfig       `json:"rag" yaml:"rag"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	VectorDB  VectorDBConfig  `json:"vectordb" yaml:"vectordb"`
	Search    SearchConfig    `json:"search" yaml:"search"`
	Crawl     CrawlConfig     `json:"crawl" yaml:"crawl"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Log       LogConfig       `json:"log" yaml:"log"`
	// HTTP holds optional outbound HTTP client settings shared by the search
	// and crawl clients. If nil, defaults apply.
	HTTP *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
}

// RAGConfig contains the retrieval-side settings.
type RAGConfig struct {
	Splitter SplitterConfig `json:"splitter" yaml:"splitter"`
	// Threshold is the similarity-score floor applied to vector search.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	TopK      int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	// PageLimit is the default page size when a request does not supply one.
	PageLimit int `json:"page_limit,omitempty" yaml:"page_limit,omitempty"`
}

// SplitterConfig defines document splitter configuration.
type SplitterConfig struct {
	Provider     string `json:"provider" yaml:"provider"` // Available options: recursive, token
	ChunkSize    int    `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty" yaml:"chunk_overlap,omitempty"`
}

// LLMConfig defines configuration for the chat/completion model.
type LLMConfig struct {
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TimeoutSec  int     `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// EmbeddingConfig defines configuration for embedding models. Fallbacks lists
// model names tried in order when the primary model fails to initialize.
type EmbeddingConfig struct {
	APIKey     string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string   `json:"model,omitempty" yaml:"model,omitempty"`
	Fallbacks  []string `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
	Dimensions int      `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	TimeoutSec int      `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// VectorDBConfig defines configuration for the vector database.
type VectorDBConfig struct {
	URL        string `json:"url" yaml:"url"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Collection string `json:"collection" yaml:"collection"`
	TimeoutSec int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// SearchConfig defines configuration for the web search API (SearxNG).
type SearchConfig struct {
	Endpoint string   `json:"endpoint" yaml:"endpoint"`
	Engines  []string `json:"engines,omitempty" yaml:"engines,omitempty"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	Region   string   `json:"region,omitempty" yaml:"region,omitempty"`
	Limit    int      `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// CrawlConfig defines configuration for the HTML fetch pipeline.
type CrawlConfig struct {
	// Endpoint is the crawl backend (Crawl4AI-compatible). Empty disables the
	// primary path and every fetch goes through the direct HTTP fallback.
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	TimeoutSec int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	MaxPages   int    `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`
	UserAgent  string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	// Concurrency bounds the parallel fetch/extract/index workers per crawl
	// request. Result order never depends on worker completion order.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// CacheConfig defines the query-result L1 cache.
type CacheConfig struct {
	Enable     bool `json:"enable" yaml:"enable"`
	TTLSeconds int  `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	MaxEntries int  `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // console or json
}

// HTTPClientConfig tunes the shared outbound HTTP client.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

// Default returns a configuration with the defaults the service ships with.
func Default() *Config {
	return &Config{
		RAG: RAGConfig{
			Splitter: SplitterConfig{
				Provider:     "recursive",
				ChunkSize:    1000,
				ChunkOverlap: 200,
			},
			Threshold: 0.6,
			TopK:      5,
			PageLimit: 10,
		},
		LLM: LLMConfig{
			Model:       "gemini-2.0-flash",
			Temperature: 0.7,
			MaxTokens:   1024,
			TimeoutSec:  30,
		},
		Embedding: EmbeddingConfig{
			Model:      "vinai/phobert-base",
			Fallbacks:  []string{"sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"},
			Dimensions: 768,
			TimeoutSec: 30,
		},
		VectorDB: VectorDBConfig{
			URL:        "http://vectordb:6333",
			Collection: "phone_products",
			TimeoutSec: 60,
		},
		Search: SearchConfig{
			Endpoint: "http://searxng:8080",
			Engines:  []string{"google", "bing", "duckduckgo"},
			Language: "vi",
			Region:   "vn",
			Limit:    10,
		},
		Crawl: CrawlConfig{
			Endpoint:    "http://crawl4ai:8888",
			TimeoutSec:  30,
			MaxPages:    20,
			UserAgent:   "Mozilla/5.0 (compatible; PhonePriceComparisonBot/1.0; +https://phonepricecomparison.vn)",
			Concurrency: 4,
		},
		Cache: CacheConfig{
			Enable:     true,
			TTLSeconds: 3600,
			MaxEntries: 500,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}
