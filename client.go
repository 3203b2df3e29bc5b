// Package phonerag is the retrieval and crawl backend behind a Vietnamese
// phone price-comparison chatbot. The Client facade wires the embedding, LLM
// and vector store providers into three cooperating parts: a retrieval engine
// over the product index, a crawl pipeline that discovers and extracts
// products from retailer sites, and a reflection step that decides per request
// whether the index can answer or a fresh crawl is needed.
package phonerag

import (
	"context"
	"fmt"
	"time"

	"github.com/phonewise/phonerag/cache"
	"github.com/phonewise/phonerag/common/httpx"
	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/config"
	"github.com/phonewise/phonerag/crawler"
	"github.com/phonewise/phonerag/embedding"
	"github.com/phonewise/phonerag/llm"
	"github.com/phonewise/phonerag/reflection"
	"github.com/phonewise/phonerag/retrieval"
	"github.com/phonewise/phonerag/schema"
	"github.com/phonewise/phonerag/textsplitter"
	"github.com/phonewise/phonerag/vectordb"
)

// productIndex is the slice of the retrieval engine the facade depends on.
type productIndex interface {
	EnsureReady(ctx context.Context) error
	GetProducts(ctx context.Context, q *schema.ProductQuery) ([]*schema.Product, error)
	GetProductByID(ctx context.Context, id string) (*schema.Product, error)
	SearchSimilarProducts(ctx context.Context, p *schema.Product, limit int) ([]*schema.Product, error)
	UpdateProduct(ctx context.Context, p *schema.Product) error
	ProductCount(ctx context.Context) (int, error)
}

// productCrawler is the slice of the crawl pipeline the facade depends on.
type productCrawler interface {
	CrawlProducts(ctx context.Context, q *schema.ProductQuery, extraTerms []string) []*schema.Product
	CrawlProductDetail(ctx context.Context, query string) *schema.Product
}

// Client is the public entry point. Construct one per process with New and
// share it; every method is safe for concurrent use.
type Client struct {
	cfg       *config.Config
	engine    productIndex
	crawler   productCrawler
	reflector *reflection.Reflector
	results   *cache.ResultCache
}

// New builds a Client from configuration. Providers are constructed once and
// reused for the life of the client.
func New(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	splitter, err := textsplitter.New(cfg.RAG.Splitter.Provider, cfg.RAG.Splitter.ChunkSize, cfg.RAG.Splitter.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("create text splitter failed, err: %w", err)
	}

	embedder, err := embedding.NewEmbeddingProvider(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider failed, err: %w", err)
	}

	// The LLM is optional: without it, reflection serves defaults and the
	// extraction fallback is disabled, but retrieval and selector-based
	// crawling still work.
	var llmProvider llm.Provider
	if cfg.LLM.Model != "" {
		llmProvider, err = llm.NewLLMProvider(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider failed, err: %w", err)
		}
	}

	store, err := vectordb.NewVectorStoreProvider(cfg.VectorDB)
	if err != nil {
		return nil, fmt.Errorf("create vector store provider failed, err: %w", err)
	}

	engine := retrieval.NewEngine(embedder, store, splitter, cfg.RAG.TopK, cfg.RAG.Threshold, cfg.RAG.PageLimit)

	httpClient := httpx.NewFromConfig(cfg.HTTP)
	search := crawler.NewSearchClient(cfg.Search, cfg.Crawl.MaxPages, httpClient)
	fetcher := crawler.NewFetcher(cfg.Crawl, httpClient)
	crawl := crawler.NewCrawler(search, fetcher, crawler.NewLLMExtractor(llmProvider), engine,
		cfg.Crawl.Concurrency, cfg.RAG.PageLimit)

	return &Client{
		cfg:       cfg,
		engine:    engine,
		crawler:   crawl,
		reflector: reflection.NewReflector(llmProvider),
		results:   cache.NewResultCache(cfg.Cache.Enable, cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
	}, nil
}

// EnsureReady creates the vector collection and payload indexes if missing.
// Call once at startup.
func (c *Client) EnsureReady(ctx context.Context) error {
	return c.engine.EnsureReady(ctx)
}

// GetProducts answers a product-list request. Reflection decides between
// serving from the index and crawling; an empty index answer falls through to
// a crawl so a cold index still produces results. Crawled products are
// indexed as a side effect.
func (c *Client) GetProducts(ctx context.Context, q *schema.ProductQuery) ([]*schema.Product, error) {
	key := cache.ProductKey(q)
	if products, ok := c.results.GetProducts(key); ok {
		logger.Debugf("cache hit for %q", q.Query)
		return products, nil
	}

	decision := c.reflector.ReflectOnProductList(ctx, q)
	if decision.Query != "" {
		q.Query = decision.Query
	}

	var products []*schema.Product
	if decision.Action == schema.ActionRAGQuery {
		var err error
		products, err = c.engine.GetProducts(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	if len(products) == 0 {
		products = c.CrawlNewProducts(ctx, q, decision.InfoStrings("search_terms"))
	}

	c.results.SetProducts(key, products)
	return products, nil
}

// GetProductByID returns one product by id, trying the index first and
// crawling by name on a miss. Returns nil without error when neither path
// finds anything.
func (c *Client) GetProductByID(ctx context.Context, id string) (*schema.Product, error) {
	decision := c.reflector.ReflectOnProductDetail(ctx, id)
	p, err := c.engine.GetProductByID(ctx, decision.Query)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return c.CrawlProductDetail(ctx, decision.Query), nil
}

// SearchSimilarProducts returns up to limit products related to the given
// one, excluding the product itself.
func (c *Client) SearchSimilarProducts(ctx context.Context, p *schema.Product, limit int) ([]*schema.Product, error) {
	return c.engine.SearchSimilarProducts(ctx, p, limit)
}

// UpdateProduct rewrites the stored payload on every chunk indexed for the
// product and drops the result cache.
func (c *Client) UpdateProduct(ctx context.Context, p *schema.Product) error {
	p.CalculatePrices()
	if err := c.engine.UpdateProduct(ctx, p); err != nil {
		return err
	}
	c.results.Invalidate()
	return nil
}

// CrawlNewProducts runs the crawl pipeline for a list request, bypassing
// reflection. extraTerms are additional search phrases; crawled products are
// indexed and the result cache is dropped when anything was found.
func (c *Client) CrawlNewProducts(ctx context.Context, q *schema.ProductQuery, extraTerms []string) []*schema.Product {
	products := c.crawler.CrawlProducts(ctx, q, extraTerms)
	if len(products) > 0 {
		c.results.Invalidate()
	}
	return products
}

// CrawlProductDetail crawls a single product page for the query and indexes
// the result. Returns nil when nothing usable was found.
func (c *Client) CrawlProductDetail(ctx context.Context, query string) *schema.Product {
	p := c.crawler.CrawlProductDetail(ctx, query)
	if p != nil {
		c.results.Invalidate()
	}
	return p
}

// ReflectOnMessage classifies a chat message into an action for the chat
// layer, using the recent history for context. Never fails; on any model
// problem the default answer action is returned.
func (c *Client) ReflectOnMessage(ctx context.Context, message string, history []schema.ChatMessage) *schema.ReflectionResult {
	return c.reflector.ReflectOnMessage(ctx, message, history)
}

// ReflectOnProductList exposes the list-routing decision for callers that
// want to inspect it without running the full GetProducts flow.
func (c *Client) ReflectOnProductList(ctx context.Context, q *schema.ProductQuery) *schema.ReflectionResult {
	return c.reflector.ReflectOnProductList(ctx, q)
}

// ProductCount reports the number of indexed chunks, for diagnostics.
func (c *Client) ProductCount(ctx context.Context) (int, error) {
	return c.engine.ProductCount(ctx)
}
