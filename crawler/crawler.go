package crawler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/schema"
)

// Indexer is the write-back hook into the retrieval index. Satisfied by the
// retrieval engine.
type Indexer interface {
	IndexPage(ctx context.Context, pageText, sourceURL string, p *schema.Product) error
}

// Crawler runs the crawl pipeline: discover URLs, fetch and extract each one,
// index what was found, then filter/sort/paginate the extracted products
// in-process.
type Crawler struct {
	search      *SearchClient
	fetcher     *Fetcher
	llmExtract  *LLMExtractor
	indexer     Indexer
	concurrency int
	pageLimit   int
}

// NewCrawler wires the pipeline. indexer may be nil, which disables the
// write-back (used by extraction tooling).
func NewCrawler(search *SearchClient, fetcher *Fetcher, llmExtract *LLMExtractor, indexer Indexer, concurrency, pageLimit int) *Crawler {
	if concurrency <= 0 {
		concurrency = 4
	}
	if pageLimit <= 0 {
		pageLimit = 10
	}
	return &Crawler{
		search:      search,
		fetcher:     fetcher,
		llmExtract:  llmExtract,
		indexer:     indexer,
		concurrency: concurrency,
		pageLimit:   pageLimit,
	}
}

// CrawlProducts discovers and extracts products for a list request. extraTerms
// are additional web search phrases, typically suggested by reflection. Any
// single URL failing is logged and skipped; total discovery failure yields an
// empty list, never an error.
func (c *Crawler) CrawlProducts(ctx context.Context, q *schema.ProductQuery, extraTerms []string) []*schema.Product {
	terms := append([]string{buildSearchTerm(q)}, extraTerms...)

	seen := make(map[string]bool)
	var urls []string
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		for _, u := range c.search.SearchURLs(ctx, term) {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	if len(urls) == 0 {
		logger.Warnf("crawl found no urls for %q", q.Query)
		return []*schema.Product{}
	}
	logger.Infof("crawling %d urls for %q", len(urls), q.Query)

	products := c.processURLs(ctx, urls)

	filtered := filterProducts(products, q)
	sortCrawled(filtered, q.SortBy)

	limit := q.Limit
	if limit <= 0 {
		limit = c.pageLimit
	}
	return paginate(filtered, q.Page, limit)
}

// CrawlProductDetail fetches and extracts one product for a detail query,
// using the first discovered URL. Returns nil when nothing usable was found.
func (c *Crawler) CrawlProductDetail(ctx context.Context, query string) *schema.Product {
	urls := c.search.SearchURLs(ctx, "điện thoại "+query)
	if len(urls) == 0 {
		logger.Warnf("detail crawl found no urls for %q", query)
		return nil
	}

	pageURL := urls[0]
	html, err := c.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		logger.Warnf("detail crawl fetch failed: %v", err)
		return nil
	}

	pageText := PageText(html)
	product := ExtractDetail(html, pageURL)
	if product == nil {
		if candidates := c.llmExtract.Extract(ctx, pageText, pageURL); len(candidates) > 0 {
			product = candidates[0]
		}
	}
	if product == nil {
		return nil
	}

	c.index(ctx, pageText, pageURL, product)
	return product
}

// processURLs fans the fetch/extract/index work out over a bounded worker
// pool. Extracted products are collected per URL slot so the combined order
// depends on discovery order, not on worker completion order.
func (c *Crawler) processURLs(ctx context.Context, urls []string) []*schema.Product {
	perURL := make([][]*schema.Product, len(urls))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, pageURL := range urls {
		wg.Add(1)
		go func(slot int, pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			perURL[slot] = c.processOne(ctx, pageURL)
		}(i, pageURL)
	}
	wg.Wait()

	var products []*schema.Product
	for _, batch := range perURL {
		products = append(products, batch...)
	}
	return products
}

func (c *Crawler) processOne(ctx context.Context, pageURL string) []*schema.Product {
	html, err := c.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		logger.Warnf("skipping url: %v", err)
		return nil
	}

	pageText := PageText(html)
	products := ExtractListing(html, pageURL)
	if len(products) == 0 {
		products = c.llmExtract.Extract(ctx, pageText, pageURL)
	}

	for _, p := range products {
		c.index(ctx, pageText, pageURL, p)
	}
	return products
}

func (c *Crawler) index(ctx context.Context, pageText, pageURL string, p *schema.Product) {
	if c.indexer == nil {
		return
	}
	if err := c.indexer.IndexPage(ctx, pageText, pageURL, p); err != nil {
		logger.Warnf("indexing crawled product %s failed: %v", p.ID, err)
	}
}

// buildSearchTerm enriches the query with price hints and brands the way a
// person would type them into a search box.
func buildSearchTerm(q *schema.ProductQuery) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Query))
	if q.PriceMin != nil {
		fmt.Fprintf(&b, " giá từ %.0f", *q.PriceMin)
	}
	if q.PriceMax != nil {
		fmt.Fprintf(&b, " giá đến %.0f", *q.PriceMax)
	}
	if len(q.Brands) > 0 {
		b.WriteString(" " + strings.Join(q.Brands, " "))
	}
	return b.String()
}

// filterProducts applies the request constraints in-process, mirroring the
// store-side filter semantics of the query path.
func filterProducts(products []*schema.Product, q *schema.ProductQuery) []*schema.Product {
	filtered := make([]*schema.Product, 0, len(products))
	for _, p := range products {
		if q.PriceMin != nil && p.MinPrice < *q.PriceMin {
			continue
		}
		if q.PriceMax != nil && p.MinPrice > *q.PriceMax {
			continue
		}
		if len(q.Brands) > 0 && !containsFold(q.Brands, p.Brand) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// sortCrawled supports the price orders; everything else keeps extraction
// order.
func sortCrawled(products []*schema.Product, sortBy string) {
	switch sortBy {
	case "price_asc":
		sort.SliceStable(products, func(i, j int) bool { return products[i].MinPrice < products[j].MinPrice })
	case "price_desc":
		sort.SliceStable(products, func(i, j int) bool { return products[i].MinPrice > products[j].MinPrice })
	}
}

// paginate mirrors the query-path slicing: 1-indexed, page clamped to 1.
func paginate(products []*schema.Product, page, limit int) []*schema.Product {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(products) {
		return []*schema.Product{}
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}
