// Package retrieval implements the RAG side of the system: vector search over
// indexed product pages, product reconstruction from payloads, and the write
// path that chunks and indexes crawled pages.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/embedding"
	"github.com/phonewise/phonerag/schema"
	"github.com/phonewise/phonerag/textsplitter"
	"github.com/phonewise/phonerag/textutil"
	"github.com/phonewise/phonerag/vectordb"
)

// overfetchFactor widens the raw search so dedup by product still fills a
// page. Chunked indexing means one product can occupy many of the top hits.
const overfetchFactor = 5

// Sort orders accepted by GetProducts.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
	SortRelevance = "relevance"
)

// Engine ties the embedding provider, the vector store and the splitter into
// the product retrieval API.
type Engine struct {
	embedder  embedding.Provider
	store     vectordb.VectorStoreProvider
	splitter  textsplitter.Splitter
	topK      int
	threshold float64
	pageLimit int
}

// NewEngine builds a retrieval engine. topK bounds the post-dedup result set
// before pagination, threshold is the similarity floor, pageLimit the default
// page size.
func NewEngine(embedder embedding.Provider, store vectordb.VectorStoreProvider, splitter textsplitter.Splitter, topK int, threshold float64, pageLimit int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	if pageLimit <= 0 {
		pageLimit = 10
	}
	return &Engine{
		embedder:  embedder,
		store:     store,
		splitter:  splitter,
		topK:      topK,
		threshold: threshold,
		pageLimit: pageLimit,
	}
}

// EnsureReady creates the collection and indexes if needed.
func (e *Engine) EnsureReady(ctx context.Context) error {
	return e.store.EnsureCollection(ctx, e.embedder.Dimensions())
}

// GetProducts answers a product-list request from the index. The read path
// fails open: any backend error is logged and an empty list returned, so the
// caller can fall through to crawling instead of surfacing an error to chat.
func (e *Engine) GetProducts(ctx context.Context, q *schema.ProductQuery) ([]*schema.Product, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return []*schema.Product{}, nil
	}

	vector, err := e.embedder.GetEmbedding(ctx, query)
	if err != nil {
		logger.Warnf("get products: embedding failed for %q: %v", query, err)
		return []*schema.Product{}, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = e.pageLimit
	}
	fetch := e.topK * overfetchFactor
	if need := limit * pageOf(q.Page) * overfetchFactor; need > fetch {
		fetch = need
	}

	results, err := e.store.SearchDocs(ctx, vector, &schema.SearchOptions{
		TopK:      fetch,
		Threshold: e.threshold,
		Filter:    q.Filter(),
	})
	if err != nil {
		logger.Warnf("get products: vector search failed for %q: %v", query, err)
		return []*schema.Product{}, nil
	}

	products := dedupProducts(results)
	sortProducts(products, q.SortBy)
	return paginate(products, q.Page, limit), nil
}

// GetProductByID fetches a single product using the zero-vector idiom: a
// similarity search with an exact id filter, no threshold and limit 1. Cosine
// scores against the zero vector are meaningless but the filter makes the
// single hit exact.
func (e *Engine) GetProductByID(ctx context.Context, id string) (*schema.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("product id is required")
	}
	results, err := e.store.SearchDocs(ctx, make([]float32, e.embedder.Dimensions()), &schema.SearchOptions{
		TopK:   1,
		Filter: &schema.ProductFilter{ID: id},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return decodeOrFallback(results[0].Document.ProductData), nil
}

// SearchSimilarProducts finds products related to the given one, excluding
// the product itself.
func (e *Engine) SearchSimilarProducts(ctx context.Context, p *schema.Product, limit int) ([]*schema.Product, error) {
	if limit <= 0 {
		limit = e.topK
	}
	vector, err := e.embedder.GetEmbedding(ctx, p.SearchText())
	if err != nil {
		return nil, fmt.Errorf("embed similarity query: %w", err)
	}
	results, err := e.store.SearchDocs(ctx, vector, &schema.SearchOptions{
		TopK:      (limit + 1) * overfetchFactor,
		Threshold: e.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	products := dedupProducts(results)
	similar := make([]*schema.Product, 0, limit)
	for _, candidate := range products {
		if candidate.ID == p.ID {
			continue
		}
		similar = append(similar, candidate)
		if len(similar) == limit {
			break
		}
	}
	return similar, nil
}

// UpdateProduct rewrites the denormalized product payload on every chunk
// indexed for the product. The vectors stay untouched; only payloads change.
func (e *Engine) UpdateProduct(ctx context.Context, p *schema.Product) error {
	points, err := e.store.ScrollByFilter(ctx, &schema.ProductFilter{ID: p.ID}, 1000)
	if err != nil {
		return fmt.Errorf("locate chunks for product %s: %w", p.ID, err)
	}
	if len(points) == 0 {
		return fmt.Errorf("product %s has no indexed chunks", p.ID)
	}
	ids := make([]string, len(points))
	for i, pt := range points {
		ids[i] = pt.ID
	}
	payload := map[string]interface{}{"product_data": productToMap(p)}
	if err := e.store.SetPayload(ctx, ids, payload); err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	logger.Infof("updated product %s across %d chunks", p.ID, len(ids))
	return nil
}

// IndexPage chunks a crawled page and writes one point per chunk, each
// carrying the full product as payload. With empty page text a synthetic
// description built from the product itself is indexed instead, so a product
// scraped from a listing without a readable page still becomes searchable.
func (e *Engine) IndexPage(ctx context.Context, pageText, sourceURL string, p *schema.Product) error {
	text := textutil.CleanText(pageText)
	if text == "" {
		text = synthesizeText(p)
	}
	chunks := e.splitter.SplitText(text)
	if len(chunks) == 0 {
		return fmt.Errorf("no indexable text for product %s", p.ID)
	}

	vectors, err := e.embedder.GetEmbeddings(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	productData := productToMap(p)
	now := time.Now().UTC()
	docs := make([]schema.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = schema.Document{
			Text:        chunk,
			Source:      sourceURL,
			Date:        now,
			Domain:      textutil.ExtractDomain(sourceURL),
			ProductData: productData,
			ChunkID:     i,
			Vector:      vectors[i],
		}
	}
	if err := e.store.UpsertDocs(ctx, docs); err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	logger.Infof("indexed product %s: %d chunks from %s", p.ID, len(docs), sourceURL)
	return nil
}

// ProductCount reports how many chunks the collection holds. It counts
// points, not distinct products; the number is for diagnostics.
func (e *Engine) ProductCount(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// dedupProducts collapses chunk-level hits into products, keeping first-seen
// order so the best-scoring chunk decides a product's rank.
func dedupProducts(results []schema.SearchResult) []*schema.Product {
	seen := make(map[string]bool, len(results))
	products := make([]*schema.Product, 0, len(results))
	for _, r := range results {
		raw := r.Document.ProductData
		if raw == nil {
			continue
		}
		id, _ := raw["id"].(string)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		products = append(products, decodeOrFallback(raw))
	}
	return products
}

// decodeOrFallback never fails the read path over a bad stored payload.
func decodeOrFallback(raw map[string]interface{}) *schema.Product {
	p, err := schema.DecodeProduct(raw)
	if err != nil {
		logger.Warnf("stored product payload invalid, serving degraded record: %v", err)
		return schema.FallbackProduct(raw)
	}
	return p
}

// sortProducts orders in place. Sorting is stable so relevance order breaks
// ties for every explicit sort key.
func sortProducts(products []*schema.Product, sortBy string) {
	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].MinPrice < products[j].MinPrice })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].MinPrice > products[j].MinPrice })
	case SortNameAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
		})
	case SortNameDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return strings.ToLower(products[i].Name) > strings.ToLower(products[j].Name)
		})
	case SortRelevance, "":
		// already in score order
	default:
		logger.Debugf("unknown sort order %q, keeping relevance order", sortBy)
	}
}

// paginate slices out the requested page. Page numbers start at 1; anything
// lower is clamped rather than rejected.
func paginate(products []*schema.Product, page, limit int) []*schema.Product {
	page = pageOf(page)
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

func pageOf(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// productToMap renders a product into the loosely-typed payload form stored
// in the vector database.
func productToMap(p *schema.Product) map[string]interface{} {
	data, err := json.Marshal(p)
	if err != nil {
		logger.Errorf("marshal product %s: %v", p.ID, err)
		return map[string]interface{}{"id": p.ID, "name": p.Name}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"id": p.ID, "name": p.Name}
	}
	return m
}

// synthesizeText builds indexable text for a product with no page content.
func synthesizeText(p *schema.Product) string {
	parts := []string{p.Name, p.Brand, p.Model, p.Description}
	if p.Specifications != nil {
		s := p.Specifications
		parts = append(parts, s.CPU, s.RAM, s.Storage, s.Display, s.Camera, s.Battery, s.OS)
	}
	var b strings.Builder
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteString(part)
			b.WriteString(". ")
		}
	}
	return strings.TrimSpace(b.String())
}
