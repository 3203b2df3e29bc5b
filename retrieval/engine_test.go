package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonewise/phonerag/schema"
	"github.com/phonewise/phonerag/vectordb"
)

type stubEmbedder struct {
	dims int
	err  error
}

func (s *stubEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([]float32, s.dims), nil
}

func (s *stubEmbedder) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dims)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }

type stubStore struct {
	searchResults []schema.SearchResult
	searchErr     error
	lastVector    []float32
	lastOpts      *schema.SearchOptions

	scrollPoints []vectordb.StoredPoint
	scrollErr    error

	payloadIDs  []string
	lastPayload map[string]interface{}

	upserted []schema.Document
	count    int
}

func (s *stubStore) EnsureCollection(ctx context.Context, dimensions int) error { return nil }

func (s *stubStore) UpsertDocs(ctx context.Context, docs []schema.Document) error {
	s.upserted = append(s.upserted, docs...)
	return nil
}

func (s *stubStore) SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error) {
	s.lastVector = vector
	s.lastOpts = opts
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchResults, nil
}

func (s *stubStore) ScrollByFilter(ctx context.Context, filter *schema.ProductFilter, limit int) ([]vectordb.StoredPoint, error) {
	return s.scrollPoints, s.scrollErr
}

func (s *stubStore) SetPayload(ctx context.Context, pointIDs []string, payload map[string]interface{}) error {
	s.payloadIDs = pointIDs
	s.lastPayload = payload
	return nil
}

func (s *stubStore) Count(ctx context.Context) (int, error) { return s.count, nil }

type noopSplitter struct{}

func (noopSplitter) SplitText(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

func rawProduct(id, name string, minPrice float64) map[string]interface{} {
	return map[string]interface{}{
		"id":        id,
		"name":      name,
		"brand":     "Samsung",
		"min_price": minPrice,
		"sources": []interface{}{
			map[string]interface{}{
				"name":  "FPT Shop",
				"url":   "https://fptshop.com.vn/" + id,
				"price": minPrice,
			},
		},
	}
}

func hit(id, name string, minPrice, score float64) schema.SearchResult {
	return schema.SearchResult{
		Document: schema.Document{ProductData: rawProduct(id, name, minPrice)},
		Score:    score,
	}
}

func newTestEngine(store *stubStore) *Engine {
	return NewEngine(&stubEmbedder{dims: 4}, store, noopSplitter{}, 5, 0.6, 10)
}

func TestGetProductsDedupKeepsFirstSeen(t *testing.T) {
	store := &stubStore{searchResults: []schema.SearchResult{
		hit("p1", "Galaxy S24", 20, 0.95),
		hit("p2", "Galaxy A55", 10, 0.90),
		hit("p1", "Galaxy S24", 20, 0.85), // second chunk of p1
		hit("p3", "Galaxy Z Flip", 30, 0.80),
	}}
	engine := newTestEngine(store)

	products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "galaxy"})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p2", products[1].ID)
	assert.Equal(t, "p3", products[2].ID)
}

func TestGetProductsOverfetches(t *testing.T) {
	store := &stubStore{}
	engine := newTestEngine(store)

	_, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "galaxy"})
	require.NoError(t, err)
	require.NotNil(t, store.lastOpts)
	assert.GreaterOrEqual(t, store.lastOpts.TopK, 25)
	assert.Equal(t, 0.6, store.lastOpts.Threshold)
}

func TestGetProductsSortOrders(t *testing.T) {
	results := []schema.SearchResult{
		hit("p1", "Bravo", 20, 0.95),
		hit("p2", "Alpha", 10, 0.90),
		hit("p3", "Charlie", 30, 0.85),
	}

	tests := []struct {
		sortBy string
		want   []string
	}{
		{sortBy: SortPriceAsc, want: []string{"p2", "p1", "p3"}},
		{sortBy: SortPriceDesc, want: []string{"p3", "p1", "p2"}},
		{sortBy: SortNameAsc, want: []string{"p2", "p1", "p3"}},
		{sortBy: SortNameDesc, want: []string{"p3", "p1", "p2"}},
		{sortBy: SortRelevance, want: []string{"p1", "p2", "p3"}},
		{sortBy: "", want: []string{"p1", "p2", "p3"}},
		{sortBy: "bogus", want: []string{"p1", "p2", "p3"}},
	}
	for _, tt := range tests {
		t.Run("sort_"+tt.sortBy, func(t *testing.T) {
			engine := newTestEngine(&stubStore{searchResults: results})
			products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q", SortBy: tt.sortBy})
			require.NoError(t, err)
			got := make([]string, len(products))
			for i, p := range products {
				got[i] = p.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetProductsSortIsStable(t *testing.T) {
	// Same price: relevance order must survive the price sort.
	results := []schema.SearchResult{
		hit("p1", "First", 10, 0.95),
		hit("p2", "Second", 10, 0.90),
		hit("p3", "Third", 10, 0.85),
	}
	engine := newTestEngine(&stubStore{searchResults: results})
	products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q", SortBy: SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p2", products[1].ID)
	assert.Equal(t, "p3", products[2].ID)
}

func TestGetProductsPagination(t *testing.T) {
	var results []schema.SearchResult
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("p%02d", i)
		results = append(results, hit(id, "Phone "+id, float64(i), 1.0-float64(i)/100))
	}
	engine := newTestEngine(&stubStore{searchResults: results})

	page2, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q", Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page2, 10)
	assert.Equal(t, "p10", page2[0].ID)
	assert.Equal(t, "p19", page2[9].ID)

	page3, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q", Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	beyond, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q", Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestGetProductsClampsPage(t *testing.T) {
	results := []schema.SearchResult{hit("p1", "Phone", 10, 0.9)}
	engine := newTestEngine(&stubStore{searchResults: results})

	for _, page := range []int{0, -3} {
		products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q", Page: page})
		require.NoError(t, err)
		assert.Len(t, products, 1, "page %d should clamp to 1", page)
	}
}

func TestGetProductsFailsOpen(t *testing.T) {
	t.Run("search error", func(t *testing.T) {
		engine := newTestEngine(&stubStore{searchErr: errors.New("qdrant down")})
		products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q"})
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("embedding error", func(t *testing.T) {
		engine := NewEngine(&stubEmbedder{dims: 4, err: errors.New("quota")}, &stubStore{}, noopSplitter{}, 5, 0.6, 10)
		products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "q"})
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("empty query", func(t *testing.T) {
		store := &stubStore{}
		engine := newTestEngine(store)
		products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "   "})
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.Nil(t, store.lastOpts, "no search should be issued")
	})
}

func TestGetProductsDegradedPayload(t *testing.T) {
	// A payload without sources fails validation; the engine serves the
	// fallback record instead of dropping the product.
	broken := map[string]interface{}{"id": "p1", "name": "Ghost Phone", "min_price": 5.0}
	engine := newTestEngine(&stubStore{searchResults: []schema.SearchResult{
		{Document: schema.Document{ProductData: broken}, Score: 0.9},
	}})

	products, err := engine.GetProducts(context.Background(), &schema.ProductQuery{Query: "ghost"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Ghost Phone", products[0].Name)
	assert.Empty(t, products[0].Sources)
}

func TestGetProductByID(t *testing.T) {
	store := &stubStore{searchResults: []schema.SearchResult{hit("p7", "Pixel 9", 15, 0)}}
	engine := newTestEngine(store)

	p, err := engine.GetProductByID(context.Background(), "p7")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p7", p.ID)

	// Zero vector, exact id filter, single hit.
	assert.Equal(t, make([]float32, 4), store.lastVector)
	require.NotNil(t, store.lastOpts)
	assert.Equal(t, 1, store.lastOpts.TopK)
	assert.Zero(t, store.lastOpts.Threshold)
	require.NotNil(t, store.lastOpts.Filter)
	assert.Equal(t, "p7", store.lastOpts.Filter.ID)
}

func TestGetProductByIDNotFound(t *testing.T) {
	engine := newTestEngine(&stubStore{})
	p, err := engine.GetProductByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = engine.GetProductByID(context.Background(), "  ")
	assert.Error(t, err)
}

func TestSearchSimilarProductsExcludesSelf(t *testing.T) {
	store := &stubStore{searchResults: []schema.SearchResult{
		hit("p1", "Galaxy S24", 20, 0.99),
		hit("p2", "Galaxy S23", 18, 0.92),
		hit("p3", "Galaxy A55", 10, 0.85),
	}}
	engine := newTestEngine(store)

	self := &schema.Product{ID: "p1", Name: "Galaxy S24", Brand: "Samsung"}
	similar, err := engine.SearchSimilarProducts(context.Background(), self, 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "p2", similar[0].ID)
	assert.Equal(t, "p3", similar[1].ID)
}

func TestUpdateProduct(t *testing.T) {
	store := &stubStore{scrollPoints: []vectordb.StoredPoint{{ID: "pt-1"}, {ID: "pt-2"}}}
	engine := newTestEngine(store)

	p := &schema.Product{ID: "p1", Name: "Galaxy S24", Sources: []schema.ProductSource{{URL: "https://x", Price: 20}}}
	require.NoError(t, engine.UpdateProduct(context.Background(), p))

	assert.Equal(t, []string{"pt-1", "pt-2"}, store.payloadIDs)
	pd, ok := store.lastPayload["product_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "p1", pd["id"])
}

func TestUpdateProductNoChunks(t *testing.T) {
	engine := newTestEngine(&stubStore{})
	err := engine.UpdateProduct(context.Background(), &schema.Product{ID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no indexed chunks")
}

func TestIndexPage(t *testing.T) {
	store := &stubStore{}
	engine := newTestEngine(store)

	p := &schema.Product{ID: "p1", Name: "Galaxy S24", Brand: "Samsung"}
	err := engine.IndexPage(context.Background(), "Điện thoại Galaxy S24 màn hình 6.2 inch.", "https://fptshop.com.vn/galaxy-s24", p)
	require.NoError(t, err)

	require.Len(t, store.upserted, 1)
	doc := store.upserted[0]
	assert.Equal(t, "fptshop.com.vn", doc.Domain)
	assert.Equal(t, "https://fptshop.com.vn/galaxy-s24", doc.Source)
	assert.Equal(t, 0, doc.ChunkID)
	assert.Equal(t, "p1", doc.ProductData["id"])
	assert.Len(t, doc.Vector, 4)
	assert.False(t, doc.Date.IsZero())
}

func TestIndexPageSynthesizesTextWhenEmpty(t *testing.T) {
	store := &stubStore{}
	engine := newTestEngine(store)

	p := &schema.Product{
		ID: "p1", Name: "Galaxy S24", Brand: "Samsung", Model: "S24",
		Specifications: &schema.ProductSpecification{CPU: "Exynos 2400", Battery: "4000mAh"},
	}
	require.NoError(t, engine.IndexPage(context.Background(), "", "https://fptshop.com.vn/galaxy-s24", p))

	require.Len(t, store.upserted, 1)
	assert.Contains(t, store.upserted[0].Text, "Galaxy S24")
	assert.Contains(t, store.upserted[0].Text, "Exynos 2400")
}
