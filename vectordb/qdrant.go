package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/config"
	"github.com/phonewise/phonerag/schema"
)

const qdrantAttempts = 3

// qdrantProvider is a minimal REST client to Qdrant. Every call retries up to
// three times with exponential backoff; 4xx responses are terminal since
// resending the same bad request cannot help.
type qdrantProvider struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

func newQdrantProvider(cfg config.VectorDBConfig) *qdrantProvider {
	timeout := 15 * time.Second
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return &qdrantProvider{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (q *qdrantProvider) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}

	exists, err := q.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		body := map[string]interface{}{
			"vectors": map[string]interface{}{
				"size":     dimensions,
				"distance": "Cosine",
			},
		}
		if err := q.do(ctx, http.MethodPut, "/collections/"+q.collection, body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", q.collection, err)
		}
		logger.Infof("created qdrant collection %s (dim=%d)", q.collection, dimensions)
	}

	// The keyword index makes fetch-by-id and update-by-id filters cheap.
	// Qdrant answers 4xx when the index already exists; that is fine.
	indexBody := map[string]interface{}{
		"field_name":   "product_data.id",
		"field_schema": "keyword",
	}
	if err := q.do(ctx, http.MethodPut, "/collections/"+q.collection+"/index", indexBody, nil); err != nil {
		logger.Debugf("payload index on %s: %v", q.collection, err)
	}
	return nil
}

func (q *qdrantProvider) collectionExists(ctx context.Context) (bool, error) {
	err := q.do(ctx, http.MethodGet, "/collections/"+q.collection, nil, nil)
	if err == nil {
		return true, nil
	}
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (q *qdrantProvider) UpsertDocs(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		points[i] = map[string]interface{}{
			"id":     uuid.NewString(),
			"vector": doc.Vector,
			"payload": map[string]interface{}{
				"text":         doc.Text,
				"source":       doc.Source,
				"date":         doc.Date.Format(time.RFC3339),
				"domain":       doc.Domain,
				"product_data": doc.ProductData,
				"chunk_id":     doc.ChunkID,
			},
		}
	}
	body := map[string]interface{}{"points": points}
	if err := q.do(ctx, http.MethodPut, "/collections/"+q.collection+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

func (q *qdrantProvider) SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error) {
	if opts == nil {
		opts = &schema.SearchOptions{}
	}
	limit := opts.TopK
	if limit <= 0 {
		limit = 10
	}
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if opts.Threshold > 0 {
		body["score_threshold"] = opts.Threshold
	}
	if f := buildFilter(opts.Filter); f != nil {
		body["filter"] = f
	}

	var resp struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/search", body, &resp); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]schema.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, schema.SearchResult{
			Document: documentFromPayload(fmt.Sprintf("%v", r.ID), r.Payload),
			Score:    r.Score,
		})
	}
	return results, nil
}

func (q *qdrantProvider) ScrollByFilter(ctx context.Context, filter *schema.ProductFilter, limit int) ([]StoredPoint, error) {
	if limit <= 0 {
		limit = 100
	}
	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		body["filter"] = f
	}

	var resp struct {
		Result struct {
			Points []struct {
				ID      interface{}            `json:"id"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/scroll", body, &resp); err != nil {
		return nil, fmt.Errorf("scroll points: %w", err)
	}

	points := make([]StoredPoint, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, StoredPoint{
			ID:      fmt.Sprintf("%v", p.ID),
			Payload: p.Payload,
		})
	}
	return points, nil
}

func (q *qdrantProvider) SetPayload(ctx context.Context, pointIDs []string, payload map[string]interface{}) error {
	if len(pointIDs) == 0 {
		return nil
	}
	body := map[string]interface{}{
		"payload": payload,
		"points":  pointIDs,
	}
	if err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/payload?wait=true", body, nil); err != nil {
		return fmt.Errorf("set payload on %d points: %w", len(pointIDs), err)
	}
	return nil
}

func (q *qdrantProvider) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]interface{}{"exact": true}
	if err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/count", body, &resp); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.Result.Count, nil
}

// buildFilter converts a product filter into Qdrant's must-clause form. A nil
// or empty filter yields nil so the request carries no filter key at all.
func buildFilter(f *schema.ProductFilter) map[string]interface{} {
	if f.Empty() {
		return nil
	}
	var must []map[string]interface{}
	if f.ID != "" {
		must = append(must, map[string]interface{}{
			"key":   "product_data.id",
			"match": map[string]interface{}{"value": f.ID},
		})
	}
	if f.PriceMin != nil || f.PriceMax != nil {
		rng := map[string]interface{}{}
		if f.PriceMin != nil {
			rng["gte"] = *f.PriceMin
		}
		if f.PriceMax != nil {
			rng["lte"] = *f.PriceMax
		}
		must = append(must, map[string]interface{}{
			"key":   "product_data.min_price",
			"range": rng,
		})
	}
	if len(f.Brands) > 0 {
		must = append(must, map[string]interface{}{
			"key":   "product_data.brand",
			"match": map[string]interface{}{"any": f.Brands},
		})
	}
	return map[string]interface{}{"must": must}
}

func documentFromPayload(id string, payload map[string]interface{}) schema.Document {
	doc := schema.Document{ID: id}
	if v, ok := payload["text"].(string); ok {
		doc.Text = v
	}
	if v, ok := payload["source"].(string); ok {
		doc.Source = v
	}
	if v, ok := payload["domain"].(string); ok {
		doc.Domain = v
	}
	if v, ok := payload["date"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			doc.Date = t
		}
	}
	if v, ok := payload["product_data"].(map[string]interface{}); ok {
		doc.ProductData = v
	}
	if v, ok := payload["chunk_id"].(float64); ok {
		doc.ChunkID = int(v)
	}
	return doc
}

// statusError carries the HTTP status of a failed Qdrant call so callers can
// distinguish not-found from real failures.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant returned status %d: %s", e.code, e.body)
}

// do issues one request with retries. The body is re-marshaled per attempt so
// retries never reuse a drained reader.
func (q *qdrantProvider) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
	}

	return retry.Do(
		func() error {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if q.apiKey != "" {
				req.Header.Set("api-key", q.apiKey)
			}

			resp, err := q.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				serr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(serr)
				}
				return serr
			}
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("decode qdrant response: %w", err))
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(qdrantAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
