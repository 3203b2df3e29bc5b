package schema

// Reflection actions. The first two route a product-list request; the rest
// classify chat-message intent.
const (
	ActionRAGQuery          = "rag_query"
	ActionCrawl             = "crawl"
	ActionProductList       = "product_list"
	ActionProductDetail     = "product_detail"
	ActionProductComparison = "product_comparison"
	ActionAnswer            = "answer"
)

// ReflectionResult is the per-request decision produced by the reflection
// step. Confidence is advisory only; no code path gates on it.
type ReflectionResult struct {
	Action         string                 `json:"action"`
	Query          string                 `json:"query"`
	Confidence     float64                `json:"confidence"`
	AdditionalInfo map[string]interface{} `json:"additional_info,omitempty"`
}

// InfoFloat reads an optional numeric value out of AdditionalInfo.
func (r *ReflectionResult) InfoFloat(key string) *float64 {
	if r.AdditionalInfo == nil {
		return nil
	}
	switch v := r.AdditionalInfo[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

// InfoString reads an optional string value out of AdditionalInfo.
func (r *ReflectionResult) InfoString(key string) string {
	if r.AdditionalInfo == nil {
		return ""
	}
	if s, ok := r.AdditionalInfo[key].(string); ok {
		return s
	}
	return ""
}

// InfoStrings reads an optional string list out of AdditionalInfo, tolerating
// the loosely-typed shapes an LLM emits.
func (r *ReflectionResult) InfoStrings(key string) []string {
	if r.AdditionalInfo == nil {
		return nil
	}
	switch v := r.AdditionalInfo[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// ProductQuery is a product-list request as received from the chat layer.
type ProductQuery struct {
	Query    string   `json:"query"`
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	Brands   []string `json:"brands,omitempty"`
	SortBy   string   `json:"sort_by,omitempty"`
	Page     int      `json:"page,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// Filter converts the request constraints into a vector store filter.
func (q *ProductQuery) Filter() *ProductFilter {
	f := &ProductFilter{
		PriceMin: q.PriceMin,
		PriceMax: q.PriceMax,
		Brands:   q.Brands,
	}
	if f.Empty() {
		return nil
	}
	return f
}

// ChatMessage is one turn of the conversation passed to reflection.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
