package schema

import "time"

// Document is one indexed chunk as stored in the vector database. The payload
// written to the store mirrors these fields: {text, source, date, domain,
// product_data, chunk_id}. ProductData denormalizes the full product onto
// every chunk derived from its page, which is how product facts are recovered
// from a similarity hit without a join.
type Document struct {
	ID          string                 `json:"id"`
	Text        string                 `json:"text"`
	Source      string                 `json:"source"`
	Date        time.Time              `json:"date"`
	Domain      string                 `json:"domain"`
	ProductData map[string]interface{} `json:"product_data"`
	ChunkID     int                    `json:"chunk_id"`
	Vector      []float32              `json:"-"`
}

// SearchResult is a scored vector search hit.
type SearchResult struct {
	Document Document
	Score    float64
}

// SearchOptions bounds a vector search.
type SearchOptions struct {
	TopK      int
	Threshold float64
	Filter    *ProductFilter
}

// ProductFilter is the conjunctive metadata filter applied to vector search.
// Nil pointer fields mean "no constraint"; present constraints are ANDed.
type ProductFilter struct {
	PriceMin *float64
	PriceMax *float64
	Brands   []string
	// ID matches product_data.id exactly; combined with a zero vector this is
	// the fetch-by-id idiom.
	ID string
}

// Empty reports whether the filter carries no constraints at all.
func (f *ProductFilter) Empty() bool {
	return f == nil || (f.PriceMin == nil && f.PriceMax == nil && len(f.Brands) == 0 && f.ID == "")
}
