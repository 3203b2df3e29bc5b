package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phonewise/phonerag/textutil"
)

// FieldError describes a single offending field during product decoding.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError carries every field failure found while decoding a product.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid product: " + strings.Join(msgs, "; ")
}

// DecodeProduct turns a loosely-typed mapping (scraped HTML output, LLM JSON,
// or a stored vector payload) into a valid Product. Scraped data is messy, so
// the coercions are deliberately forgiving, with one hard rule: a product
// without at least one source is rejected.
func DecodeProduct(raw map[string]interface{}) (*Product, error) {
	var verr ValidationError

	p := &Product{
		ID:          asString(raw["id"]),
		Name:        asString(raw["name"]),
		Brand:       textutil.NormalizeBrand(asString(raw["brand"])),
		Model:       asString(raw["model"]),
		Description: asString(raw["description"]),
		Category:    asString(raw["category"]),
		ImageURL:    asStringList(raw["image_url"]),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.Name == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "name", Message: "name is required"})
	}

	p.Specifications = decodeSpecification(raw["specifications"])

	sources, srcErrs := decodeSources(raw["sources"])
	verr.Fields = append(verr.Fields, srcErrs...)
	if len(sources) == 0 {
		verr.Fields = append(verr.Fields, FieldError{Field: "sources", Message: "a product must have at least one source"})
	}
	p.Sources = sources

	if len(verr.Fields) > 0 {
		return nil, &verr
	}

	p.MinPrice = asPrice(raw["min_price"])
	p.MaxPrice = asPrice(raw["max_price"])
	p.AveragePrice = asPrice(raw["average_price"])
	if p.MinPrice == 0 && p.MaxPrice == 0 && p.AveragePrice == 0 {
		p.CalculatePrices()
	}
	return p, nil
}

// FallbackProduct builds the minimal degraded record used on the read path
// when a stored payload no longer passes validation. Only name, brand, model
// and the price summary survive; sources are dropped so the record never
// trips the at-least-one-source rule again.
func FallbackProduct(raw map[string]interface{}) *Product {
	id := asString(raw["id"])
	if id == "" {
		id = uuid.NewString()
	}
	return &Product{
		ID:           id,
		Name:         asString(raw["name"]),
		Brand:        textutil.NormalizeBrand(asString(raw["brand"])),
		Model:        asString(raw["model"]),
		Category:     DefaultCategory,
		ImageURL:     []string{},
		Sources:      []ProductSource{},
		MinPrice:     asPrice(raw["min_price"]),
		MaxPrice:     asPrice(raw["max_price"]),
		AveragePrice: asPrice(raw["average_price"]),
	}
}

func decodeSources(v interface{}) ([]ProductSource, []FieldError) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	var errs []FieldError
	sources := make([]ProductSource, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("sources[%d]", i),
				Message: "source must be an object",
			})
			continue
		}
		src := ProductSource{
			Name:          asString(m["name"]),
			URL:           textutil.EnsureScheme(asString(m["url"])),
			LogoURL:       textutil.EnsureScheme(asString(m["logo_url"])),
			Price:         asPrice(m["price"]),
			PriceCurrency: asString(m["price_currency"]),
			LastUpdated:   asTime(m["last_updated"]),
			InStock:       asBoolDefaultTrue(m["in_stock"]),
		}
		if src.PriceCurrency == "" {
			src.PriceCurrency = DefaultCurrency
		}
		if src.URL == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("sources[%d].url", i),
				Message: "source url is required",
			})
			continue
		}
		if src.Price < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("sources[%d].price", i),
				Message: "price must be non-negative",
			})
			continue
		}
		sources = append(sources, src)
	}
	return sources, errs
}

func decodeSpecification(v interface{}) *ProductSpecification {
	spec := &ProductSpecification{}
	m, ok := v.(map[string]interface{})
	if !ok {
		return spec
	}
	spec.CPU = asString(m["cpu"])
	spec.RAM = asString(m["ram"])
	spec.Storage = asString(m["storage"])
	spec.Display = asString(m["display"])
	spec.Camera = asString(m["camera"])
	spec.Battery = asString(m["battery"])
	spec.OS = asString(m["os"])
	spec.Dimensions = asString(m["dimensions"])
	spec.Weight = asString(m["weight"])
	spec.Connectivity = asStringList(m["connectivity"])
	spec.Color = asStringList(m["color"])
	if extra, ok := m["additional_specs"].(map[string]interface{}); ok {
		spec.AdditionalSpecs = make(map[string]string, len(extra))
		for k, val := range extra {
			spec.AdditionalSpecs[k] = asString(val)
		}
	}
	return spec
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", s), ".0")
	default:
		return fmt.Sprintf("%v", s)
	}
}

// asStringList coerces scalars into single-element lists and splits
// comma-joined strings. nil yields an empty list.
func asStringList(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	case string:
		if val == "" {
			return []string{}
		}
		if strings.Contains(val, ",") {
			parts := strings.Split(val, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if s := strings.TrimSpace(p); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
		return []string{strings.TrimSpace(val)}
	default:
		return []string{asString(v)}
	}
}

func asPrice(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return textutil.ExtractPrice(n)
	default:
		return 0
	}
}

func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Now()
}

func asBoolDefaultTrue(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
