// Package schema defines the canonical records exchanged between the
// retrieval engine, the crawl pipeline and the vector store: the product
// entity, the reflection decision and the indexed document shape.
package schema

import (
	"time"
)

// DefaultCategory is assigned to products that carry no category of their own.
const DefaultCategory = "smartphone"

// DefaultCurrency is the currency assumed for scraped prices.
const DefaultCurrency = "VND"

// ProductSource is one retailer listing a product.
type ProductSource struct {
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	LogoURL       string    `json:"logo_url,omitempty"`
	Price         float64   `json:"price"`
	PriceCurrency string    `json:"price_currency"`
	LastUpdated   time.Time `json:"last_updated"`
	InStock       bool      `json:"in_stock"`
}

// ProductSpecification holds the recognized spec fields plus a catch-all map
// for keys the alias table does not know.
type ProductSpecification struct {
	CPU             string            `json:"cpu,omitempty"`
	RAM             string            `json:"ram,omitempty"`
	Storage         string            `json:"storage,omitempty"`
	Display         string            `json:"display,omitempty"`
	Camera          string            `json:"camera,omitempty"`
	Battery         string            `json:"battery,omitempty"`
	OS              string            `json:"os,omitempty"`
	Connectivity    []string          `json:"connectivity,omitempty"`
	Color           []string          `json:"color,omitempty"`
	Dimensions      string            `json:"dimensions,omitempty"`
	Weight          string            `json:"weight,omitempty"`
	AdditionalSpecs map[string]string `json:"additional_specs,omitempty"`
}

// Product is the canonical product entity. A valid product always has at
// least one source; the derived price fields are maintained by
// CalculatePrices and must be recomputed after any mutation of Sources.
type Product struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Brand          string                `json:"brand"`
	Model          string                `json:"model"`
	Description    string                `json:"description,omitempty"`
	ImageURL       []string              `json:"image_url"`
	Category       string                `json:"category"`
	Specifications *ProductSpecification `json:"specifications,omitempty"`
	Sources        []ProductSource       `json:"sources"`
	AveragePrice   float64               `json:"average_price"`
	MinPrice       float64               `json:"min_price"`
	MaxPrice       float64               `json:"max_price"`
}

// CalculatePrices recomputes MinPrice, MaxPrice and AveragePrice from the
// current sources. With no sources it leaves the existing values untouched.
func (p *Product) CalculatePrices() {
	if len(p.Sources) == 0 {
		return
	}
	min := p.Sources[0].Price
	max := p.Sources[0].Price
	sum := 0.0
	for _, src := range p.Sources {
		if src.Price < min {
			min = src.Price
		}
		if src.Price > max {
			max = src.Price
		}
		sum += src.Price
	}
	p.MinPrice = min
	p.MaxPrice = max
	p.AveragePrice = sum / float64(len(p.Sources))
}

// SearchText builds the similarity-search query text for a product, used when
// looking up related products.
func (p *Product) SearchText() string {
	return p.Name + " " + p.Brand + " " + p.Model
}
