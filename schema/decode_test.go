package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]interface{} {
	return map[string]interface{}{
		"name":  "Samsung Galaxy S24",
		"brand": "samsung",
		"model": "Galaxy S24",
		"sources": []interface{}{
			map[string]interface{}{
				"name":  "Thế Giới Di Động",
				"url":   "thegioididong.com/dtdd/galaxy-s24",
				"price": "19.990.000 VND",
			},
		},
	}
}

func TestDecodeProduct(t *testing.T) {
	p, err := DecodeProduct(validRaw())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Samsung", p.Brand)
	assert.Equal(t, DefaultCategory, p.Category)
	require.Len(t, p.Sources, 1)
	assert.Equal(t, "https://thegioididong.com/dtdd/galaxy-s24", p.Sources[0].URL)
	assert.Equal(t, 19990000.0, p.Sources[0].Price)
	assert.Equal(t, DefaultCurrency, p.Sources[0].PriceCurrency)
	assert.True(t, p.Sources[0].InStock)
	assert.False(t, p.Sources[0].LastUpdated.IsZero())
	// Derived prices are computed when absent from the input.
	assert.Equal(t, 19990000.0, p.MinPrice)
	assert.Equal(t, 19990000.0, p.MaxPrice)
	assert.NotNil(t, p.Specifications)
}

func TestDecodeProductRejectsEmptySources(t *testing.T) {
	raw := validRaw()
	raw["sources"] = []interface{}{}
	_, err := DecodeProduct(raw)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "at least one source")

	// The same payload with a single valid source passes.
	raw["sources"] = validRaw()["sources"]
	_, err = DecodeProduct(raw)
	assert.NoError(t, err)
}

func TestDecodeProductMissingSources(t *testing.T) {
	raw := validRaw()
	delete(raw, "sources")
	_, err := DecodeProduct(raw)
	assert.Error(t, err)
}

func TestDecodeProductCoercions(t *testing.T) {
	raw := validRaw()
	raw["image_url"] = "cdn.example.com/a.jpg" // scalar -> one-element list
	raw["specifications"] = map[string]interface{}{
		"cpu":          "Snapdragon 8 Gen 3",
		"connectivity": "5G, Wi-Fi 6E, NFC", // comma-joined -> list
		"color":        "Đen",               // scalar -> one-element list
		"additional_specs": map[string]interface{}{
			"chống nước": "IP68",
		},
	}

	p, err := DecodeProduct(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"cdn.example.com/a.jpg"}, p.ImageURL)
	assert.Equal(t, []string{"5G", "Wi-Fi 6E", "NFC"}, p.Specifications.Connectivity)
	assert.Equal(t, []string{"Đen"}, p.Specifications.Color)
	assert.Equal(t, "IP68", p.Specifications.AdditionalSpecs["chống nước"])
}

func TestDecodeProductTimestampCoercion(t *testing.T) {
	raw := validRaw()
	src := raw["sources"].([]interface{})[0].(map[string]interface{})
	src["last_updated"] = "2026-01-15T08:30:00Z"

	p, err := DecodeProduct(raw)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC), p.Sources[0].LastUpdated)
}

func TestFallbackProduct(t *testing.T) {
	p := FallbackProduct(map[string]interface{}{
		"id":        "abc",
		"name":      "iPhone 15",
		"brand":     "iphone",
		"min_price": 22990000.0,
	})
	assert.Equal(t, "abc", p.ID)
	assert.Equal(t, "Apple", p.Brand)
	assert.Equal(t, 22990000.0, p.MinPrice)
	assert.Empty(t, p.Sources)
}

func TestCalculatePrices(t *testing.T) {
	p := &Product{Sources: []ProductSource{
		{Price: 10},
		{Price: 30},
		{Price: 20},
	}}
	p.CalculatePrices()
	assert.Equal(t, 10.0, p.MinPrice)
	assert.Equal(t, 30.0, p.MaxPrice)
	assert.Equal(t, 20.0, p.AveragePrice)
}

func TestCalculatePricesEmptySourcesIsNoop(t *testing.T) {
	p := &Product{MinPrice: 5, MaxPrice: 9, AveragePrice: 7}
	p.CalculatePrices()
	assert.Equal(t, 5.0, p.MinPrice)
	assert.Equal(t, 9.0, p.MaxPrice)
	assert.Equal(t, 7.0, p.AveragePrice)
}
