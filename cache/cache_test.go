package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonewise/phonerag/schema"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU(4, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1, 0)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	// Touch "a" so "b" becomes the eviction candidate.
	_, _ = c.Get("a")
	c.Set("c", 3, 0)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Set("a", 1, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestResultCacheRoundTrip(t *testing.T) {
	rc := NewResultCache(true, 16, time.Minute)
	products := []*schema.Product{{ID: "p1", Name: "iPhone 15"}}

	_, ok := rc.GetProducts("k")
	assert.False(t, ok)

	rc.SetProducts("k", products)
	got, ok := rc.GetProducts("k")
	require.True(t, ok)
	assert.Equal(t, products, got)

	rc.Invalidate()
	_, ok = rc.GetProducts("k")
	assert.False(t, ok)
}

func TestResultCacheDisabled(t *testing.T) {
	rc := NewResultCache(false, 16, time.Minute)
	require.Nil(t, rc)

	// A nil cache is inert, not a panic.
	rc.SetProducts("k", nil)
	_, ok := rc.GetProducts("k")
	assert.False(t, ok)
	rc.Invalidate()
}

func TestProductKey(t *testing.T) {
	min := 5000000.0
	a := &schema.ProductQuery{Query: "điện thoại gaming", PriceMin: &min, Brands: []string{"Samsung", "Apple"}, Page: 1, Limit: 10}
	b := &schema.ProductQuery{Query: "Điện Thoại Gaming ", PriceMin: &min, Brands: []string{"Apple", "Samsung"}, Page: 1, Limit: 10}
	assert.Equal(t, ProductKey(a), ProductKey(b), "case, spacing and brand order must not change the key")

	c := &schema.ProductQuery{Query: "điện thoại gaming", PriceMin: &min, Brands: []string{"Apple", "Samsung"}, Page: 2, Limit: 10}
	assert.NotEqual(t, ProductKey(a), ProductKey(c), "page is part of the key")
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU(64, time.Minute)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", (n+j)%32)
				c.Set(key, j, 0)
				_, _ = c.Get(key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
