// Package cache provides the in-process L1 cache in front of vector search.
// Product-list requests with identical query, filter, sort and page hit the
// cache; any write to the index purges it, since a stale page is worse than a
// recomputed one.
package cache

import (
	"container/list"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phonewise/phonerag/schema"
)

// Cache is the minimal L1 contract.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Purge()
}

type entry struct {
	key     string
	value   any
	expires time.Time
	element *list.Element
}

type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*entry
	order    *list.List
}

// NewLRU creates an LRU cache with capacity and default TTL.
func NewLRU(capacity int, ttl time.Duration) Cache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry, capacity),
		order:    list.New(),
	}
}

func (c *lruCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		if ent.expires.IsZero() || time.Now().Before(ent.expires) {
			c.order.MoveToFront(ent.element)
			return ent.value, true
		}
		c.removeEntry(ent)
	}
	return nil, false
}

func (c *lruCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		ent.value = value
		ent.expires = c.computeExpiry(ttl)
		c.order.MoveToFront(ent.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	elem := c.order.PushFront(key)
	c.items[key] = &entry{
		key:     key,
		value:   value,
		expires: c.computeExpiry(ttl),
		element: elem,
	}
}

func (c *lruCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry, c.capacity)
	c.order.Init()
}

func (c *lruCache) computeExpiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (c *lruCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	key := elem.Value.(string)
	if ent, ok := c.items[key]; ok {
		c.removeEntry(ent)
	}
}

func (c *lruCache) removeEntry(ent *entry) {
	if ent.element != nil {
		c.order.Remove(ent.element)
	}
	delete(c.items, ent.key)
}

// ResultCache is the typed facade used by the retrieval engine. A nil
// ResultCache is valid and caches nothing.
type ResultCache struct {
	cache Cache
	ttl   time.Duration
}

// NewResultCache builds a product-list cache. With enable=false it returns
// nil, which every method tolerates.
func NewResultCache(enable bool, capacity int, ttl time.Duration) *ResultCache {
	if !enable {
		return nil
	}
	return &ResultCache{cache: NewLRU(capacity, ttl), ttl: ttl}
}

// GetProducts returns the cached page for the request key, if present.
func (rc *ResultCache) GetProducts(key string) ([]*schema.Product, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.cache.Get(key)
	if !ok {
		return nil, false
	}
	products, ok := v.([]*schema.Product)
	return products, ok
}

// SetProducts stores a result page under the request key.
func (rc *ResultCache) SetProducts(key string, products []*schema.Product) {
	if rc == nil {
		return
	}
	rc.cache.Set(key, products, rc.ttl)
}

// Invalidate drops every cached page. Called after any index write.
func (rc *ResultCache) Invalidate() {
	if rc == nil {
		return
	}
	rc.cache.Purge()
}

// ProductKey derives a stable cache key from the full request shape. Brands
// are sorted so equivalent filters share a key.
func ProductKey(q *schema.ProductQuery) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(q.Query)))
	if q.PriceMin != nil {
		fmt.Fprintf(&b, "|min=%.0f", *q.PriceMin)
	}
	if q.PriceMax != nil {
		fmt.Fprintf(&b, "|max=%.0f", *q.PriceMax)
	}
	if len(q.Brands) > 0 {
		brands := append([]string(nil), q.Brands...)
		sort.Strings(brands)
		b.WriteString("|brands=" + strings.ToLower(strings.Join(brands, ",")))
	}
	fmt.Fprintf(&b, "|sort=%s|page=%d|limit=%d", q.SortBy, q.Page, q.Limit)

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
