// Package crawler implements the web discovery and extraction pipeline: URL
// discovery through SearXNG, HTML fetching through a crawl backend with a
// direct-GET fallback, selector-based product extraction with an LLM fallback,
// and the write-back into the retrieval index.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/phonewise/phonerag/common/httpx"
	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/config"
	"github.com/phonewise/phonerag/textutil"
)

// ecommerceDomains is the allow-list of Vietnamese retailer domains. Discovery
// results outside this list are dropped; suffix match covers subdomains.
var ecommerceDomains = []string{
	"thegioididong.com", "fptshop.com.vn", "cellphones.com.vn",
	"tiki.vn", "lazada.vn", "shopee.vn", "viettelstore.vn",
	"hoanghamobile.com", "nguyenkim.com", "sendo.vn",
	"dienmayxanh.com", "bachlong.vn", "hangchinhhieu.vn",
	"phongvu.vn", "anphatpc.com.vn", "hacom.vn",
	"didongviet.vn", "hnam.com.vn",
}

// fallbackSearchSites are the retailers whose on-site search is used to
// construct URLs when the search API is down. Keys are printf patterns taking
// the url-escaped query.
var fallbackSearchSites = []string{
	"https://www.thegioididong.com/tim-kiem?key=%s",
	"https://fptshop.com.vn/tim-kiem/%s",
	"https://cellphones.com.vn/catalogsearch/result?q=%s",
}

// brandKeywords maps canonical brands to the search keyword used in fallback
// URL construction when the brand is detected in the query.
var brandKeywords = map[string]string{
	"Apple":   "iphone",
	"Samsung": "samsung galaxy",
	"Xiaomi":  "xiaomi",
	"Oppo":    "oppo",
	"Vivo":    "vivo",
	"Realme":  "realme",
	"Nokia":   "nokia",
	"Honor":   "honor",
}

// SearchClient discovers candidate product-page URLs via a SearXNG instance.
type SearchClient struct {
	cfg      config.SearchConfig
	maxPages int
	client   *httpx.Client
}

// NewSearchClient builds the discovery client. maxPages caps the URL list per
// request.
func NewSearchClient(cfg config.SearchConfig, maxPages int, client *httpx.Client) *SearchClient {
	if maxPages <= 0 {
		maxPages = 20
	}
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	return &SearchClient{cfg: cfg, maxPages: maxPages, client: client}
}

// SearchURLs returns allow-listed, deduplicated URLs for the query, at most
// maxPages of them. When the search API fails or filters everything out, a
// deterministic set of retailer search URLs keyed off the query keeps the
// crawl moving.
func (s *SearchClient) SearchURLs(ctx context.Context, query string) []string {
	urls, err := s.searchAPI(ctx, query)
	if err != nil {
		logger.Warnf("search api failed for %q, constructing fallback urls: %v", query, err)
		return s.FallbackURLs(query)
	}
	if len(urls) == 0 {
		logger.Warnf("search api returned no usable urls for %q, constructing fallback urls", query)
		return s.FallbackURLs(query)
	}
	return urls
}

func (s *SearchClient) searchAPI(ctx context.Context, query string) ([]string, error) {
	endpoint := strings.TrimRight(s.cfg.Endpoint, "/") + "/search"
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("bad search endpoint: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	if s.cfg.Language != "" {
		q.Set("language", s.cfg.Language)
	}
	if s.cfg.Region != "" {
		q.Set("region", s.cfg.Region)
	}
	if len(s.cfg.Engines) > 0 {
		q.Set("engines", strings.Join(s.cfg.Engines, ","))
	}
	if s.cfg.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", s.cfg.Limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search api returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	seen := make(map[string]bool)
	urls := make([]string, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		if !AllowedDomain(textutil.ExtractDomain(r.URL)) {
			continue
		}
		seen[r.URL] = true
		urls = append(urls, r.URL)
		if len(urls) == s.maxPages {
			break
		}
	}
	logger.Infof("search found %d usable urls for %q", len(urls), query)
	return urls, nil
}

// FallbackURLs constructs retailer search URLs directly from the query. Brand
// keywords detected in the query sharpen the search term; otherwise the raw
// query is used. The list is never empty for a non-empty query.
func (s *SearchClient) FallbackURLs(query string) []string {
	term := strings.TrimSpace(query)
	if term == "" {
		return nil
	}
	if kw := detectBrandKeyword(term); kw != "" {
		term = kw
	}
	escaped := url.QueryEscape(term)
	urls := make([]string, 0, len(fallbackSearchSites))
	for _, pattern := range fallbackSearchSites {
		urls = append(urls, fmt.Sprintf(pattern, escaped))
	}
	if len(urls) > s.maxPages {
		urls = urls[:s.maxPages]
	}
	return urls
}

// AllowedDomain reports whether the domain belongs to a known retailer.
func AllowedDomain(domain string) bool {
	for _, d := range ecommerceDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func detectBrandKeyword(query string) string {
	lower := strings.ToLower(query)
	for brand, keyword := range brandKeywords {
		if strings.Contains(lower, strings.ToLower(brand)) || strings.Contains(lower, keyword) {
			return keyword
		}
	}
	// Alias forms like "ip 15" or "ss galaxy" still resolve through the
	// brand normalizer.
	for _, word := range strings.Fields(lower) {
		if kw, ok := brandKeywords[textutil.NormalizeBrand(word)]; ok {
			return kw
		}
	}
	return ""
}
