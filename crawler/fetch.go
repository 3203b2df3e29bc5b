package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"

	"github.com/phonewise/phonerag/common/httpx"
	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/config"
	"github.com/phonewise/phonerag/textutil"
)

// userAgents is the rotation pool for fetches. Retailer sites serve stripped
// pages or captchas to anything that does not look like a current browser.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// maxFetchBytes caps a single page read. Product pages run 1-2MB; anything
// past this is almost certainly not the page we want.
const maxFetchBytes = 8 << 20

// Fetcher retrieves raw HTML. The primary path is a Crawl4AI-compatible
// backend that renders JavaScript; when it is unconfigured or fails, a direct
// GET with browser-shaped headers is attempted before giving up on the URL.
type Fetcher struct {
	cfg    config.CrawlConfig
	client *httpx.Client
}

// NewFetcher builds the fetch layer.
func NewFetcher(cfg config.CrawlConfig, client *httpx.Client) *Fetcher {
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	return &Fetcher{cfg: cfg, client: client}
}

// FetchHTML returns the page HTML, or an error when both the crawl backend
// and the direct fallback fail. Callers skip the URL on error; one dead page
// never aborts a batch.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	if f.cfg.Endpoint != "" {
		html, err := f.fetchViaBackend(ctx, pageURL)
		if err == nil {
			return html, nil
		}
		logger.Warnf("crawl backend failed for %s, trying direct fetch: %v", pageURL, err)
	}
	html, err := f.fetchDirect(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return html, nil
}

func (f *Fetcher) fetchViaBackend(ctx context.Context, pageURL string) (string, error) {
	userAgent := f.cfg.UserAgent
	if userAgent == "" {
		userAgent = randomUserAgent()
	}
	payload, err := json.Marshal(map[string]interface{}{
		"urls":               []string{pageURL},
		"depth":              0,
		"respect_robots_txt": true,
		"user_agent":         userAgent,
		"extract_html":       true,
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(f.cfg.Endpoint, "/") + "/crawl"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("crawl backend returned status %d", resp.StatusCode)
	}

	var result struct {
		Results map[string]struct {
			HTML string `json:"html"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFetchBytes)).Decode(&result); err != nil {
		return "", fmt.Errorf("decode crawl backend response: %w", err)
	}
	entry, ok := result.Results[pageURL]
	if !ok || entry.HTML == "" {
		return "", fmt.Errorf("crawl backend returned no html for url")
	}
	return entry.HTML, nil
}

// fetchDirect issues a plain GET dressed up as a browser: rotated user agent,
// the standard accept headers and a Referer pointing at the site's own root.
func (f *Fetcher) fetchDirect(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", "https://"+textutil.ExtractDomain(pageURL)+"/")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("direct fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty response body")
	}
	return string(data), nil
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}
