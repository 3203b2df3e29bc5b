// Mock crawl backend (Crawl4AI-compatible). Answers /crawl with a canned
// retailer listing page for every requested URL so extraction and indexing
// can be exercised without touching real sites.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
)

const listingHTML = `<html><body><ul class="listproduct">
<li class="item"><a href="/dtdd/iphone-15-pro-max"><img class="thumb" src="/img/ip15pm.jpg"><h3>iPhone 15 Pro Max 256GB</h3><strong class="price">29.990.000&#8363;</strong></a></li>
<li class="item"><a href="/dtdd/samsung-galaxy-s24-ultra"><img class="thumb" src="/img/s24u.jpg"><h3>Samsung Galaxy S24 Ultra</h3><strong class="price">26.490.000&#8363;</strong></a></li>
<li class="item"><a href="/dtdd/xiaomi-14"><img class="thumb" src="/img/mi14.jpg"><h3>Xiaomi 14</h3><strong class="price">15.990.000&#8363;</strong></a></li>
</ul></body></html>`

type crawlReq struct {
	URLs []string `json:"urls"`
}

type pageResult struct {
	HTML string `json:"html"`
}

func handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	results := make(map[string]pageResult, len(req.URLs))
	for _, u := range req.URLs {
		results[u] = pageResult{HTML: listingHTML}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
}

func main() {
	addr := ":8888"
	if v := os.Getenv("CRAWLER_ADDR"); v != "" {
		addr = v
	}
	http.HandleFunc("/crawl", handleCrawl)
	log.Printf("Crawl backend mock listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
