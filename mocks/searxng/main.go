// Mock SearxNG server for local development. Answers /search with a fixed
// set of retailer URLs so the crawl pipeline can run without a real search
// backend.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
)

type result struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type response struct {
	Query   string   `json:"query"`
	Results []result `json:"results"`
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	escaped := url.QueryEscape(q)
	resp := response{Query: q, Results: []result{
		{URL: "https://www.thegioididong.com/tim-kiem?key=" + escaped, Title: q + " - Thế Giới Di Động"},
		{URL: "https://fptshop.com.vn/tim-kiem/" + escaped, Title: q + " - FPT Shop"},
		{URL: "https://cellphones.com.vn/catalogsearch/result?q=" + escaped, Title: q + " - CellphoneS"},
	}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func main() {
	addr := ":8080"
	if v := os.Getenv("SEARXNG_ADDR"); v != "" {
		addr = v
	}
	http.HandleFunc("/search", handleSearch)
	log.Printf("SearxNG mock listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
