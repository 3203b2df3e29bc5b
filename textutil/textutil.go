// Package textutil holds the pure text helpers shared by the extraction and
// retrieval pipelines: HTML text cleaning, price parsing, brand normalization
// and URL/domain handling. Everything here is stateless.
package textutil

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs and unescapes HTML entities.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	return html.UnescapeString(text)
}

var nonDigitRe = regexp.MustCompile(`[^\d]`)

// ExtractPrice parses a price out of noisy retailer text. Prices are whole-unit
// VND where the dot is a thousands separator, so every non-digit character is
// stripped before parsing: "12.990.000 VND" -> 12990000. Unparsable input
// yields 0, never an error.
func ExtractPrice(text string) float64 {
	if text == "" {
		return 0
	}
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}

// brandAliases maps lowercase aliases and shorthand to canonical brand names.
var brandAliases = map[string]string{
	"ip":      "Apple",
	"iphone":  "Apple",
	"apple":   "Apple",
	"sam":     "Samsung",
	"samsung": "Samsung",
	"ss":      "Samsung",
	"xiaomi":  "Xiaomi",
	"mi":      "Xiaomi",
	"redmi":   "Xiaomi",
	"poco":    "Xiaomi",
	"oppo":    "Oppo",
	"vivo":    "Vivo",
	"realme":  "Realme",
	"nokia":   "Nokia",
	"itel":    "Itel",
	"vsmart":  "VinSmart",
	"lg":      "LG",
	"sony":    "Sony",
	"huawei":  "Huawei",
	"honor":   "Honor",
	"asus":    "Asus",
	"oneplus": "OnePlus",
	"tecno":   "Tecno",
	"mobell":  "Mobell",
	"masstel": "Masstel",
}

// NormalizeBrand maps a scraped brand string to its canonical spelling.
// Unrecognized brands are returned title-cased; empty input is "Unknown".
func NormalizeBrand(brand string) string {
	lower := strings.ToLower(strings.TrimSpace(brand))
	if lower == "" {
		return "Unknown"
	}
	for alias, canonical := range brandAliases {
		if lower == alias || strings.HasPrefix(lower, alias+" ") {
			return canonical
		}
	}
	return titleCase(strings.TrimSpace(brand))
}

// knownBrands is the ordered list scanned when guessing a brand from a
// product title.
var knownBrands = []string{
	"Apple", "iPhone", "Samsung", "Xiaomi", "Redmi", "Poco", "Oppo", "Vivo",
	"Realme", "Nokia", "Huawei", "Honor", "OnePlus", "Sony", "LG", "Asus",
	"Tecno", "Itel", "Masstel",
}

// BrandFromTitle guesses the brand from a product title. Falls back to the
// first word of the title, normalized.
func BrandFromTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Unknown"
	}
	lower := strings.ToLower(title)
	for _, brand := range knownBrands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return NormalizeBrand(brand)
		}
	}
	words := strings.Fields(title)
	if len(words) > 0 {
		return NormalizeBrand(words[0])
	}
	return "Unknown"
}

// ModelFromTitle strips the brand from a title to obtain the model string.
func ModelFromTitle(title, brand string) string {
	if title == "" {
		return ""
	}
	model := strings.TrimSpace(strings.ReplaceAll(title, brand, ""))
	return strings.TrimLeft(model, " -")
}

// ExtractDomain returns the host of a URL without a leading "www.".
func ExtractDomain(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	domain := parsed.Hostname()
	return strings.TrimPrefix(domain, "www.")
}

// EnsureScheme prefixes https:// onto a non-empty URL that has no scheme.
func EnsureScheme(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// AbsoluteURL resolves a possibly-relative href or src against a page domain.
func AbsoluteURL(raw, domain string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return "https://" + domain + raw
}

// sourceNames maps retailer domains to display names.
var sourceNames = map[string]string{
	"thegioididong.com": "Thế Giới Di Động",
	"fptshop.com.vn":    "FPT Shop",
	"cellphones.com.vn": "CellphoneS",
	"tiki.vn":           "Tiki",
	"lazada.vn":         "Lazada",
	"shopee.vn":         "Shopee",
	"viettelstore.vn":   "Viettel Store",
	"hoanghamobile.com": "Hoàng Hà Mobile",
	"nguyenkim.com":     "Nguyễn Kim",
	"sendo.vn":          "Sendo",
	"dienmayxanh.com":   "Điện Máy Xanh",
}

// SourceName returns the retailer display name for a URL's domain. Unmapped
// domains fall back to the capitalized first label.
func SourceName(pageURL string) string {
	domain := ExtractDomain(pageURL)
	for suffix, name := range sourceNames {
		if strings.HasSuffix(domain, suffix) {
			return name
		}
	}
	label, _, _ := strings.Cut(domain, ".")
	return titleCase(label)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
