package crawler

import "strings"

// ListingSelectors picks product cards out of a listing or search-result page.
type ListingSelectors struct {
	Item  string
	Name  string
	Price string
	Image string
	Link  string
}

// DetailSelectors picks the fields of a single product page.
type DetailSelectors struct {
	Name           string
	Price          string
	Images         string
	Description    string
	Specifications string
	Brand          string
}

// Site markup changes over time; the tables are data so a broken retailer is
// a one-line fix, and unknown retailers get the generic set.
var (
	defaultListingSelectors = ListingSelectors{
		Item:  "div.product-item, div.product-card, div.product, .cate-pro-item, li.item",
		Name:  "h3.product-name, h2.product-title, div.product-info h3, .cate-pro-name, h3",
		Price: "span.price, div.product-price, p.price, .cate-pro-price, .price",
		Image: "img.product-image, div.product-img img, .cate-pro-img img, img",
		Link:  "a.product-link, div.product-img a, h3.product-name a, a.pro-thumb, a",
	}

	listingSelectorsByDomain = map[string]ListingSelectors{
		"thegioididong.com": {
			Item:  "li.item",
			Name:  "h3",
			Price: "strong.price",
			Image: "img.thumb",
			Link:  "a",
		},
		"fptshop.com.vn": {
			Item:  "div.cdt-product",
			Name:  "h3",
			Price: "div.progress",
			Image: "img",
			Link:  "a",
		},
		"cellphones.com.vn": {
			Item:  "div.product-item",
			Name:  "h3.product-name",
			Price: "p.special-price",
			Image: "img.product-img",
			Link:  "a.product-name",
		},
	}

	defaultDetailSelectors = DetailSelectors{
		Name:           "h1.product-name, h1.product-title, div.product-title h1, h1[itemprop='name']",
		Price:          "span.price, div.product-price, p.special-price, span[itemprop='price']",
		Images:         "div.product-gallery img, img.product-image, div.carousel img, div.swiper-slide img",
		Description:    "div.product-description, div.product-content, div.description-content, div[itemprop='description']",
		Specifications: "table.specifications, div.specifications-content, ul.specifications, div.st-param",
		Brand:          "span.brand, div.brand, a.brand, meta[itemprop='brand']",
	}

	detailSelectorsByDomain = map[string]DetailSelectors{
		"thegioididong.com": {
			Name:           "h1",
			Price:          "div.box-price p",
			Images:         "div.owl-carousel img",
			Description:    "div.article-content",
			Specifications: "div.parameter",
			Brand:          "meta[itemprop='brand']",
		},
		"fptshop.com.vn": {
			Name:           "h1.st-name",
			Price:          "div.st-price",
			Images:         "div.st-slider img",
			Description:    "div.st-specification",
			Specifications: "div.st-param",
			Brand:          "h1.st-name",
		},
		"cellphones.com.vn": {
			Name:           "h1.product-name",
			Price:          "p.product-price--current",
			Images:         "div.product-image img",
			Description:    "div.product-description",
			Specifications: "div.product-technical-content",
			Brand:          "div.product-brand",
		},
	}
)

// listingSelectorsFor resolves the selector set for a domain, suffix-matched.
func listingSelectorsFor(domain string) ListingSelectors {
	for d, sel := range listingSelectorsByDomain {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return sel
		}
	}
	return defaultListingSelectors
}

func detailSelectorsFor(domain string) DetailSelectors {
	for d, sel := range detailSelectorsByDomain {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return sel
		}
	}
	return defaultDetailSelectors
}

// specAliases maps canonical specification fields to the substrings that
// identify them in scraped spec labels, Vietnamese and English alike.
var specAliases = []struct {
	field   string
	aliases []string
}{
	{"cpu", []string{"cpu", "chip", "vi xử lý"}},
	{"ram", []string{"ram", "bộ nhớ ram"}},
	{"storage", []string{"rom", "bộ nhớ trong", "storage"}},
	{"display", []string{"màn hình", "display"}},
	{"camera", []string{"camera"}},
	{"battery", []string{"pin", "battery"}},
	{"os", []string{"hệ điều hành", "os"}},
	{"connectivity", []string{"kết nối", "connectivity"}},
	{"color", []string{"màu", "color"}},
	{"dimensions", []string{"kích thước", "dimensions"}},
	{"weight", []string{"cân nặng", "trọng lượng", "weight"}},
}

// canonicalSpecField maps a scraped label to a canonical spec field, or ""
// when it belongs in additional_specs. Matching is by containment, first
// alias wins, so "Camera sau" and "camera" both land on camera.
func canonicalSpecField(label string) string {
	lower := strings.ToLower(label)
	for _, entry := range specAliases {
		for _, alias := range entry.aliases {
			if strings.Contains(lower, alias) {
				return entry.field
			}
		}
	}
	return ""
}
