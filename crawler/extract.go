package crawler

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/schema"
	"github.com/phonewise/phonerag/textutil"
)

// ExtractListing pulls product candidates out of a listing page. Candidates
// that fail validation are dropped and logged; a listing row without a name
// or a resolvable link was never going to be a usable product.
func ExtractListing(html, pageURL string) []*schema.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warnf("parse listing html from %s: %v", pageURL, err)
		return nil
	}

	domain := textutil.ExtractDomain(pageURL)
	sel := listingSelectorsFor(domain)
	sourceName := textutil.SourceName(pageURL)
	now := time.Now().UTC()

	var products []*schema.Product
	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		name := textutil.CleanText(item.Find(sel.Name).First().Text())
		if name == "" {
			return
		}
		price := textutil.ExtractPrice(item.Find(sel.Price).First().Text())

		imageURL := textutil.AbsoluteURL(item.Find(sel.Image).First().AttrOr("src", ""), domain)
		productURL := textutil.AbsoluteURL(item.Find(sel.Link).First().AttrOr("href", ""), domain)
		if productURL == "" {
			productURL = pageURL
		}

		brand := textutil.BrandFromTitle(name)
		raw := map[string]interface{}{
			"id":       uuid.NewString(),
			"name":     name,
			"brand":    brand,
			"model":    textutil.ModelFromTitle(name, brand),
			"category": schema.DefaultCategory,
			"sources": []interface{}{
				map[string]interface{}{
					"name":         sourceName,
					"url":          productURL,
					"price":        price,
					"last_updated": now,
				},
			},
			"min_price":     price,
			"max_price":     price,
			"average_price": price,
		}
		if imageURL != "" {
			raw["image_url"] = []interface{}{imageURL}
		}

		p, err := schema.DecodeProduct(raw)
		if err != nil {
			logger.Warnf("dropping invalid listing candidate %q from %s: %v", name, pageURL, err)
			return
		}
		products = append(products, p)
	})

	logger.Infof("extracted %d products from listing %s", len(products), pageURL)
	return products
}

// ExtractDetail pulls a single product from a detail page. Returns nil when
// no product name can be located.
func ExtractDetail(html, pageURL string) *schema.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warnf("parse detail html from %s: %v", pageURL, err)
		return nil
	}

	domain := textutil.ExtractDomain(pageURL)
	sel := detailSelectorsFor(domain)

	name := textutil.CleanText(doc.Find(sel.Name).First().Text())
	if name == "" {
		logger.Warnf("no product name found on %s", pageURL)
		return nil
	}
	price := textutil.ExtractPrice(doc.Find(sel.Price).First().Text())
	description := textutil.CleanText(doc.Find(sel.Description).First().Text())

	var images []interface{}
	doc.Find(sel.Images).Each(func(_ int, img *goquery.Selection) {
		if src := textutil.AbsoluteURL(img.AttrOr("src", ""), domain); src != "" {
			images = append(images, src)
		}
	})

	brand := extractBrand(doc, sel.Brand, name)

	raw := map[string]interface{}{
		"id":             uuid.NewString(),
		"name":           name,
		"brand":          brand,
		"model":          textutil.ModelFromTitle(name, brand),
		"description":    description,
		"category":       schema.DefaultCategory,
		"image_url":      images,
		"specifications": extractSpecifications(doc, sel.Specifications),
		"sources": []interface{}{
			map[string]interface{}{
				"name":         textutil.SourceName(pageURL),
				"url":          pageURL,
				"price":        price,
				"last_updated": time.Now().UTC(),
			},
		},
		"min_price":     price,
		"max_price":     price,
		"average_price": price,
	}

	p, err := schema.DecodeProduct(raw)
	if err != nil {
		logger.Warnf("detail candidate from %s failed validation: %v", pageURL, err)
		return nil
	}
	return p
}

// extractBrand reads the brand node, preferring a meta content attribute,
// falling back to the product title.
func extractBrand(doc *goquery.Document, selector, name string) string {
	node := doc.Find(selector).First()
	if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return textutil.NormalizeBrand(content)
	}
	if text := textutil.CleanText(node.Text()); text != "" && len(text) < 40 {
		return textutil.NormalizeBrand(text)
	}
	return textutil.BrandFromTitle(name)
}

// extractSpecifications walks the spec container and collects label/value
// pairs from whichever structure the site uses: table rows, list items with a
// colon, or paired name/value nodes. Labels are mapped onto canonical fields
// by alias containment; the rest accumulate in additional_specs.
func extractSpecifications(doc *goquery.Document, selector string) map[string]interface{} {
	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return map[string]interface{}{}
	}

	pairs := make(map[string]string)

	container.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() >= 2 {
			key := textutil.CleanText(cells.Eq(0).Text())
			value := textutil.CleanText(cells.Eq(1).Text())
			if key != "" && value != "" {
				pairs[key] = value
			}
		}
	})

	if len(pairs) == 0 {
		container.Find("li").Each(func(_ int, item *goquery.Selection) {
			text := textutil.CleanText(item.Text())
			if key, value, found := strings.Cut(text, ":"); found {
				key = strings.TrimSpace(key)
				value = strings.TrimSpace(value)
				if key != "" && value != "" {
					pairs[key] = value
				}
			}
		})
	}

	if len(pairs) == 0 {
		keys := container.Find(".param-name, .spec-name, .spec-key")
		values := container.Find(".param-value, .spec-value, .spec-val")
		if keys.Length() > 0 && keys.Length() == values.Length() {
			for i := 0; i < keys.Length(); i++ {
				key := textutil.CleanText(keys.Eq(i).Text())
				value := textutil.CleanText(values.Eq(i).Text())
				if key != "" && value != "" {
					pairs[key] = value
				}
			}
		}
	}

	specs := map[string]interface{}{}
	additional := map[string]interface{}{}
	for key, value := range pairs {
		switch field := canonicalSpecField(key); field {
		case "":
			additional[strings.ToLower(key)] = value
		case "connectivity", "color":
			specs[field] = value // comma-split happens in decoding
		default:
			specs[field] = value
		}
	}
	if len(additional) > 0 {
		specs["additional_specs"] = additional
	}
	return specs
}

// PageText renders the visible text of a page for indexing and for the LLM
// extraction fallback: script, style and chrome elements are removed first.
func PageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, header, footer, noscript, iframe").Remove()
	return textutil.CleanText(doc.Find("body").Text())
}
