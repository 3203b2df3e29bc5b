package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/llm"
	"github.com/phonewise/phonerag/schema"
	"github.com/phonewise/phonerag/textutil"
)

// llmExtractBudget caps the visible text handed to the model. Product facts
// sit near the top of retailer pages; the tail is reviews and footer noise.
const llmExtractBudget = 12000

const extractSystemPrompt = `You extract product data from Vietnamese phone retailer pages.
From the page text below, extract every distinct phone product offered for sale.

Respond with ONLY a JSON array. Each element:
{
  "name": "<full product name>",
  "brand": "<brand>",
  "model": "<model, name without the brand>",
  "price": <current price in VND as a number, 0 if absent>,
  "description": "<short description, optional>",
  "specifications": {"cpu": "...", "ram": "...", "storage": "...", "display": "...",
                     "camera": "...", "battery": "...", "os": "...", (all optional)}
}

Ignore accessories, cases, chargers and warranty upsells. An empty array is a
valid answer.`

// LLMExtractor is the extraction fallback: when the selector tables find
// nothing on a page, the stripped page text is handed to the model.
type LLMExtractor struct {
	provider llm.Provider
}

// NewLLMExtractor wraps the completion provider. A nil provider disables the
// fallback.
func NewLLMExtractor(provider llm.Provider) *LLMExtractor {
	return &LLMExtractor{provider: provider}
}

// Extract asks the model for the products on the page. Candidates failing
// validation are dropped, same as the selector path.
func (e *LLMExtractor) Extract(ctx context.Context, pageText, pageURL string) []*schema.Product {
	if e == nil || e.provider == nil {
		return nil
	}
	text := strings.TrimSpace(pageText)
	if text == "" {
		return nil
	}
	if runes := []rune(text); len(runes) > llmExtractBudget {
		text = string(runes[:llmExtractBudget])
	}

	prompt := fmt.Sprintf("%s\n\nPage URL: %s\n\nPage text:\n%s", extractSystemPrompt, pageURL, text)
	response, err := e.provider.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warnf("llm extraction failed for %s: %v", pageURL, err)
		return nil
	}

	var candidates []map[string]interface{}
	if err := json.Unmarshal([]byte(llm.ExtractJSONBlock(response)), &candidates); err != nil {
		logger.Warnf("llm extraction returned unparseable JSON for %s: %v", pageURL, err)
		return nil
	}

	sourceName := textutil.SourceName(pageURL)
	now := time.Now().UTC()
	products := make([]*schema.Product, 0, len(candidates))
	for _, c := range candidates {
		price := priceOf(c["price"])
		c["id"] = uuid.NewString()
		c["category"] = schema.DefaultCategory
		c["sources"] = []interface{}{
			map[string]interface{}{
				"name":         sourceName,
				"url":          pageURL,
				"price":        price,
				"last_updated": now,
			},
		}
		c["min_price"] = price
		c["max_price"] = price
		c["average_price"] = price
		delete(c, "price")

		p, err := schema.DecodeProduct(c)
		if err != nil {
			logger.Warnf("dropping invalid llm-extracted candidate from %s: %v", pageURL, err)
			continue
		}
		products = append(products, p)
	}
	logger.Infof("llm extraction produced %d products from %s", len(products), pageURL)
	return products
}

func priceOf(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return textutil.ExtractPrice(n)
	default:
		return 0
	}
}
