// Package reflection asks the LLM to route each request: answer a chat
// message directly, consult the index, or go crawl. Every decision has a safe
// default so a broken or unparseable model response never blocks a request.
package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phonewise/phonerag/common/logger"
	"github.com/phonewise/phonerag/llm"
	"github.com/phonewise/phonerag/schema"
)

// historyWindow caps how many prior turns accompany the message. Older turns
// add tokens without changing the routing decision.
const historyWindow = 6

const messageSystemPrompt = `You are the routing component of a Vietnamese phone price-comparison assistant.
Classify the user's intent and extract retrieval parameters.

Actions:
- "product_list": the user wants to browse or filter phones (by brand, price range, features).
- "product_detail": the user asks about one specific phone they already identified.
- "product_comparison": the user wants two or more specific phones compared.
- "answer": anything else, including greetings and general questions.

Respond with ONLY a JSON object:
{
  "action": "<one of the actions>",
  "query": "<a concise search query in the user's language>",
  "confidence": <0..1>,
  "additional_info": {
    "price_min": <number, VND, optional>,
    "price_max": <number, VND, optional>,
    "brands": [<canonical brand names, optional>],
    "product_names": [<specific product names mentioned, optional>]
  }
}`

const productListSystemPrompt = `You are the routing component of a phone price-comparison backend.
Given a product search query, decide whether the existing product index can answer it
or whether fresh retailer pages must be crawled first.

Prefer "rag_query" for generic browsing. Prefer "crawl" when the query names a very
recent release, asks for today's price, or targets a model unlikely to be indexed yet.

Respond with ONLY a JSON object:
{
  "action": "rag_query" | "crawl",
  "query": "<the search query, refined for retrieval>",
  "confidence": <0..1>,
  "additional_info": {
    "search_terms": [<web search phrases to use when crawling, optional>]
  }
}`

// Reflector produces routing decisions.
type Reflector struct {
	provider llm.Provider
}

// NewReflector wraps the completion provider.
func NewReflector(provider llm.Provider) *Reflector {
	return &Reflector{provider: provider}
}

// ReflectOnMessage classifies a chat message. It never returns an error; a
// failed or malformed completion yields the "answer" default so the chat
// layer can still respond.
func (r *Reflector) ReflectOnMessage(ctx context.Context, message string, history []schema.ChatMessage) *schema.ReflectionResult {
	fallback := &schema.ReflectionResult{
		Action:     schema.ActionAnswer,
		Query:      message,
		Confidence: 0.5,
	}
	if r.provider == nil || strings.TrimSpace(message) == "" {
		return fallback
	}

	var b strings.Builder
	b.WriteString(messageSystemPrompt)
	b.WriteString("\n\n")
	if trimmed := trimHistory(history); len(trimmed) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range trimmed {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User message: %s", message)

	result := r.complete(ctx, b.String(), fallback, []string{
		schema.ActionProductList,
		schema.ActionProductDetail,
		schema.ActionProductComparison,
		schema.ActionAnswer,
	})
	if result.Query == "" {
		result.Query = message
	}
	return result
}

// ReflectOnProductList decides whether a product-list request is served from
// the index or by crawling. The default on any failure is rag_query, since
// the retrieval read path is cheap and itself falls back to crawling when it
// comes up empty.
func (r *Reflector) ReflectOnProductList(ctx context.Context, q *schema.ProductQuery) *schema.ReflectionResult {
	fallback := &schema.ReflectionResult{
		Action:     schema.ActionRAGQuery,
		Query:      q.Query,
		Confidence: 0.7,
	}
	if r.provider == nil || strings.TrimSpace(q.Query) == "" {
		return fallback
	}

	prompt := fmt.Sprintf("%s\n\nSearch query: %s", productListSystemPrompt, q.Query)
	result := r.complete(ctx, prompt, fallback, []string{schema.ActionRAGQuery, schema.ActionCrawl})
	if result.Query == "" {
		result.Query = q.Query
	}
	return result
}

// ReflectOnProductDetail routes a detail lookup. Detail requests carry an id
// that either is or is not in the index, so no model call is needed.
func (r *Reflector) ReflectOnProductDetail(ctx context.Context, productID string) *schema.ReflectionResult {
	return &schema.ReflectionResult{
		Action:     schema.ActionRAGQuery,
		Query:      productID,
		Confidence: 0.9,
	}
}

// complete runs the prompt and parses the decision, returning fallback on any
// failure or on an action outside the allowed set.
func (r *Reflector) complete(ctx context.Context, prompt string, fallback *schema.ReflectionResult, allowed []string) *schema.ReflectionResult {
	response, err := r.provider.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warnf("reflection completion failed, using default action %s: %v", fallback.Action, err)
		return fallback
	}

	var result schema.ReflectionResult
	if err := json.Unmarshal([]byte(llm.ExtractJSONBlock(response)), &result); err != nil {
		logger.Warnf("reflection response is not valid JSON, using default action %s: %v", fallback.Action, err)
		return fallback
	}

	result.Action = strings.ToLower(strings.TrimSpace(result.Action))
	valid := false
	for _, a := range allowed {
		if result.Action == a {
			valid = true
			break
		}
	}
	if !valid {
		logger.Warnf("reflection returned unknown action %q, using default %s", result.Action, fallback.Action)
		return fallback
	}

	if result.Confidence < 0 || result.Confidence > 1 {
		result.Confidence = fallback.Confidence
	}
	return &result
}

func trimHistory(history []schema.ChatMessage) []schema.ChatMessage {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}
