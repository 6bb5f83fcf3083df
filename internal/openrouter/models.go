package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

// excludedTypes is the built-in exclusion vocabulary for non-chat models,
// matched case-insensitively against the identifier.
var excludedTypes = []string{"embedding", "rerank", "moderation", "image", "audio", "llama-guard"}

// ListModels fetches the catalog and returns the usable text-chat models,
// sorted by ID ascending. extraSkip entries extend the built-in exclusion
// vocabulary with the same substring rule.
func (c *Client) ListModels(ctx context.Context, extraSkip []string) ([]model.Model, error) {
	body, err := c.get(ctx, "/models")
	if err != nil {
		return nil, err
	}

	var raw modelsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing models: %v", ErrMalformedResponse, err)
	}

	models := make([]model.Model, 0, len(raw.Data))
	for _, d := range raw.Data {
		if d.ID == "" {
			continue
		}
		if excludedID(d.ID, extraSkip) {
			continue
		}
		// Keep when the modality mentions text, or is unspecified.
		if d.Architecture != nil && d.Architecture.Modality != "" &&
			!strings.Contains(strings.ToLower(d.Architecture.Modality), "text") {
			continue
		}

		m := model.Model{
			ID:            d.ID,
			Name:          d.Name,
			Description:   d.Description,
			ContextLength: d.ContextLength,
			Reasoning:     model.IsReasoningCapable(d.ID),
		}
		if m.Name == "" {
			m.Name = d.ID
		}
		if d.Pricing != nil {
			m.PromptPrice = parsePrice(d.Pricing.Prompt)
			m.CompletionPrice = parsePrice(d.Pricing.Completion)
			m.ImagePrice = parsePrice(d.Pricing.Image)
		}

		models = append(models, m)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

func excludedID(id string, extra []string) bool {
	lower := strings.ToLower(id)
	for _, kw := range excludedTypes {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range extra {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// parsePrice parses a per-token price string. Empty, malformed, or negative
// input yields zero.
func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
