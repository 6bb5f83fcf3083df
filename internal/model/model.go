// Package model defines domain types for the orbench catalog, usage records,
// and balance accounting.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Model is one catalog entry. Immutable after fetch; lifetime is one catalog
// load, cleared on explicit reload.
type Model struct {
	ID            string // "<provider>/<name>", unique within a load
	Name          string // falls back to ID when the provider omits it
	Description   string
	ContextLength int

	// Prices are USD per single token as the provider reports them.
	// Multiplied by 1e6 only for display.
	PromptPrice     decimal.Decimal
	CompletionPrice decimal.Decimal
	ImagePrice      decimal.Decimal

	Reasoning bool
}

// IsFree reports whether the model advertises no positive price at all.
func (m Model) IsFree() bool {
	return !m.PromptPrice.IsPositive() && !m.CompletionPrice.IsPositive() && !m.ImagePrice.IsPositive()
}

// reasoningKeywords flags models with a dedicated reasoning mode.
// Identifier heuristic, not authoritative provider metadata.
var reasoningKeywords = []string{"o1", "o3", "deepthink", "reasoning", "deepseek-r1", "qwq"}

// imageKeywords names image generators that can slip past the catalog's
// text-only filter. Used as a hard gate on run selection.
var imageKeywords = []string{
	"dalle", "dall-e", "stable-diffusion", "midjourney", "imagen",
	"playground", "flux", "sdxl", "sd-", "/image", "ideogram",
	"recraft", "kolors", "pixart",
}

// IsReasoningCapable reports whether the model ID suggests a reasoning mode.
func IsReasoningCapable(id string) bool {
	return containsAny(id, reasoningKeywords)
}

// IsImageModel reports whether the model ID names an image generator.
func IsImageModel(id string) bool {
	return containsAny(id, imageKeywords)
}

// IsReasoningCapable reports whether either the catalog metadata or the ID
// marks the model as reasoning capable.
func (m Model) IsReasoningCapable() bool {
	return m.Reasoning || IsReasoningCapable(m.ID)
}

// IsImageModel reports whether the model generates images.
func (m Model) IsImageModel() bool {
	return IsImageModel(m.ID)
}

func containsAny(id string, keywords []string) bool {
	id = strings.ToLower(id)
	for _, kw := range keywords {
		if strings.Contains(id, kw) {
			return true
		}
	}
	return false
}
