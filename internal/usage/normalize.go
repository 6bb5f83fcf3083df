// Package usage converts raw provider usage payloads into exact-decimal
// cost records, detects charge anomalies, and summarizes batches.
package usage

import (
	"encoding/json"
	"strings"
	"time"

	"orbench/internal/model"
	"orbench/internal/openrouter"

	"github.com/shopspring/decimal"
)

// Invocation carries the request-side context needed to normalize one
// usage payload.
type Invocation struct {
	ModelID         string
	CompletionChars int
	Elapsed         time.Duration
}

// Converter normalizes payloads under a single currency conversion rate.
// Every converted amount in the program goes through one Converter, so
// exactly one rate exists per run.
type Converter struct {
	rate decimal.Decimal
}

// NewConverter builds a converter for the given USD exchange rate.
func NewConverter(rate decimal.Decimal) *Converter {
	return &Converter{rate: rate}
}

// Rate returns the configured exchange rate.
func (c *Converter) Rate() decimal.Decimal {
	return c.rate
}

// Convert applies the exchange rate to a USD amount.
func (c *Converter) Convert(usd decimal.Decimal) decimal.Decimal {
	return usd.Mul(c.rate)
}

// Normalize builds the usage record for one successful invocation.
// Missing numeric fields default to zero rather than failing; monetary
// fields are parsed from their wire literals straight into decimals.
func (c *Converter) Normalize(u openrouter.Usage, inv Invocation) model.UsageRecord {
	rec := model.UsageRecord{
		ModelID:          inv.ModelID,
		PromptTokens:     nonNegative(u.PromptTokens),
		CompletionTokens: nonNegative(u.CompletionTokens),
		TotalTokens:      nonNegative(u.TotalTokens),
		CompletionChars:  inv.CompletionChars,
		Elapsed:          inv.Elapsed,
		Succeeded:        true,
	}

	// The reported total is authoritative; derive it only when absent.
	if rec.TotalTokens == 0 {
		rec.TotalTokens = rec.PromptTokens + rec.CompletionTokens
	}

	rec.CostUSD = decimalFromRaw(u.Cost)
	if u.CostDetails != nil {
		rec.InputCostUSD = decimalFromRaw(u.CostDetails.PromptCost)
		rec.OutputCostUSD = decimalFromRaw(u.CostDetails.CompletionCost)
	}
	rec.CostConverted = c.Convert(rec.CostUSD)

	return rec
}

// decimalFromRaw parses a wire cost value that may arrive as a JSON number,
// a quoted decimal string, or not at all. Missing, malformed, and negative
// input all default to zero. The literal never passes through a float64.
func decimalFromRaw(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
