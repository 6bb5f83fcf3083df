package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageRecord is the outcome of one chat invocation, failed or not.
// Monetary fields are exact decimals: they get summed across a batch and
// rounded only at display time.
type UsageRecord struct {
	ModelID string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	CostUSD       decimal.Decimal
	InputCostUSD  decimal.Decimal
	OutputCostUSD decimal.Decimal
	CostConverted decimal.Decimal // CostUSD at the configured exchange rate

	CompletionChars int
	Elapsed         time.Duration

	Succeeded    bool
	ErrorMessage string // non-empty iff Succeeded is false
}

// FailedRecord builds the zero-cost record emitted when a model's invocation
// fails inside a batch.
func FailedRecord(modelID, errMsg string, elapsed time.Duration) UsageRecord {
	return UsageRecord{
		ModelID:      modelID,
		Elapsed:      elapsed,
		ErrorMessage: errMsg,
	}
}
