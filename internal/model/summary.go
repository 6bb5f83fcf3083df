package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchSummary aggregates one batch run. Recomputed on demand from the
// record list, never stored independently.
type BatchSummary struct {
	Records  int
	Failures int

	TotalPromptTokens     int
	TotalCompletionTokens int
	TotalTokens           int

	TotalCostUSD       decimal.Decimal
	TotalInputCostUSD  decimal.Decimal
	TotalOutputCostUSD decimal.Decimal
	TotalCostConverted decimal.Decimal

	// AvgCostUSD divides by every record, failed ones included, each
	// contributing a zero-cost row. AvgCostOverSuccessesUSD divides by
	// succeeded records only.
	AvgCostUSD              decimal.Decimal
	AvgCostConverted        decimal.Decimal
	AvgCostOverSuccessesUSD decimal.Decimal
	AvgTokens               float64

	// RequestsPerDollar is Records / TotalCostUSD, zero when the batch
	// cost nothing.
	RequestsPerDollar decimal.Decimal

	TotalElapsed time.Duration
}
