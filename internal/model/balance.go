package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is one point-in-time account balance reading.
type BalanceSnapshot struct {
	Limit      decimal.Decimal
	Usage      decimal.Decimal
	Remaining  decimal.Decimal // Limit - Usage
	CapturedAt time.Time
}

// NewBalanceSnapshot derives Remaining from limit and usage.
func NewBalanceSnapshot(limit, usage decimal.Decimal, at time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		Limit:      limit,
		Usage:      usage,
		Remaining:  limit.Sub(usage),
		CapturedAt: at,
	}
}

// PercentRemaining returns remaining credit as a percentage of the limit.
// The bool is false when Limit is zero and no percentage exists.
func (s BalanceSnapshot) PercentRemaining() (decimal.Decimal, bool) {
	if s.Limit.IsZero() {
		return decimal.Zero, false
	}
	return s.Remaining.Div(s.Limit).Mul(decimal.NewFromInt(100)), true
}
