// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

// FormatContext formats a context window size.
// e.g., 1500000 -> "1.5M", 45000 -> "45K", 500 -> "500"
func FormatContext(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fK", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

// FormatPricePerM converts a per-token price to dollars per million tokens.
// e.g., 0.000003 -> "$3.00"
func FormatPricePerM(perToken decimal.Decimal) string {
	return "$" + perToken.Mul(decimal.NewFromInt(1_000_000)).StringFixed(2)
}

// PricingSummary builds a one-line pricing description for a model: context
// bucket plus each positive per-million price. "Free" when nothing applies.
func PricingSummary(m model.Model) string {
	var parts []string
	if m.ContextLength > 0 {
		parts = append(parts, fmt.Sprintf("[ %s ctx ]", FormatContext(m.ContextLength)))
	}
	if m.PromptPrice.IsPositive() {
		parts = append(parts, FormatPricePerM(m.PromptPrice)+"/M in")
	}
	if m.CompletionPrice.IsPositive() {
		parts = append(parts, FormatPricePerM(m.CompletionPrice)+"/M out")
	}
	if m.ImagePrice.IsPositive() {
		parts = append(parts, FormatPricePerM(m.ImagePrice)+"/M img")
	}
	if len(parts) == 0 {
		return "Free"
	}
	return strings.Join(parts, ", ")
}

// FormatCost formats a USD amount, widening precision as amounts shrink so
// sub-cent run costs stay visible.
func FormatCost(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return "$" + d.StringFixed(2)
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return "$" + d.StringFixed(4)
	default:
		return "$" + d.StringFixed(6)
	}
}

// FormatConverted formats an amount in the configured display currency.
func FormatConverted(d decimal.Decimal, code string) string {
	return d.StringFixed(4) + " " + code
}

// FormatBalance formats an account balance with full 7-decimal precision.
func FormatBalance(d decimal.Decimal) string {
	return "$" + d.StringFixed(7)
}

// FormatDelta formats a signed spend amount at balance precision.
func FormatDelta(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-$" + d.Abs().StringFixed(7)
	}
	return "+$" + d.StringFixed(7)
}

// FormatDeltaPercent formats a signed percentage with three decimals.
func FormatDeltaPercent(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return d.StringFixed(3) + "%"
	}
	return "+" + d.StringFixed(3) + "%"
}

// FormatPercent formats an already-scaled percentage value.
// e.g., 62.5 -> "62.50%"
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}
