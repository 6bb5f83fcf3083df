package usage

import (
	"strconv"
	"testing"

	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

func BenchmarkSummarize(b *testing.B) {
	c := NewConverter(decimal.RequireFromString("89.5"))

	records := make([]model.UsageRecord, 10_000)
	for i := range records {
		cost := decimal.RequireFromString("0.000" + strconv.Itoa(i%97+1))
		records[i] = model.UsageRecord{
			ModelID:          "bench/model-" + strconv.Itoa(i%40),
			PromptTokens:     120,
			CompletionTokens: 340,
			TotalTokens:      460,
			CostUSD:          cost,
			CostConverted:    c.Convert(cost),
			Succeeded:        i%13 != 0,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := c.Summarize(records)
		_ = s
	}
}
