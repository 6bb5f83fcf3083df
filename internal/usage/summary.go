package usage

import (
	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

// Summarize aggregates a batch of records. Failed records count toward the
// record total and the plain average, contributing zero cost and tokens.
// Amounts are summed exactly and rounded only at display time.
func (c *Converter) Summarize(records []model.UsageRecord) model.BatchSummary {
	s := model.BatchSummary{Records: len(records)}

	for _, r := range records {
		if !r.Succeeded {
			s.Failures++
		}
		s.TotalPromptTokens += r.PromptTokens
		s.TotalCompletionTokens += r.CompletionTokens
		s.TotalTokens += r.TotalTokens
		s.TotalCostUSD = s.TotalCostUSD.Add(r.CostUSD)
		s.TotalInputCostUSD = s.TotalInputCostUSD.Add(r.InputCostUSD)
		s.TotalOutputCostUSD = s.TotalOutputCostUSD.Add(r.OutputCostUSD)
		s.TotalCostConverted = s.TotalCostConverted.Add(r.CostConverted)
		s.TotalElapsed += r.Elapsed
	}

	if s.Records > 0 {
		n := decimal.NewFromInt(int64(s.Records))
		s.AvgCostUSD = s.TotalCostUSD.Div(n)
		s.AvgCostConverted = s.TotalCostConverted.Div(n)
		s.AvgTokens = float64(s.TotalTokens) / float64(s.Records)
	}
	if successes := s.Records - s.Failures; successes > 0 {
		s.AvgCostOverSuccessesUSD = s.TotalCostUSD.Div(decimal.NewFromInt(int64(successes)))
	}
	if s.TotalCostUSD.IsPositive() {
		s.RequestsPerDollar = decimal.NewFromInt(int64(s.Records)).Div(s.TotalCostUSD)
	}

	return s
}
