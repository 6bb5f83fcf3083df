package usage

import (
	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

// anomalyMinChars is the completion length below which a charged response
// counts as empty.
const anomalyMinChars = 10

// Anomaly flags a response that cost money but carried no usable output.
// Likely cause: context window exceeded, or max_tokens too small.
type Anomaly struct {
	ModelID         string
	CostUSD         decimal.Decimal
	CompletionChars int

	// Diagnostic context, populated when model metadata was available.
	ContextLength int
	PromptTokens  int
}

// DetectAnomaly reports the cost-charged-but-empty condition for one record.
// Nil when nothing was charged, or the response carried enough output.
func DetectAnomaly(rec model.UsageRecord, mdl *model.Model) *Anomaly {
	if !rec.CostUSD.IsPositive() {
		return nil
	}
	if rec.CompletionChars >= anomalyMinChars {
		return nil
	}

	a := &Anomaly{
		ModelID:         rec.ModelID,
		CostUSD:         rec.CostUSD,
		CompletionChars: rec.CompletionChars,
		PromptTokens:    rec.PromptTokens,
	}
	if mdl != nil {
		a.ContextLength = mdl.ContextLength
	}
	return a
}
