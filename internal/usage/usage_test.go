package usage

import (
	"encoding/json"
	"testing"
	"time"

	"orbench/internal/model"
	"orbench/internal/openrouter"

	"github.com/shopspring/decimal"
)

// newTestConverter uses the default reference rate.
func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	return NewConverter(decimal.RequireFromString("89.5"))
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	c := newTestConverter(t)

	rec := c.Normalize(openrouter.Usage{}, Invocation{ModelID: "test/model"})
	if !rec.CostUSD.IsZero() {
		t.Errorf("missing cost parsed as %s, want 0", rec.CostUSD)
	}
	if !rec.CostConverted.IsZero() {
		t.Errorf("converted cost = %s, want 0", rec.CostConverted)
	}
	if rec.TotalTokens != 0 || rec.PromptTokens != 0 || rec.CompletionTokens != 0 {
		t.Errorf("missing token counts = (%d, %d, %d), want zeros",
			rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens)
	}
	if !rec.Succeeded {
		t.Error("normalized record not marked succeeded")
	}
}

func TestNormalizeExactDecimals(t *testing.T) {
	c := newTestConverter(t)

	u := openrouter.Usage{
		PromptTokens:     120,
		CompletionTokens: 30,
		TotalTokens:      150,
		Cost:             json.RawMessage("0.00123"),
		CostDetails: &openrouter.CostDetails{
			PromptCost:     json.RawMessage("0.0009"),
			CompletionCost: json.RawMessage("0.00033"),
		},
	}
	rec := c.Normalize(u, Invocation{ModelID: "test/model", CompletionChars: 42, Elapsed: 2 * time.Second})

	if !rec.CostUSD.Equal(decimal.RequireFromString("0.00123")) {
		t.Errorf("CostUSD = %s, want 0.00123", rec.CostUSD)
	}
	if !rec.InputCostUSD.Equal(decimal.RequireFromString("0.0009")) {
		t.Errorf("InputCostUSD = %s, want 0.0009", rec.InputCostUSD)
	}
	if !rec.OutputCostUSD.Equal(decimal.RequireFromString("0.00033")) {
		t.Errorf("OutputCostUSD = %s, want 0.00033", rec.OutputCostUSD)
	}
	// 0.00123 * 89.5, exact
	if !rec.CostConverted.Equal(decimal.RequireFromString("0.110085")) {
		t.Errorf("CostConverted = %s, want 0.110085", rec.CostConverted)
	}
}

func TestNormalizeQuotedCost(t *testing.T) {
	c := newTestConverter(t)

	rec := c.Normalize(openrouter.Usage{Cost: json.RawMessage(`"0.002"`)}, Invocation{ModelID: "m"})
	if !rec.CostUSD.Equal(decimal.RequireFromString("0.002")) {
		t.Errorf("quoted cost parsed as %s, want 0.002", rec.CostUSD)
	}
}

func TestNormalizeTotalTokens(t *testing.T) {
	c := newTestConverter(t)

	// Reported total is authoritative even when it disagrees with the parts.
	rec := c.Normalize(openrouter.Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 20}, Invocation{ModelID: "m"})
	if rec.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want reported 20", rec.TotalTokens)
	}

	// Absent total is derived from the parts.
	rec = c.Normalize(openrouter.Usage{PromptTokens: 12, CompletionTokens: 4}, Invocation{ModelID: "m"})
	if rec.TotalTokens != 16 {
		t.Errorf("derived TotalTokens = %d, want 16", rec.TotalTokens)
	}
}

func TestSummarizeExactTotal(t *testing.T) {
	c := newTestConverter(t)

	// Ten times 0.1 must sum to exactly 1; float64 accumulation drifts here.
	var records []model.UsageRecord
	for i := 0; i < 10; i++ {
		records = append(records, model.UsageRecord{
			ModelID:   "m",
			CostUSD:   decimal.RequireFromString("0.1"),
			Succeeded: true,
		})
	}

	s := c.Summarize(records)
	if !s.TotalCostUSD.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("TotalCostUSD = %s, want exactly 1", s.TotalCostUSD)
	}

	manual := decimal.Zero
	for _, r := range records {
		manual = manual.Add(r.CostUSD)
	}
	if !s.TotalCostUSD.Equal(manual) {
		t.Fatalf("summary total %s != manual decimal sum %s", s.TotalCostUSD, manual)
	}
}

func TestSummarizeAveragesIncludeFailures(t *testing.T) {
	c := newTestConverter(t)

	records := []model.UsageRecord{
		{ModelID: "a", CostUSD: decimal.RequireFromString("0.02"), TotalTokens: 100, Succeeded: true},
		{ModelID: "b", CostUSD: decimal.RequireFromString("0.01"), TotalTokens: 50, Succeeded: true},
		model.FailedRecord("c", "boom", 0),
	}

	s := c.Summarize(records)
	if s.Records != 3 || s.Failures != 1 {
		t.Fatalf("Records/Failures = %d/%d, want 3/1", s.Records, s.Failures)
	}
	if !s.AvgCostUSD.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("AvgCostUSD = %s, want 0.01 (failures dilute the average)", s.AvgCostUSD)
	}
	if !s.AvgCostOverSuccessesUSD.Equal(decimal.RequireFromString("0.015")) {
		t.Errorf("AvgCostOverSuccessesUSD = %s, want 0.015", s.AvgCostOverSuccessesUSD)
	}
	if s.AvgTokens != 50 {
		t.Errorf("AvgTokens = %v, want 50", s.AvgTokens)
	}
}

func TestSummarizeEmptyBatch(t *testing.T) {
	c := newTestConverter(t)

	s := c.Summarize(nil)
	if s.Records != 0 || !s.TotalCostUSD.IsZero() || !s.AvgCostUSD.IsZero() {
		t.Fatalf("empty batch summary not zeroed: %+v", s)
	}
	if !s.RequestsPerDollar.IsZero() {
		t.Errorf("RequestsPerDollar = %s for zero-cost batch, want 0", s.RequestsPerDollar)
	}
}

func TestSummarizeRequestsPerDollar(t *testing.T) {
	c := newTestConverter(t)

	records := []model.UsageRecord{
		{ModelID: "a", CostUSD: decimal.RequireFromString("0.25"), Succeeded: true},
		{ModelID: "b", CostUSD: decimal.RequireFromString("0.25"), Succeeded: true},
	}
	s := c.Summarize(records)
	if !s.RequestsPerDollar.Equal(decimal.NewFromInt(4)) {
		t.Errorf("RequestsPerDollar = %s, want 4", s.RequestsPerDollar)
	}
}

func TestSummarizeSingleRateEverywhere(t *testing.T) {
	rate := decimal.RequireFromString("83.20")
	c := NewConverter(rate)

	u := openrouter.Usage{Cost: json.RawMessage("0.004")}
	rec := c.Normalize(u, Invocation{ModelID: "m"})
	s := c.Summarize([]model.UsageRecord{rec, rec})

	wantRecord := decimal.RequireFromString("0.004").Mul(rate)
	if !rec.CostConverted.Equal(wantRecord) {
		t.Errorf("record conversion = %s, want %s", rec.CostConverted, wantRecord)
	}
	wantTotal := decimal.RequireFromString("0.008").Mul(rate)
	if !s.TotalCostConverted.Equal(wantTotal) {
		t.Errorf("summary conversion = %s, want %s", s.TotalCostConverted, wantTotal)
	}
}

func TestDetectAnomaly(t *testing.T) {
	charged := decimal.RequireFromString("0.002")

	// Charged, empty response: flagged.
	rec := model.UsageRecord{ModelID: "m", CostUSD: charged, CompletionChars: 0, PromptTokens: 9000, Succeeded: true}
	mdl := &model.Model{ID: "m", ContextLength: 8192}
	a := DetectAnomaly(rec, mdl)
	if a == nil {
		t.Fatal("charged empty response not flagged")
	}
	if a.ContextLength != 8192 || a.PromptTokens != 9000 {
		t.Errorf("diagnostics = (ctx %d, prompt %d), want (8192, 9000)", a.ContextLength, a.PromptTokens)
	}

	// Charged, substantial response: not flagged.
	rec.CompletionChars = 50
	if DetectAnomaly(rec, mdl) != nil {
		t.Error("substantial response flagged")
	}

	// No charge, empty response: not flagged.
	free := model.UsageRecord{ModelID: "m", CompletionChars: 0, Succeeded: true}
	if DetectAnomaly(free, mdl) != nil {
		t.Error("uncharged empty response flagged")
	}

	// Just under the threshold, still flagged.
	rec.CompletionChars = anomalyMinChars - 1
	if DetectAnomaly(rec, nil) == nil {
		t.Error("9-char charged response not flagged")
	}
}
