package batch

import (
	"fmt"
	"io"
	"time"
)

// Transcript is a Sink writing a plain-text run log: one line per model
// outcome, anomalies inline, summary block at the end. Events arrive on a
// single goroutine, so no locking is needed.
type Transcript struct {
	w    io.Writer
	code string // converted currency label
}

// NewTranscript creates a transcript writer. code labels converted amounts.
func NewTranscript(w io.Writer, code string) *Transcript {
	return &Transcript{w: w, code: code}
}

// Emit writes one event to the transcript.
func (t *Transcript) Emit(e Event) {
	switch e.Kind {
	case EventRunStarted:
		fmt.Fprintf(t.w, "=== run %s at %s, %d models ===\n",
			e.RunID, e.Timestamp.Format(time.RFC3339), e.Total)

	case EventModelFinished:
		r := e.Record
		if r.Succeeded {
			fmt.Fprintf(t.w, "[%d/%d] %s: ok, %d tokens, $%s (%s %s), %.1fs\n",
				e.Index+1, e.Total, e.ModelID, r.TotalTokens,
				r.CostUSD.StringFixed(6), r.CostConverted.StringFixed(4), t.code,
				r.Elapsed.Seconds())
		} else {
			fmt.Fprintf(t.w, "[%d/%d] %s: failed: %s\n",
				e.Index+1, e.Total, e.ModelID, r.ErrorMessage)
		}

	case EventAnomaly:
		a := e.Anomaly
		if a == nil {
			return
		}
		fmt.Fprintf(t.w, "anomaly: %s charged $%s for a %d-char response",
			a.ModelID, a.CostUSD.StringFixed(6), a.CompletionChars)
		if a.ContextLength > 0 {
			fmt.Fprintf(t.w, " (context %d, prompt tokens %d)", a.ContextLength, a.PromptTokens)
		}
		fmt.Fprintln(t.w)

	case EventRunFinished:
		s := e.Summary
		fmt.Fprintf(t.w, "--- summary ---\n")
		fmt.Fprintf(t.w, "records: %d (%d failed)\n", s.Records, s.Failures)
		fmt.Fprintf(t.w, "tokens: %d (prompt %d, completion %d)\n",
			s.TotalTokens, s.TotalPromptTokens, s.TotalCompletionTokens)
		fmt.Fprintf(t.w, "total cost: $%s (%s %s)\n",
			s.TotalCostUSD.StringFixed(6), s.TotalCostConverted.StringFixed(4), t.code)
		fmt.Fprintf(t.w, "avg cost/request: $%s\n", s.AvgCostUSD.StringFixed(6))
		if s.RequestsPerDollar.IsPositive() {
			fmt.Fprintf(t.w, "requests per $1: %s\n", s.RequestsPerDollar.StringFixed(0))
		}
	}
}
