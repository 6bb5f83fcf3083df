package batch

import (
	"time"

	"orbench/internal/model"
	"orbench/internal/usage"
)

// EventKind labels a runner event.
type EventKind string

const (
	EventRunStarted    EventKind = "run_started"
	EventModelStarted  EventKind = "model_started"
	EventModelFinished EventKind = "model_finished"
	EventAnomaly       EventKind = "anomaly"
	EventRunFinished   EventKind = "run_finished"
)

// Event is one progress notification from a batch run. Fields beyond Kind,
// RunID, and Timestamp are populated per kind.
type Event struct {
	Kind      EventKind
	RunID     string
	Timestamp time.Time

	Index   int // zero-based position within the run
	Total   int
	ModelID string

	Record  model.UsageRecord  // EventModelFinished
	Anomaly *usage.Anomaly     // EventAnomaly
	Summary model.BatchSummary // EventRunFinished
}

// Sink consumes runner events. Called on the runner's goroutine, in order;
// implementations must not block for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(e Event) { f(e) }

type multiSink []Sink

func (m multiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}
