// Package batch orchestrates sequential prompt runs across a model list,
// isolating per-model failures and emitting progress events.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"orbench/internal/model"
	"orbench/internal/openrouter"
	"orbench/internal/usage"

	"github.com/google/uuid"
)

var (
	// ErrNoModels indicates an empty run selection.
	ErrNoModels = errors.New("batch: no models selected")
	// ErrNoPrompt indicates a missing user prompt.
	ErrNoPrompt = errors.New("batch: user prompt is empty")
	// ErrImageModel indicates an image generator in the run selection.
	ErrImageModel = errors.New("batch: image models cannot be run")
)

// Invoker issues one chat completion. *openrouter.Client satisfies it.
type Invoker interface {
	Chat(ctx context.Context, req openrouter.ChatRequest) (openrouter.ChatResult, error)
}

// Template is the request shape applied to every model in a run.
type Template struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	TopP         float64
	TopK         int
	MaxTokens    int
	Reasoning    bool
}

// Validate checks the caller-side requirements before a run starts.
func (t Template) Validate() error {
	if strings.TrimSpace(t.UserPrompt) == "" {
		return ErrNoPrompt
	}
	return nil
}

// Runner executes one batch at a time against a fixed invoker and
// conversion rate.
type Runner struct {
	invoker   Invoker
	converter *usage.Converter
	catalog   map[string]model.Model // anomaly diagnostics, optional
}

// New creates a runner. catalog supplies per-model metadata for anomaly
// diagnostics and may be nil.
func New(invoker Invoker, converter *usage.Converter, catalog []model.Model) *Runner {
	byID := make(map[string]model.Model, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}
	return &Runner{invoker: invoker, converter: converter, catalog: byID}
}

// Run executes the template against modelIDs strictly in input order, one
// model at a time. An invocation failure becomes a failed record and the
// run continues; a single model never aborts the batch. Cancellation is
// cooperative: checked once per iteration between models, never preempting
// an in-flight request. Records for completed models are always returned,
// along with ctx.Err() when the run was cut short.
func (r *Runner) Run(ctx context.Context, modelIDs []string, tmpl Template, sinks ...Sink) ([]model.UsageRecord, error) {
	if len(modelIDs) == 0 {
		return nil, ErrNoModels
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	for _, id := range modelIDs {
		if model.IsImageModel(id) {
			return nil, fmt.Errorf("%w: %s", ErrImageModel, id)
		}
	}

	runID := uuid.NewString()
	sink := multiSink(sinks)
	total := len(modelIDs)

	sink.Emit(Event{Kind: EventRunStarted, RunID: runID, Timestamp: time.Now(), Total: total})

	// In-flight requests run to completion; only their own timeout applies.
	reqCtx := context.WithoutCancel(ctx)

	records := make([]model.UsageRecord, 0, total)
	for i, id := range modelIDs {
		if ctx.Err() != nil {
			break
		}

		sink.Emit(Event{Kind: EventModelStarted, RunID: runID, Timestamp: time.Now(), Index: i, Total: total, ModelID: id})

		start := time.Now()
		result, err := r.invoker.Chat(reqCtx, openrouter.ChatRequest{
			Model:        id,
			SystemPrompt: tmpl.SystemPrompt,
			UserPrompt:   tmpl.UserPrompt,
			Temperature:  tmpl.Temperature,
			TopP:         tmpl.TopP,
			TopK:         tmpl.TopK,
			MaxTokens:    tmpl.MaxTokens,
			Reasoning:    tmpl.Reasoning,
		})
		elapsed := time.Since(start)

		var rec model.UsageRecord
		if err != nil {
			rec = model.FailedRecord(id, err.Error(), elapsed)
		} else {
			rec = r.converter.Normalize(result.Usage, usage.Invocation{
				ModelID:         id,
				CompletionChars: utf8.RuneCountInString(result.Content),
				Elapsed:         elapsed,
			})
		}
		records = append(records, rec)

		sink.Emit(Event{Kind: EventModelFinished, RunID: runID, Timestamp: time.Now(), Index: i, Total: total, ModelID: id, Record: rec})

		if rec.Succeeded {
			if a := usage.DetectAnomaly(rec, r.modelFor(id)); a != nil {
				sink.Emit(Event{Kind: EventAnomaly, RunID: runID, Timestamp: time.Now(), Index: i, Total: total, ModelID: id, Anomaly: a})
			}
		}
	}

	summary := r.converter.Summarize(records)
	sink.Emit(Event{Kind: EventRunFinished, RunID: runID, Timestamp: time.Now(), Total: total, Summary: summary})

	return records, ctx.Err()
}

func (r *Runner) modelFor(id string) *model.Model {
	if m, ok := r.catalog[id]; ok {
		return &m
	}
	return nil
}
