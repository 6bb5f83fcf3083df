package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWatcherPublishesOnChange(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Remaining over the three polls: 8, then 8 again, then 7.
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{snap: snapAt(t, "10", "2", base)},
		{snap: snapAt(t, "10", "2", base.Add(time.Minute))},
		{snap: snapAt(t, "10", "3", base.Add(2*time.Minute))},
	}})
	w := NewWatcher(tr, Config{Interval: time.Minute})

	ctx := context.Background()
	w.pollOnce(ctx)
	w.pollOnce(ctx)
	w.pollOnce(ctx)

	events := w.Events()
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2 (unchanged poll stays silent)", len(events))
	}
	if events[0].Type != "snapshot" || events[1].Type != "spend" {
		t.Fatalf("event types = [%s, %s], want [snapshot, spend]", events[0].Type, events[1].Type)
	}
	if events[0].ID != 1 || events[1].ID != 2 {
		t.Fatalf("event IDs = [%d, %d], want [1, 2]", events[0].ID, events[1].ID)
	}
	if !events[1].Delta.Spent.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("spend Delta.Spent = %s, want 1", events[1].Delta.Spent)
	}

	st := w.CurrentStatus()
	if st.PollCount != 3 {
		t.Errorf("PollCount = %d, want 3", st.PollCount)
	}
	if st.Checks != 3 {
		t.Errorf("Checks = %d, want 3", st.Checks)
	}
	if !st.HasSnapshot {
		t.Error("HasSnapshot = false after successful polls")
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want empty", st.LastError)
	}
}

func TestWatcherPollErrorRecorded(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{err: errors.New("key endpoint unreachable")},
		{snap: snapAt(t, "10", "2", base)},
	}})
	w := NewWatcher(tr, Config{Interval: time.Minute})

	ctx := context.Background()
	w.pollOnce(ctx)

	if st := w.CurrentStatus(); st.LastError == "" {
		t.Fatal("LastError empty after failed poll")
	}
	if len(w.Events()) != 0 {
		t.Fatal("failed poll published an event")
	}

	w.pollOnce(ctx)

	st := w.CurrentStatus()
	if st.LastError != "" {
		t.Fatalf("LastError = %q after recovery, want empty", st.LastError)
	}
	if st.PollCount != 2 {
		t.Fatalf("PollCount = %d, want 2", st.PollCount)
	}
	if len(w.Events()) != 1 {
		t.Fatalf("events len = %d after recovery, want 1", len(w.Events()))
	}
}

func TestWatcherRingBuffer(t *testing.T) {
	w := NewWatcher(NewTracker(&fakeKeyClient{}), Config{Interval: time.Minute, EventsBuffer: 2})

	w.publish(Event{Type: "spend"})
	w.publish(Event{Type: "spend"})
	w.publish(Event{Type: "spend"})

	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(w.events))
	}
	if w.events[0].ID != 2 || w.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", w.events[0].ID, w.events[1].ID)
	}
}

func TestWatcherSubscriberNeverBlocks(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Remaining drops on every poll, so each poll after the first publishes.
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{snap: snapAt(t, "10", "1", base)},
		{snap: snapAt(t, "10", "2", base.Add(time.Minute))},
		{snap: snapAt(t, "10", "3", base.Add(2*time.Minute))},
	}})
	w := NewWatcher(tr, Config{Interval: time.Minute})

	ch := make(chan Event, 1)
	id := w.Subscribe(ch)

	ctx := context.Background()
	w.pollOnce(ctx)
	w.pollOnce(ctx) // channel already full; event drops instead of blocking

	if got := len(ch); got != 1 {
		t.Fatalf("subscriber channel holds %d events, want 1", got)
	}
	ev := <-ch
	if ev.Type != "snapshot" {
		t.Fatalf("first delivered event type = %s, want snapshot", ev.Type)
	}

	w.Unsubscribe(id)
	w.pollOnce(ctx)
	if got := len(ch); got != 0 {
		t.Fatalf("unsubscribed channel received %d events", got)
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{snap: snapAt(t, "10", "2", base)},
	}})
	w := NewWatcher(tr, Config{Interval: time.Minute})

	w.Start(context.Background())
	w.Stop()
	w.Stop()
}
