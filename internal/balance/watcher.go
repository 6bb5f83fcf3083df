package balance

import (
	"context"
	"sync"
	"time"

	"orbench/internal/model"
)

// Config controls the watcher runtime behavior.
type Config struct {
	Interval     time.Duration
	EventsBuffer int
}

// Event is emitted on the first snapshot of a session and whenever a poll
// detects spend.
type Event struct {
	ID        int64
	Type      string // "snapshot" or "spend"
	Timestamp time.Time
	Snapshot  model.BalanceSnapshot
	Delta     Delta
}

// Status is a point-in-time view of the watcher state.
type Status struct {
	StartedAt   time.Time
	LastPollAt  time.Time
	PollCount   int64
	LastError   string
	HasSnapshot bool
	Snapshot    model.BalanceSnapshot
	Checks      int
	EventCount  int
	Subscribers int
}

// Watcher polls the tracker on a fixed interval, keeps a bounded event
// history, and fans events out to subscribers. One goroutine per watcher.
type Watcher struct {
	cfg     Config
	tracker *Tracker

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

// NewWatcher creates a watcher over tracker with the provided config.
func NewWatcher(tracker *Tracker, cfg Config) *Watcher {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 120
	}

	return &Watcher{
		cfg:       cfg,
		tracker:   tracker,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
		stop:      make(chan struct{}),
	}
}

// Start begins polling in the background. The first poll runs immediately,
// then one per interval. Calling Start again has no effect.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

// Stop halts polling. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Watcher) run(ctx context.Context) {
	w.pollOnce(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) {
	prev, hadPrev := w.tracker.Latest()

	snap, err := w.tracker.Check(ctx)
	now := time.Now()

	w.mu.Lock()
	w.lastPollAt = now
	w.pollCount++
	if err != nil {
		w.lastError = err.Error()
		w.mu.Unlock()
		return
	}
	w.lastError = ""
	w.mu.Unlock()

	if !hadPrev {
		w.publish(Event{Type: "snapshot", Timestamp: now, Snapshot: snap})
		return
	}

	delta := diffSnapshots(prev, snap)
	if delta.isZero() {
		return
	}
	w.publish(Event{Type: "spend", Timestamp: now, Snapshot: snap, Delta: delta})
}

func (w *Watcher) publish(ev Event) {
	w.mu.Lock()
	w.nextEventID++
	ev.ID = w.nextEventID
	w.events = append(w.events, ev)
	if len(w.events) > w.cfg.EventsBuffer {
		w.events = w.events[len(w.events)-w.cfg.EventsBuffer:]
	}

	for _, ch := range w.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	w.mu.Unlock()
}

// Subscribe registers ch for future events and returns an id for
// Unsubscribe. A full subscriber channel drops events rather than blocking
// the poll loop.
func (w *Watcher) Subscribe(ch chan Event) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextSubID++
	id := w.nextSubID
	w.subs[id] = ch
	return id
}

// Unsubscribe removes a subscriber registered with Subscribe.
func (w *Watcher) Unsubscribe(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.subs, id)
}

// Events returns a copy of the buffered event history.
func (w *Watcher) Events() []Event {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

// CurrentStatus reports the watcher state.
func (w *Watcher) CurrentStatus() Status {
	snap, ok := w.tracker.Latest()
	checks := w.tracker.Checks()

	w.mu.RLock()
	defer w.mu.RUnlock()

	return Status{
		StartedAt:   w.startedAt,
		LastPollAt:  w.lastPollAt,
		PollCount:   w.pollCount,
		LastError:   w.lastError,
		HasSnapshot: ok,
		Snapshot:    snap,
		Checks:      checks,
		EventCount:  len(w.events),
		Subscribers: len(w.subs),
	}
}
