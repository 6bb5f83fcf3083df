// Package balance tracks account balance snapshots across a session,
// deriving spend deltas between checks, with an optional polling watcher.
package balance

import (
	"context"
	"sync"
	"time"

	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

// KeyClient fetches the current key balance. *openrouter.Client satisfies it.
type KeyClient interface {
	KeyInfo(ctx context.Context) (model.BalanceSnapshot, error)
}

// Delta is the change between two balance snapshots. Spent is positive when
// the remaining balance went down.
type Delta struct {
	Spent   decimal.Decimal
	Percent decimal.Decimal // share of the base snapshot's remaining, in percent
	Elapsed time.Duration
}

func (d Delta) isZero() bool {
	return d.Spent.IsZero()
}

// diffSnapshots computes the spend between base and curr. The percentage
// base is the earlier remaining balance; a zero or negative base reports 0
// rather than dividing.
func diffSnapshots(base, curr model.BalanceSnapshot) Delta {
	d := Delta{
		Spent:   base.Remaining.Sub(curr.Remaining),
		Elapsed: curr.CapturedAt.Sub(base.CapturedAt),
	}
	if base.Remaining.IsPositive() {
		d.Percent = d.Spent.Div(base.Remaining).Mul(decimal.NewFromInt(100))
	}
	return d
}

// Tracker records one session's balance checks in order. The first check
// establishes the session baseline; later checks diff against their
// predecessor and against the baseline. Safe for concurrent use.
type Tracker struct {
	client KeyClient

	mu    sync.RWMutex
	snaps []model.BalanceSnapshot
}

// NewTracker creates an empty tracker backed by client.
func NewTracker(client KeyClient) *Tracker {
	return &Tracker{client: client}
}

// Check fetches the current balance and appends it to the session sequence.
// A failed check records nothing.
func (t *Tracker) Check(ctx context.Context) (model.BalanceSnapshot, error) {
	snap, err := t.client.KeyInfo(ctx)
	if err != nil {
		return model.BalanceSnapshot{}, err
	}

	t.mu.Lock()
	t.snaps = append(t.snaps, snap)
	t.mu.Unlock()

	return snap, nil
}

// Checks reports how many snapshots the session holds.
func (t *Tracker) Checks() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snaps)
}

// Latest returns the most recent snapshot, if any.
func (t *Tracker) Latest() (model.BalanceSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.snaps) == 0 {
		return model.BalanceSnapshot{}, false
	}
	return t.snaps[len(t.snaps)-1], true
}

// Initial returns the session's first snapshot, if any.
func (t *Tracker) Initial() (model.BalanceSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.snaps) == 0 {
		return model.BalanceSnapshot{}, false
	}
	return t.snaps[0], true
}

// History returns a copy of the session snapshots in check order.
func (t *Tracker) History() []model.BalanceSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.BalanceSnapshot, len(t.snaps))
	copy(out, t.snaps)
	return out
}

// DeltaSinceLast diffs the two most recent snapshots. ok is false until the
// session has at least two checks.
func (t *Tracker) DeltaSinceLast() (Delta, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.snaps)
	if n < 2 {
		return Delta{}, false
	}
	return diffSnapshots(t.snaps[n-2], t.snaps[n-1]), true
}

// DeltaSinceInitial diffs the latest snapshot against the session's first.
func (t *Tracker) DeltaSinceInitial() (Delta, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.snaps)
	if n < 2 {
		return Delta{}, false
	}
	return diffSnapshots(t.snaps[0], t.snaps[n-1]), true
}
