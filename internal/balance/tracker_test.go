package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"orbench/internal/model"

	"github.com/shopspring/decimal"
)

type keyResult struct {
	snap model.BalanceSnapshot
	err  error
}

// fakeKeyClient replays scripted results, repeating the last one when
// exhausted.
type fakeKeyClient struct {
	results []keyResult
	calls   int
}

func (f *fakeKeyClient) KeyInfo(context.Context) (model.BalanceSnapshot, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	r := f.results[i]
	return r.snap, r.err
}

func snapAt(t *testing.T, limit, usage string, at time.Time) model.BalanceSnapshot {
	t.Helper()
	return model.NewBalanceSnapshot(
		decimal.RequireFromString(limit),
		decimal.RequireFromString(usage),
		at,
	)
}

func mustCheck(t *testing.T, tr *Tracker) model.BalanceSnapshot {
	t.Helper()
	snap, err := tr.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return snap
}

func TestTrackerFirstCheckHasNoDeltas(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{snap: snapAt(t, "10", "2", base)},
	}})

	snap := mustCheck(t, tr)
	if !snap.Remaining.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("Remaining = %s, want 8", snap.Remaining)
	}
	if tr.Checks() != 1 {
		t.Fatalf("Checks = %d, want 1", tr.Checks())
	}
	if _, ok := tr.DeltaSinceLast(); ok {
		t.Fatal("DeltaSinceLast reported ok after a single check")
	}
	if _, ok := tr.DeltaSinceInitial(); ok {
		t.Fatal("DeltaSinceInitial reported ok after a single check")
	}
}

func TestTrackerDeltas(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Remaining over the three checks: 8, then 7.5, then 6.
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{snap: snapAt(t, "10", "2", base)},
		{snap: snapAt(t, "10", "2.5", base.Add(time.Minute))},
		{snap: snapAt(t, "10", "4", base.Add(3*time.Minute))},
	}})

	mustCheck(t, tr)
	mustCheck(t, tr)
	mustCheck(t, tr)

	last, ok := tr.DeltaSinceLast()
	if !ok {
		t.Fatal("DeltaSinceLast not ok after three checks")
	}
	if !last.Spent.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("since-last Spent = %s, want 1.5", last.Spent)
	}
	if !last.Percent.Equal(decimal.RequireFromString("20")) {
		t.Errorf("since-last Percent = %s, want 20", last.Percent)
	}
	if last.Elapsed != 2*time.Minute {
		t.Errorf("since-last Elapsed = %s, want 2m", last.Elapsed)
	}

	initial, ok := tr.DeltaSinceInitial()
	if !ok {
		t.Fatal("DeltaSinceInitial not ok after three checks")
	}
	if !initial.Spent.Equal(decimal.RequireFromString("2")) {
		t.Errorf("since-initial Spent = %s, want 2", initial.Spent)
	}
	if !initial.Percent.Equal(decimal.RequireFromString("25")) {
		t.Errorf("since-initial Percent = %s, want 25", initial.Percent)
	}

	if got := len(tr.History()); got != 3 {
		t.Errorf("History len = %d, want 3", got)
	}
}

func TestDiffSnapshotsZeroBase(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Remaining goes from 0 to -1; only the percentage is suppressed.
	prev := snapAt(t, "5", "5", base)
	curr := snapAt(t, "5", "6", base.Add(time.Minute))

	d := diffSnapshots(prev, curr)
	if !d.Spent.Equal(decimal.RequireFromString("1")) {
		t.Errorf("Spent = %s, want 1", d.Spent)
	}
	if !d.Percent.IsZero() {
		t.Errorf("Percent = %s, want 0 on a zero base", d.Percent)
	}
}

func TestTrackerFailedCheckRecordsNothing(t *testing.T) {
	tr := NewTracker(&fakeKeyClient{results: []keyResult{
		{err: errors.New("boom")},
	}})

	if _, err := tr.Check(context.Background()); err == nil {
		t.Fatal("Check returned nil error")
	}
	if tr.Checks() != 0 {
		t.Fatalf("Checks = %d after failed check, want 0", tr.Checks())
	}
	if _, ok := tr.Latest(); ok {
		t.Fatal("Latest reported ok after failed check")
	}
}
