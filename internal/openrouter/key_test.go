package openrouter

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKeyInfoPrimaryEndpoint(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/key" {
			t.Errorf("path = %q, want /key", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"limit": 10, "usage": 2.5}}`))
	})

	snap, err := c.KeyInfo(context.Background())
	if err != nil {
		t.Fatalf("KeyInfo: %v", err)
	}
	if !snap.Limit.Equal(decimal.RequireFromString("10")) {
		t.Errorf("Limit = %s, want 10", snap.Limit)
	}
	if !snap.Usage.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Usage = %s, want 2.5", snap.Usage)
	}
	if !snap.Remaining.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("Remaining = %s, want 7.5", snap.Remaining)
	}
}

func TestKeyInfoFallsBackToAuthKey(t *testing.T) {
	var paths []string
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"data": {"limit": 5, "usage": 1}}`))
	})

	snap, err := c.KeyInfo(context.Background())
	if err != nil {
		t.Fatalf("KeyInfo: %v", err)
	}
	if len(paths) != 2 || paths[1] != "/auth/key" {
		t.Fatalf("probe order = %v, want [/key /auth/key]", paths)
	}
	if !snap.Remaining.Equal(decimal.RequireFromString("4")) {
		t.Errorf("Remaining = %s, want 4", snap.Remaining)
	}
}

func TestKeyInfoNullLimit(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": {"limit": null, "usage": 3.25}}`))
	})

	snap, err := c.KeyInfo(context.Background())
	if err != nil {
		t.Fatalf("KeyInfo: %v", err)
	}
	if !snap.Limit.IsZero() {
		t.Errorf("null limit parsed as %s, want zero", snap.Limit)
	}
	if _, ok := snap.PercentRemaining(); ok {
		t.Error("PercentRemaining ok for null limit, want omitted")
	}
}
