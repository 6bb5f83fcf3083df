package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIsReasoningCapable(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"deepseek/deepseek-r1-distill", true},
		{"openai/gpt-4o", false},
		{"qwen/qwq-32b", true},
		{"google/gemini-2.0-flash", false},
		{"Perplexity/Sonar-Reasoning", true},
	}
	for _, tc := range cases {
		if got := IsReasoningCapable(tc.id); got != tc.want {
			t.Errorf("IsReasoningCapable(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestIsImageModel(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"black-forest-labs/flux-pro", true},
		{"openai/dall-e-3", true},
		{"stability/sd-xl", true},
		{"anthropic/claude-3-opus", false},
		{"mistralai/mistral-large", false},
	}
	for _, tc := range cases {
		if got := IsImageModel(tc.id); got != tc.want {
			t.Errorf("IsImageModel(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestIsFree(t *testing.T) {
	free := Model{ID: "test/free"}
	if !free.IsFree() {
		t.Error("model with all-zero prices not reported free")
	}

	paid := Model{ID: "test/paid", PromptPrice: decimal.RequireFromString("0.0000004")}
	if paid.IsFree() {
		t.Error("model with a positive prompt price reported free")
	}
}

func TestBalanceSnapshotRemaining(t *testing.T) {
	s := NewBalanceSnapshot(
		decimal.RequireFromString("10"),
		decimal.RequireFromString("2.5"),
		time.Now(),
	)
	if !s.Remaining.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("Remaining = %s, want 7.5", s.Remaining)
	}

	pct, ok := s.PercentRemaining()
	if !ok {
		t.Fatal("PercentRemaining not ok for non-zero limit")
	}
	if !pct.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("PercentRemaining = %s, want 75", pct)
	}
}

func TestPercentRemainingZeroLimit(t *testing.T) {
	s := NewBalanceSnapshot(decimal.Zero, decimal.RequireFromString("1.25"), time.Now())
	if _, ok := s.PercentRemaining(); ok {
		t.Fatal("PercentRemaining ok for zero limit, want omitted")
	}
}
