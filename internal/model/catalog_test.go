package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func catalogFixture() []Model {
	return []Model{
		{ID: "openai/gpt-4o", Name: "GPT-4o", ContextLength: 128_000, PromptPrice: decimal.RequireFromString("0.0000025")},
		{ID: "anthropic/claude-3", Name: "Claude 3 Opus", ContextLength: 200_000, PromptPrice: decimal.RequireFromString("0.000015")},
		{ID: "meta-llama/llama-3-8b", Name: "Llama 3 8B", ContextLength: 8_192},
		{ID: "google/gemini-pro", Name: "Gemini Pro", ContextLength: 1_000_000, PromptPrice: decimal.RequireFromString("0.0000025")},
	}
}

func TestSearchMatchesIDAndName(t *testing.T) {
	models := catalogFixture()

	got := Search(models, "OPUS")
	if len(got) != 1 || got[0].ID != "anthropic/claude-3" {
		t.Fatalf("Search(OPUS) = %v, want the claude-3 entry by name", ids(got))
	}

	got = Search(models, "llama")
	if len(got) != 1 || got[0].ID != "meta-llama/llama-3-8b" {
		t.Fatalf("Search(llama) = %v", ids(got))
	}

	if got := Search(models, ""); len(got) != len(models) {
		t.Fatalf("empty query returned %d models, want all %d", len(got), len(models))
	}
	if got := Search(models, "no-such-model"); len(got) != 0 {
		t.Fatalf("Search(no-such-model) = %v, want none", ids(got))
	}
}

func TestSortModes(t *testing.T) {
	models := catalogFixture()

	byID := Sort(models, SortByID)
	if byID[0].ID != "anthropic/claude-3" || byID[3].ID != "openai/gpt-4o" {
		t.Errorf("SortByID order = %v", ids(byID))
	}

	byPrice := Sort(models, SortByPrice)
	if byPrice[0].ID != "anthropic/claude-3" {
		t.Errorf("SortByPrice[0] = %s, want the priciest model", byPrice[0].ID)
	}
	// Equal prices tie-break by ID.
	if byPrice[1].ID != "google/gemini-pro" || byPrice[2].ID != "openai/gpt-4o" {
		t.Errorf("SortByPrice tie order = %v", ids(byPrice))
	}
	if byPrice[3].ID != "meta-llama/llama-3-8b" {
		t.Errorf("SortByPrice last = %s, want the free model", byPrice[3].ID)
	}

	byContext := Sort(models, SortByContext)
	if byContext[0].ID != "google/gemini-pro" || byContext[3].ID != "meta-llama/llama-3-8b" {
		t.Errorf("SortByContext order = %v", ids(byContext))
	}

	// Sorting works on a copy.
	if models[0].ID != "openai/gpt-4o" {
		t.Error("Sort mutated its input")
	}
}

func ids(models []Model) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.ID
	}
	return out
}
