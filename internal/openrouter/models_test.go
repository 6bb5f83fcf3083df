package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

// newTestClient builds a client pointed at a throwaway server.
func newTestClient(t *testing.T, key string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(key, Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

const modelsFixture = `{
  "data": [
    {"id": "openai/gpt-4-vision", "name": "GPT-4 Vision",
     "architecture": {"modality": "text+image"},
     "pricing": {"prompt": "0.00001", "completion": "0.00003"},
     "context_length": 128000},
    {"id": "anthropic/claude-3", "description": "flagship",
     "pricing": {"prompt": "0.000003", "completion": "0.000015"},
     "context_length": 200000},
    {"id": "openai/embedding-ada",
     "pricing": {"prompt": "0.0000001", "completion": "0"}},
    {"id": "suno/audio-bark"},
    {"id": "meta/llama-guard-2"},
    {"id": "ai/visiononly", "architecture": {"modality": "image"}},
    {"id": "deepseek/deepseek-r1", "pricing": {"prompt": "0", "completion": "0"}}
  ]
}`

func TestListModelsFiltersAndSorts(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		w.Write([]byte(modelsFixture))
	})

	models, err := c.ListModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}

	wantIDs := []string{"anthropic/claude-3", "deepseek/deepseek-r1", "openai/gpt-4-vision"}
	if len(models) != len(wantIDs) {
		t.Fatalf("got %d models, want %d", len(models), len(wantIDs))
	}
	for i, want := range wantIDs {
		if models[i].ID != want {
			t.Errorf("models[%d].ID = %q, want %q", i, models[i].ID, want)
		}
	}

	claude := models[0]
	if claude.Name != "anthropic/claude-3" {
		t.Errorf("missing name should default to ID, got %q", claude.Name)
	}
	if !claude.PromptPrice.Equal(decimal.RequireFromString("0.000003")) {
		t.Errorf("PromptPrice = %s, want 0.000003", claude.PromptPrice)
	}
	if claude.ContextLength != 200000 {
		t.Errorf("ContextLength = %d, want 200000", claude.ContextLength)
	}

	r1 := models[1]
	if !r1.Reasoning {
		t.Error("deepseek-r1 not flagged reasoning-capable")
	}
	if !r1.IsFree() {
		t.Error("zero-priced deepseek-r1 not reported free")
	}
}

func TestListModelsExtraSkipKeywords(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": [{"id": "xai/grok-2"}, {"id": "openai/gpt-4o"}]}`))
	})

	models, err := c.ListModels(context.Background(), []string{"GROK"})
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0].ID != "openai/gpt-4o" {
		t.Fatalf("extra skip keyword not applied, got %+v", models)
	}
}

func TestListModelsUnauthorized(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-bad", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.ListModels(context.Background(), nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestListModelsMalformed(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": [`))
	})

	_, err := c.ListModels(context.Background(), nil)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestAttributionHeaders(t *testing.T) {
	var gotReferer, gotTitle string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		w.Write([]byte(`{"data": []}`))
	}

	srv := httptest.NewServer(http.HandlerFunc(handler))
	defer srv.Close()

	c, err := NewClient("sk-or-v1-abc123", Options{
		BaseURL:  srv.URL,
		SiteURL:  "https://example.com/orbench",
		AppTitle: "orbench",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.ListModels(context.Background(), nil); err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if gotReferer != "https://example.com/orbench" || gotTitle != "orbench" {
		t.Errorf("attribution headers = (%q, %q), want them set", gotReferer, gotTitle)
	}

	// Local proxy keys must not leak attribution headers.
	local, err := NewClient("sk-or-v1-local-xyz", Options{
		BaseURL:  srv.URL,
		SiteURL:  "https://example.com/orbench",
		AppTitle: "orbench",
	})
	if err != nil {
		t.Fatalf("NewClient(local): %v", err)
	}
	if _, err := local.ListModels(context.Background(), nil); err != nil {
		t.Fatalf("ListModels(local): %v", err)
	}
	if gotReferer != "" || gotTitle != "" {
		t.Errorf("local key sent attribution headers (%q, %q), want none", gotReferer, gotTitle)
	}
}

func TestNewClientEmptyKey(t *testing.T) {
	if _, err := NewClient("  ", Options{}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
}
