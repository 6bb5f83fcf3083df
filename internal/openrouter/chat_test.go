package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

const chatFixture = `{
  "choices": [{"message": {"role": "assistant", "content": "hello there"}}],
  "usage": {
    "prompt_tokens": 12,
    "completion_tokens": 4,
    "total_tokens": 16,
    "cost": 0.00123,
    "cost_details": {
      "upstream_inference_prompt_cost": 0.0009,
      "upstream_inference_completions_cost": 0.00033
    }
  }
}`

func TestChatClampsAndOmitsBlankSystem(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Write([]byte(chatFixture))
	})

	result, err := c.Chat(context.Background(), ChatRequest{
		Model:        "openai/gpt-4o",
		SystemPrompt: "   ",
		UserPrompt:   "hi",
		Temperature:  5.0,
		TopP:         -0.5,
		TopK:         0,
		MaxTokens:    -10,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Content != "hello there" {
		t.Errorf("Content = %q, want %q", result.Content, "hello there")
	}

	if got := captured["temperature"].(float64); got != 2.0 {
		t.Errorf("temperature = %v, want clamped 2.0", got)
	}
	if got := captured["top_p"].(float64); got != 0.0 {
		t.Errorf("top_p = %v, want clamped 0.0", got)
	}
	if got := captured["top_k"].(float64); got != 1 {
		t.Errorf("top_k = %v, want clamped 1", got)
	}
	if got := captured["max_tokens"].(float64); got != 1 {
		t.Errorf("max_tokens = %v, want clamped 1", got)
	}

	msgs := captured["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("blank system prompt produced %d messages, want 1", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "user" {
		t.Errorf("messages[0].role = %v, want user", first["role"])
	}

	usage := captured["usage"].(map[string]any)
	if usage["include"] != true {
		t.Error("usage.include not requested")
	}
	if _, present := captured["reasoning"]; present {
		t.Error("reasoning block sent without being requested")
	}
}

func TestChatSystemAndReasoning(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Write([]byte(chatFixture))
	})

	_, err := c.Chat(context.Background(), ChatRequest{
		Model:        "deepseek/deepseek-r1",
		SystemPrompt: "be brief",
		UserPrompt:   "hi",
		Temperature:  0.7,
		TopP:         0.95,
		TopK:         40,
		MaxTokens:    1024,
		Reasoning:    true,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	msgs := captured["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want system + user", len(msgs))
	}
	if role := msgs[0].(map[string]any)["role"]; role != "system" {
		t.Errorf("messages[0].role = %v, want system", role)
	}

	reasoning, ok := captured["reasoning"].(map[string]any)
	if !ok || reasoning["enabled"] != true {
		t.Errorf("reasoning = %v, want {enabled: true}", captured["reasoning"])
	}
}

func TestChatUsagePayload(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatFixture))
	})

	result, err := c.Chat(context.Background(), ChatRequest{Model: "m", UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	u := result.Usage
	if u.PromptTokens != 12 || u.CompletionTokens != 4 || u.TotalTokens != 16 {
		t.Errorf("tokens = (%d, %d, %d), want (12, 4, 16)", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	}
	if string(u.Cost) != "0.00123" {
		t.Errorf("raw cost = %s, want the wire literal 0.00123", u.Cost)
	}
	if u.CostDetails == nil {
		t.Fatal("cost_details missing")
	}
	if string(u.CostDetails.PromptCost) != "0.0009" {
		t.Errorf("raw prompt cost = %s, want 0.0009", u.CostDetails.PromptCost)
	}
}

func TestChatEmptyChoices(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": [], "usage": {"total_tokens": 0}}`))
	})

	_, err := c.Chat(context.Background(), ChatRequest{Model: "m", UserPrompt: "hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestChatRateLimited(t *testing.T) {
	c := newTestClient(t, "sk-or-v1-test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Chat(context.Background(), ChatRequest{Model: "m", UserPrompt: "hi"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}
