package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProfileFile(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal profile fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write profile fixture: %v", err)
	}
	return path
}

func TestLoadProfileAppliesCaps(t *testing.T) {
	models := make([]string, 150)
	for i := range models {
		models[i] = "provider/model"
	}
	keywords := make([]string, 250)
	for i := range keywords {
		keywords[i] = "kw"
	}

	path := writeProfileFile(t, map[string]any{
		"selected_models": models,
		"skip_keywords":   keywords,
		"system_prompt":   strings.Repeat("s", 6000),
		"user_prompt":     strings.Repeat("u", 6000),
		"temperature":     5.0,
		"top_p":           -0.5,
		"top_k":           500,
		"max_tokens":      100000,
	})

	p, err := LoadProfile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	if len(p.SelectedModels) != maxSelectedModels {
		t.Errorf("SelectedModels len = %d, want %d", len(p.SelectedModels), maxSelectedModels)
	}
	if len(p.SkipKeywords) != maxSkipKeywords {
		t.Errorf("SkipKeywords len = %d, want %d", len(p.SkipKeywords), maxSkipKeywords)
	}
	if got := len([]rune(p.SystemPrompt)); got != maxPromptChars {
		t.Errorf("SystemPrompt len = %d, want %d", got, maxPromptChars)
	}
	if got := len([]rune(p.UserPrompt)); got != maxPromptChars {
		t.Errorf("UserPrompt len = %d, want %d", got, maxPromptChars)
	}
	if p.Temperature != 2 {
		t.Errorf("Temperature = %g, want clamped 2", p.Temperature)
	}
	if p.TopP != 0 {
		t.Errorf("TopP = %g, want clamped 0", p.TopP)
	}
	if p.TopK != topKCap {
		t.Errorf("TopK = %d, want clamped %d", p.TopK, topKCap)
	}
	if p.MaxTokens != maxTokensCap {
		t.Errorf("MaxTokens = %d, want clamped %d", p.MaxTokens, maxTokensCap)
	}
}

func TestLoadProfileSeedsSamplingDefaults(t *testing.T) {
	path := writeProfileFile(t, map[string]any{
		"user_prompt": "say hello",
	})

	p, err := LoadProfile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	if p.UserPrompt != "say hello" {
		t.Errorf("UserPrompt = %q", p.UserPrompt)
	}
	if p.Temperature != 0.7 || p.TopP != 0.95 || p.TopK != 40 || p.MaxTokens != 1024 {
		t.Errorf("sampling = (%g, %g, %d, %d), want config defaults",
			p.Temperature, p.TopP, p.TopK, p.MaxTokens)
	}
}

func TestLoadProfileIgnoresUnknownKeys(t *testing.T) {
	path := writeProfileFile(t, map[string]any{
		"user_prompt":   "hi",
		"proxy_enabled": true,
		"show_pricing":  false,
		"sort_type":     "input",
	})

	p, err := LoadProfile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadProfile rejected unknown keys: %v", err)
	}
	if p.UserPrompt != "hi" {
		t.Errorf("UserPrompt = %q", p.UserPrompt)
	}
}

func TestLoadProfileValidatesProxyAndSort(t *testing.T) {
	path := writeProfileFile(t, map[string]any{
		"proxy_url": "socks5://127.0.0.1:1080",
		"sort":      "cost",
	})

	p, err := LoadProfile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.ProxyURL != "" {
		t.Errorf("ProxyURL = %q, want cleared for non-http scheme", p.ProxyURL)
	}
	if p.Sort != "" {
		t.Errorf("Sort = %q, want cleared for unknown mode", p.Sort)
	}

	path = writeProfileFile(t, map[string]any{
		"proxy_url": "http://127.0.0.1:8080",
		"sort":      "price",
	})
	p, err = LoadProfile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.ProxyURL != "http://127.0.0.1:8080" || p.Sort != "price" {
		t.Errorf("(ProxyURL, Sort) = (%q, %q), want kept", p.ProxyURL, p.Sort)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")

	saved := RunProfile{
		APIKey:         "sk-or-v1-abc",
		Search:         "claude",
		Sort:           "context",
		SkipKeywords:   []string{"grok"},
		Temperature:    1.1,
		TopP:           0.9,
		TopK:           20,
		MaxTokens:      512,
		Reasoning:      true,
		SystemPrompt:   "be terse",
		UserPrompt:     "ping",
		SelectedModels: []string{"openai/gpt-4o", "anthropic/claude-3"},
	}
	if err := SaveProfile(path, saved); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	loaded, err := LoadProfile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	if loaded.APIKey != saved.APIKey || loaded.Sort != saved.Sort || !loaded.Reasoning {
		t.Errorf("round trip mutated scalar fields: %+v", loaded)
	}
	if loaded.Temperature != 1.1 || loaded.TopK != 20 || loaded.MaxTokens != 512 {
		t.Errorf("round trip mutated sampling: %+v", loaded)
	}
	if len(loaded.SelectedModels) != 2 || loaded.SelectedModels[0] != "openai/gpt-4o" {
		t.Errorf("round trip mutated selection: %v", loaded.SelectedModels)
	}
}

func TestLoadProfileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadProfile(path, DefaultConfig()); err == nil {
		t.Fatal("LoadProfile accepted malformed JSON")
	}
}
