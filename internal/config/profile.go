package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sanitization bounds applied when loading a profile.
const (
	maxSelectedModels = 100
	maxPromptChars    = 5000
	maxSkipKeywords   = 200
	topKCap           = 100
	maxTokensCap      = 4096
)

// RunProfile is one saved run setup: connection overrides, catalog filter
// state, sampling parameters, prompts, and the model selection. Stored as a
// single flat JSON object; unknown keys are ignored on load.
type RunProfile struct {
	APIKey             string   `json:"api_key,omitempty"`
	BaseURL            string   `json:"base_url,omitempty"`
	SiteURL            string   `json:"site_url,omitempty"`
	AppTitle           string   `json:"app_title,omitempty"`
	ProxyURL           string   `json:"proxy_url,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"`
	Search             string   `json:"search,omitempty"`
	Sort               string   `json:"sort,omitempty"`
	SkipKeywords       []string `json:"skip_keywords,omitempty"`
	Temperature        float64  `json:"temperature"`
	TopP               float64  `json:"top_p"`
	TopK               int      `json:"top_k"`
	MaxTokens          int      `json:"max_tokens"`
	Reasoning          bool     `json:"reasoning,omitempty"`
	SystemPrompt       string   `json:"system_prompt,omitempty"`
	UserPrompt         string   `json:"user_prompt,omitempty"`
	SelectedModels     []string `json:"selected_models,omitempty"`
}

// ProfilePath returns the default run profile location, next to the config
// file. Explicit profile paths bypass it.
func ProfilePath() string {
	return filepath.Join(ConfigDir(), "profile.json")
}

// DefaultProfile seeds a profile with the config's sampling defaults, so
// keys absent from a loaded file fall back to them.
func DefaultProfile(cfg Config) RunProfile {
	return RunProfile{
		Temperature: cfg.Defaults.Temperature,
		TopP:        cfg.Defaults.TopP,
		TopK:        cfg.Defaults.TopK,
		MaxTokens:   cfg.Defaults.MaxTokens,
	}
}

// LoadProfile reads a profile file and sanitizes it: selection and keyword
// lists are truncated, prompts capped, sampling parameters clamped into
// their valid ranges. A malformed file is an error; out-of-range values
// are not.
func LoadProfile(path string, cfg Config) (RunProfile, error) {
	p := DefaultProfile(cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading profile: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing profile: %w", err)
	}

	p.sanitize()
	return p, nil
}

// SaveProfile writes the profile as indented JSON. The file may hold an
// API key, so it is created 0600.
func SaveProfile(path string, p RunProfile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

func (p *RunProfile) sanitize() {
	p.APIKey = strings.TrimSpace(p.APIKey)

	if p.ProxyURL != "" && !strings.HasPrefix(p.ProxyURL, "http://") && !strings.HasPrefix(p.ProxyURL, "https://") {
		p.ProxyURL = ""
	}

	switch p.Sort {
	case "", "id", "price", "context":
	default:
		p.Sort = ""
	}

	p.SkipKeywords = cleanList(p.SkipKeywords, maxSkipKeywords)
	p.SelectedModels = cleanList(p.SelectedModels, maxSelectedModels)

	p.Temperature = clampFloat(p.Temperature, 0, 2)
	p.TopP = clampFloat(p.TopP, 0, 1)
	p.TopK = clampInt(p.TopK, 1, topKCap)
	p.MaxTokens = clampInt(p.MaxTokens, 1, maxTokensCap)

	p.SystemPrompt = truncateRunes(p.SystemPrompt, maxPromptChars)
	p.UserPrompt = truncateRunes(p.UserPrompt, maxPromptChars)
}

// cleanList trims entries, drops blanks, and truncates to limit.
func cleanList(in []string, limit int) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
