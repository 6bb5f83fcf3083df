// Package config holds the TOML app configuration and JSON run profiles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Config holds all orbench configuration.
type Config struct {
	Connection ConnectionConfig `toml:"connection"`
	Currency   CurrencyConfig   `toml:"currency"`
	Defaults   DefaultsConfig   `toml:"defaults"`
	Filters    FiltersConfig    `toml:"filters"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// ConnectionConfig holds OpenRouter connection settings.
type ConnectionConfig struct {
	APIKey             string `toml:"api_key,omitempty"`
	BaseURL            string `toml:"base_url,omitempty"`
	SiteURL            string `toml:"site_url,omitempty"`
	AppTitle           string `toml:"app_title,omitempty"`
	ProxyURL           string `toml:"proxy_url,omitempty"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	ChatTimeoutSeconds int    `toml:"chat_timeout_seconds"`
}

// Timeout returns the catalog/balance request timeout.
func (c ConnectionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ChatTimeout returns the chat completion request timeout.
func (c ConnectionConfig) ChatTimeout() time.Duration {
	return time.Duration(c.ChatTimeoutSeconds) * time.Second
}

// CurrencyConfig holds the display currency and its USD exchange rate. The
// rate stays a decimal string end to end; it is parsed exactly, never via
// float64.
type CurrencyConfig struct {
	Code    string `toml:"code"`
	USDRate string `toml:"usd_rate"`
}

// Rate parses the configured exchange rate.
func (c CurrencyConfig) Rate() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.USDRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid currency usd_rate %q: %w", c.USDRate, err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("currency usd_rate must be positive, got %s", d)
	}
	return d, nil
}

// DefaultsConfig holds default sampling parameters for runs.
type DefaultsConfig struct {
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	TopK        int     `toml:"top_k"`
	MaxTokens   int     `toml:"max_tokens"`
}

// FiltersConfig holds extra catalog exclusions.
type FiltersConfig struct {
	SkipKeywords []string `toml:"skip_keywords,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Connection: ConnectionConfig{
			TimeoutSeconds:     30,
			ChatTimeoutSeconds: 120,
		},
		Currency: CurrencyConfig{
			Code:    "INR",
			USDRate: "89.5",
		},
		Defaults: DefaultsConfig{
			Temperature: 0.7,
			TopP:        0.95,
			TopK:        40,
			MaxTokens:   1024,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "orbench")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "orbench")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return loadFrom(ConfigPath())
}

func loadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Filters.SkipKeywords) > maxSkipKeywords {
		cfg.Filters.SkipKeywords = cfg.Filters.SkipKeywords[:maxSkipKeywords]
	}

	return cfg, nil
}

// Save writes the config to disk. The file holds the API key, so it is
// created 0600.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetAPIKey returns the API key from env var or config, in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return key
	}
	return cfg.Connection.APIKey
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
