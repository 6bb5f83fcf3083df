// Package cmd implements the orbench CLI commands.
package cmd

import (
	"fmt"
	"os"

	"orbench/internal/config"
	"orbench/internal/openrouter"
	"orbench/internal/usage"

	"github.com/spf13/cobra"
)

var flagQuiet bool

var rootCmd = &cobra.Command{
	Use:   "orbench",
	Short: "OpenRouter model workbench",
	Long:  "Run prompts across OpenRouter models and compare tokens, costs, and balance.",
	RunE:  runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig is the shared config loading path used by all commands. A
// broken config file degrades to defaults with a warning instead of
// blocking the command.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Config error (%v), using defaults\n", err)
	}
	return cfg
}

// newClient builds the API client from config. The key resolves env-first.
func newClient(cfg config.Config) (*openrouter.Client, error) {
	return openrouter.NewClient(config.GetAPIKey(cfg), openrouter.Options{
		BaseURL:            cfg.Connection.BaseURL,
		SiteURL:            cfg.Connection.SiteURL,
		AppTitle:           cfg.Connection.AppTitle,
		ProxyURL:           cfg.Connection.ProxyURL,
		InsecureSkipVerify: cfg.Connection.InsecureSkipVerify,
		Timeout:            cfg.Connection.Timeout(),
		ChatTimeout:        cfg.Connection.ChatTimeout(),
	})
}

// newConverter builds the currency converter, falling back to the default
// rate when the configured one does not parse.
func newConverter(cfg config.Config) *usage.Converter {
	rate, err := cfg.Currency.Rate()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  %v, using default rate\n", err)
		}
		rate, _ = config.DefaultConfig().Currency.Rate()
	}
	return usage.NewConverter(rate)
}

// currencyCode returns the configured display currency label.
func currencyCode(cfg config.Config) string {
	if cfg.Currency.Code == "" {
		return config.DefaultConfig().Currency.Code
	}
	return cfg.Currency.Code
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
