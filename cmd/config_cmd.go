package cmd

import (
	"fmt"
	"strings"

	"orbench/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Connection]")
	apiKey := config.GetAPIKey(cfg)
	if apiKey != "" {
		fmt.Printf("    API key:      %s\n", maskAPIKey(apiKey))
	} else {
		fmt.Println("    API key:      not configured")
	}
	endpoint := cfg.Connection.BaseURL
	if endpoint == "" {
		endpoint = "https://openrouter.ai/api/v1"
	}
	fmt.Printf("    Endpoint:     %s\n", endpoint)
	if cfg.Connection.SiteURL != "" {
		fmt.Printf("    Site URL:     %s\n", cfg.Connection.SiteURL)
	}
	if cfg.Connection.AppTitle != "" {
		fmt.Printf("    App title:    %s\n", cfg.Connection.AppTitle)
	}
	if cfg.Connection.ProxyURL != "" {
		fmt.Printf("    Proxy:        %s\n", cfg.Connection.ProxyURL)
	}
	if cfg.Connection.InsecureSkipVerify {
		fmt.Println("    TLS verify:   disabled")
	}
	fmt.Printf("    Timeouts:     %s catalog, %s chat\n", cfg.Connection.Timeout(), cfg.Connection.ChatTimeout())
	fmt.Println()

	fmt.Println("  [Currency]")
	fmt.Printf("    Code:         %s\n", cfg.Currency.Code)
	fmt.Printf("    USD rate:     %s\n", cfg.Currency.USDRate)
	fmt.Println()

	fmt.Println("  [Defaults]")
	fmt.Printf("    Temperature:  %g\n", cfg.Defaults.Temperature)
	fmt.Printf("    Top-p:        %g\n", cfg.Defaults.TopP)
	fmt.Printf("    Top-k:        %d\n", cfg.Defaults.TopK)
	fmt.Printf("    Max tokens:   %d\n", cfg.Defaults.MaxTokens)
	fmt.Println()

	fmt.Println("  [Filters]")
	if len(cfg.Filters.SkipKeywords) > 0 {
		fmt.Printf("    Skip:         %s\n", strings.Join(cfg.Filters.SkipKeywords, ", "))
	} else {
		fmt.Println("    Skip:         none")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:        %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `orbench setup` to reconfigure.")
	return nil
}
