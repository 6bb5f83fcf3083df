package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"orbench/internal/config"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to orbench!")
	fmt.Println()

	// 1. API key
	fmt.Println("  1. OpenRouter API key")
	fmt.Println("     From https://openrouter.ai/keys (starts with sk-or-v1-...).")
	existing := config.GetAPIKey(cfg)
	if existing != "" {
		fmt.Printf("     Current: %s\n", maskAPIKey(existing))
	}
	fmt.Print("     > ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey != "" {
		cfg.Connection.APIKey = apiKey
	}
	fmt.Println()

	// 2. Display currency
	fmt.Println("  2. Display currency")
	fmt.Println("     Costs are converted from USD at a fixed rate you set here.")
	fmt.Printf("     Current: %s @ %s/USD\n", cfg.Currency.Code, cfg.Currency.USDRate)
	fmt.Print("     Code (e.g. INR, EUR) > ")
	code, _ := reader.ReadString('\n')
	code = strings.TrimSpace(strings.ToUpper(code))
	if code != "" {
		cfg.Currency.Code = code
	}
	fmt.Print("     Rate per USD > ")
	rate, _ := reader.ReadString('\n')
	rate = strings.TrimSpace(rate)
	if rate != "" {
		if d, err := decimal.NewFromString(rate); err != nil || !d.IsPositive() {
			fmt.Printf("     Keeping %s, %q is not a positive number\n", cfg.Currency.USDRate, rate)
		} else {
			cfg.Currency.USDRate = rate
		}
	}
	fmt.Println()

	// 3. Theme
	fmt.Println("  3. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Catppuccin Mocha")
	fmt.Println("     (3) Tokyo Night")
	fmt.Println("     (4) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	themeChoice = strings.TrimSpace(themeChoice)
	switch themeChoice {
	case "2":
		cfg.Appearance.Theme = "catppuccin-mocha"
	case "3":
		cfg.Appearance.Theme = "tokyo-night"
	case "4":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `orbench setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
