package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"orbench/internal/cli"
	"orbench/internal/config"
	"orbench/internal/openrouter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection, key balance, and catalog status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	apiKey := config.GetAPIKey(cfg)
	if apiKey == "" {
		fmt.Println()
		fmt.Println("  No API key configured.")
		fmt.Println()
		fmt.Println("  To get a key:")
		fmt.Println("    1. Open https://openrouter.ai/keys in your browser")
		fmt.Println("    2. Create a key (starts with sk-or-v1-...)")
		fmt.Println()
		fmt.Println("  Then configure it:")
		fmt.Println("    orbench setup                                  (interactive)")
		fmt.Println("    OPENROUTER_API_KEY=sk-or-v1-... orbench status  (one-shot)")
		fmt.Println()
		return nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Checking key and catalog...\n")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, keyErr := client.KeyInfo(ctx)
	catalog, catErr := client.ListModels(ctx, cfg.Filters.SkipKeywords)

	if keyErr != nil {
		if errors.Is(keyErr, openrouter.ErrUnauthorized) {
			return errors.New("API key rejected, generate a fresh one at openrouter.ai/keys")
		}
		if errors.Is(keyErr, openrouter.ErrRateLimited) {
			return errors.New("rate limited by openrouter.ai, try again in a minute")
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ORBENCH STATUS"))
	fmt.Println()

	configPath := config.ConfigPath()
	if !config.Exists() {
		configPath += " (not written yet)"
	}
	endpoint := cfg.Connection.BaseURL
	if endpoint == "" {
		endpoint = "https://openrouter.ai/api/v1"
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Connection",
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"Config", configPath},
			{"API Key", maskAPIKey(apiKey)},
			{"Endpoint", endpoint},
			{"Currency", fmt.Sprintf("%s @ %s/USD", currencyCode(cfg), cfg.Currency.USDRate)},
		},
	}))

	if keyErr == nil {
		rows := [][]string{
			{"Limit", cli.FormatBalance(snap.Limit)},
			{"Used", cli.FormatBalance(snap.Usage)},
			{"Remaining", cli.FormatBalance(snap.Remaining)},
		}
		if pct, ok := snap.PercentRemaining(); ok {
			used := snap.Usage.Div(snap.Limit).InexactFloat64()
			rows = append(rows, []string{"Usage", renderUsageBar(used, 20) + " " + cli.FormatPercent(pct) + " left"})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Key Balance",
			Headers: []string{"Field", "Value"},
			Rows:    rows,
		}))
	} else {
		fmt.Printf("  %s\n\n", cli.Warn(fmt.Sprintf("Balance unavailable (%s)", openrouter.Classify(keyErr))))
	}

	if catErr == nil {
		free := 0
		reasoning := 0
		for _, m := range catalog {
			if m.IsFree() {
				free++
			}
			if m.IsReasoningCapable() {
				reasoning++
			}
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Catalog",
			Headers: []string{"Field", "Value"},
			Rows: [][]string{
				{"Models", cli.FormatNumber(int64(len(catalog)))},
				{"Free", cli.FormatNumber(int64(free))},
				{"Reasoning", cli.FormatNumber(int64(reasoning))},
			},
		}))
	} else {
		fmt.Printf("  %s\n\n", cli.Warn(fmt.Sprintf("Catalog unavailable (%s)", openrouter.Classify(catErr))))
	}

	fmt.Printf("  Checked at %s\n\n", time.Now().Format("3:04:05 PM"))
	return nil
}

func renderUsageBar(used float64, width int) string {
	if used < 0 {
		used = 0
	}
	if used > 1 {
		used = 1
	}
	filled := int(used * float64(width))
	empty := width - filled

	// Color shifts as the key burns down
	color := cli.ColorGreen
	if used >= 0.8 {
		color = cli.ColorRed
	} else if used >= 0.5 {
		color = cli.ColorOrange
	}

	barStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(cli.ColorTextDim)

	return barStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}
