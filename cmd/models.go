package cmd

import (
	"context"
	"fmt"
	"os"

	"orbench/internal/cli"
	"orbench/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagModelsSearch    string
	flagModelsSort      string
	flagModelsReasoning bool
	flagModelsFree      bool
	flagModelsLimit     int
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available chat models",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().StringVar(&flagModelsSearch, "search", "", "Filter by ID or name substring")
	modelsCmd.Flags().StringVar(&flagModelsSort, "sort", "id", "Sort order: id, price, context")
	modelsCmd.Flags().BoolVar(&flagModelsReasoning, "reasoning", false, "Only reasoning-capable models")
	modelsCmd.Flags().BoolVar(&flagModelsFree, "free", false, "Only free models")
	modelsCmd.Flags().IntVar(&flagModelsLimit, "limit", 0, "Show at most N models (0 = all)")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching model catalog...\n")
	}

	models, err := client.ListModels(context.Background(), cfg.Filters.SkipKeywords)
	if err != nil {
		return fmt.Errorf("fetching models: %w", err)
	}
	total := len(models)

	models = model.Search(models, flagModelsSearch)
	if flagModelsReasoning {
		models = filterModels(models, func(m model.Model) bool { return m.Reasoning })
	}
	if flagModelsFree {
		models = filterModels(models, model.Model.IsFree)
	}
	models = model.Sort(models, model.SortMode(flagModelsSort))
	if flagModelsLimit > 0 && len(models) > flagModelsLimit {
		models = models[:flagModelsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MODELS  %d of %d", len(models), total)))
	fmt.Println()

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rsn := "-"
		if m.Reasoning {
			rsn = "✓"
		}
		rows = append(rows, []string{
			m.ID,
			cli.FormatContext(m.ContextLength),
			priceCell(m.PromptPrice),
			priceCell(m.CompletionPrice),
			rsn,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Context", "In $/M", "Out $/M", "Rsn"},
		Rows:    rows,
	}))
	fmt.Println()

	return nil
}

func filterModels(models []model.Model, keep func(model.Model) bool) []model.Model {
	out := make([]model.Model, 0, len(models))
	for _, m := range models {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// priceCell renders one per-million price column. Non-positive prices show
// as Free.
func priceCell(perToken decimal.Decimal) string {
	if !perToken.IsPositive() {
		return "Free"
	}
	return cli.FormatPricePerM(perToken)
}
