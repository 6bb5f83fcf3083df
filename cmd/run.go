package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"orbench/internal/batch"
	"orbench/internal/cli"
	"orbench/internal/config"
	"orbench/internal/model"
	"orbench/internal/usage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagRunModels      []string
	flagRunProfile     string
	flagRunSaveProfile string
	flagRunPrompt      string
	flagRunPromptFile  string
	flagRunSystem      string
	flagRunTemperature float64
	flagRunTopP        float64
	flagRunTopK        int
	flagRunMaxTokens   int
	flagRunReasoning   bool
	flagRunTranscript  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a prompt across selected models and compare costs",
	Long: `Run sends one prompt to each selected model in sequence and prints a
per-model cost breakdown. Models come from repeated -m flags or from a
saved profile; a failure on one model never stops the rest of the batch.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVarP(&flagRunModels, "model", "m", nil, "Model ID to run (repeatable)")
	runCmd.Flags().StringVar(&flagRunProfile, "profile", "", "Load run settings from a profile file")
	runCmd.Flags().StringVar(&flagRunSaveProfile, "save-profile", "", "Write the effective settings to a profile file")
	runCmd.Flags().StringVarP(&flagRunPrompt, "prompt", "p", "", "User prompt to send")
	runCmd.Flags().StringVar(&flagRunPromptFile, "prompt-file", "", "Read the user prompt from a file")
	runCmd.Flags().StringVar(&flagRunSystem, "system", "", "System prompt")
	runCmd.Flags().Float64Var(&flagRunTemperature, "temperature", 0, "Sampling temperature, clamped to [0,2]")
	runCmd.Flags().Float64Var(&flagRunTopP, "top-p", 0, "Nucleus sampling cutoff, clamped to [0,1]")
	runCmd.Flags().IntVar(&flagRunTopK, "top-k", 0, "Top-k sampling cutoff")
	runCmd.Flags().IntVar(&flagRunMaxTokens, "max-tokens", 0, "Completion token cap")
	runCmd.Flags().BoolVar(&flagRunReasoning, "reasoning", false, "Request reasoning effort from capable models")
	runCmd.Flags().StringVar(&flagRunTranscript, "transcript", "", "Append a plain-text run log to a file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	profile := config.DefaultProfile(cfg)
	if flagRunProfile != "" {
		p, err := config.LoadProfile(flagRunProfile, cfg)
		if err != nil {
			return err
		}
		profile = p
	}
	applyRunFlags(cmd, &profile)

	if !cmd.Flags().Changed("prompt") && flagRunPromptFile != "" {
		data, err := os.ReadFile(flagRunPromptFile)
		if err != nil {
			return fmt.Errorf("reading prompt file: %w", err)
		}
		profile.UserPrompt = strings.TrimSpace(string(data))
	}

	if flagRunSaveProfile != "" {
		if err := config.SaveProfile(flagRunSaveProfile, profile); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Profile saved to %s\n", flagRunSaveProfile)
		}
	}

	cfg = applyProfile(cfg, profile)
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	converter := newConverter(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The catalog is only needed for anomaly context, so a fetch failure
	// degrades the diagnostics instead of aborting the run.
	catalog, err := client.ListModels(ctx, cfg.Filters.SkipKeywords)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr, cli.Warn("  Model catalog unavailable, anomaly checks will lack context sizes"))
		}
		catalog = nil
	}

	runner := batch.New(client, converter, catalog)
	code := currencyCode(cfg)

	sinks := []batch.Sink{&runPrinter{}}
	if flagRunTranscript != "" {
		f, err := os.OpenFile(flagRunTranscript, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening transcript file: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, batch.NewTranscript(f, code))
	}

	tmpl := batch.Template{
		SystemPrompt: profile.SystemPrompt,
		UserPrompt:   profile.UserPrompt,
		Temperature:  profile.Temperature,
		TopP:         profile.TopP,
		TopK:         profile.TopK,
		MaxTokens:    profile.MaxTokens,
		Reasoning:    profile.Reasoning,
	}

	records, runErr := runner.Run(ctx, profile.SelectedModels, tmpl, sinks...)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	printRunSummary(records, converter, code)

	if errors.Is(runErr, context.Canceled) && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Canceled after %d of %d models\n", len(records), len(profile.SelectedModels))
	}
	return nil
}

// applyRunFlags overlays flags the user set explicitly onto the profile,
// leaving profile or default values in place for everything else.
func applyRunFlags(cmd *cobra.Command, p *config.RunProfile) {
	if len(flagRunModels) > 0 {
		p.SelectedModels = flagRunModels
	}
	if cmd.Flags().Changed("prompt") {
		p.UserPrompt = flagRunPrompt
	}
	if cmd.Flags().Changed("system") {
		p.SystemPrompt = flagRunSystem
	}
	if cmd.Flags().Changed("temperature") {
		p.Temperature = flagRunTemperature
	}
	if cmd.Flags().Changed("top-p") {
		p.TopP = flagRunTopP
	}
	if cmd.Flags().Changed("top-k") {
		p.TopK = flagRunTopK
	}
	if cmd.Flags().Changed("max-tokens") {
		p.MaxTokens = flagRunMaxTokens
	}
	if cmd.Flags().Changed("reasoning") {
		p.Reasoning = flagRunReasoning
	}
}

// applyProfile folds a profile's connection overrides into the base config.
func applyProfile(cfg config.Config, p config.RunProfile) config.Config {
	if p.APIKey != "" {
		cfg.Connection.APIKey = p.APIKey
	}
	if p.BaseURL != "" {
		cfg.Connection.BaseURL = p.BaseURL
	}
	if p.SiteURL != "" {
		cfg.Connection.SiteURL = p.SiteURL
	}
	if p.AppTitle != "" {
		cfg.Connection.AppTitle = p.AppTitle
	}
	if p.ProxyURL != "" {
		cfg.Connection.ProxyURL = p.ProxyURL
	}
	if p.InsecureSkipVerify {
		cfg.Connection.InsecureSkipVerify = true
	}
	cfg.Filters.SkipKeywords = append(cfg.Filters.SkipKeywords, p.SkipKeywords...)
	return cfg
}

// runPrinter streams per-model progress to stderr while the batch runs.
type runPrinter struct{}

func (p *runPrinter) Emit(e batch.Event) {
	if flagQuiet {
		return
	}
	switch e.Kind {
	case batch.EventRunStarted:
		fmt.Fprintf(os.Stderr, "  Running %d models...\n", e.Total)
	case batch.EventModelStarted:
		fmt.Fprintf(os.Stderr, "  %s %s\n", cli.RenderProgressBar(e.Index+1, e.Total, 20), e.ModelID)
	case batch.EventModelFinished:
		r := e.Record
		if r.Succeeded {
			fmt.Fprintf(os.Stderr, "    ok: %s tokens, %s, %.1fs\n",
				cli.FormatNumber(int64(r.TotalTokens)), cli.FormatCost(r.CostUSD), r.Elapsed.Seconds())
		} else {
			fmt.Fprintf(os.Stderr, "    %s\n", cli.Fail("failed: "+r.ErrorMessage))
		}
	case batch.EventAnomaly:
		a := e.Anomaly
		fmt.Fprintf(os.Stderr, "    %s\n",
			cli.Warn(fmt.Sprintf("anomaly: charged %s for a %d-char completion", cli.FormatCost(a.CostUSD), a.CompletionChars)))
	}
}

func printRunSummary(records []model.UsageRecord, converter *usage.Converter, code string) {
	if len(records) == 0 {
		return
	}
	s := converter.Summarize(records)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RUN RESULTS  %d models", len(records))))
	fmt.Println()

	rows := make([][]string, 0, len(records)+2)
	for _, r := range records {
		status := "ok"
		if !r.Succeeded {
			status = "failed"
		}
		rows = append(rows, []string{
			r.ModelID,
			cli.FormatNumber(int64(r.TotalTokens)),
			cli.FormatCost(r.CostUSD),
			cli.FormatConverted(r.CostConverted, code),
			fmt.Sprintf("%.1fs", r.Elapsed.Seconds()),
			status,
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		"TOTAL",
		cli.FormatNumber(int64(s.TotalTokens)),
		cli.FormatCost(s.TotalCostUSD),
		cli.FormatConverted(s.TotalCostConverted, code),
		cli.FormatDuration(int64(s.TotalElapsed.Seconds())),
		fmt.Sprintf("%d failed", s.Failures),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Tokens", "USD", code, "Time", "Status"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Printf("  Avg cost/request:   %s (%s)\n",
		cli.FormatCost(s.AvgCostUSD), cli.FormatConverted(s.AvgCostConverted, code))
	if s.Failures > 0 && s.Failures < s.Records {
		fmt.Printf("  Avg over successes: %s\n", cli.FormatCost(s.AvgCostOverSuccessesUSD))
	}
	fmt.Printf("  Avg tokens:         %.0f\n", s.AvgTokens)
	if s.TotalCostUSD.IsPositive() {
		centPct := s.TotalCostUSD.Div(decimal.RequireFromString("0.01")).Mul(decimal.NewFromInt(100))
		fmt.Printf("  Cost vs 1 cent:     %s%%\n", centPct.StringFixed(4))
		perUnit := s.RequestsPerDollar.Div(converter.Rate())
		fmt.Printf("  Cost efficiency:    ~%s req/$1.00 (~%s req/1.00 %s)\n",
			s.RequestsPerDollar.StringFixed(0), perUnit.StringFixed(0), code)
	}

	printCostBars(records)
	fmt.Println()
}

// printCostBars draws one bar per paid model, most expensive first.
func printCostBars(records []model.UsageRecord) {
	type slice struct {
		id   string
		cost float64
		usd  string
	}
	var slices []slice
	maxCost := 0.0
	for _, r := range records {
		if !r.Succeeded || !r.CostUSD.IsPositive() {
			continue
		}
		c := r.CostUSD.InexactFloat64()
		slices = append(slices, slice{r.ModelID, c, cli.FormatCost(r.CostUSD)})
		if c > maxCost {
			maxCost = c
		}
	}
	if len(slices) < 2 {
		return
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].cost > slices[j].cost })

	labelW := 0
	for _, sl := range slices {
		if len(sl.id) > labelW {
			labelW = len(sl.id)
		}
	}
	if labelW > 36 {
		labelW = 36
	}

	fmt.Println()
	fmt.Println("  Cost by model:")
	for _, sl := range slices {
		id := sl.id
		if len(id) > labelW {
			id = id[:labelW-1] + "…"
		}
		fmt.Println("  " + cli.RenderHorizontalBar(id, labelW, sl.cost, maxCost, 30, sl.usd))
	}
}
