package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orbench/internal/balance"
	"orbench/internal/cli"
	"orbench/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagBalanceWatch    bool
	flagBalanceInterval time.Duration
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the API key's credit balance",
	Long: `Balance queries the key endpoint and prints the credit limit, usage,
and remaining balance. With --watch it polls on an interval and prints a
line whenever the remaining balance changes.`,
	RunE: runBalance,
}

func init() {
	balanceCmd.Flags().BoolVarP(&flagBalanceWatch, "watch", "w", false, "Keep polling and report spend as it happens")
	balanceCmd.Flags().DurationVar(&flagBalanceInterval, "interval", 30*time.Second, "Poll interval for --watch")
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	tracker := balance.NewTracker(client)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	snap, err := tracker.Check(ctx)
	if err != nil {
		return fmt.Errorf("checking balance: %w", err)
	}
	printSnapshot(snap)

	if !flagBalanceWatch {
		return nil
	}

	watcher := balance.NewWatcher(tracker, balance.Config{Interval: flagBalanceInterval})
	events := make(chan balance.Event, 16)
	watcher.Subscribe(events)
	watcher.Start(ctx)
	defer watcher.Stop()

	fmt.Println()
	fmt.Println(cli.Muted(fmt.Sprintf("  Watching every %s, Ctrl-C to stop", flagBalanceInterval)))
	fmt.Println()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			printWatchSummary(tracker)
			return nil
		case ev := <-events:
			printWatchEvent(ev)
		}
	}
}

func printSnapshot(snap model.BalanceSnapshot) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("KEY BALANCE"))
	fmt.Println()
	fmt.Printf("  Limit:     %s\n", cli.FormatBalance(snap.Limit))
	fmt.Printf("  Used:      %s\n", cli.FormatBalance(snap.Usage))
	if pct, ok := snap.PercentRemaining(); ok {
		fmt.Printf("  Remaining: %s (%s)\n", cli.FormatBalance(snap.Remaining), cli.FormatPercent(pct))
	} else {
		fmt.Printf("  Remaining: %s\n", cli.FormatBalance(snap.Remaining))
	}
	fmt.Println()
}

func printWatchEvent(ev balance.Event) {
	ts := ev.Timestamp.Format("15:04:05")
	switch ev.Type {
	case "spend":
		line := fmt.Sprintf("  %s  spent %s", ts, cli.FormatDelta(ev.Delta.Spent))
		if !ev.Delta.Percent.IsZero() {
			line += fmt.Sprintf(" (%s of balance)", cli.FormatDeltaPercent(ev.Delta.Percent))
		}
		fmt.Printf("%s, remaining %s\n", line, cli.FormatBalance(ev.Snapshot.Remaining))
	default:
		fmt.Printf("  %s  balance %s\n", ts, cli.FormatBalance(ev.Snapshot.Remaining))
	}
}

func printWatchSummary(tracker *balance.Tracker) {
	delta, ok := tracker.DeltaSinceInitial()
	if !ok || delta.Spent.IsZero() {
		fmt.Println("  No spend observed this session")
		return
	}
	fmt.Printf("  Session spend: %s over %s\n", cli.FormatDelta(delta.Spent), delta.Elapsed.Round(time.Second))

	// Shape of the spend across checks, one cell per poll
	history := tracker.History()
	if len(history) >= 3 {
		spends := make([]float64, 0, len(history)-1)
		for i := 1; i < len(history); i++ {
			spent := history[i-1].Remaining.Sub(history[i].Remaining).InexactFloat64()
			if spent < 0 {
				spent = 0
			}
			spends = append(spends, spent)
		}
		fmt.Printf("  Per check:     %s\n", cli.RenderSparkline(spends))
	}
}
