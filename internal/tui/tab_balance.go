package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"orbench/internal/cli"
	"orbench/internal/openrouter"
	"orbench/internal/tui/components"
	"orbench/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// balanceState holds the balance tab state.
type balanceState struct {
	checking bool
	err      error
}

func (a App) renderBalanceTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	if a.tracker == nil {
		return a.renderNoClientCard(cw)
	}

	var sections []string

	if a.balState.err != nil {
		body := cli.Warn("Balance check failed ("+openrouter.Classify(a.balState.err)+")") + "\n" +
			mutedStyle.Render(a.balState.err.Error())
		sections = append(sections, components.ContentCard("", body, cw))
	}

	latest, ok := a.tracker.Latest()
	if !ok {
		hint := "No balance check recorded yet. Press [c] to check now."
		if a.balState.checking {
			hint = a.spinner.View() + " Checking..."
		}
		sections = append(sections, components.ContentCard("Key Balance", mutedStyle.Render(hint), cw))
		return strings.Join(sections, "\n")
	}

	// Headline metrics
	remainingDelta := ""
	if pct, pctOK := latest.PercentRemaining(); pctOK {
		remainingDelta = cli.FormatPercent(pct) + " left"
	}
	checksDelta := "at " + latest.CapturedAt.Format("15:04:05")
	if a.balState.checking {
		checksDelta = "checking..."
	}
	metrics := components.MetricCardRow([]struct{ Label, Value, Delta string }{
		{"Limit", cli.FormatBalance(latest.Limit), ""},
		{"Used", cli.FormatBalance(latest.Usage), ""},
		{"Remaining", cli.FormatBalance(latest.Remaining), remainingDelta},
		{"Checks", strconv.Itoa(a.tracker.Checks()), checksDelta},
	}, cw)
	sections = append(sections, metrics)

	// Usage bar, only meaningful with a positive limit
	if _, pctOK := latest.PercentRemaining(); pctOK {
		used := latest.Usage.Div(latest.Limit).InexactFloat64()
		barW := components.CardInnerWidth(cw) - 16
		if barW > 40 {
			barW = 40
		}
		bar := components.LabeledBar("Key usage", used, 10, barW)
		sections = append(sections, components.ContentCard("", bar, cw))
	}

	// Session spend since the first check
	if card := a.renderSessionSpend(cw); card != "" {
		sections = append(sections, card)
	}

	// Check history
	sections = append(sections, a.renderBalanceHistory(cw))

	return strings.Join(sections, "\n")
}

func (a App) renderSessionSpend(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green)
	redStyle := lipgloss.NewStyle().Foreground(t.Red)

	total, ok := a.tracker.DeltaSinceInitial()
	if !ok {
		return ""
	}

	var body strings.Builder
	if total.Spent.IsZero() {
		body.WriteString(greenStyle.Render("No spend observed this session."))
		body.WriteString("\n")
	} else {
		spentStyle := redStyle
		if total.Spent.IsNegative() {
			spentStyle = greenStyle // a top-up mid-session
		}
		body.WriteString(fmt.Sprintf("%s %s %s\n",
			labelStyle.Render("Session spend:"),
			spentStyle.Render(cli.FormatDelta(total.Spent)),
			labelStyle.Render("over "+total.Elapsed.Round(time.Second).String())))
		if !total.Percent.IsZero() {
			body.WriteString(fmt.Sprintf("%s %s\n",
				labelStyle.Render("Of baseline:  "),
				valueStyle.Render(cli.FormatDeltaPercent(total.Percent))))
		}
	}

	if last, lastOK := a.tracker.DeltaSinceLast(); lastOK && !last.Spent.IsZero() {
		body.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Last check:   "),
			valueStyle.Render(cli.FormatDelta(last.Spent))))
	}

	// Per-check spend shape across the session
	history := a.tracker.History()
	if len(history) >= 3 {
		spends := make([]float64, 0, len(history)-1)
		for i := 1; i < len(history); i++ {
			spent := history[i-1].Remaining.Sub(history[i].Remaining).InexactFloat64()
			if spent < 0 {
				spent = 0
			}
			spends = append(spends, spent)
		}
		body.WriteString("\n")
		body.WriteString(labelStyle.Render("Spend per check: "))
		body.WriteString(components.Sparkline(spends, t.Accent))
		body.WriteString("\n")
	}

	return components.ContentCard("Session", body.String(), cw)
}

func (a App) renderBalanceHistory(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	history := a.tracker.History()

	sepW := 42
	if sepW > inner {
		sepW = inner
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %14s %14s", "Time", "Remaining", "Delta")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", sepW)))
	body.WriteString("\n")

	// Most recent first, capped to the last 10 checks
	start := 0
	if len(history) > 10 {
		start = len(history) - 10
	}
	for i := len(history) - 1; i >= start; i-- {
		snap := history[i]

		deltaStr := "—"
		if i > 0 {
			deltaStr = cli.FormatDelta(history[i-1].Remaining.Sub(snap.Remaining).Neg())
		}

		body.WriteString(rowStyle.Render(fmt.Sprintf("%-10s %14s %14s",
			snap.CapturedAt.Format("15:04:05"),
			cli.FormatBalance(snap.Remaining),
			deltaStr)))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[c] check now"))

	return components.ContentCard("History", body.String(), cw)
}
