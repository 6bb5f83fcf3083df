package tui

import (
	"fmt"
	"sort"
	"strings"

	"orbench/internal/cli"
	"orbench/internal/model"
	"orbench/internal/tui/components"
	"orbench/internal/tui/theme"
	"orbench/internal/usage"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	centUSD = decimal.RequireFromString("0.01")
	hundred = decimal.NewFromInt(100)
)

// resultsState holds the results tab state.
type resultsState struct {
	records   []model.UsageRecord
	summary   model.BatchSummary
	anomalies []*usage.Anomaly
	haveRun   bool
	scroll    int // record table scroll offset
}

func (a App) renderResultsTab(cw, h int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	if !a.results.haveRun {
		body := mutedStyle.Render("No runs yet this session.\n\nPick models on the Models tab [m], then start a batch on the Run tab [r].")
		return components.ContentCard("Results", body, cw)
	}

	s := a.results.summary

	// Top row: headline metrics
	failuresDelta := ""
	if s.Failures > 0 {
		failuresDelta = "check the table below"
	}
	metrics := components.MetricCardRow([]struct{ Label, Value, Delta string }{
		{"Total Cost", cli.FormatCost(s.TotalCostUSD), cli.FormatConverted(s.TotalCostConverted, a.code)},
		{"Tokens", cli.FormatTokens(int64(s.TotalTokens)), fmt.Sprintf("%.0f avg/request", s.AvgTokens)},
		{"Requests", fmt.Sprintf("%d/%d ok", s.Records-s.Failures, s.Records), failuresDelta},
		{"Avg Cost", cli.FormatCost(s.AvgCostUSD), "per request, failures included"},
	}, cw)

	sections := []string{metrics}

	// Cost-by-model chart over the succeeded records
	if chart := a.renderCostChart(cw); chart != "" {
		sections = append(sections, chart)
	}

	used := 0
	for _, sec := range sections {
		used += lipgloss.Height(sec) + 1
	}
	tableH := h - used
	sections = append(sections, a.renderRecordsTable(cw, tableH))

	if footer := a.renderResultsFooter(cw); footer != "" {
		sections = append(sections, footer)
	}

	return strings.Join(sections, "\n")
}

// renderCostChart draws a horizontal bar per succeeded model, most
// expensive first.
func (a App) renderCostChart(cw int) string {
	t := theme.Active

	type slice struct {
		id   string
		cost float64
		usd  decimal.Decimal
	}
	var slices []slice
	for _, r := range a.results.records {
		if !r.Succeeded || !r.CostUSD.IsPositive() {
			continue
		}
		slices = append(slices, slice{r.ModelID, r.CostUSD.InexactFloat64(), r.CostUSD})
	}
	if len(slices) == 0 {
		return ""
	}

	sort.Slice(slices, func(i, j int) bool { return slices[i].cost > slices[j].cost })
	if len(slices) > 8 {
		slices = slices[:8]
	}

	entries := make([]components.HBarEntry, 0, len(slices))
	for _, sl := range slices {
		entries = append(entries, components.HBarEntry{
			Label: sl.id,
			Value: sl.cost,
			Text:  cli.FormatCost(sl.usd),
		})
	}

	chart := components.HBarChart(entries, t.Accent, components.CardInnerWidth(cw))
	return components.ContentCard("Cost by Model", chart, cw)
}

func (a App) renderRecordsTable(cw, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	failStyle := lipgloss.NewStyle().Foreground(t.Red)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange)

	// Column layout: tokens (8) + usd (10) + converted (12) + time (7) + status (8)
	idW := inner - 8 - 10 - 12 - 7 - 8 - 5
	if idW < 16 {
		idW = 16
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %8s %10s %12s %7s %8s",
		idW, "Model", "Tokens", "USD", a.code, "Time", "Status")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", inner)))
	body.WriteString("\n")

	visible := h - 8 // borders, title, header, separator, footer hint
	if visible < 4 {
		visible = 4
	}

	scroll := a.results.scroll
	if scroll > len(a.results.records)-visible {
		scroll = len(a.results.records) - visible
	}
	if scroll < 0 {
		scroll = 0
	}

	end := scroll + visible
	if end > len(a.results.records) {
		end = len(a.results.records)
	}

	for i := scroll; i < end; i++ {
		r := a.results.records[i]

		status := "ok"
		style := rowStyle
		if !r.Succeeded {
			status = "failed"
			style = failStyle
		}

		line := fmt.Sprintf("%-*s %8s %10s %12s %6.1fs %8s",
			idW, truncStr(r.ModelID, idW),
			cli.FormatTokens(int64(r.TotalTokens)),
			cli.FormatCost(r.CostUSD),
			r.CostConverted.StringFixed(2),
			r.Elapsed.Seconds(),
			status)
		body.WriteString(style.Render(truncStr(line, inner)))
		body.WriteString("\n")
	}

	if end < len(a.results.records) {
		body.WriteString(mutedStyle.Render(fmt.Sprintf("… %d more  [j/k] scroll", len(a.results.records)-end)))
		body.WriteString("\n")
	}

	for _, an := range a.results.anomalies {
		body.WriteString(warnStyle.Render(truncStr(fmt.Sprintf("⚠ %s charged %s for a %d-char completion",
			an.ModelID, cli.FormatCost(an.CostUSD), an.CompletionChars), inner)))
		body.WriteString("\n")
	}

	title := fmt.Sprintf("Records [%d]", len(a.results.records))
	return components.ContentCard(title, body.String(), cw)
}

// renderResultsFooter shows the spend-efficiency lines derived from the
// batch totals.
func (a App) renderResultsFooter(cw int) string {
	t := theme.Active
	s := a.results.summary

	if !s.TotalCostUSD.IsPositive() {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	centPct := s.TotalCostUSD.Div(centUSD).Mul(hundred)
	perUnit := s.RequestsPerDollar.Div(a.converter.Rate())

	var body strings.Builder
	body.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Cost vs 1 cent:  "),
		valueStyle.Render(centPct.StringFixed(4)+"%")))
	body.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Cost efficiency: "),
		valueStyle.Render(fmt.Sprintf("~%s req/$1.00 (~%s req/1.00 %s)",
			s.RequestsPerDollar.StringFixed(0), perUnit.StringFixed(0), a.code))))
	if 0 < s.Failures && s.Failures < s.Records {
		body.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Avg (successes): "),
			valueStyle.Render(cli.FormatCost(s.AvgCostOverSuccessesUSD))))
	}

	return components.ContentCard("Efficiency", body.String(), cw)
}
