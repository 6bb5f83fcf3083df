package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"orbench/internal/batch"
	"orbench/internal/cli"
	"orbench/internal/tui/components"
	"orbench/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run tab field indices, top to bottom.
const (
	runFieldSystem = iota
	runFieldPrompt
	runFieldTemperature
	runFieldTopP
	runFieldTopK
	runFieldMaxTokens
	runFieldReasoning
	runFieldStart
	runFieldCount
)

const runLogMax = 200

// runState holds the run tab state.
type runState struct {
	cursor  int
	editing bool
	input   textinput.Model

	running   bool
	canceling bool
	cancel    context.CancelFunc

	index     int // zero-based position of the model in flight
	total     int
	currentID string
	log       []string
	lastErr   error
	startedAt time.Time
}

// runStartEdit opens the inline editor for the field under the cursor.
func (a App) runStartEdit() (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.CharLimit = 5000
	ti.Width = 60

	switch a.runState.cursor {
	case runFieldSystem:
		ti.SetValue(a.profile.SystemPrompt)
		ti.Placeholder = "optional system prompt"
	case runFieldPrompt:
		ti.SetValue(a.profile.UserPrompt)
		ti.Placeholder = "prompt sent to every model"
	case runFieldTemperature:
		ti.SetValue(strconv.FormatFloat(a.profile.Temperature, 'g', -1, 64))
	case runFieldTopP:
		ti.SetValue(strconv.FormatFloat(a.profile.TopP, 'g', -1, 64))
	case runFieldTopK:
		ti.SetValue(strconv.Itoa(a.profile.TopK))
	case runFieldMaxTokens:
		ti.SetValue(strconv.Itoa(a.profile.MaxTokens))
	default:
		return a, nil
	}

	ti.Focus()
	a.runState.input = ti
	a.runState.editing = true
	return a, ti.Cursor.BlinkCmd()
}

// updateRunInput handles keys while a run field editor is open.
func (a App) updateRunInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.applyRunField(strings.TrimSpace(a.runState.input.Value()))
		a.runState.editing = false
		return a, nil
	case "esc":
		a.runState.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.runState.input, cmd = a.runState.input.Update(msg)
	return a, cmd
}

// applyRunField parses the edited value into the profile. Numbers are
// clamped to the ranges the API accepts; unparseable input keeps the
// previous value.
func (a *App) applyRunField(val string) {
	switch a.runState.cursor {
	case runFieldSystem:
		a.profile.SystemPrompt = val
	case runFieldPrompt:
		a.profile.UserPrompt = val
	case runFieldTemperature:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			a.profile.Temperature = clampFloat(f, 0, 2)
		}
	case runFieldTopP:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			a.profile.TopP = clampFloat(f, 0, 1)
		}
	case runFieldTopK:
		if n, err := strconv.Atoi(val); err == nil {
			a.profile.TopK = clampInt(n, 1, 100)
		}
	case runFieldMaxTokens:
		if n, err := strconv.Atoi(val); err == nil {
			a.profile.MaxTokens = clampInt(n, 1, 4096)
		}
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// startRun kicks off a batch over the picked models.
func (a App) startRun() (tea.Model, tea.Cmd) {
	if a.runState.running {
		return a, nil
	}
	if a.client == nil {
		a.runState.lastErr = a.clientErr
		return a, nil
	}

	ids := a.selectedIDs()
	if len(ids) == 0 {
		a.runState.lastErr = batch.ErrNoModels
		return a, nil
	}

	tmpl := batch.Template{
		SystemPrompt: a.profile.SystemPrompt,
		UserPrompt:   a.profile.UserPrompt,
		Temperature:  a.profile.Temperature,
		TopP:         a.profile.TopP,
		TopK:         a.profile.TopK,
		MaxTokens:    a.profile.MaxTokens,
		Reasoning:    a.profile.Reasoning,
	}
	if err := tmpl.Validate(); err != nil {
		a.runState.lastErr = err
		return a, nil
	}

	runner := batch.New(a.client, a.converter, a.catalog)

	ctx, cancel := context.WithCancel(context.Background())
	a.runState = runState{
		running:   true,
		cancel:    cancel,
		total:     len(ids),
		startedAt: time.Now(),
	}
	a.results = resultsState{}

	return a, tea.Batch(
		startRunCmd(ctx, runner, ids, tmpl, a.runSub),
		a.spinner.Tick,
	)
}

func (a *App) applyRunEvent(e batch.Event) {
	switch e.Kind {
	case batch.EventRunStarted:
		a.runState.total = e.Total
		a.runState.index = 0
		a.appendRunLog(fmt.Sprintf("run %s, %d models", shortRunID(e.RunID), e.Total))

	case batch.EventModelStarted:
		a.runState.index = e.Index
		a.runState.currentID = e.ModelID
		a.appendRunLog("→ " + e.ModelID)

	case batch.EventModelFinished:
		if e.Record.Succeeded {
			a.appendRunLog(fmt.Sprintf("  ok  %s tokens, %s, %.1fs",
				cli.FormatTokens(int64(e.Record.TotalTokens)),
				cli.FormatCost(e.Record.CostUSD),
				e.Record.Elapsed.Seconds()))
		} else {
			a.appendRunLog("  failed  " + truncStr(e.Record.ErrorMessage, 70))
		}

	case batch.EventAnomaly:
		if e.Anomaly != nil {
			a.results.anomalies = append(a.results.anomalies, e.Anomaly)
			a.appendRunLog(fmt.Sprintf("  anomaly  charged %s for a %d-char completion",
				cli.FormatCost(e.Anomaly.CostUSD), e.Anomaly.CompletionChars))
		}

	case batch.EventRunFinished:
		// The completion message carries the records and summary.
	}
}

func (a *App) appendRunLog(line string) {
	a.runState.log = append(a.runState.log, line)
	if len(a.runState.log) > runLogMax {
		a.runState.log = a.runState.log[len(a.runState.log)-runLogMax:]
	}
}

func (a *App) finishRun(msg RunDoneMsg) {
	a.runState.running = false
	a.runState.canceling = false
	a.runState.cancel = nil
	a.runState.currentID = ""

	switch {
	case msg.Err == nil:
	case errors.Is(msg.Err, context.Canceled):
		a.appendRunLog(fmt.Sprintf("canceled after %d of %d models", len(msg.Records), a.runState.total))
	default:
		a.runState.lastErr = msg.Err
		a.appendRunLog("run failed: " + truncStr(msg.Err.Error(), 70))
	}

	if len(msg.Records) == 0 {
		return
	}

	a.results.records = msg.Records
	a.results.summary = a.converter.Summarize(msg.Records)
	a.results.haveRun = true
	a.results.scroll = 0
	a.activeTab = tabResults
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a App) renderRunTab(cw int) string {
	if a.runState.running {
		return a.renderRunProgress(cw)
	}
	return a.renderRunForm(cw)
}

func (a App) renderRunForm(cw int) string {
	t := theme.Active
	rs := a.runState

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	cursorStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green)

	// Selection summary card
	ids := a.selectedIDs()
	var selBody strings.Builder
	if len(ids) == 0 {
		selBody.WriteString(mutedStyle.Render("Nothing picked yet. Select models on the Models tab [m]."))
	} else {
		shown := ids
		if len(shown) > 8 {
			shown = shown[:8]
		}
		for _, id := range shown {
			selBody.WriteString(greenStyle.Render("• " + id))
			selBody.WriteString("\n")
		}
		if len(ids) > len(shown) {
			selBody.WriteString(mutedStyle.Render(fmt.Sprintf("… %d more", len(ids)-len(shown))))
			selBody.WriteString("\n")
		}
	}
	selCard := components.ContentCard(fmt.Sprintf("Selection [%d]", len(ids)), selBody.String(), cw)

	// Request template card
	promptDisplay := truncStr(a.profile.UserPrompt, 60)
	if promptDisplay == "" {
		promptDisplay = "(required)"
	}
	systemDisplay := truncStr(a.profile.SystemPrompt, 60)
	if systemDisplay == "" {
		systemDisplay = "(none)"
	}
	reasoningDisplay := "off"
	if a.profile.Reasoning {
		reasoningDisplay = "on"
	}

	fields := []struct {
		label string
		value string
	}{
		{"System prompt", systemDisplay},
		{"User prompt", promptDisplay},
		{"Temperature", strconv.FormatFloat(a.profile.Temperature, 'g', -1, 64)},
		{"Top-p", strconv.FormatFloat(a.profile.TopP, 'g', -1, 64)},
		{"Top-k", strconv.Itoa(a.profile.TopK)},
		{"Max tokens", strconv.Itoa(a.profile.MaxTokens)},
		{"Reasoning", reasoningDisplay},
	}

	var form strings.Builder
	for i, f := range fields {
		marker := "  "
		if i == rs.cursor {
			marker = cursorStyle.Render("▸ ")
		}

		if rs.editing && i == rs.cursor {
			form.WriteString(fmt.Sprintf("%s%s %s\n",
				marker,
				labelStyle.Render(fmt.Sprintf("%-14s", f.label)),
				rs.input.View()))
			continue
		}

		form.WriteString(fmt.Sprintf("%s%s %s\n",
			marker,
			labelStyle.Render(fmt.Sprintf("%-14s", f.label)),
			valueStyle.Render(f.value)))
	}

	form.WriteString("\n")
	startLabel := "[ Start run ]"
	if rs.cursor == runFieldStart {
		form.WriteString(cursorStyle.Render("▸ " + startLabel))
	} else {
		form.WriteString(mutedStyle.Render("  " + startLabel))
	}
	form.WriteString("\n")

	if rs.lastErr != nil {
		form.WriteString("\n")
		form.WriteString(cli.Fail(rs.lastErr.Error()))
		form.WriteString("\n")
	}

	form.WriteString("\n")
	form.WriteString(mutedStyle.Render("[j/k] move  [enter] edit or start  [esc] cancel edit"))

	reqCard := components.ContentCard("Request", form.String(), cw)

	return selCard + "\n" + reqCard
}

func (a App) renderRunProgress(cw int) string {
	t := theme.Active
	rs := a.runState
	inner := components.CardInnerWidth(cw)

	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	orangeStyle := lipgloss.NewStyle().Foreground(t.Orange).Bold(true)

	pct := 0.0
	if rs.total > 0 {
		pct = float64(rs.index) / float64(rs.total)
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("%s %s\n\n",
		a.spinner.View(),
		accentStyle.Render(fmt.Sprintf("model %d/%d", rs.index+1, rs.total))))

	barW := inner - 8
	if barW > 50 {
		barW = 50
	}
	body.WriteString(components.ProgressBar(pct, barW))
	body.WriteString("\n\n")

	if rs.currentID != "" {
		body.WriteString(fmt.Sprintf("%s %s\n",
			mutedStyle.Render("Current:"),
			valueStyle.Render(rs.currentID)))
	}
	body.WriteString(fmt.Sprintf("%s %s\n",
		mutedStyle.Render("Elapsed:"),
		valueStyle.Render(time.Since(rs.startedAt).Round(time.Second).String())))

	if rs.canceling {
		body.WriteString("\n")
		body.WriteString(orangeStyle.Render("Canceling after the current model finishes..."))
		body.WriteString("\n")
	} else {
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render("[ctrl+x] cancel"))
		body.WriteString("\n")
	}

	progressCard := components.ContentCard("Run in progress", body.String(), cw)

	// Live log card with the most recent lines
	logLines := rs.log
	if len(logLines) > 12 {
		logLines = logLines[len(logLines)-12:]
	}
	var logBody strings.Builder
	for _, line := range logLines {
		logBody.WriteString(valueStyle.Render(truncStr(line, inner)))
		logBody.WriteString("\n")
	}
	logCard := components.ContentCard("Log", logBody.String(), cw)

	return progressCard + "\n" + logCard
}
