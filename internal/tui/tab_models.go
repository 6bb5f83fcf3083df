package tui

import (
	"fmt"
	"strings"

	"orbench/internal/cli"
	"orbench/internal/model"
	"orbench/internal/openrouter"
	"orbench/internal/tui/components"
	"orbench/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Models tab view modes. Split is iota (0) so it's the default zero value.
const (
	modViewSplit  = iota // List + detail side by side (default)
	modViewDetail        // Full-screen detail
)

// modelsState holds the models tab state.
type modelsState struct {
	cursor   int
	offset   int // scroll offset for the list
	viewMode int

	searching   bool
	searchInput textinput.Model
	searchQuery string

	sortMode      model.SortMode
	freeOnly      bool
	reasoningOnly bool
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "model id or name..."
	ti.Prompt = "/ "
	ti.CharLimit = 80
	ti.Width = 40
	return ti
}

// updateModelsSearch handles keys while the search input is focused.
func (a App) updateModelsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.modState.searching = false
		a.modState.searchQuery = strings.TrimSpace(a.modState.searchInput.Value())
		a.modState.cursor = 0
		a.modState.offset = 0
		a.recompute()
		return a, nil
	case "esc":
		a.modState.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.modState.searchInput, cmd = a.modState.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderModelsContent(cw, h int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	if a.client == nil {
		return a.renderNoClientCard(cw)
	}

	if a.catalogErr != nil && len(a.catalog) == 0 {
		body := cli.Fail("Catalog fetch failed ("+openrouter.Classify(a.catalogErr)+")") + "\n" +
			mutedStyle.Render(a.catalogErr.Error()) + "\n\n" +
			mutedStyle.Render("[R] retry")
		return components.ContentCard("Models", body, cw)
	}

	var sections []string

	if a.modState.searching {
		search := components.ContentCard("Search", a.modState.searchInput.View(), cw)
		sections = append(sections, search)
		h -= lipgloss.Height(search)
	}

	if len(a.visible) == 0 {
		sections = append(sections,
			components.ContentCard("Models", mutedStyle.Render("No models match the current filters"), cw))
		return strings.Join(sections, "\n")
	}

	var main string
	switch {
	case a.isCompactLayout():
		main = a.renderModelsList(a.listTitle(), a.visible, cw, h)
	case a.modState.viewMode == modViewDetail:
		main = a.renderModelDetail(cw)
	default:
		main = a.renderModelsSplit(cw, h)
	}
	sections = append(sections, main)

	return strings.Join(sections, "\n")
}

func (a App) renderNoClientCard(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	body := cli.Warn("No API key configured") + "\n\n" +
		mutedStyle.Render("Add one on the Settings tab [x], or export OPENROUTER_API_KEY\nand restart. Keys are issued at https://openrouter.ai/keys.")

	return components.ContentCard("Models", body, cw)
}

func (a App) renderModelsSplit(cw, h int) string {
	if a.modState.cursor >= len(a.visible) {
		return ""
	}

	leftW := cw / 2
	if leftW < 44 {
		leftW = 44
	}
	rightW := cw - leftW

	leftCard := a.renderModelsList(a.listTitle(), a.visible, leftW, h)

	sel := a.visible[a.modState.cursor]
	rightCard := components.ContentCard(sel.Name, a.renderModelDetailBody(sel, rightW), rightW)

	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) renderModelDetail(cw int) string {
	if a.modState.cursor >= len(a.visible) {
		return ""
	}
	sel := a.visible[a.modState.cursor]
	return components.ContentCard(sel.Name, a.renderModelDetailBody(sel, cw), cw)
}

func (a App) listTitle() string {
	title := fmt.Sprintf("Models [%d/%d]", len(a.visible), len(a.catalog))
	if a.modState.sortMode != "" && a.modState.sortMode != model.SortByID {
		title += " · " + string(a.modState.sortMode)
	}
	return title
}

// renderModelsList renders the scrollable catalog list with selection
// checkboxes. Used as the split left pane and as the compact full view.
func (a App) renderModelsList(title string, models []model.Model, w, h int) string {
	t := theme.Active
	ms := a.modState

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	pickedStyle := lipgloss.NewStyle().Foreground(t.Green)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	inner := components.CardInnerWidth(w)

	visible := h - 6 // card border (2) + title row (1) + footer hint (3)
	if visible < 5 {
		visible = 5
	}

	offset := ms.offset
	if ms.cursor < offset {
		offset = ms.cursor
	}
	if ms.cursor >= offset+visible {
		offset = ms.cursor - visible + 1
	}

	end := offset + visible
	if end > len(models) {
		end = len(models)
	}

	// Column layout: checkbox (4) + price (10) + context (6) + gaps
	idW := inner - 4 - 10 - 6 - 2
	if idW < 16 {
		idW = 16
	}

	var body strings.Builder
	for i := offset; i < end; i++ {
		m := models[i]

		mark := "[ ]"
		if a.selected[m.ID] {
			mark = "[x]"
		}

		price := "Free"
		if !m.IsFree() {
			price = cli.FormatPricePerM(m.PromptPrice)
		}

		line := fmt.Sprintf("%s %-*s %10s %6s",
			mark, idW, truncStr(m.ID, idW), price, cli.FormatContext(m.ContextLength))
		line = truncStr(line, inner)

		switch {
		case i == ms.cursor:
			body.WriteString(selectedStyle.Render(line))
		case a.selected[m.ID]:
			body.WriteString(pickedStyle.Render(line))
		default:
			body.WriteString(rowStyle.Render(line))
		}
		body.WriteString("\n")
	}

	if end < len(models) {
		body.WriteString(mutedStyle.Render(fmt.Sprintf("… %d more", len(models)-end)))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[space] pick  [a/n] all/none  [/] search  [s] sort  [f/i] filter"))

	return components.ContentCard(title, body.String(), w)
}

// renderModelDetailBody generates the detail content for a model.
// Used by both the split right pane and the full-screen detail view.
func (a App) renderModelDetailBody(sel model.Model, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green)
	yellowStyle := lipgloss.NewStyle().Foreground(t.Yellow)

	var body strings.Builder
	body.WriteString(mutedStyle.Render(sel.ID))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n\n")

	body.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Context: "),
		valueStyle.Render(cli.FormatContext(sel.ContextLength)+" tokens")))
	body.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Pricing: "),
		valueStyle.Render(cli.PricingSummary(sel))))

	if sel.ImagePrice.IsPositive() {
		body.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Image:   "),
			valueStyle.Render("$"+sel.ImagePrice.String()+"/image")))
	}

	var flags []string
	if sel.IsFree() {
		flags = append(flags, greenStyle.Render("free"))
	}
	if sel.IsReasoningCapable() {
		flags = append(flags, yellowStyle.Render("reasoning"))
	}
	if sel.IsImageModel() {
		flags = append(flags, yellowStyle.Render("image generation"))
	}
	if len(flags) > 0 {
		body.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Flags:   "),
			strings.Join(flags, "  ")))
	}

	if a.selected[sel.ID] {
		body.WriteString("\n")
		body.WriteString(greenStyle.Render("✓ picked for the next run"))
		body.WriteString("\n")
	}

	if sel.Description != "" {
		body.WriteString("\n")
		desc := sel.Description
		if len(desc) > 600 {
			desc = truncStr(desc, 600)
		}
		body.WriteString(mutedStyle.Width(innerW).Render(desc))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[space] pick  [enter] expand  [esc] back"))

	return body.String()
}
