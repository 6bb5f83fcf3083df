package tui

import (
	"fmt"
	"strconv"
	"strings"

	"orbench/internal/cli"
	"orbench/internal/config"
	"orbench/internal/model"
	"orbench/internal/tui/components"
	"orbench/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const (
	settingsFieldAPIKey = iota
	settingsFieldCode
	settingsFieldRate
	settingsFieldTheme
	settingsFieldTemperature
	settingsFieldTopP
	settingsFieldTopK
	settingsFieldMaxTokens
	settingsFieldSkip
	settingsFieldSaveProfile // action row, not an editor
	settingsFieldLoadProfile // action row, not an editor
	settingsFieldCount       // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	// The profile rows act immediately instead of opening an editor.
	switch a.settings.cursor {
	case settingsFieldSaveProfile:
		return a.saveRunProfile()
	case settingsFieldLoadProfile:
		return a.loadRunProfile()
	}

	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()

	switch a.settings.cursor {
	case settingsFieldAPIKey:
		ti.Placeholder = "sk-or-v1-..."
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		if a.cfg.Connection.APIKey != "" {
			ti.SetValue(a.cfg.Connection.APIKey)
		}
	case settingsFieldCode:
		ti.Placeholder = "INR"
		ti.SetValue(a.cfg.Currency.Code)
	case settingsFieldRate:
		ti.Placeholder = "89.5 (units per USD)"
		ti.SetValue(a.cfg.Currency.USDRate)
	case settingsFieldTheme:
		ti.Placeholder = "flexoki-dark, catppuccin-mocha, tokyo-night, terminal"
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldTemperature:
		ti.Placeholder = "0.7 (0 to 2)"
		ti.SetValue(strconv.FormatFloat(a.cfg.Defaults.Temperature, 'g', -1, 64))
	case settingsFieldTopP:
		ti.Placeholder = "0.95 (0 to 1)"
		ti.SetValue(strconv.FormatFloat(a.cfg.Defaults.TopP, 'g', -1, 64))
	case settingsFieldTopK:
		ti.Placeholder = "40"
		ti.SetValue(strconv.Itoa(a.cfg.Defaults.TopK))
	case settingsFieldMaxTokens:
		ti.Placeholder = "1024"
		ti.SetValue(strconv.Itoa(a.cfg.Defaults.MaxTokens))
	case settingsFieldSkip:
		ti.Placeholder = "comma-separated, e.g. free, preview"
		ti.SetValue(strings.Join(a.cfg.Filters.SkipKeywords, ", "))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// saveRunProfile writes the current run setup (selection, prompts,
// sampling, catalog filters) to the default profile file.
func (a App) saveRunProfile() (tea.Model, tea.Cmd) {
	p := a.profile
	p.SelectedModels = a.selectedIDs()
	p.Search = a.modState.searchQuery
	p.Sort = string(a.modState.sortMode)
	p.SkipKeywords = a.cfg.Filters.SkipKeywords

	a.settings.saveErr = config.SaveProfile(config.ProfilePath(), p)
	a.settings.saved = a.settings.saveErr == nil
	return a, nil
}

// loadRunProfile restores the run setup from the default profile file.
func (a App) loadRunProfile() (tea.Model, tea.Cmd) {
	p, err := config.LoadProfile(config.ProfilePath(), a.cfg)
	if err != nil {
		a.settings.saveErr = err
		a.settings.saved = false
		return a, nil
	}

	a.profile = p
	a.selected = make(map[string]bool)
	for _, id := range p.SelectedModels {
		a.selected[id] = true
	}
	a.pruneSelection()

	a.modState.searchQuery = p.Search
	a.modState.sortMode = model.SortMode(p.Sort)
	a.modState.cursor = 0
	a.modState.offset = 0
	a.recompute()

	a.settings.saveErr = nil
	a.settings.saved = true
	return a, nil
}

// settingsSave folds the edited value into the config, persists it, and
// applies any live side effects. Connection and filter changes return a
// command that reloads the catalog against the new settings.
func (a *App) settingsSave() tea.Cmd {
	val := strings.TrimSpace(a.settings.input.Value())
	reconnect := false

	switch a.settings.cursor {
	case settingsFieldAPIKey:
		a.cfg.Connection.APIKey = val
		reconnect = true
	case settingsFieldCode:
		if val != "" {
			a.cfg.Currency.Code = strings.ToUpper(val)
		}
	case settingsFieldRate:
		if d, err := decimal.NewFromString(val); err == nil && d.IsPositive() {
			a.cfg.Currency.USDRate = d.String()
		}
	case settingsFieldTheme:
		for _, t := range theme.All {
			if t.Name == val {
				a.cfg.Appearance.Theme = val
				theme.SetActive(val)
				break
			}
		}
	case settingsFieldTemperature:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			a.cfg.Defaults.Temperature = clampFloat(f, 0, 2)
			a.profile.Temperature = a.cfg.Defaults.Temperature
		}
	case settingsFieldTopP:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			a.cfg.Defaults.TopP = clampFloat(f, 0, 1)
			a.profile.TopP = a.cfg.Defaults.TopP
		}
	case settingsFieldTopK:
		if n, err := strconv.Atoi(val); err == nil {
			a.cfg.Defaults.TopK = clampInt(n, 1, 100)
			a.profile.TopK = a.cfg.Defaults.TopK
		}
	case settingsFieldMaxTokens:
		if n, err := strconv.Atoi(val); err == nil {
			a.cfg.Defaults.MaxTokens = clampInt(n, 1, 4096)
			a.profile.MaxTokens = a.cfg.Defaults.MaxTokens
		}
	case settingsFieldSkip:
		var keywords []string
		for _, kw := range strings.Split(val, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		a.cfg.Filters.SkipKeywords = keywords
		reconnect = true
	}

	a.settings.saveErr = config.Save(a.cfg)
	a.rebuild()

	if reconnect && a.client != nil && !a.runState.running {
		a.loaded = false
		return tea.Batch(
			loadCatalogCmd(a.client, a.cfg.Filters.SkipKeywords),
			checkBalanceCmd(a.tracker),
			a.spinner.Tick,
		)
	}
	return nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}

	apiKeyDisplay := "(not set)"
	if key := a.cfg.Connection.APIKey; key != "" {
		if len(key) > 12 {
			apiKeyDisplay = key[:8] + "..." + key[len(key)-4:]
		} else {
			apiKeyDisplay = "****"
		}
	}

	skipDisplay := "(none)"
	if len(a.cfg.Filters.SkipKeywords) > 0 {
		skipDisplay = strings.Join(a.cfg.Filters.SkipKeywords, ", ")
	}

	fields := []field{
		{"API Key", apiKeyDisplay},
		{"Currency", a.cfg.Currency.Code},
		{"Rate per USD", a.cfg.Currency.USDRate},
		{"Theme", a.cfg.Appearance.Theme},
		{"Temperature", strconv.FormatFloat(a.cfg.Defaults.Temperature, 'g', -1, 64)},
		{"Top-p", strconv.FormatFloat(a.cfg.Defaults.TopP, 'g', -1, 64)},
		{"Top-k", strconv.Itoa(a.cfg.Defaults.TopK)},
		{"Max Tokens", strconv.Itoa(a.cfg.Defaults.MaxTokens)},
		{"Skip Keywords", skipDisplay},
	}

	var formBody strings.Builder
	for i, f := range fields {
		// Show text input if currently editing this field
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-15s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			// Selected row with marker and highlight
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-15s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker)
			formBody.WriteString(label)
			formBody.WriteString(value)
			// Use lipgloss.Width() for correct visual width calculation
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			innerW := components.CardInnerWidth(cw)
			padLen := innerW - usedWidth
			if padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			// Normal row
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-15s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	formBody.WriteString("\n")
	actions := []struct {
		idx   int
		label string
	}{
		{settingsFieldSaveProfile, "[ Save run profile ]"},
		{settingsFieldLoadProfile, "[ Load run profile ]"},
	}
	for _, act := range actions {
		if a.settings.cursor == act.idx {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(selectedStyle.Render(act.label))
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(act.label))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	// General info card
	endpoint := a.cfg.Connection.BaseURL
	if endpoint == "" {
		endpoint = "https://openrouter.ai/api/v1"
	}

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Config file:   ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("Endpoint:      ") + valueStyle.Render(endpoint) + "\n")
	infoBody.WriteString(labelStyle.Render("Catalog:       ") + valueStyle.Render(cli.FormatNumber(int64(len(a.catalog)))+" models") + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:     ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))

	return b.String()
}
