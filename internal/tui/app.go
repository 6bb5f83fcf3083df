// Package tui provides the interactive Bubble Tea workbench for orbench.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orbench/internal/balance"
	"orbench/internal/batch"
	"orbench/internal/cli"
	"orbench/internal/config"
	"orbench/internal/model"
	"orbench/internal/openrouter"
	"orbench/internal/tui/components"
	"orbench/internal/tui/theme"
	"orbench/internal/usage"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// CatalogMsg is sent when the model catalog fetch finishes.
type CatalogMsg struct {
	Models   []model.Model
	Err      error
	LoadTime time.Duration
}

// BalanceMsg is sent when a key balance check finishes. The snapshot is
// already recorded in the tracker; Err reports a failed check.
type BalanceMsg struct {
	Snapshot model.BalanceSnapshot
	Err      error
}

// RunEventMsg wraps one event streamed from an in-flight batch run.
type RunEventMsg struct {
	Event batch.Event
}

// RunDoneMsg is sent when a batch run finishes.
type RunDoneMsg struct {
	Records []model.UsageRecord
	Err     error
}

// Tab indices, matching components.Tabs order.
const (
	tabModels = iota
	tabRun
	tabResults
	tabBalance
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5 // minimum content area height

	// Balance auto-check cadence: ticks are 250ms, so 1200 ticks = 5 minutes.
	balanceCheckTicks = 1200

	// maxRunSelection matches the profile selection cap.
	maxRunSelection = 100
)

// App is the root Bubble Tea model.
type App struct {
	// Wiring built from config
	cfg       config.Config
	client    *openrouter.Client
	clientErr error
	converter *usage.Converter
	code      string
	tracker   *balance.Tracker

	// Catalog
	catalog    []model.Model
	catalogErr error
	loaded     bool
	loadTime   time.Duration

	// Catalog with search/filter/sort applied
	visible []model.Model

	// Model IDs picked for the next run
	selected map[string]bool

	// Request template for the next run
	profile config.RunProfile

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	modState modelsState
	runState runState
	results  resultsState
	balState balanceState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	// Loading and run progress, bridged in through the event channel
	spinner spinner.Model
	runSub  chan tea.Msg // events + completion from the runner goroutine
	ticks   int          // counts ticks for the periodic balance check
}

// NewApp creates the root TUI model from a loaded config.
func NewApp(cfg config.Config) App {
	needSetup := !config.Exists()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		cfg:       cfg,
		selected:  make(map[string]bool),
		profile:   config.DefaultProfile(cfg),
		needSetup: needSetup,
		spinner:   sp,
		runSub:    make(chan tea.Msg, 64),
	}
	a.rebuild()

	// Nothing to load without a client; skip straight to the main view.
	if a.client == nil {
		a.loaded = true
		a.catalogErr = a.clientErr
	}

	if needSetup {
		a.setupVals = defaultSetupValues(cfg)
		a.setupForm = newSetupForm(&a.setupVals)
	}

	return a
}

// rebuild recreates the API client, tracker, and converter from a.cfg.
// Called at startup and again after setup or a settings change.
func (a *App) rebuild() {
	a.client, a.clientErr = newAPIClient(a.cfg)
	a.tracker = nil
	if a.clientErr == nil {
		a.tracker = balance.NewTracker(a.client)
	}

	rate, err := a.cfg.Currency.Rate()
	if err != nil {
		rate, _ = config.DefaultConfig().Currency.Rate()
	}
	a.converter = usage.NewConverter(rate)

	a.code = a.cfg.Currency.Code
	if a.code == "" {
		a.code = config.DefaultConfig().Currency.Code
	}
}

func newAPIClient(cfg config.Config) (*openrouter.Client, error) {
	c := cfg.Connection
	return openrouter.NewClient(config.GetAPIKey(cfg), openrouter.Options{
		BaseURL:            c.BaseURL,
		SiteURL:            c.SiteURL,
		AppTitle:           c.AppTitle,
		ProxyURL:           c.ProxyURL,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Timeout:            c.Timeout(),
		ChatTimeout:        c.ChatTimeout(),
	})
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion, // Enable mouse support
		a.spinner.Tick,
		tickCmd(),
	}

	if a.client != nil {
		cmds = append(cmds,
			loadCatalogCmd(a.client, a.cfg.Filters.SkipKeywords),
			checkBalanceCmd(a.tracker),
		)
	}

	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}

	return tea.Batch(cmds...)
}

// recompute applies the current search, filters, and sort to the catalog.
func (a *App) recompute() {
	ms := a.catalog
	if a.modState.searchQuery != "" {
		ms = model.Search(ms, a.modState.searchQuery)
	}
	if a.modState.freeOnly {
		ms = filterKeep(ms, model.Model.IsFree)
	}
	if a.modState.reasoningOnly {
		ms = filterKeep(ms, model.Model.IsReasoningCapable)
	}
	a.visible = model.Sort(ms, a.modState.sortMode)

	// Clamp the models cursor to the new list bounds
	if a.modState.cursor >= len(a.visible) {
		a.modState.cursor = len(a.visible) - 1
	}
	if a.modState.cursor < 0 {
		a.modState.cursor = 0
	}
}

func filterKeep(models []model.Model, keep func(model.Model) bool) []model.Model {
	out := make([]model.Model, 0, len(models))
	for _, m := range models {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Forward to setup form if active
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabModels && !a.modState.searching {
				if a.modState.cursor > 0 {
					a.modState.cursor--
				}
			}
			return a, nil

		case tea.MouseButtonWheelDown:
			if a.activeTab == tabModels && !a.modState.searching {
				if a.modState.cursor < len(a.visible)-1 {
					a.modState.cursor++
				}
			}
			return a, nil

		case tea.MouseButtonLeft:
			// The tab bar occupies the first line
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 && tab < len(components.Tabs) {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		// Global: quit
		if key == "ctrl+c" {
			if a.runState.cancel != nil {
				a.runState.cancel()
			}
			return a, tea.Quit
		}

		// First-run setup wizard intercepts all keys
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if !a.loaded {
			return a, nil
		}

		// Active text inputs intercept all keys
		if a.activeTab == tabModels && a.modState.searching {
			return a.updateModelsSearch(msg)
		}
		if a.activeTab == tabRun && a.runState.editing {
			return a.updateRunInput(msg)
		}
		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		// Help toggle
		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}

		// Dismiss help
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		// Models tab has its own keybindings
		if a.activeTab == tabModels {
			compact := a.isCompactLayout()

			switch key {
			case "/":
				a.modState.searching = true
				a.modState.searchInput = newSearchInput()
				a.modState.searchInput.Focus()
				return a, a.modState.searchInput.Cursor.BlinkCmd()
			case "q":
				if !compact && a.modState.viewMode == modViewDetail {
					a.modState.viewMode = modViewSplit
					return a, nil
				}
				return a, tea.Quit
			case "enter":
				if compact {
					return a, nil
				}
				if a.modState.viewMode == modViewSplit {
					a.modState.viewMode = modViewDetail
				}
				return a, nil
			case "esc":
				// Clear search if active, otherwise exit detail view
				if a.modState.searchQuery != "" {
					a.modState.searchQuery = ""
					a.modState.cursor = 0
					a.modState.offset = 0
					a.recompute()
					return a, nil
				}
				if a.modState.viewMode == modViewDetail {
					a.modState.viewMode = modViewSplit
				}
				return a, nil
			case "j", "down":
				if a.modState.cursor < len(a.visible)-1 {
					a.modState.cursor++
				}
				return a, nil
			case "k", "up":
				if a.modState.cursor > 0 {
					a.modState.cursor--
				}
				return a, nil
			case "g":
				a.modState.cursor = 0
				a.modState.offset = 0
				return a, nil
			case "G":
				a.modState.cursor = len(a.visible) - 1
				if a.modState.cursor < 0 {
					a.modState.cursor = 0
				}
				return a, nil
			case " ":
				if a.modState.cursor < len(a.visible) {
					m := a.visible[a.modState.cursor]
					switch {
					case a.selected[m.ID]:
						delete(a.selected, m.ID)
					case !m.IsImageModel() && len(a.selected) < maxRunSelection:
						a.selected[m.ID] = true
					}
				}
				return a, nil
			case "a":
				for _, m := range a.visible {
					if len(a.selected) >= maxRunSelection {
						break
					}
					if !m.IsImageModel() {
						a.selected[m.ID] = true
					}
				}
				return a, nil
			case "n":
				a.selected = make(map[string]bool)
				return a, nil
			case "f":
				a.modState.freeOnly = !a.modState.freeOnly
				a.recompute()
				return a, nil
			case "i":
				a.modState.reasoningOnly = !a.modState.reasoningOnly
				a.recompute()
				return a, nil
			case "s":
				a.modState.sortMode = nextSortMode(a.modState.sortMode)
				a.recompute()
				return a, nil
			}
		}

		// Run tab keybindings
		if a.activeTab == tabRun {
			if a.runState.running {
				if key == "ctrl+x" {
					if a.runState.cancel != nil && !a.runState.canceling {
						a.runState.canceling = true
						a.runState.cancel()
					}
					return a, nil
				}
			} else {
				switch key {
				case "j", "down":
					if a.runState.cursor < runFieldCount-1 {
						a.runState.cursor++
					}
					return a, nil
				case "k", "up":
					if a.runState.cursor > 0 {
						a.runState.cursor--
					}
					return a, nil
				case "enter":
					switch a.runState.cursor {
					case runFieldStart:
						return a.startRun()
					case runFieldReasoning:
						a.profile.Reasoning = !a.profile.Reasoning
						return a, nil
					}
					return a.runStartEdit()
				}
			}
		}

		// Results tab scrolls its record table
		if a.activeTab == tabResults {
			switch key {
			case "j", "down", "J":
				a.results.scroll++
				return a, nil
			case "k", "up", "K":
				if a.results.scroll > 0 {
					a.results.scroll--
				}
				return a, nil
			case "g":
				a.results.scroll = 0
				return a, nil
			}
		}

		// Balance tab: manual check
		if a.activeTab == tabBalance && key == "c" {
			if a.tracker != nil && !a.balState.checking {
				a.balState.checking = true
				return a, checkBalanceCmd(a.tracker)
			}
			return a, nil
		}

		// Settings tab navigation (non-editing mode)
		if a.activeTab == tabSettings {
			switch key {
			case "j", "down":
				if a.settings.cursor < settingsFieldCount-1 {
					a.settings.cursor++
				}
				return a, nil
			case "k", "up":
				if a.settings.cursor > 0 {
					a.settings.cursor--
				}
				return a, nil
			case "enter":
				return a.settingsStartEdit()
			}
		}

		// Global quit from non-models tabs
		if key == "q" {
			if a.runState.cancel != nil {
				a.runState.cancel()
			}
			return a, tea.Quit
		}

		// Reload the model catalog
		if key == "R" && a.client != nil && !a.runState.running {
			a.loaded = false
			return a, tea.Batch(loadCatalogCmd(a.client, a.cfg.Filters.SkipKeywords), a.spinner.Tick)
		}

		// Tab navigation
		switch key {
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		}
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case CatalogMsg:
		a.catalog = msg.Models
		a.catalogErr = msg.Err
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.recompute()
		a.pruneSelection()
		return a, nil

	case BalanceMsg:
		a.balState.checking = false
		a.balState.err = msg.Err
		return a, nil

	case RunEventMsg:
		a.applyRunEvent(msg.Event)
		return a, waitForRunMsg(a.runSub)

	case RunDoneMsg:
		a.finishRun(msg)
		// Re-check the balance so the post-run delta shows what the batch cost
		if a.tracker != nil && !a.balState.checking {
			a.balState.checking = true
			return a, checkBalanceCmd(a.tracker)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.runState.running {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		a.ticks++

		cmds := []tea.Cmd{tickCmd()}

		// Periodic balance check while idle
		if a.loaded && !a.runState.running && a.tracker != nil &&
			!a.balState.checking && a.ticks >= balanceCheckTicks {
			a.ticks = 0
			a.balState.checking = true
			cmds = append(cmds, checkBalanceCmd(a.tracker))
		}

		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	if a.setupForm.State == huh.StateCompleted {
		a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		if a.client != nil {
			a.loaded = false
			return a, tea.Batch(
				loadCatalogCmd(a.client, a.cfg.Filters.SkipKeywords),
				checkBalanceCmd(a.tracker),
				a.spinner.Tick,
			)
		}
		a.loaded = true
		a.catalogErr = a.clientErr
		return a, nil
	}

	if a.setupForm.State == huh.StateAborted {
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

// pruneSelection drops selected IDs that are no longer in the catalog.
func (a *App) pruneSelection() {
	if len(a.catalog) == 0 {
		return
	}
	byID := make(map[string]struct{}, len(a.catalog))
	for _, m := range a.catalog {
		byID[m.ID] = struct{}{}
	}
	for id := range a.selected {
		if _, ok := byID[id]; !ok {
			delete(a.selected, id)
		}
	}
}

// selectedIDs returns the picked model IDs in catalog order.
func (a App) selectedIDs() []string {
	ids := make([]string, 0, len(a.selected))
	for _, m := range a.catalog {
		if a.selected[m.ID] {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (a App) trackerLatest() (model.BalanceSnapshot, bool) {
	if a.tracker == nil {
		return model.BalanceSnapshot{}, false
	}
	return a.tracker.Latest()
}

func nextSortMode(mode model.SortMode) model.SortMode {
	switch mode {
	case model.SortByID, "":
		return model.SortByPrice
	case model.SortByPrice:
		return model.SortByContext
	default:
		return model.SortByID
	}
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	// First-run setup wizard
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  orbench needs at least %d columns.\n  Current width: %d\n",
		a.width,
		minTerminalWidth,
		a.width,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active
	w := a.width
	h := a.height

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ orbench"))
	b.WriteString(subtitleStyle.Render(" · OpenRouter Workbench"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Fetching model catalog..."))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active
	h := a.height
	w := a.width

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Navigation"))
	b.WriteString("\n")
	navBindings := []struct{ key, desc string }{
		{"m r e b x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Navigate lists"},
		{"g G", "First / Last entry"},
	}
	for _, bind := range navBindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Models"))
	b.WriteString("\n")
	modelBindings := []struct{ key, desc string }{
		{"space", "Select / Deselect model"},
		{"a n", "Select all / none"},
		{"/", "Search catalog"},
		{"s", "Cycle sort (id, price, context)"},
		{"f i", "Filter free / reasoning"},
		{"Enter", "Expand detail"},
	}
	for _, bind := range modelBindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Actions"))
	b.WriteString("\n")
	actionBindings := []struct{ key, desc string }{
		{"Enter", "Edit field / Start run"},
		{"ctrl+x", "Cancel a running batch"},
		{"c", "Check balance now"},
		{"R", "Reload catalog"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range actionBindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Render header (tab bar + context pill)
	pillStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	pillAccentStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	ctxStr := pillStyle.Render(" ") +
		pillAccentStyle.Render(a.code+" @ "+a.converter.Rate().String())
	ctxStr += pillStyle.Render(" │ ") +
		pillAccentStyle.Render(fmt.Sprintf("%d selected", len(a.selected)))
	if a.modState.searchQuery != "" {
		ctxStr += pillStyle.Render(" │ ") + pillAccentStyle.Render("search: "+a.modState.searchQuery)
	}
	if a.modState.freeOnly {
		ctxStr += pillStyle.Render(" │ ") + pillAccentStyle.Render("free only")
	}
	if a.modState.reasoningOnly {
		ctxStr += pillStyle.Render(" │ ") + pillAccentStyle.Render("reasoning only")
	}
	ctxStr += pillStyle.Render(" ")

	ctxRowStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Width(w)

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		ctxRowStyle.Render(ctxStr)

	// 2. Render status bar
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	// 3. Calculate content zone height
	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Render tab content
	var content string
	switch a.activeTab {
	case tabModels:
		content = a.renderModelsContent(cw, contentH)
	case tabRun:
		content = a.renderRunTab(cw)
	case tabResults:
		content = a.renderResultsTab(cw, contentH)
	case tabBalance:
		content = a.renderBalanceTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)

	// 6. Fill each line to full width with background (fixes gaps between cards)
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Place content with background fill (handles centering when w > cw)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	// 8. Stack vertically
	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	// 9. Ensure the entire terminal is filled with background
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		CatalogCount: len(a.catalog),
		Currency:     a.code + " @ " + a.converter.Rate().String(),
	}
	if snap, ok := a.trackerLatest(); ok {
		info.Balance = cli.FormatBalance(snap.Remaining)
	}
	if a.runState.running {
		info.Running = true
		info.RunProgress = fmt.Sprintf("%d/%d", a.runState.index+1, a.runState.total)
	}
	return info
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadCatalogCmd fetches the model catalog in the background.
func loadCatalogCmd(client *openrouter.Client, skipKeywords []string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx, skipKeywords)
		return CatalogMsg{
			Models:   models,
			Err:      err,
			LoadTime: time.Since(start),
		}
	}
}

// checkBalanceCmd queries the key endpoint and records the snapshot.
func checkBalanceCmd(tracker *balance.Tracker) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		snap, err := tracker.Check(ctx)
		return BalanceMsg{Snapshot: snap, Err: err}
	}
}

// startRunCmd launches the batch in a background goroutine. It streams
// RunEventMsg updates and a final RunDoneMsg through sub.
func startRunCmd(ctx context.Context, runner *batch.Runner, ids []string, tmpl batch.Template, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			sink := batch.SinkFunc(func(e batch.Event) {
				sub <- RunEventMsg{Event: e}
			})
			records, err := runner.Run(ctx, ids, tmpl, sink)
			sub <- RunDoneMsg{Records: records, Err: err}
		}()

		// Block until the first message (an event or immediate failure)
		return <-sub
	}
}

// waitForRunMsg blocks until the next message arrives from the runner goroutine.
func waitForRunMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
// This ensures gaps between cards and empty lines have proper background fill.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
