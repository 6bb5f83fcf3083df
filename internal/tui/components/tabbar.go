package components

import (
	"strings"

	"orbench/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Models", Key: 'm', KeyPos: 0},
	{Name: "Run", Key: 'r', KeyPos: 0},
	{Name: "Results", Key: 'e', KeyPos: 1},
	{Name: "Balance", Key: 'b', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1}, // x is not in "Settings"
}

// TabVisualWidth returns the rendered width of one tab. Mouse hitboxes in
// the app depend on this matching RenderTabBar exactly.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2 // one space padding each side
	if !active && tab.KeyPos < 0 {
		w += 3 // appended "[x]" hint
	}
	return w
}

// RenderTabBar renders the single-row tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	for i, tab := range Tabs {
		if i > 0 {
			b.WriteString(dimStyle.Render(" "))
		}

		if i == activeIdx {
			b.WriteString(activeStyle.Render(" " + tab.Name + " "))
			continue
		}

		b.WriteString(inactiveStyle.Render(" "))
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			// Highlight the shortcut letter inside the name
			b.WriteString(inactiveStyle.Render(tab.Name[:tab.KeyPos]))
			b.WriteString(keyStyle.Render(string(tab.Name[tab.KeyPos])))
			b.WriteString(inactiveStyle.Render(tab.Name[tab.KeyPos+1:]))
		} else {
			// Key not in name (e.g., "Settings" with 'x')
			b.WriteString(inactiveStyle.Render(tab.Name))
			b.WriteString(dimStyle.Render("["))
			b.WriteString(keyStyle.Render(string(tab.Key)))
			b.WriteString(dimStyle.Render("]"))
		}
		b.WriteString(inactiveStyle.Render(" "))
	}

	row := b.String()
	if pad := width - lipgloss.Width(row); pad > 0 {
		row += lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", pad))
	}
	return row
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
