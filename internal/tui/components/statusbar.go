package components

import (
	"strconv"
	"strings"

	"orbench/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo carries the fields shown in the bottom status bar.
type StatusInfo struct {
	CatalogCount int
	Balance      string // formatted remaining balance, "" when unknown
	Currency     string // e.g. "INR @ 89.5"
	Running      bool
	RunProgress  string // e.g. "2/5" while a batch is in flight
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	runStyle := lipgloss.NewStyle().
		Foreground(t.Orange).
		Background(t.Surface).
		Bold(true)

	left := " [?]help  [q]uit"

	var segments []string
	if info.Running {
		segments = append(segments, runStyle.Render("running "+info.RunProgress))
	}
	if info.CatalogCount > 0 {
		segments = append(segments, formatModelCount(info.CatalogCount))
	}
	if info.Balance != "" {
		segments = append(segments, info.Balance)
	}
	if info.Currency != "" {
		segments = append(segments, info.Currency)
	}
	right := strings.Join(segments, " │ ")
	if right != "" {
		right += " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return barStyle.Render(left + strings.Repeat(" ", padding) + right)
}

func formatModelCount(n int) string {
	if n == 1 {
		return "1 model"
	}
	return strconv.Itoa(n) + " models"
}
