package components

import (
	"fmt"
	"math"
	"strings"

	"orbench/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// HBarEntry is one row of a horizontal bar chart.
type HBarEntry struct {
	Label string
	Value float64
	Text  string // value text shown after the bar
}

// HBarChart renders one horizontal bar per entry, scaled against the largest
// value. Labels are right-padded to the longest label, capped at width/3.
func HBarChart(entries []HBarEntry, color lipgloss.Color, width int) string {
	if len(entries) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	textW := 0
	maxVal := 0.0
	for _, e := range entries {
		if w := lipgloss.Width(e.Label); w > labelW {
			labelW = w
		}
		if w := lipgloss.Width(e.Text); w > textW {
			textW = w
		}
		if e.Value > maxVal {
			maxVal = e.Value
		}
	}
	if maxLabel := width / 3; labelW > maxLabel {
		labelW = maxLabel
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barMax := width - labelW - textW - 3
	if barMax < 5 {
		barMax = 5
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}

		label := e.Label
		if lipgloss.Width(label) > labelW {
			label = truncLabel(label, labelW)
		}

		filled := int(math.Round(e.Value / maxVal * float64(barMax)))
		if filled > barMax {
			filled = barMax
		}
		if e.Value > 0 && filled < 1 {
			filled = 1
		}

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)))
		b.WriteString(spaceStyle.Render(" "))
		if filled > 0 {
			b.WriteString(barStyle.Render(strings.Repeat("█", filled)))
		}
		if rest := barMax - filled; rest > 0 {
			b.WriteString(dimStyle.Render(strings.Repeat("╌", rest)))
		}
		b.WriteString(spaceStyle.Render(" "))
		b.WriteString(textStyle.Render(fmt.Sprintf("%*s", textW, e.Text)))
	}

	return b.String()
}

func truncLabel(s string, limit int) string {
	if limit <= 1 {
		return "…"
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
