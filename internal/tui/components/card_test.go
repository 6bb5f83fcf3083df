package components

import (
	"strings"
	"testing"

	"orbench/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))

	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")

	if len(lines) != tallLines {
		t.Errorf("joined height should match tallest card: got %d, want %d", len(lines), tallLines)
	}

	// Past the short card's end, the padding lines must still carry ANSI
	// styling so terminals render the theme background there.
	for i, line := range lines {
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("line %d has no ANSI codes, padding loses the background", i)
		}
	}
}

func TestCardRowHeightConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")

	tallLines := len(strings.Split(tallCard, "\n"))
	if len(lines) != tallLines {
		t.Errorf("joined should have %d lines (tallest), got %d", tallLines, len(lines))
	}
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	cases := []struct {
		total int
		n     int
	}{
		{100, 4},
		{101, 4},
		{103, 3},
		{80, 1},
	}

	for _, tc := range cases {
		widths := LayoutRow(tc.total, tc.n)
		if len(widths) != tc.n {
			t.Fatalf("LayoutRow(%d, %d) returned %d widths", tc.total, tc.n, len(widths))
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d, want %d", tc.total, tc.n, sum, tc.total)
		}
	}
}
