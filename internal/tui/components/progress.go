package components

import (
	"fmt"

	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForPct returns green/yellow/orange/red based on how much of a
// budget is used.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 1:
		return t.Negative
	case pct >= 0.85:
		return t.Warning
	case pct >= 0.6:
		return t.Info
	default:
		return t.Positive
	}
}

// UsageBar renders a labeled bar showing what share of the available money
// a month's expenses consume. pct above 1 is drawn full and reported as is.
func UsageBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	color := ColorForPct(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(min(pct, 1)) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}
