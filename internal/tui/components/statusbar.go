package components

import (
	"strings"

	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar shows besides the key hints.
type Status struct {
	Hints   string // tab-specific key hints
	Notice  string // result of the last action
	IsError bool
	Source  string // where the records came from, e.g. the state file
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	noticeStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	if s.IsError {
		noticeStyle = noticeStyle.Foreground(t.Negative)
	}
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := base.Render(" [?]help  [q]uit")
	if s.Hints != "" {
		left += base.Render("  " + s.Hints)
	}
	if s.Notice != "" {
		left += base.Render("  ") + noticeStyle.Render(s.Notice)
	}

	right := ""
	if s.Source != "" {
		right = dim.Render(s.Source + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		// Drop the source before the notice when space runs out.
		right = ""
		padding = max(0, width-lipgloss.Width(left))
	}

	return lipgloss.NewStyle().MaxWidth(width).Render(
		left + base.Render(strings.Repeat(" ", padding)) + right)
}
