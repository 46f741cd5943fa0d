// Package components provides reusable TUI widgets for the finapp dashboard.
package components

import (
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// Metric is one headline figure on the timeline tab.
type Metric struct {
	Label string
	Value string
	Hint  string
	Color lipgloss.Color // value color; empty uses TextPrimary
}

// MetricCard renders a small card with label, value, and an optional hint.
// outerWidth is the total rendered width including border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	contentWidth := outerWidth - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	color := m.Color
	if color == "" {
		color = t.TextPrimary
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	content := labelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
	if m.Hint != "" {
		content += "\n" + hintStyle.Render(m.Hint)
	}

	return cardStyle.Render(content)
}

// MetricCardRow renders metric cards side by side; their widths sum to
// exactly totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(metrics))
	rendered := make([]string, 0, len(metrics))
	for i, m := range metrics {
		rendered = append(rendered, MetricCard(m, widths[i]))
	}
	return CardRow(rendered)
}

// ContentCard renders a bordered content card with an optional title.
// outerWidth controls the total rendered width including border.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active

	contentWidth := outerWidth - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Bold(true)

	content := ""
	if title != "" {
		content = titleStyle.Render(title) + "\n"
	}
	content += body

	return cardStyle.Render(content)
}

// CardRow joins pre-rendered cards horizontally. Shorter cards are padded
// with the background color so the joined block has no unstyled cells.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	t := theme.Active

	tallest := 0
	for _, c := range cards {
		tallest = max(tallest, lipgloss.Height(c))
	}

	padded := make([]string, len(cards))
	for i, c := range cards {
		padded[i] = lipgloss.Place(lipgloss.Width(c), tallest, lipgloss.Left, lipgloss.Top, c,
			lipgloss.WithWhitespaceBackground(t.Background))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4
	if w < 10 {
		w = 10
	}
	return w
}
