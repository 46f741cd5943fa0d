package components

import (
	"strings"

	"github.com/mwasalski/financial-app/internal/tui/theme"

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
	{Name: "Timeline", Key: 't', KeyPos: 0},
	{Name: "Records", Key: 'c', KeyPos: 2},
	{Name: "Income", Key: 'i', KeyPos: 0},
	{Name: "Settings", Key: 's', KeyPos: 0},
}

// TabVisualWidth is the rendered width of a tab, including padding and the
// shortcut hint shown on inactive tabs whose key is not part of the name.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2
	if !active && tab.KeyPos < 0 {
		w += 3
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index on one line.
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
	sepStyle := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(" "+tab.Name+" "))
			continue
		}
		var b strings.Builder
		b.WriteString(inactiveStyle.Render(" "))
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			b.WriteString(inactiveStyle.Render(tab.Name[:tab.KeyPos]))
			b.WriteString(keyStyle.Render(string(tab.Name[tab.KeyPos])))
			b.WriteString(inactiveStyle.Render(tab.Name[tab.KeyPos+1:]))
		} else {
			b.WriteString(inactiveStyle.Render(tab.Name))
			b.WriteString(keyStyle.Render("[" + string(tab.Key) + "]"))
		}
		b.WriteString(inactiveStyle.Render(" "))
		parts = append(parts, b.String())
	}

	bar := strings.Join(parts, sepStyle.Render(" "))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
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
