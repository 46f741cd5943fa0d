// Package theme defines color themes for the finapp TUI.
package theme

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceHover  lipgloss.Color // Active tab
	SurfaceBright lipgloss.Color // Selected row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // Focused cards and overlays
	TextDim       lipgloss.Color // Hints, axis labels
	TextMuted     lipgloss.Color // Labels, metadata
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color
	AccentBright  lipgloss.Color
	Positive      lipgloss.Color // Income, non-negative balances
	Negative      lipgloss.Color // Expenses, deficits
	Warning       lipgloss.Color
	Info          lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    lipgloss.Color("#100F0F"),
	Surface:       lipgloss.Color("#1C1B1A"),
	SurfaceHover:  lipgloss.Color("#282726"),
	SurfaceBright: lipgloss.Color("#343331"),
	Border:        lipgloss.Color("#403E3C"),
	BorderAccent:  lipgloss.Color("#3AA99F"),
	TextDim:       lipgloss.Color("#575653"),
	TextMuted:     lipgloss.Color("#878580"),
	TextPrimary:   lipgloss.Color("#FFFCF0"),
	Accent:        lipgloss.Color("#3AA99F"),
	AccentBright:  lipgloss.Color("#5BC8BE"),
	Positive:      lipgloss.Color("#879A39"),
	Negative:      lipgloss.Color("#D14D41"),
	Warning:       lipgloss.Color("#DA702C"),
	Info:          lipgloss.Color("#4385BE"),
}

// CatppuccinMocha is a warm pastel theme.
var CatppuccinMocha = Theme{
	Name:          "catppuccin-mocha",
	Background:    lipgloss.Color("#1E1E2E"),
	Surface:       lipgloss.Color("#313244"),
	SurfaceHover:  lipgloss.Color("#45475A"),
	SurfaceBright: lipgloss.Color("#585B70"),
	Border:        lipgloss.Color("#585B70"),
	BorderAccent:  lipgloss.Color("#89B4FA"),
	TextDim:       lipgloss.Color("#6C7086"),
	TextMuted:     lipgloss.Color("#A6ADC8"),
	TextPrimary:   lipgloss.Color("#CDD6F4"),
	Accent:        lipgloss.Color("#89B4FA"),
	AccentBright:  lipgloss.Color("#B4D0FB"),
	Positive:      lipgloss.Color("#A6E3A1"),
	Negative:      lipgloss.Color("#F38BA8"),
	Warning:       lipgloss.Color("#FAB387"),
	Info:          lipgloss.Color("#94E2D5"),
}

// TokyoNight is a cool blue/purple theme.
var TokyoNight = Theme{
	Name:          "tokyo-night",
	Background:    lipgloss.Color("#1A1B26"),
	Surface:       lipgloss.Color("#24283B"),
	SurfaceHover:  lipgloss.Color("#343A52"),
	SurfaceBright: lipgloss.Color("#414868"),
	Border:        lipgloss.Color("#565F89"),
	BorderAccent:  lipgloss.Color("#7AA2F7"),
	TextDim:       lipgloss.Color("#565F89"),
	TextMuted:     lipgloss.Color("#A9B1D6"),
	TextPrimary:   lipgloss.Color("#C0CAF5"),
	Accent:        lipgloss.Color("#7AA2F7"),
	AccentBright:  lipgloss.Color("#A9C1FF"),
	Positive:      lipgloss.Color("#9ECE6A"),
	Negative:      lipgloss.Color("#F7768E"),
	Warning:       lipgloss.Color("#FF9E64"),
	Info:          lipgloss.Color("#7DCFFF"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceHover:  lipgloss.Color("8"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderAccent:  lipgloss.Color("6"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("6"),
	AccentBright:  lipgloss.Color("14"),
	Positive:      lipgloss.Color("2"),
	Negative:      lipgloss.Color("1"),
	Warning:       lipgloss.Color("3"),
	Info:          lipgloss.Color("4"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Names returns the theme names in cycle order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// Next returns the theme after name, wrapping around. Unknown names start
// the cycle from the beginning.
func Next(name string) Theme {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Balance picks Positive or Negative for a money value as it would be
// displayed, so -0.4 counts as zero.
func (t Theme) Balance(v float64) lipgloss.Color {
	if math.Round(v) < 0 {
		return t.Negative
	}
	return t.Positive
}
