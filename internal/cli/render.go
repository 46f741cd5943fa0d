package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwasalski/financial-app/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	positiveStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	negativeStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil

	// Tones optionally colors individual cells. Tones[row][col] of
	// ToneNeutral (the zero value) renders with the default style.
	Tones [][]Tone
}

// Tone selects the color of a table cell.
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
	ToneMuted
)

func (t Tone) style() lipgloss.Style {
	switch t {
	case TonePositive:
		return positiveStyle
	case ToneNegative:
		return negativeStyle
	case ToneMuted:
		return mutedStyle
	}
	return valueStyle
}

// BalanceTone is positive for values that round to zero or more.
func BalanceTone(v float64) Tone {
	if roundUnits(v) < 0 {
		return ToneNegative
	}
	return TonePositive
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderWarning renders a single highlighted notice line.
func RenderWarning(msg string) string {
	return "  " + warnStyle.Render("! "+msg)
}

// RenderMuted renders a dimmed hint line.
func RenderMuted(msg string) string {
	return "  " + mutedStyle.Render(msg)
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if w := lipgloss.Width(h); w > widths[i] {
				widths[i] = w
			}
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if w := lipgloss.Width(cell); i < numCols && w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var b strings.Builder
	writeRule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	writeRule("╭", "┬", "╮")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		writeRule("├", "┼", "┤")
	}

	// Data rows
	for r, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			writeRule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align numeric columns (all except first)
			var padded string
			if i == 0 {
				padded = " " + padRight(cell, widths[i]) + " "
			} else {
				padded = " " + padLeft(cell, widths[i]) + " "
			}
			b.WriteString(t.tone(r, i).style().Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	writeRule("╰", "┴", "╯")
	return b.String()
}

func (t Table) tone(row, col int) Tone {
	if row >= len(t.Tones) || col >= len(t.Tones[row]) {
		return ToneNeutral
	}
	return t.Tones[row][col]
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// TimelineTable builds the month-by-month projection table.
func TimelineTable(rows []model.MonthRow, current model.MonthKey, currency string) Table {
	t := Table{
		Headers: []string{"Month", "Income", "Expenses", "Carry-in", "Carry-out"},
	}
	for _, r := range rows {
		month := r.Month.String()
		if r.Month == current {
			month += " *"
		}
		t.Rows = append(t.Rows, []string{
			month,
			FormatMoney(r.Income, currency),
			FormatMoney(r.Expenses, currency),
			FormatMoney(r.CarryIn, currency),
			FormatMoney(r.CarryOut, currency),
		})
		t.Tones = append(t.Tones, []Tone{
			ToneNeutral, TonePositive, ToneNegative, ToneMuted, BalanceTone(r.CarryOut),
		})
	}
	return t
}

// RenderSummary renders the current-month header: month, amount available to
// spend, and the balance carried forward.
func RenderSummary(s model.Summary, currency string) string {
	carry := positiveStyle
	if roundUnits(s.CarryOut) < 0 {
		carry = negativeStyle
	}
	return fmt.Sprintf("  %s %s   %s %s   %s %s\n",
		mutedStyle.Render("Month"), valueStyle.Bold(true).Render(FormatMonth(s.Month)),
		mutedStyle.Render("To spend"), positiveStyle.Bold(true).Render(FormatMoney(s.ToSpend, currency)),
		mutedStyle.Render("Carried forward"), carry.Bold(true).Render(FormatMoney(s.CarryOut, currency)),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of
// values. Negative values are shifted so the lowest maps to the first block.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderHorizontalBar renders a horizontal bar chart entry.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 {
		return fmt.Sprintf("  %s", label)
	}
	barLen := int(value / maxValue * float64(maxWidth))
	if barLen < 0 {
		barLen = 0
	}
	bar := strings.Repeat("█", barLen)
	return fmt.Sprintf("  %-8s %s", label, bar)
}
