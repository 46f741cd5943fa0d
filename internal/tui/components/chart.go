package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders a unicode sparkline from values, scaled between the
// smallest and largest value so negative series still show their shape.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

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

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// BalanceChart renders a column chart of balances around a zero axis:
// non-negative values grow up in the positive color, negative values grow
// down in the negative color. labels, when given, must match values.
func BalanceChart(values []float64, labels []string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	if width < 15 || height < 3 {
		return Sparkline(values, t.Accent)
	}

	hi, lo := 0.0, 0.0
	for _, v := range values {
		hi = max(hi, v)
		lo = min(lo, v)
	}
	if hi == 0 && lo == 0 {
		hi = 1
	}

	// Round the extremes to a tick step so the axis labels read well.
	step := chartTickStep(max(hi, -lo))
	hi = math.Ceil(hi/step) * step
	lo = math.Floor(lo/step) * step
	span := hi - lo

	// Rows above the zero line; at least one on each side that has data.
	upRows := int(math.Round(float64(height) * hi / span))
	if hi > 0 && upRows == 0 {
		upRows = 1
	}
	if lo < 0 && upRows == height {
		upRows = height - 1
	}
	downRows := height - upRows
	rowValue := span / float64(height)

	yLabels := map[int]string{}
	if upRows > 0 {
		yLabels[0] = formatChartLabel(hi)
	}
	if downRows > 0 {
		yLabels[height-1] = formatChartLabel(lo)
	}
	yLabelW := 4
	for _, l := range yLabels {
		yLabelW = max(yLabelW, len(l)+1)
	}

	chartW := width - yLabelW - 1
	if chartW < 5 {
		chartW = 5
	}

	n := len(values)
	gap := 1
	if n <= 1 {
		gap = 0
	}
	barW := chartW
	if n > 1 {
		barW = (chartW - (n - 1)) / n
	}
	if barW < 1 {
		// Too many months for one column each: sample evenly.
		maxN := max(2, (chartW+1)/2)
		sampled := make([]float64, maxN)
		var sampledLabels []string
		if len(labels) == n {
			sampledLabels = make([]string, maxN)
		}
		for i := range sampled {
			src := i * (n - 1) / (maxN - 1)
			sampled[i] = values[src]
			if sampledLabels != nil {
				sampledLabels[i] = labels[src]
			}
		}
		values, labels, n, barW = sampled, sampledLabels, maxN, 1
	}
	barW = min(barW, 6)
	axisLen := n*barW + max(0, n-1)*gap

	upBlocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	posStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	negStyle := lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface)

	var b strings.Builder
	writeRow := func(label string, cell func(v float64) (string, lipgloss.Style)) {
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			ch, style := cell(v)
			b.WriteString(style.Render(strings.Repeat(ch, barW)))
		}
		b.WriteString("\n")
	}

	for row := 0; row < upRows; row++ {
		top := hi - float64(row)*rowValue
		bottom := top - rowValue
		writeRow(yLabels[row], func(v float64) (string, lipgloss.Style) {
			switch {
			case v >= top:
				return "█", posStyle
			case v > bottom:
				idx := int((v - bottom) / rowValue * 8)
				return string(upBlocks[max(1, min(idx, 8))]), posStyle
			}
			return " ", blank
		})
	}

	// Zero axis.
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("┼"))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	for row := 0; row < downRows; row++ {
		b.WriteString("\n")
		top := -float64(row) * rowValue
		bottom := top - rowValue
		label := yLabels[upRows+row]
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v <= bottom:
				b.WriteString(negStyle.Render(strings.Repeat("█", barW)))
			case v < top-rowValue/2:
				b.WriteString(negStyle.Render(strings.Repeat("▀", barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
	}

	if len(labels) == n && n > 0 {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(placeLabels(labels, barW, gap, axisLen), " ")))
	}

	return b.String()
}

// placeLabels spreads ASCII labels under their columns, skipping any that
// would overlap the previous one. The last label is kept when it fits.
func placeLabels(labels []string, barW, gap, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	lastEnd := -1
	put := func(i int) bool {
		lbl := labels[i]
		pos := i * (barW + gap)
		if pos+len(lbl) > axisLen {
			pos = axisLen - len(lbl)
		}
		if pos < 0 || pos <= lastEnd {
			return false
		}
		copy(buf[pos:], lbl)
		lastEnd = pos + len(lbl)
		return true
	}
	for i := 0; i < len(labels)-1; i++ {
		put(i)
	}
	put(len(labels) - 1)
	return string(buf)
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	if v < 0 {
		return "-" + formatChartLabel(-v)
	}
	switch {
	case v >= 1e6:
		if v == math.Trunc(v/1e6)*1e6 {
			return fmt.Sprintf("%.0fM", v/1e6)
		}
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
