package tui

import (
	"fmt"
	"strings"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/tui/components"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderTimelineTab(cw, contentH int) string {
	t := theme.Active
	cur := a.currency()
	s := a.summary

	finalHint := ""
	if !a.totals.LowestMonth.IsZero() {
		finalHint = fmt.Sprintf("lowest %s in %s", cli.FormatMoney(a.totals.LowestBalance, cur), a.totals.LowestMonth)
	}
	carryHint := ""
	if len(a.rows) > 0 {
		carryHint = "through " + a.rows[len(a.rows)-1].Month.String()
	}

	metrics := []components.Metric{
		{Label: "Month", Value: cli.FormatMonthLong(s.Month), Hint: a.records.Mode.Label()},
		{Label: "To spend", Value: cli.FormatMoney(s.ToSpend, cur), Color: t.Positive, Hint: "income + carry-in"},
		{Label: "Carried forward", Value: cli.FormatMoney(s.CarryOut, cur), Color: t.Balance(s.CarryOut), Hint: "into next month"},
		{Label: "Final balance", Value: cli.FormatMoney(a.totals.FinalBalance, cur), Color: t.Balance(a.totals.FinalBalance), Hint: carryHint},
	}
	if a.isCompactLayout() {
		metrics = metrics[1:]
		metrics[2].Hint = finalHint
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")
	used := lipgloss.Height(b.String())

	chartH := max(3, min(8, (contentH-used)/3))
	var middle string
	if a.isCompactLayout() {
		middle = components.ContentCard("Balance carried forward", a.renderBalanceChart(components.CardInnerWidth(cw), chartH), cw)
	} else {
		widths := components.LayoutRow(cw, 3)
		chartW := widths[0] + widths[1]
		middle = components.CardRow([]string{
			components.ContentCard("Balance carried forward", a.renderBalanceChart(components.CardInnerWidth(chartW), chartH), chartW),
			components.ContentCard("This month", a.renderMonthDetail(components.CardInnerWidth(widths[2]), finalHint), widths[2]),
		})
	}
	b.WriteString(middle)
	b.WriteString("\n")
	used += lipgloss.Height(middle)

	// Card border + title + column header take four lines.
	tableRows := max(3, contentH-used-4)
	b.WriteString(components.ContentCard("Months", a.renderTimelineTable(components.CardInnerWidth(cw), tableRows), cw))

	return b.String()
}

func (a App) renderBalanceChart(w, h int) string {
	values := make([]float64, len(a.rows))
	for i, r := range a.rows {
		values[i] = r.CarryOut
	}
	return components.BalanceChart(values, monthLabels(a.rows), w, h)
}

func (a App) renderMonthDetail(w int, finalHint string) string {
	t := theme.Active
	cur := a.currency()

	var row model.MonthRow
	for _, r := range a.rows {
		if r.Month == a.now {
			row = r
			break
		}
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	line := func(label string, v float64, color lipgloss.Color) string {
		val := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(cli.FormatMoney(v, cur))
		gap := max(1, w-lipgloss.Width(label)-lipgloss.Width(val))
		return labelStyle.Render(label+strings.Repeat(" ", gap)) + val
	}

	var b strings.Builder
	b.WriteString(line("Income", row.Income, t.Positive) + "\n")
	b.WriteString(line("Carry-in", row.CarryIn, t.Balance(row.CarryIn)) + "\n")
	b.WriteString(line("Recurring", row.Recurring, t.Negative) + "\n")
	b.WriteString(line("One-time", row.OneTime, t.Negative) + "\n")
	b.WriteString(line("Left over", row.CarryOut, t.Balance(row.CarryOut)) + "\n\n")

	available := row.Income + row.CarryIn
	if available > 0 {
		barW := max(6, w-14)
		b.WriteString(components.UsageBar("Spent", row.Expenses/available, 7, barW))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Render("Nothing available this month"))
	}
	if finalHint != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(truncStr(finalHint, w)))
	}
	return b.String()
}

func (a App) renderTimelineTable(w, maxRows int) string {
	t := theme.Active
	cur := a.currency()

	cols := []column{
		{title: "Month", width: 9},
		{title: "Income", width: 12, right: true},
		{title: "Expenses", width: 12, right: true},
		{title: "Carry-in", width: 12, right: true},
		{title: "Carry-out", width: 12, right: true},
	}
	fitColumns(cols, w, 0)

	var b strings.Builder
	b.WriteString(gridHeader(cols))

	start := a.timelineScroll
	end := min(len(a.rows), start+maxRows)
	for _, r := range a.rows[start:end] {
		b.WriteString("\n")

		bg := t.Surface
		month := r.Month.String()
		if r.Month == a.now {
			bg = t.SurfaceBright
			month += " *"
		}
		style := func(c lipgloss.Color) lipgloss.Style {
			return lipgloss.NewStyle().Foreground(c).Background(bg)
		}
		b.WriteString(gridRow(cols, w, bg,
			[]string{
				month,
				cli.FormatMoney(r.Income, cur),
				cli.FormatMoney(r.Expenses, cur),
				cli.FormatMoney(r.CarryIn, cur),
				cli.FormatMoney(r.CarryOut, cur),
			},
			[]lipgloss.Style{
				style(t.TextPrimary),
				style(t.Positive),
				style(t.Negative),
				style(t.TextMuted),
				style(t.Balance(r.CarryOut)).Bold(true),
			}))
	}

	if hidden := len(a.rows) - end; hidden > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render(fmt.Sprintf("… %d more (j/k to scroll)", hidden)))
	}
	return b.String()
}

// monthLabels builds compact X-axis labels: the year on the first month and
// on every January, the month abbreviation elsewhere.
func monthLabels(rows []model.MonthRow) []string {
	labels := make([]string, len(rows))
	for i, r := range rows {
		if i == 0 || r.Month.Month == 1 {
			labels[i] = fmt.Sprintf("%s %02d", r.Month.Month.String()[:3], r.Month.Year%100)
			continue
		}
		labels[i] = r.Month.Month.String()[:3]
	}
	return labels
}

func (a App) currency() string {
	if a.cfg.General.Currency == "" {
		return cli.DefaultCurrency
	}
	return a.cfg.General.Currency
}

// ─── Grid ───────────────────────────────────────────────────────

type column struct {
	title string
	width int
	right bool
}

// fitColumns widens cols[flex] so the grid fills w.
func fitColumns(cols []column, w, flex int) {
	total := 0
	for _, c := range cols {
		total += c.width
	}
	total += 2 * (len(cols) - 1)
	if extra := w - total; extra > 0 {
		cols[flex].width += extra
	}
}

func gridHeader(cols []column) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cells := make([]string, len(cols))
	styles := make([]lipgloss.Style, len(cols))
	for i, c := range cols {
		cells[i] = c.title
		styles[i] = style
	}
	return gridRow(cols, 0, t.Surface, cells, styles)
}

// gridRow renders one line of cells; w, when positive, pads the row to
// that width in bg.
func gridRow(cols []column, w int, bg lipgloss.Color, cells []string, styles []lipgloss.Style) string {
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString(sep)
		}
		cell := ""
		if i < len(cells) {
			cell = truncStr(cells[i], c.width)
		}
		gap := strings.Repeat(" ", max(0, c.width-lipgloss.Width(cell)))
		if c.right {
			cell = gap + cell
		} else {
			cell += gap
		}
		b.WriteString(styles[i].Render(cell))
	}
	if pad := w - lipgloss.Width(b.String()); w > 0 && pad > 0 {
		b.WriteString(lipgloss.NewStyle().Background(bg).Render(strings.Repeat(" ", pad)))
	}
	return b.String()
}
