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

func (a App) renderIncomeTab(cw int) string {
	t := theme.Active
	rs := a.records
	cur := a.currency()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	activeStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	field := func(label, value string, active bool) string {
		v := dimStyle.Render(value)
		if active {
			v = valueStyle.Render(value)
		}
		return labelStyle.Render(fmt.Sprintf("%-22s", label)) + v + "\n"
	}

	employment := rs.Mode == model.ModeEmployment
	var params strings.Builder
	params.WriteString(labelStyle.Render(fmt.Sprintf("%-22s", "Mode")))
	params.WriteString(activeStyle.Render(rs.Mode.Label()))
	params.WriteString("\n\n")
	params.WriteString(field("Net salary", cli.FormatMoney(rs.EmploymentNet, cur), employment))
	params.WriteString(field("Social contribution", cli.FormatMoney(rs.SelfEmployed.Zus, cur), !employment))
	params.WriteString(field("Tax rate", cli.FormatPercent(rs.SelfEmployed.TaxRate), !employment))
	params.WriteString(field("Hourly rate", cli.FormatMoney(rs.SelfEmployed.HourlyRate, cur), !employment))
	params.WriteString("\n")
	if employment {
		params.WriteString(dimStyle.Render("The net salary is paid every month of the timeline."))
	} else {
		params.WriteString(dimStyle.Render(fmt.Sprintf("Invoices: %d  Billed months: %d",
			len(rs.Invoices), len(rs.HourlyEntries))))
		params.WriteString("\n")
		params.WriteString(dimStyle.Render("Net = revenue - tax - contribution, never below zero."))
	}
	params.WriteString("\n\n")
	params.WriteString(labelStyle.Render("[m] switch mode  [e] edit parameters"))

	paramsCard := components.ContentCard("Income model", params.String(), cw)

	return paramsCard + "\n" + components.ContentCard("Income by month", a.renderIncomeBars(components.CardInnerWidth(cw)), cw)
}

// renderIncomeBars draws one bar per timeline month, scaled to the best
// month.
func (a App) renderIncomeBars(w int) string {
	t := theme.Active
	cur := a.currency()

	peak := 0.0
	for _, r := range a.rows {
		peak = max(peak, r.Income)
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	nowStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	const valueW = 12
	barMax := max(4, w-9-valueW-2)

	var lines []string
	for _, r := range a.rows {
		n := 0
		if peak > 0 {
			n = int(r.Income / peak * float64(barMax))
		}
		style := barStyle
		if r.Month == a.now {
			style = nowStyle
		}
		value := cli.FormatMoney(r.Income, cur)
		value = strings.Repeat(" ", max(0, valueW-lipgloss.Width(value))) + value
		line := labelStyle.Render(fmt.Sprintf("%-9s", r.Month.String())) +
			style.Render(strings.Repeat("█", n)+strings.Repeat(" ", barMax-n)) +
			valueStyle.Render("  "+value)
		lines = append(lines, line)
	}
	if peak == 0 {
		lines = append([]string{labelStyle.Render("No income in the projected months.")}, lines...)
	}
	return strings.Join(lines, "\n")
}
