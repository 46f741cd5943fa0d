package tui

import (
	"fmt"
	"strings"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/tui/components"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// recordsState tracks the records tab selection.
type recordsState struct {
	cursor int
}

// recordItem is one row of the records list.
type recordItem struct {
	kind   ledger.Kind
	id     string
	when   string
	name   string
	amount string
	income bool
}

// flattenRecords lists every dated record grouped by kind in ledger.Kinds
// order, keeping each collection's stored order.
func flattenRecords(rs model.RecordSet) []recordItem {
	items := make([]recordItem, 0, rs.RecordCount())
	for _, r := range rs.Invoices {
		items = append(items, recordItem{
			kind: ledger.KindInvoice, id: r.ID, when: cli.FormatMonth(r.Month),
			name: r.Label, amount: cli.FormatAmount(r.Amount), income: true,
		})
	}
	for _, r := range rs.HourlyEntries {
		items = append(items, recordItem{
			kind: ledger.KindHours, id: r.ID, when: cli.FormatMonth(r.Month),
			name: "billed hours", amount: cli.FormatAmount(r.Hours) + " h", income: true,
		})
	}
	for _, r := range rs.Recurring {
		items = append(items, recordItem{
			kind: ledger.KindRecurring, id: r.ID, when: cli.FormatRange(r.StartMonth, r.EndMonth),
			name: r.Name, amount: cli.FormatAmount(r.Amount) + "/mo",
		})
	}
	for _, r := range rs.OneTime {
		items = append(items, recordItem{
			kind: ledger.KindOneTime, id: r.ID, when: cli.FormatMonth(r.Month),
			name: r.Name, amount: cli.FormatAmount(r.Amount),
		})
	}
	return items
}

func (a App) renderRecordsTab(cw, contentH int) string {
	t := theme.Active
	items := flattenRecords(a.records)
	innerW := components.CardInnerWidth(cw)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(items) == 0 {
		return components.ContentCard("Records",
			mutedStyle.Render("No records yet. Press a to add an invoice, hours or an expense."), cw)
	}

	cols := []column{
		{title: "Type", width: 10},
		{title: "When", width: 19},
		{title: "Name", width: 16},
		{title: "Amount", width: 12, right: true},
		{title: "ID", width: 8},
	}
	fitColumns(cols, innerW, 2)

	// Card border + title + header + footer.
	visible := max(1, contentH-5)
	cursor := a.recState.cursor
	offset := max(0, cursor-visible+1)
	end := min(len(items), offset+visible)

	var b strings.Builder
	b.WriteString(gridHeader(cols))
	for i := offset; i < end; i++ {
		it := items[i]
		b.WriteString("\n")

		bg := t.Surface
		marker := "  "
		if i == cursor {
			bg = t.SurfaceBright
			marker = "▸ "
		}
		amountColor := t.Negative
		if it.income {
			amountColor = t.Positive
		}
		style := func(c lipgloss.Color) lipgloss.Style {
			return lipgloss.NewStyle().Foreground(c).Background(bg)
		}
		b.WriteString(gridRow(cols, innerW, bg,
			[]string{marker + kindLabel(it.kind), it.when, it.name, it.amount, cli.ShortID(it.id)},
			[]lipgloss.Style{
				style(t.Accent),
				style(t.TextMuted),
				style(t.TextPrimary),
				style(amountColor),
				style(t.TextDim),
			}))
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d", cursor+1, len(items))))

	return components.ContentCard("Records", b.String(), cw)
}

func kindLabel(k ledger.Kind) string {
	switch k {
	case ledger.KindInvoice:
		return "invoice"
	case ledger.KindHours:
		return "hours"
	case ledger.KindRecurring:
		return "monthly"
	case ledger.KindOneTime:
		return "once"
	}
	return string(k)
}
