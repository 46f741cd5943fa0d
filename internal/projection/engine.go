// Package projection turns a record snapshot into a month-by-month cash-flow
// timeline with carry-forward accounting. Every function here is pure: the
// current month is passed in rather than read from the clock.
package projection

import (
	"math"

	"github.com/mwasalski/financial-app/internal/model"
)

// runway is how many months past the last referenced month the timeline shows.
const runway = 2

// ExpenseBreakdown holds one month's expense subtotals.
type ExpenseBreakdown struct {
	Recurring float64
	OneTime   float64
	Total     float64
}

// DeriveMonthRange returns the first and last month to project. The range
// covers now and every month referenced by any record, extended by two
// months of runway past the latest one.
func DeriveMonthRange(rs model.RecordSet, now model.MonthKey) (minMonth, maxMonth model.MonthKey) {
	minMonth, maxMonth = now, now
	see := func(m model.MonthKey) {
		if m.IsZero() {
			return
		}
		if m.Before(minMonth) {
			minMonth = m
		}
		if m.After(maxMonth) {
			maxMonth = m
		}
	}

	for _, inv := range rs.Invoices {
		see(inv.Month)
	}
	for _, h := range rs.HourlyEntries {
		see(h.Month)
	}
	for _, r := range rs.Recurring {
		see(r.StartMonth)
		see(r.EndMonth)
	}
	for _, o := range rs.OneTime {
		see(o.Month)
	}

	return minMonth, maxMonth.AddMonths(runway)
}

// EnumerateMonths lists every month from minMonth to maxMonth inclusive.
// It returns nil when maxMonth precedes minMonth.
func EnumerateMonths(minMonth, maxMonth model.MonthKey) []model.MonthKey {
	n := maxMonth.Index() - minMonth.Index() + 1
	if n <= 0 {
		return nil
	}
	months := make([]model.MonthKey, n)
	for i := range months {
		months[i] = minMonth.AddMonths(i)
	}
	return months
}

// Income computes the net income for month under the record set's mode.
func Income(month model.MonthKey, rs model.RecordSet) float64 {
	if rs.Mode == model.ModeEmployment {
		return finite(rs.EmploymentNet)
	}

	var revenue float64
	for _, inv := range rs.Invoices {
		if inv.Month == month {
			revenue += finite(inv.Amount)
		}
	}

	// Only the first entry for a month counts.
	for _, h := range rs.HourlyEntries {
		if h.Month == month {
			revenue += finite(h.Hours) * finite(rs.SelfEmployed.HourlyRate)
			break
		}
	}

	tax := revenue * finite(rs.SelfEmployed.TaxRate) / 100
	net := revenue - tax - finite(rs.SelfEmployed.Zus)
	return math.Max(0, math.Round(net))
}

// Expenses sums the recurring and one-time expenses that fall in month.
func Expenses(month model.MonthKey, recurring []model.RecurringExpense, oneTime []model.OneTimeExpense) ExpenseBreakdown {
	var b ExpenseBreakdown
	for _, r := range recurring {
		if r.StartMonth.IsZero() || r.EndMonth.IsZero() {
			continue
		}
		if !month.Before(r.StartMonth) && !month.After(r.EndMonth) {
			b.Recurring += finite(r.Amount)
		}
	}
	for _, o := range oneTime {
		if o.Month == month {
			b.OneTime += finite(o.Amount)
		}
	}
	b.Total = b.Recurring + b.OneTime
	return b
}

// Timeline projects the record set month by month. Each row's carry-in is
// the previous row's carry-out; the first row starts from zero.
func Timeline(rs model.RecordSet, now model.MonthKey) []model.MonthRow {
	minMonth, maxMonth := DeriveMonthRange(rs, now)
	months := EnumerateMonths(minMonth, maxMonth)

	rows := make([]model.MonthRow, 0, len(months))
	var carry float64
	for _, m := range months {
		income := Income(m, rs)
		exp := Expenses(m, rs.Recurring, rs.OneTime)
		balance := income + carry - exp.Total
		rows = append(rows, model.MonthRow{
			Month:     m,
			Income:    income,
			Expenses:  exp.Total,
			CarryIn:   carry,
			CarryOut:  balance,
			Recurring: exp.Recurring,
			OneTime:   exp.OneTime,
		})
		carry = balance
	}
	return rows
}

// finite maps NaN and infinities to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
