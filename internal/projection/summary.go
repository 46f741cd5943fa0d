package projection

import (
	"math"

	"github.com/mwasalski/financial-app/internal/model"
)

// Summarize picks the headline row for now (or the first row when now is
// outside the timeline) and derives the spendable amount.
func Summarize(rows []model.MonthRow, now model.MonthKey) model.Summary {
	if len(rows) == 0 {
		return model.Summary{Month: now}
	}

	row := rows[0]
	for _, r := range rows {
		if r.Month == now {
			row = r
			break
		}
	}

	return model.Summary{
		Month:    row.Month,
		Income:   row.Income,
		Expenses: row.Expenses,
		ToSpend:  math.Max(0, row.Income+row.CarryIn),
		CarryOut: row.CarryOut,
	}
}

// Sum computes whole-timeline totals and the month with the lowest balance.
func Sum(rows []model.MonthRow) model.Totals {
	var t model.Totals
	for i, r := range rows {
		t.Income += r.Income
		t.Expenses += r.Expenses
		if i == 0 || r.CarryOut < t.LowestBalance {
			t.LowestBalance = r.CarryOut
			t.LowestMonth = r.Month
		}
	}
	if len(rows) > 0 {
		t.FinalBalance = rows[len(rows)-1].CarryOut
	}
	return t
}
