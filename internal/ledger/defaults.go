package ledger

import (
	"fmt"

	"github.com/mwasalski/financial-app/internal/model"
)

// Default returns the starter record set shown to a new user, anchored on now.
func Default(now model.MonthKey) model.RecordSet {
	return model.RecordSet{
		Mode:          model.ModeSelfEmployed,
		EmploymentNet: 8000,
		SelfEmployed: model.SelfEmployedParams{
			Zus:        1300,
			TaxRate:    12,
			HourlyRate: 120,
		},
		Invoices: []model.Invoice{
			{ID: NewID(), Label: "Starter invoice", Amount: 20000, Month: now},
		},
		HourlyEntries: []model.HourlyEntry{
			{ID: NewID(), Month: now, Hours: 160},
		},
		Recurring: []model.RecurringExpense{
			{ID: NewID(), Name: "Car lease", Amount: 1500, StartMonth: now, EndMonth: now.AddMonths(18)},
			{ID: NewID(), Name: "Internet + phone", Amount: 180, StartMonth: now, EndMonth: now.AddMonths(24)},
		},
		OneTime: []model.OneTimeExpense{
			{ID: NewID(), Name: "Laptop", Amount: 4000, Month: now},
		},
	}
}

// Normalize repairs a decoded snapshot in place of rejecting it: missing or
// duplicate IDs are replaced with fresh ones and nil slices become empty.
// It returns the number of IDs reassigned, or an error when the snapshot
// cannot be trusted at all.
func Normalize(rs model.RecordSet) (model.RecordSet, int, error) {
	if !rs.Mode.Valid() {
		return rs, 0, fmt.Errorf("unknown income mode %q", rs.Mode)
	}

	out := Clone(rs)
	seen := make(map[string]struct{})
	fixed := 0
	fix := func(id *string) {
		if _, dup := seen[*id]; *id == "" || dup {
			*id = NewID()
			fixed++
		}
		seen[*id] = struct{}{}
	}

	for i := range out.Invoices {
		fix(&out.Invoices[i].ID)
	}
	clear(seen)
	for i := range out.HourlyEntries {
		fix(&out.HourlyEntries[i].ID)
	}
	clear(seen)
	for i := range out.Recurring {
		fix(&out.Recurring[i].ID)
	}
	clear(seen)
	for i := range out.OneTime {
		fix(&out.OneTime[i].ID)
	}

	return out, fixed, nil
}
