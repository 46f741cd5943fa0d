package projection

import (
	"math"
	"reflect"
	"testing"

	"github.com/mwasalski/financial-app/internal/model"
)

var now = model.MustMonth("2024-06")

func m(s string) model.MonthKey { return model.MustMonth(s) }

func TestDeriveMonthRange_Empty(t *testing.T) {
	lo, hi := DeriveMonthRange(model.RecordSet{}, now)
	if lo != now || hi != m("2024-08") {
		t.Fatalf("range = [%s, %s], want [2024-06, 2024-08]", lo, hi)
	}
}

func TestDeriveMonthRange_CoversAllRecords(t *testing.T) {
	rs := model.RecordSet{
		Invoices:      []model.Invoice{{Month: m("2024-02")}},
		HourlyEntries: []model.HourlyEntry{{Month: m("2024-07")}},
		Recurring:     []model.RecurringExpense{{StartMonth: m("2023-11"), EndMonth: m("2025-01")}},
		OneTime:       []model.OneTimeExpense{{Month: m("2024-12")}, {}},
	}
	lo, hi := DeriveMonthRange(rs, now)
	if lo != m("2023-11") {
		t.Errorf("min = %s, want 2023-11", lo)
	}
	if hi != m("2025-03") {
		t.Errorf("max = %s, want 2025-03", hi)
	}
}

func TestEnumerateMonths(t *testing.T) {
	got := EnumerateMonths(m("2023-11"), m("2024-02"))
	want := []model.MonthKey{m("2023-11"), m("2023-12"), m("2024-01"), m("2024-02")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EnumerateMonths = %v, want %v", got, want)
	}
	if n := len(EnumerateMonths(m("2024-01"), m("2024-01"))); n != 1 {
		t.Fatalf("single-month range len = %d, want 1", n)
	}
	if got := EnumerateMonths(m("2024-05"), m("2024-01")); got != nil {
		t.Fatalf("inverted range = %v, want nil", got)
	}
}

func TestIncome_Employment(t *testing.T) {
	rs := model.RecordSet{Mode: model.ModeEmployment, EmploymentNet: 5000.5}
	if got := Income(now, rs); got != 5000.5 {
		t.Fatalf("Income = %v, want 5000.5 (employment net is not rounded)", got)
	}
	rs.EmploymentNet = math.NaN()
	if got := Income(now, rs); got != 0 {
		t.Fatalf("Income with NaN net = %v, want 0", got)
	}
}

func TestIncome_SelfEmployed(t *testing.T) {
	params := model.SelfEmployedParams{Zus: 1300, TaxRate: 12, HourlyRate: 120}

	tests := []struct {
		name string
		rs   model.RecordSet
		want float64
	}{
		{
			name: "single invoice",
			rs: model.RecordSet{
				Invoices: []model.Invoice{{Amount: 20000, Month: now}},
			},
			want: 16300,
		},
		{
			name: "invoices and hours",
			rs: model.RecordSet{
				Invoices:      []model.Invoice{{Amount: 1000, Month: now}, {Amount: 500, Month: now}, {Amount: 9999, Month: m("2024-07")}},
				HourlyEntries: []model.HourlyEntry{{Month: now, Hours: 10}},
			},
			// (1500 + 1200) * 0.88 - 1300 = 1076
			want: 1076,
		},
		{
			name: "first hourly entry wins",
			rs: model.RecordSet{
				HourlyEntries: []model.HourlyEntry{
					{Month: m("2024-05"), Hours: 999},
					{Month: now, Hours: 100},
					{Month: now, Hours: 50},
				},
			},
			// 12000 * 0.88 - 1300 = 9260
			want: 9260,
		},
		{
			name: "negative net floored",
			rs:   model.RecordSet{},
			want: 0,
		},
		{
			name: "just above zus",
			rs: model.RecordSet{
				Invoices: []model.Invoice{{Amount: 1500, Month: now}},
			},
			// 1500 * 0.88 - 1300 = 20
			want: 20,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rs := tc.rs
			rs.Mode = model.ModeSelfEmployed
			rs.SelfEmployed = params
			if got := Income(now, rs); got != tc.want {
				t.Fatalf("Income = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIncome_RoundsNet(t *testing.T) {
	rs := model.RecordSet{
		Mode:     model.ModeSelfEmployed,
		Invoices: []model.Invoice{{Amount: 100.6, Month: now}},
	}
	if got := Income(now, rs); got != 101 {
		t.Fatalf("Income = %v, want 101", got)
	}
	rs.Invoices[0].Amount = 100.4
	if got := Income(now, rs); got != 100 {
		t.Fatalf("Income = %v, want 100", got)
	}
}

func TestExpenses(t *testing.T) {
	recurring := []model.RecurringExpense{
		{Amount: 1500, StartMonth: m("2024-01"), EndMonth: m("2024-03")},
		{Amount: 99, StartMonth: m("2024-05"), EndMonth: m("2024-01")}, // inverted
		{Amount: 7, StartMonth: m("2024-01")},                         // no end
	}
	oneTime := []model.OneTimeExpense{
		{Amount: 4000, Month: m("2024-02")},
		{Amount: 0.5, Month: m("2024-02")},
	}

	cases := map[string]ExpenseBreakdown{
		"2023-12": {},
		"2024-01": {Recurring: 1500, Total: 1500},
		"2024-02": {Recurring: 1500, OneTime: 4000.5, Total: 5500.5},
		"2024-03": {Recurring: 1500, Total: 1500},
		"2024-04": {},
		"2024-05": {},
	}
	for month, want := range cases {
		if got := Expenses(m(month), recurring, oneTime); got != want {
			t.Errorf("%s: Expenses = %+v, want %+v", month, got, want)
		}
	}
}

func TestTimeline_EmptyRecordSet(t *testing.T) {
	rows := Timeline(model.RecordSet{Mode: model.ModeSelfEmployed}, now)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Month != now.AddMonths(i) {
			t.Errorf("row %d month = %s, want %s", i, r.Month, now.AddMonths(i))
		}
		if r.Income != 0 || r.Expenses != 0 || r.CarryOut != 0 {
			t.Errorf("row %d = %+v, want all zero", i, r)
		}
	}
}

func TestTimeline_Employment(t *testing.T) {
	rs := model.RecordSet{
		Mode:          model.ModeEmployment,
		EmploymentNet: 5000,
		Invoices:      []model.Invoice{{Amount: 1, Month: m("2024-01")}},
	}
	rows := Timeline(rs, now)
	if len(rows) != 8 { // 2024-01 .. 2024-08
		t.Fatalf("rows = %d, want 8", len(rows))
	}
	for i, r := range rows {
		if r.Income != 5000 || r.Expenses != 0 {
			t.Fatalf("row %d = %+v", i, r)
		}
		if r.CarryOut != r.CarryIn+5000 {
			t.Fatalf("row %d carry-out %v != carry-in %v + 5000", i, r.CarryOut, r.CarryIn)
		}
	}
	if last := rows[len(rows)-1].CarryOut; last != 40000 {
		t.Fatalf("final balance = %v, want 40000", last)
	}
}

func TestTimeline_RecurringScenario(t *testing.T) {
	rs := model.RecordSet{
		Mode: model.ModeEmployment,
		Recurring: []model.RecurringExpense{
			{Amount: 1500, StartMonth: m("2024-01"), EndMonth: m("2024-03")},
			{Amount: 800, StartMonth: m("2024-05"), EndMonth: m("2024-01")},
		},
	}
	rows := Timeline(rs, m("2024-02"))
	for _, r := range rows {
		want := 0.0
		switch r.Month.String() {
		case "2024-01", "2024-02", "2024-03":
			want = 1500
		}
		if r.Recurring != want || r.Expenses != want {
			t.Errorf("%s recurring = %v, want %v", r.Month, r.Recurring, want)
		}
	}
	if got := rows[len(rows)-1].Month; got != m("2024-07") {
		t.Fatalf("last month = %s, want 2024-07 (inverted range end 2024-05 + 2)", got)
	}
}

func TestTimeline_Properties(t *testing.T) {
	rs := model.RecordSet{
		Mode:         model.ModeSelfEmployed,
		SelfEmployed: model.SelfEmployedParams{Zus: 1300, TaxRate: 12, HourlyRate: 120},
		Invoices: []model.Invoice{
			{Amount: 20000, Month: m("2024-04")},
			{Amount: 5000, Month: m("2025-02")},
		},
		HourlyEntries: []model.HourlyEntry{{Month: m("2024-09"), Hours: 160}},
		Recurring:     []model.RecurringExpense{{Amount: 1500, StartMonth: m("2024-06"), EndMonth: m("2025-12")}},
		OneTime:       []model.OneTimeExpense{{Amount: 4000, Month: m("2024-03")}},
	}

	rows := Timeline(rs, now)
	if len(rows) == 0 {
		t.Fatal("timeline is empty")
	}
	if rows[0].CarryIn != 0 {
		t.Fatalf("first carry-in = %v, want 0", rows[0].CarryIn)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Month != rows[i-1].Month.AddMonths(1) {
			t.Fatalf("gap between %s and %s", rows[i-1].Month, rows[i].Month)
		}
		if rows[i].CarryIn != rows[i-1].CarryOut {
			t.Fatalf("row %d carry-in %v != previous carry-out %v", i, rows[i].CarryIn, rows[i-1].CarryOut)
		}
	}
	for i, r := range rows {
		if r.CarryOut != r.Income+r.CarryIn-r.Expenses {
			t.Fatalf("row %d balance mismatch: %+v", i, r)
		}
		if r.Expenses != r.Recurring+r.OneTime {
			t.Fatalf("row %d expense breakdown mismatch: %+v", i, r)
		}
	}
	if last := rows[len(rows)-1].Month; last.Index() < m("2025-12").AddMonths(2).Index() {
		t.Fatalf("last month %s does not extend two months past 2025-12", last)
	}

	again := Timeline(rs, now)
	if !reflect.DeepEqual(rows, again) {
		t.Fatal("Timeline is not idempotent")
	}
}

func TestTimeline_DoesNotMutateInput(t *testing.T) {
	rs := model.RecordSet{
		Mode:     model.ModeSelfEmployed,
		Invoices: []model.Invoice{{ID: "a", Amount: 10, Month: now}},
	}
	before := rs.Invoices[0]
	_ = Timeline(rs, now)
	if rs.Invoices[0] != before {
		t.Fatal("Timeline mutated its input")
	}
}
