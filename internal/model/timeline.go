package model

// MonthRow is one month of the projected cash-flow timeline.
type MonthRow struct {
	Month     MonthKey `json:"month"`
	Income    float64  `json:"income"`
	Expenses  float64  `json:"expenses"`
	CarryIn   float64  `json:"carry_in"`
	CarryOut  float64  `json:"carry_out"`
	Recurring float64  `json:"recurring"`
	OneTime   float64  `json:"one_time"`
}

// Summary holds the headline figures for the current month.
type Summary struct {
	Month    MonthKey `json:"month"`
	Income   float64  `json:"income"`
	Expenses float64  `json:"expenses"`
	ToSpend  float64  `json:"to_spend"` // income + carry-in, floored at zero
	CarryOut float64  `json:"carry_out"`
}

// Totals aggregates a whole timeline.
type Totals struct {
	Income        float64  `json:"income"`
	Expenses      float64  `json:"expenses"`
	FinalBalance  float64  `json:"final_balance"`
	LowestMonth   MonthKey `json:"lowest_month"`
	LowestBalance float64  `json:"lowest_balance"`
}
