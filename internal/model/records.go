// Package model defines the domain types for finapp records and projections.
package model

import "fmt"

// IncomeMode selects which income formula applies.
type IncomeMode string

const (
	ModeEmployment   IncomeMode = "employment"
	ModeSelfEmployed IncomeMode = "self_employed"
)

// Valid reports whether the mode is one of the known values.
func (m IncomeMode) Valid() bool {
	return m == ModeEmployment || m == ModeSelfEmployed
}

// ParseIncomeMode accepts the canonical names plus a few aliases.
func ParseIncomeMode(s string) (IncomeMode, error) {
	switch s {
	case "employment", "employed", "uop":
		return ModeEmployment, nil
	case "self_employed", "self-employed", "selfemployed", "b2b":
		return ModeSelfEmployed, nil
	}
	return "", fmt.Errorf("unknown income mode %q", s)
}

// Label is the human-readable mode name.
func (m IncomeMode) Label() string {
	switch m {
	case ModeEmployment:
		return "Employment"
	case ModeSelfEmployed:
		return "Self-employed"
	}
	return string(m)
}

// SelfEmployedParams holds the variable-income model parameters.
type SelfEmployedParams struct {
	Zus        float64 `json:"zus"`         // fixed monthly social contribution
	TaxRate    float64 `json:"tax_rate"`    // flat percentage, 0-100 expected
	HourlyRate float64 `json:"hourly_rate"` // billed per hour
}

// Invoice is one-off revenue recognized entirely in Month.
type Invoice struct {
	ID     string   `json:"id"`
	Label  string   `json:"label,omitempty"`
	Amount float64  `json:"amount"`
	Month  MonthKey `json:"month"`
}

// HourlyEntry is hours billed in Month at the configured hourly rate.
type HourlyEntry struct {
	ID    string   `json:"id"`
	Month MonthKey `json:"month"`
	Hours float64  `json:"hours"`
}

// RecurringExpense applies Amount to every month in [StartMonth, EndMonth].
type RecurringExpense struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Amount     float64  `json:"amount"`
	StartMonth MonthKey `json:"start_month"`
	EndMonth   MonthKey `json:"end_month"`
}

// OneTimeExpense applies Amount to Month only.
type OneTimeExpense struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Amount float64  `json:"amount"`
	Month  MonthKey `json:"month"`
}

// RecordSet is a complete snapshot of user-entered data. It is passed by
// value; use ledger.Clone before mutating slices.
type RecordSet struct {
	Mode          IncomeMode         `json:"mode"`
	EmploymentNet float64            `json:"employment_net"`
	SelfEmployed  SelfEmployedParams `json:"self_employed"`
	Invoices      []Invoice          `json:"invoices"`
	HourlyEntries []HourlyEntry      `json:"hourly_entries"`
	Recurring     []RecurringExpense `json:"recurring_expenses"`
	OneTime       []OneTimeExpense   `json:"one_time_expenses"`
}

// RecordCount returns the number of dated records across all collections.
func (rs RecordSet) RecordCount() int {
	return len(rs.Invoices) + len(rs.HourlyEntries) + len(rs.Recurring) + len(rs.OneTime)
}
