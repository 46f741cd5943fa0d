package store

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mwasalski/financial-app/internal/model"
)

// SchemaVersion is the version written to state files.
const SchemaVersion = 1

// FlexFloat decodes numbers, numeric strings, booleans and null. Anything
// that does not parse to a finite number becomes 0.
type FlexFloat float64

// Float returns the decoded value.
func (f FlexFloat) Float() float64 { return float64(f) }

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = 0
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		return nil
	case bytes.Equal(b, []byte("true")):
		*f = 1
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*f = parseFlex(s)
		return nil
	}
	*f = parseFlex(string(b))
	return nil
}

func parseFlex(s string) FlexFloat {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return FlexFloat(v)
}

// flexMonth decodes a YYYY-MM string; anything else is the zero month.
type flexMonth model.MonthKey

func (m *flexMonth) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*m = flexMonth{}
		return nil
	}
	k, _ := model.ParseMonthKey(s)
	*m = flexMonth(k)
	return nil
}

func (m flexMonth) key() model.MonthKey { return model.MonthKey(m) }

// flexString accepts strings and numbers (some old exports used numeric ids).
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*s = flexString(n.String())
		return nil
	}
	*s = ""
	return nil
}

// stateDoc is the on-disk shape of schema version 1 as read back. Writing
// uses model.RecordSet directly, which produces the same keys.
type stateDoc struct {
	Version       int            `json:"version"`
	Mode          string         `json:"mode"`
	EmploymentNet FlexFloat      `json:"employment_net"`
	SelfEmployed  paramsDoc      `json:"self_employed"`
	Invoices      []invoiceDoc   `json:"invoices"`
	HourlyEntries []hoursDoc     `json:"hourly_entries"`
	Recurring     []recurringDoc `json:"recurring_expenses"`
	OneTime       []oneTimeDoc   `json:"one_time_expenses"`
}

type paramsDoc struct {
	Zus        FlexFloat `json:"zus"`
	TaxRate    FlexFloat `json:"tax_rate"`
	HourlyRate FlexFloat `json:"hourly_rate"`
}

type invoiceDoc struct {
	ID     flexString `json:"id"`
	Label  string     `json:"label"`
	Amount FlexFloat  `json:"amount"`
	Month  flexMonth  `json:"month"`
}

type hoursDoc struct {
	ID    flexString `json:"id"`
	Month flexMonth  `json:"month"`
	Hours FlexFloat  `json:"hours"`
}

type recurringDoc struct {
	ID         flexString `json:"id"`
	Name       string     `json:"name"`
	Amount     FlexFloat  `json:"amount"`
	StartMonth flexMonth  `json:"start_month"`
	EndMonth   flexMonth  `json:"end_month"`
}

type oneTimeDoc struct {
	ID     flexString `json:"id"`
	Name   string     `json:"name"`
	Amount FlexFloat  `json:"amount"`
	Month  flexMonth  `json:"month"`
}

func (p paramsDoc) params() model.SelfEmployedParams {
	return model.SelfEmployedParams{
		Zus:        float64(p.Zus),
		TaxRate:    float64(p.TaxRate),
		HourlyRate: float64(p.HourlyRate),
	}
}

func invoicesFrom(docs []invoiceDoc) []model.Invoice {
	out := make([]model.Invoice, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.Invoice{ID: string(d.ID), Label: d.Label, Amount: float64(d.Amount), Month: d.Month.key()})
	}
	return out
}

func hoursFrom(docs []hoursDoc) []model.HourlyEntry {
	out := make([]model.HourlyEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.HourlyEntry{ID: string(d.ID), Month: d.Month.key(), Hours: float64(d.Hours)})
	}
	return out
}

func recurringFrom(docs []recurringDoc) []model.RecurringExpense {
	out := make([]model.RecurringExpense, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.RecurringExpense{
			ID:         string(d.ID),
			Name:       d.Name,
			Amount:     float64(d.Amount),
			StartMonth: d.StartMonth.key(),
			EndMonth:   d.EndMonth.key(),
		})
	}
	return out
}

func oneTimeFrom(docs []oneTimeDoc) []model.OneTimeExpense {
	out := make([]model.OneTimeExpense, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.OneTimeExpense{ID: string(d.ID), Name: d.Name, Amount: float64(d.Amount), Month: d.Month.key()})
	}
	return out
}

func (d stateDoc) records() (model.RecordSet, error) {
	mode, err := model.ParseIncomeMode(d.Mode)
	if err != nil {
		return model.RecordSet{}, err
	}
	return model.RecordSet{
		Mode:          mode,
		EmploymentNet: float64(d.EmploymentNet),
		SelfEmployed:  d.SelfEmployed.params(),
		Invoices:      invoicesFrom(d.Invoices),
		HourlyEntries: hoursFrom(d.HourlyEntries),
		Recurring:     recurringFrom(d.Recurring),
		OneTime:       oneTimeFrom(d.OneTime),
	}, nil
}

// Encode renders rs as a version 1 state document.
func Encode(rs model.RecordSet) ([]byte, error) {
	doc := struct {
		Version int `json:"version"`
		model.RecordSet
	}{SchemaVersion, rs}
	return json.MarshalIndent(doc, "", "  ")
}
