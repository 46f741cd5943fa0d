package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mwasalski/financial-app/internal/model"
)

// LegacyStorageKey is the browser storage key the web version of the app
// kept its state under. Exports of the whole storage area nest the state
// document under it, sometimes as a JSON string.
const LegacyStorageKey = "financial-app-state-v1"

var ErrNotLegacy = errors.New("not a legacy state document")

type legacyDoc struct {
	Mode   string    `json:"mode"`
	UopNet FlexFloat `json:"uopNet"`
	B2B    struct {
		Zus           FlexFloat    `json:"zus"`
		TaxRate       FlexFloat    `json:"taxRate"`
		HourlyRate    FlexFloat    `json:"hourlyRate"`
		Invoices      []invoiceDoc `json:"invoices"`
		HourlyEntries []hoursDoc   `json:"hourlyEntries"`
	} `json:"b2b"`
	Expenses struct {
		Recurring []legacyRecurring `json:"recurring"`
		OneTime   []oneTimeDoc      `json:"oneTime"`
	} `json:"expenses"`
}

type legacyRecurring struct {
	ID         flexString `json:"id"`
	Name       string     `json:"name"`
	Amount     FlexFloat  `json:"amount"`
	StartMonth flexMonth  `json:"startMonth"`
	EndMonth   flexMonth  `json:"endMonth"`
}

// isLegacy reports whether the top-level keys look like the web app's state.
func isLegacy(top map[string]json.RawMessage) bool {
	if _, ok := top["version"]; ok {
		return false
	}
	for _, k := range []string{"uopNet", "b2b", "expenses"} {
		if _, ok := top[k]; ok {
			return true
		}
	}
	return false
}

// DecodeLegacy converts a state document written by the web app into a
// record set. Unknown modes are an error; every other field is coerced.
func DecodeLegacy(data []byte) (model.RecordSet, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return model.RecordSet{}, fmt.Errorf("parsing legacy state: %w", err)
	}

	if nested, ok := top[LegacyStorageKey]; ok {
		var inner string
		if err := json.Unmarshal(nested, &inner); err == nil {
			nested = json.RawMessage(inner)
		}
		return DecodeLegacy(nested)
	}
	if !isLegacy(top) {
		return model.RecordSet{}, ErrNotLegacy
	}

	var doc legacyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.RecordSet{}, fmt.Errorf("parsing legacy state: %w", err)
	}
	mode, err := model.ParseIncomeMode(doc.Mode)
	if err != nil {
		return model.RecordSet{}, err
	}

	recurring := make([]recurringDoc, 0, len(doc.Expenses.Recurring))
	for _, r := range doc.Expenses.Recurring {
		recurring = append(recurring, recurringDoc(r))
	}

	return model.RecordSet{
		Mode:          mode,
		EmploymentNet: float64(doc.UopNet),
		SelfEmployed: model.SelfEmployedParams{
			Zus:        float64(doc.B2B.Zus),
			TaxRate:    float64(doc.B2B.TaxRate),
			HourlyRate: float64(doc.B2B.HourlyRate),
		},
		Invoices:      invoicesFrom(doc.B2B.Invoices),
		HourlyEntries: hoursFrom(doc.B2B.HourlyEntries),
		Recurring:     recurringFrom(recurring),
		OneTime:       oneTimeFrom(doc.Expenses.OneTime),
	}, nil
}
