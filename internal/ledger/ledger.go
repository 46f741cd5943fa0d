// Package ledger applies user edits to record snapshots. Every command takes
// a RecordSet by value and returns a new one; the input is never modified.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mwasalski/financial-app/internal/model"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrMonthRequired = errors.New("month is required")
	ErrUnknownKind   = errors.New("unknown record kind")
)

// Kind names one of the dated record collections.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindHours     Kind = "hours"
	KindRecurring Kind = "recurring"
	KindOneTime   Kind = "onetime"
)

// Kinds lists every collection in display order.
var Kinds = []Kind{KindInvoice, KindHours, KindRecurring, KindOneTime}

// ParseKind accepts singular and plural spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "invoices":
		return KindInvoice, nil
	case "hours", "hour", "hourly", "hourly_entries":
		return KindHours, nil
	case "recurring", "recurring_expenses":
		return KindRecurring, nil
	case "onetime", "one-time", "one_time", "once", "one_time_expenses":
		return KindOneTime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// Clone deep-copies the record slices so the result shares no memory with rs.
func Clone(rs model.RecordSet) model.RecordSet {
	out := rs
	out.Invoices = cloneSlice(rs.Invoices)
	out.HourlyEntries = cloneSlice(rs.HourlyEntries)
	out.Recurring = cloneSlice(rs.Recurring)
	out.OneTime = cloneSlice(rs.OneTime)
	return out
}

// cloneSlice always returns a non-nil slice so snapshots encode as [] not null.
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// SetMode switches the income formula.
func SetMode(rs model.RecordSet, mode model.IncomeMode) (model.RecordSet, error) {
	if !mode.Valid() {
		return rs, fmt.Errorf("unknown income mode %q", mode)
	}
	out := Clone(rs)
	out.Mode = mode
	return out, nil
}

// SetEmploymentNet sets the fixed monthly net salary.
func SetEmploymentNet(rs model.RecordSet, net float64) model.RecordSet {
	out := Clone(rs)
	out.EmploymentNet = net
	return out
}

// SetSelfEmployed replaces the self-employment parameters.
func SetSelfEmployed(rs model.RecordSet, p model.SelfEmployedParams) model.RecordSet {
	out := Clone(rs)
	out.SelfEmployed = p
	return out
}

// AddInvoice appends an invoice and returns the new snapshot and its ID.
func AddInvoice(rs model.RecordSet, label string, amount float64, month model.MonthKey) (model.RecordSet, string, error) {
	if month.IsZero() {
		return rs, "", fmt.Errorf("invoice: %w", ErrMonthRequired)
	}
	out := Clone(rs)
	id := NewID()
	out.Invoices = append(out.Invoices, model.Invoice{
		ID:     id,
		Label:  strings.TrimSpace(label),
		Amount: amount,
		Month:  month,
	})
	return out, id, nil
}

// AddHours appends an hourly entry.
func AddHours(rs model.RecordSet, hours float64, month model.MonthKey) (model.RecordSet, string, error) {
	if month.IsZero() {
		return rs, "", fmt.Errorf("hours: %w", ErrMonthRequired)
	}
	out := Clone(rs)
	id := NewID()
	out.HourlyEntries = append(out.HourlyEntries, model.HourlyEntry{
		ID:    id,
		Month: month,
		Hours: hours,
	})
	return out, id, nil
}

// AddRecurring appends a recurring expense. Inverted ranges are accepted and
// simply never apply.
func AddRecurring(rs model.RecordSet, name string, amount float64, start, end model.MonthKey) (model.RecordSet, string, error) {
	if start.IsZero() || end.IsZero() {
		return rs, "", fmt.Errorf("recurring expense: %w", ErrMonthRequired)
	}
	out := Clone(rs)
	id := NewID()
	out.Recurring = append(out.Recurring, model.RecurringExpense{
		ID:         id,
		Name:       strings.TrimSpace(name),
		Amount:     amount,
		StartMonth: start,
		EndMonth:   end,
	})
	return out, id, nil
}

// AddOneTime appends a one-time expense.
func AddOneTime(rs model.RecordSet, name string, amount float64, month model.MonthKey) (model.RecordSet, string, error) {
	if month.IsZero() {
		return rs, "", fmt.Errorf("one-time expense: %w", ErrMonthRequired)
	}
	out := Clone(rs)
	id := NewID()
	out.OneTime = append(out.OneTime, model.OneTimeExpense{
		ID:     id,
		Name:   strings.TrimSpace(name),
		Amount: amount,
		Month:  month,
	})
	return out, id, nil
}

// Remove deletes the record with id from the kind's collection.
func Remove(rs model.RecordSet, kind Kind, id string) (model.RecordSet, error) {
	out := Clone(rs)
	var removed bool

	switch kind {
	case KindInvoice:
		out.Invoices, removed = removeByID(out.Invoices, id, func(r model.Invoice) string { return r.ID })
	case KindHours:
		out.HourlyEntries, removed = removeByID(out.HourlyEntries, id, func(r model.HourlyEntry) string { return r.ID })
	case KindRecurring:
		out.Recurring, removed = removeByID(out.Recurring, id, func(r model.RecurringExpense) string { return r.ID })
	case KindOneTime:
		out.OneTime, removed = removeByID(out.OneTime, id, func(r model.OneTimeExpense) string { return r.ID })
	default:
		return rs, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if !removed {
		return rs, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return out, nil
}

// FindKind returns which collection holds id. Short ID prefixes (as printed
// by the CLI) are accepted when they are unambiguous.
func FindKind(rs model.RecordSet, id string) (Kind, string, error) {
	type hit struct {
		kind Kind
		id   string
	}
	var hits []hit
	match := func(kind Kind, candidate string) {
		if candidate == id {
			hits = append([]hit{{kind, candidate}}, hits...)
			return
		}
		if id != "" && strings.HasPrefix(candidate, id) {
			hits = append(hits, hit{kind, candidate})
		}
	}

	for _, r := range rs.Invoices {
		match(KindInvoice, r.ID)
	}
	for _, r := range rs.HourlyEntries {
		match(KindHours, r.ID)
	}
	for _, r := range rs.Recurring {
		match(KindRecurring, r.ID)
	}
	for _, r := range rs.OneTime {
		match(KindOneTime, r.ID)
	}

	switch {
	case len(hits) == 0:
		return "", "", fmt.Errorf("%s: %w", id, ErrNotFound)
	case hits[0].id == id, len(hits) == 1:
		return hits[0].kind, hits[0].id, nil
	}
	return "", "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", id, len(hits))
}

func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	for i, it := range items {
		if idOf(it) == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}
