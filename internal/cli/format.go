// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mwasalski/financial-app/internal/model"
)

// DefaultCurrency is appended to money values when no other is configured.
const DefaultCurrency = "zł"

// FormatMoney rounds to whole units, groups thousands with spaces, and
// appends the currency. Grouping starts at five digits.
// e.g., 1234.4 -> "1234 zł", 16300 -> "16 300 zł", -20000 -> "-20 000 zł"
func FormatMoney(v float64, currency string) string {
	n := roundUnits(v)
	s := FormatGrouped(n, " ")
	if n > -10_000 && n < 10_000 {
		s = strconv.FormatInt(n, 10)
	}
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatSignedMoney is FormatMoney with an explicit plus sign for positive
// values.
func FormatSignedMoney(v float64, currency string) string {
	s := FormatMoney(v, currency)
	if roundUnits(v) > 0 {
		return "+" + s
	}
	return s
}

// FormatAmount formats a record amount, keeping up to two decimals when the
// value is fractional.
// e.g., 1500 -> "1500", 99.5 -> "99.50"
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func roundUnits(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	n := int64(math.Round(v))
	if n == 0 {
		return 0 // drops negative zero
	}
	return n
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return FormatGrouped(n, ",")
}

// FormatGrouped inserts sep between groups of three digits.
func FormatGrouped(n int64, sep string) string {
	if n < 0 {
		return "-" + FormatGrouped(-n, sep)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteString(sep)
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 rate as a percentage string.
func FormatPercent(rate float64) string {
	if rate == math.Trunc(rate) {
		return fmt.Sprintf("%.0f%%", rate)
	}
	return fmt.Sprintf("%.1f%%", rate)
}

// FormatMonth renders a month key, or "-" for an unset month.
func FormatMonth(m model.MonthKey) string {
	if m.IsZero() {
		return "-"
	}
	return m.String()
}

// FormatMonthLong renders e.g. "March 2025".
func FormatMonthLong(m model.MonthKey) string {
	if m.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// FormatRange renders a recurring expense's active months.
func FormatRange(start, end model.MonthKey) string {
	return FormatMonth(start) + " → " + FormatMonth(end)
}

// ShortID returns the first eight characters of a record ID.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// ErrEmptyAmount is returned by ParseAmount for blank input.
var ErrEmptyAmount = errors.New("enter a number")

// ParseAmount accepts "1200", "1 200", "1200,50" and "1200.50".
func ParseAmount(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '_':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if s == "" {
		return 0, ErrEmptyAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
