package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidMonth is returned when a month key cannot be parsed.
var ErrInvalidMonth = errors.New("invalid month")

// MonthKey identifies a calendar month. The zero value means "unset".
type MonthKey struct {
	Year  int
	Month time.Month
}

// NewMonthKey builds a MonthKey, normalizing month overflow (13 -> next year).
func NewMonthKey(year int, month time.Month) MonthKey {
	return monthFromIndex(year*12 + int(month) - 1)
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// CurrentMonth returns the local calendar month right now.
func CurrentMonth() MonthKey {
	return MonthOf(time.Now())
}

// ParseMonthKey parses the "YYYY-MM" interchange form.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[4] != '-' {
		return MonthKey{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKey{Year: year, Month: time.Month(month)}, nil
}

// MustMonth parses s and panics on error. Intended for tests and literals.
func MustMonth(s string) MonthKey {
	m, err := ParseMonthKey(s)
	if err != nil {
		panic(err)
	}
	return m
}

// IsZero reports whether the key is unset.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Index returns a linear month number: year*12 + (month-1).
func (m MonthKey) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

func monthFromIndex(idx int) MonthKey {
	return MonthKey{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// AddMonths steps n calendar months forward (or back when n < 0).
func (m MonthKey) AddMonths(n int) MonthKey {
	return monthFromIndex(m.Index() + n)
}

// Compare returns -1, 0 or +1 in chronological order.
func (m MonthKey) Compare(o MonthKey) int {
	a, b := m.Index(), o.Index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether m is chronologically earlier than o.
func (m MonthKey) Before(o MonthKey) bool { return m.Index() < o.Index() }

// After reports whether m is chronologically later than o.
func (m MonthKey) After(o MonthKey) bool { return m.Index() > o.Index() }

// String returns the "YYYY-MM" form, or "" for the zero key.
func (m MonthKey) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler.
func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields the
// zero key.
func (m *MonthKey) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*m = MonthKey{}
		return nil
	}
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
