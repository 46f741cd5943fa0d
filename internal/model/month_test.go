package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		in   string
		want MonthKey
		ok   bool
	}{
		{"2024-01", MonthKey{2024, time.January}, true},
		{"2024-12", MonthKey{2024, time.December}, true},
		{" 1999-07 ", MonthKey{1999, time.July}, true},
		{"2024-13", MonthKey{}, false},
		{"2024-00", MonthKey{}, false},
		{"2024-1", MonthKey{}, false},
		{"24-01", MonthKey{}, false},
		{"2024/01", MonthKey{}, false},
		{"", MonthKey{}, false},
	}
	for _, tc := range cases {
		got, err := ParseMonthKey(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: got %v (err=%v), want %v", tc.in, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q: expected ErrInvalidMonth, got %v", tc.in, err)
		}
	}
}

func TestMonthKey_AddMonthsCrossesYears(t *testing.T) {
	m := MustMonth("2024-11")
	if got := m.AddMonths(2).String(); got != "2025-01" {
		t.Fatalf("2024-11 + 2 = %s, want 2025-01", got)
	}
	if got := m.AddMonths(-11).String(); got != "2023-12" {
		t.Fatalf("2024-11 - 11 = %s, want 2023-12", got)
	}
	if got := m.AddMonths(0); got != m {
		t.Fatalf("AddMonths(0) changed the key: %v", got)
	}
}

func TestMonthKey_StringSortsChronologically(t *testing.T) {
	a, b := MustMonth("2024-09"), MustMonth("2024-10")
	if !(a.String() < b.String()) || !a.Before(b) || !b.After(a) {
		t.Fatalf("ordering mismatch between %s and %s", a, b)
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Fatal("Compare disagrees with chronological order")
	}
}

func TestMonthKey_JSONUsesTextForm(t *testing.T) {
	inv := Invoice{ID: "x", Amount: 10, Month: MustMonth("2025-03")}
	data, err := json.Marshal(inv)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"id":"x","amount":10,"month":"2025-03"}`; string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}

	var back Invoice
	if err := json.Unmarshal([]byte(`{"id":"y","month":""}`), &back); err != nil {
		t.Fatal(err)
	}
	if !back.Month.IsZero() {
		t.Fatalf("empty month should decode to zero key, got %v", back.Month)
	}
}

func TestNewMonthKeyNormalizesOverflow(t *testing.T) {
	if got := NewMonthKey(2024, 13).String(); got != "2025-01" {
		t.Fatalf("NewMonthKey(2024, 13) = %s", got)
	}
}
