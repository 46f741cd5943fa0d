package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mwasalski/financial-app/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, total := range []int{80, 97, 120, 181} {
		for n := 1; n <= 5; n++ {
			sum := 0
			for _, w := range LayoutRow(total, n) {
				sum += w
			}
			if sum != total {
				t.Fatalf("LayoutRow(%d, %d) sums to %d", total, n, sum)
			}
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI codes: %q", i, lines[i])
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Month", Value: "March 2025"},
		{Label: "To spend", Value: "16 300 zł", Color: theme.Active.Positive},
		{Label: "Carry out", Value: "-1200 zł", Color: theme.Active.Negative, Hint: "deficit"},
	}, 90)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 0)
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		want += len(Tabs) - 1
		if got := lipgloss.Width(bar); got != want {
			t.Errorf("active=%d: bar width = %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('c'); got != 1 {
		t.Errorf("TabIdxByKey('c') = %d, want 1", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestBalanceChartHeightAndAxis(t *testing.T) {
	values := []float64{1200, 400, -300, -900, 50}
	labels := []string{"Jan", "Feb", "Mar", "Apr", "May"}

	out := BalanceChart(values, labels, 60, 8)
	lines := strings.Split(out, "\n")
	// height rows + zero axis + label row
	if len(lines) != 10 {
		t.Fatalf("lines = %d, want 10:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "┼") {
		t.Error("missing zero axis")
	}
	if !strings.Contains(lines[len(lines)-1], "Jan") {
		t.Errorf("label row = %q", lines[len(lines)-1])
	}
}

func TestBalanceChartAllPositiveHasNoRowsBelowAxis(t *testing.T) {
	out := BalanceChart([]float64{10, 20, 30}, nil, 40, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[5], "┼") {
		t.Errorf("last line should be the zero axis: %q", lines[5])
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		0.5:      "0.50",
		800:      "800",
		2000:     "2k",
		2500:     "2.5k",
		-3000:    "-3k",
		1500000:  "1.5M",
		10000000: "10M",
	}
	for in, want := range tests {
		if got := formatChartLabel(in); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", in, got, want)
		}
	}
}
