package cli

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mwasalski/financial-app/internal/model"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 zł"},
		{-0.4, "0 zł"},
		{1234.4, "1234 zł"},
		{9999.5, "10 000 zł"},
		{16300, "16 300 zł"},
		{-20000, "-20 000 zł"},
		{1234567, "1 234 567 zł"},
		{math.NaN(), "0 zł"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in, DefaultCurrency); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatMoney(42, ""); got != "42" {
		t.Errorf("FormatMoney without currency = %q", got)
	}
}

func TestFormatSignedMoney(t *testing.T) {
	if got := FormatSignedMoney(1500, "zł"); got != "+1500 zł" {
		t.Errorf("positive = %q", got)
	}
	if got := FormatSignedMoney(-1500, "zł"); got != "-1500 zł" {
		t.Errorf("negative = %q", got)
	}
	if got := FormatSignedMoney(0.2, "zł"); got != "0 zł" {
		t.Errorf("zero = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatAmountAndPercent(t *testing.T) {
	if got := FormatAmount(1500); got != "1500" {
		t.Errorf("FormatAmount(1500) = %q", got)
	}
	if got := FormatAmount(99.5); got != "99.50" {
		t.Errorf("FormatAmount(99.5) = %q", got)
	}
	if got := FormatPercent(12); got != "12%" {
		t.Errorf("FormatPercent(12) = %q", got)
	}
	if got := FormatPercent(8.5); got != "8.5%" {
		t.Errorf("FormatPercent(8.5) = %q", got)
	}
}

func TestFormatMonth(t *testing.T) {
	m := model.MustMonth("2025-03")
	if got := FormatMonth(m); got != "2025-03" {
		t.Errorf("FormatMonth = %q", got)
	}
	if got := FormatMonth(model.MonthKey{}); got != "-" {
		t.Errorf("zero FormatMonth = %q", got)
	}
	if got := FormatMonthLong(m); got != "March 2025" {
		t.Errorf("FormatMonthLong = %q", got)
	}
	if got := FormatRange(m, m.AddMonths(18)); got != "2025-03 → 2026-09" {
		t.Errorf("FormatRange = %q", got)
	}
}

func TestRenderTable_AlignsMultibyteCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Month", "Income"},
		Rows: [][]string{
			{"2025-03", "16 300 zł"},
			{"2025-04", "0 zł"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != width {
			t.Errorf("line %d width = %d, want %d: %q", i, w, width, l)
		}
	}
	if !strings.Contains(lines[4], "     0 zł") {
		t.Errorf("numeric column not right-aligned: %q", lines[4])
	}
}

func TestTimelineTable_MarksCurrentMonth(t *testing.T) {
	now := model.MustMonth("2025-03")
	rows := []model.MonthRow{
		{Month: now.AddMonths(-1), CarryOut: -100},
		{Month: now, Income: 200, CarryIn: -100, CarryOut: 100},
	}
	tbl := TimelineTable(rows, now, "zł")
	if tbl.Rows[1][0] != "2025-03 *" || tbl.Rows[0][0] != "2025-02" {
		t.Fatalf("month cells = %q, %q", tbl.Rows[0][0], tbl.Rows[1][0])
	}
	if tbl.Tones[0][4] != ToneNegative || tbl.Tones[1][4] != TonePositive {
		t.Fatalf("carry-out tones = %v, %v", tbl.Tones[0][4], tbl.Tones[1][4])
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{-10, 0, 10}); got != "▁▄█" {
		t.Fatalf("sparkline = %q", got)
	}
	if got := RenderSparkline(nil); got != "" {
		t.Fatalf("empty sparkline = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1500", 1500, false},
		{"1 500,50", 1500.5, false},
		{"12_000", 12000, false},
		{"-40", -40, false},
		{"", 0, true},
		{"  ", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAmount(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
