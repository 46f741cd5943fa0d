package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
)

var testNow = model.NewMonthKey(2025, time.March)

func newLoadedApp(t *testing.T) App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.General.StatePath = filepath.Join(t.TempDir(), "state.json")
	st := store.NewFileStore(cfg.StatePath(), func() model.MonthKey { return testNow })

	a := NewApp(cfg, st, testNow, false)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(RecordsLoadedMsg{
		Records: ledger.Default(testNow),
		Info:    store.LoadInfo{Source: store.SourceDefault},
	})
	return m.(App)
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds back the message of any command it returns,
// mimicking one round trip through the bubbletea runtime.
func press(t *testing.T, a App, msg tea.KeyMsg) App {
	t.Helper()
	m, cmd := a.Update(msg)
	if cmd != nil {
		if out := cmd(); out != nil {
			m, _ = m.Update(out)
		}
	}
	return m.(App)
}

func TestLoadedAppComputesTimeline(t *testing.T) {
	a := newLoadedApp(t)
	if !a.loaded {
		t.Fatal("app not marked loaded")
	}
	if len(a.rows) == 0 {
		t.Fatal("no timeline rows after load")
	}
	if a.rows[0].Month != testNow {
		t.Errorf("first row = %s, want %s", a.rows[0].Month, testNow)
	}
	if a.summary.Month != testNow {
		t.Errorf("summary month = %s, want %s", a.summary.Month, testNow)
	}
}

func TestIncomeTabTogglesMode(t *testing.T) {
	a := newLoadedApp(t)
	a = press(t, a, runeKey("i"))
	if a.activeTab != tabIncome {
		t.Fatalf("activeTab = %d, want income", a.activeTab)
	}

	before := a.records.Mode
	a = press(t, a, runeKey("m"))
	if a.saving {
		t.Fatal("still saving after the save round trip")
	}
	if a.records.Mode == before {
		t.Fatalf("mode still %s after toggle", before)
	}
	if a.noticeErr {
		t.Fatalf("unexpected error notice %q", a.notice)
	}

	// The toggle was written through the store.
	rs, info, err := a.st.Load(t.Context())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if info.Source != store.SourceStored {
		t.Errorf("reload source = %s, want stored", info.Source)
	}
	if rs.Mode != a.records.Mode {
		t.Errorf("stored mode = %s, want %s", rs.Mode, a.records.Mode)
	}
}

func TestRecordsTabDeletesSelected(t *testing.T) {
	a := newLoadedApp(t)
	a = press(t, a, runeKey("c"))
	if a.activeTab != tabRecords {
		t.Fatalf("activeTab = %d, want records", a.activeTab)
	}

	items := flattenRecords(a.records)
	first := items[0]
	a = press(t, a, runeKey("d"))

	after := flattenRecords(a.records)
	if len(after) != len(items)-1 {
		t.Fatalf("records = %d, want %d", len(after), len(items)-1)
	}
	for _, it := range after {
		if it.id == first.id {
			t.Fatalf("record %s still present", first.id)
		}
	}
}

func TestRecordsCursorClampsAfterDelete(t *testing.T) {
	a := newLoadedApp(t)
	a = press(t, a, runeKey("c"))
	a = press(t, a, runeKey("G"))
	last := len(flattenRecords(a.records)) - 1
	if a.recState.cursor != last {
		t.Fatalf("cursor = %d, want %d", a.recState.cursor, last)
	}
	a = press(t, a, runeKey("d"))
	if want := last - 1; a.recState.cursor != want {
		t.Errorf("cursor after delete = %d, want %d", a.recState.cursor, want)
	}
}

func TestEditsRejectedAfterLoadError(t *testing.T) {
	cfg := config.DefaultConfig()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"), func() model.MonthKey { return testNow })
	a := NewApp(cfg, st, testNow, false)
	m, _ := a.Update(RecordsLoadedMsg{Err: errors.New("disk on fire")})
	a = m.(App)

	a = press(t, a, runeKey("i"))
	m, cmd := a.Update(runeKey("m"))
	if cmd != nil {
		t.Fatal("edit issued a save after a failed load")
	}
	if !m.(App).noticeErr {
		t.Error("expected an error notice")
	}
}

func TestFlattenRecordsOrder(t *testing.T) {
	rs := ledger.Default(testNow)
	items := flattenRecords(rs)
	if len(items) != rs.RecordCount() {
		t.Fatalf("items = %d, want %d", len(items), rs.RecordCount())
	}

	rank := map[ledger.Kind]int{
		ledger.KindInvoice:   0,
		ledger.KindHours:     1,
		ledger.KindRecurring: 2,
		ledger.KindOneTime:   3,
	}
	for i := 1; i < len(items); i++ {
		if rank[items[i].kind] < rank[items[i-1].kind] {
			t.Fatalf("item %d (%s) sorted after %s", i, items[i].kind, items[i-1].kind)
		}
	}
	if !items[0].income || items[len(items)-1].income {
		t.Error("income flag wrong on first or last item")
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a := newLoadedApp(t)
	for i, key := range []string{"t", "c", "i", "s"} {
		a = press(t, a, runeKey(key))
		if a.activeTab != i {
			t.Fatalf("key %q -> tab %d, want %d", key, a.activeTab, i)
		}
		v := a.View()
		if strings.TrimSpace(v) == "" {
			t.Fatalf("tab %d rendered nothing", i)
		}
		if lines := strings.Count(v, "\n") + 1; lines > 40 {
			t.Errorf("tab %d rendered %d lines, want at most 40", i, lines)
		}
	}
}

func TestViewTooNarrow(t *testing.T) {
	a := newLoadedApp(t)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	if v := m.(App).View(); !strings.Contains(v, "80") {
		t.Errorf("narrow view should mention the minimum width, got %q", v)
	}
}

func TestThemeNextCycles(t *testing.T) {
	seen := map[string]bool{}
	name := theme.All[0].Name
	for range theme.All {
		seen[name] = true
		name = theme.Next(name).Name
	}
	if len(seen) != len(theme.All) {
		t.Errorf("cycled through %d themes, want %d", len(seen), len(theme.All))
	}
	if name != theme.All[0].Name {
		t.Errorf("cycle ended on %s, want %s", name, theme.All[0].Name)
	}
	if got := theme.Next("no-such-theme").Name; got != theme.All[0].Name {
		t.Errorf("Next(unknown) = %s, want %s", got, theme.All[0].Name)
	}
}
