package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var testNow = model.NewMonthKey(2025, time.March)

// setupCLI isolates config and data directories and returns the state path
// every command in the test should use.
func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, k := range []string{"FINAPP_BACKEND", "FINAPP_STATE_PATH", "FINAPP_THEME", "FINAPP_ADDR", "FINAPP_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "state.json")
}

func resetFlags() {
	flagStatePath, flagBackend, flagAsOf, flagQuiet = "", "", "", false
	flagTimelineJSON = false
	flagMonth, flagLabel, flagFrom, flagTo = "", "", "", ""
	flagZus, flagTax, flagRate = "", "", ""
	flagYes = false
	clearChanged(rootCmd)
}

// clearChanged forgets which flags earlier Execute calls set, since
// commands branch on Flags().Changed.
func clearChanged(c *cobra.Command) {
	unset := func(f *pflag.Flag) { f.Changed = false }
	c.Flags().VisitAll(unset)
	c.PersistentFlags().VisitAll(unset)
	for _, sub := range c.Commands() {
		clearChanged(sub)
	}
}

func runCLI(t *testing.T, state string, args ...string) error {
	t.Helper()
	resetFlags()
	full := append([]string{"--state", state, "--as-of", testNow.String(), "--quiet"}, args...)
	rootCmd.SetArgs(full)
	return rootCmd.Execute()
}

func mustRun(t *testing.T, state string, args ...string) {
	t.Helper()
	if err := runCLI(t, state, args...); err != nil {
		t.Fatalf("finapp %s: %v", strings.Join(args, " "), err)
	}
}

func loadState(t *testing.T, path string) model.RecordSet {
	t.Helper()
	rs, info, err := store.NewFileStore(path, func() model.MonthKey { return testNow }).Load(t.Context())
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	if info.Source != store.SourceStored {
		t.Fatalf("state source = %s (%s), want stored", info.Source, info.Reason)
	}
	return rs
}

func TestCLI_RecordLifecycle(t *testing.T) {
	state := setupCLI(t)

	mustRun(t, state, "expense", "add-once", "Laptop", "4 000", "--month", "2025-05")
	rs := loadState(t, state)
	def := ledger.Default(testNow)
	if got, want := len(rs.OneTime), len(def.OneTime)+1; got != want {
		t.Fatalf("one-time expenses = %d, want %d", got, want)
	}
	added := rs.OneTime[len(rs.OneTime)-1]
	if added.Name != "Laptop" || added.Amount != 4000 || added.Month != model.MustMonth("2025-05") {
		t.Fatalf("added = %+v", added)
	}

	mustRun(t, state, "expense", "add-recurring", "Gym", "150", "--from", "2025-04", "--to", "2025-09")
	rs = loadState(t, state)
	gym := rs.Recurring[len(rs.Recurring)-1]
	if gym.StartMonth != model.MustMonth("2025-04") || gym.EndMonth != model.MustMonth("2025-09") {
		t.Fatalf("recurring = %+v", gym)
	}

	mustRun(t, state, "expense", "rm", "onetime", added.ID[:8])
	rs = loadState(t, state)
	for _, e := range rs.OneTime {
		if e.ID == added.ID {
			t.Fatal("one-time expense not removed")
		}
	}

	// An invoice id is not an expense.
	err := runCLI(t, state, "expense", "rm", rs.Invoices[0].ID)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("rm invoice via expense: err = %v, want ErrNotFound", err)
	}
}

func TestCLI_IncomeCommands(t *testing.T) {
	state := setupCLI(t)

	mustRun(t, state, "income", "employment", "9100")
	mustRun(t, state, "mode", "employment")
	rs := loadState(t, state)
	if rs.Mode != model.ModeEmployment || rs.EmploymentNet != 9100 {
		t.Fatalf("mode/net = %s %v", rs.Mode, rs.EmploymentNet)
	}

	mustRun(t, state, "income", "self-employed", "--tax", "19")
	rs = loadState(t, state)
	def := ledger.Default(testNow).SelfEmployed
	if rs.SelfEmployed.TaxRate != 19 || rs.SelfEmployed.Zus != def.Zus || rs.SelfEmployed.HourlyRate != def.HourlyRate {
		t.Fatalf("self-employed = %+v", rs.SelfEmployed)
	}

	mustRun(t, state, "income", "self-employed", "--zus", "1000")
	rs = loadState(t, state)
	if rs.SelfEmployed.Zus != 1000 || rs.SelfEmployed.TaxRate != 19 || rs.SelfEmployed.HourlyRate != def.HourlyRate {
		t.Fatalf("self-employed after second update = %+v", rs.SelfEmployed)
	}

	if err := runCLI(t, state, "mode", "freelance"); err == nil {
		t.Fatal("unknown mode accepted")
	}
}

func TestCLI_NegativeAmountAfterDoubleDash(t *testing.T) {
	state := setupCLI(t)

	mustRun(t, state, "expense", "add-once", "Refund", "--month", "2025-05", "--", "-500")
	rs := loadState(t, state)
	added := rs.OneTime[len(rs.OneTime)-1]
	if added.Name != "Refund" || added.Amount != -500 || added.Month != model.MustMonth("2025-05") {
		t.Fatalf("added = %+v", added)
	}

	if err := runCLI(t, state, "expense", "add-once", "Refund", "-500", "--month", "2025-05"); err == nil {
		t.Fatal("bare negative amount parsed as a positional argument")
	}
	if !strings.Contains(expenseAddOnceCmd.Long, `"--"`) {
		t.Fatalf("add-once help does not mention --: %q", expenseAddOnceCmd.Long)
	}
}

func TestCLI_ImportLegacyAndReset(t *testing.T) {
	state := setupCLI(t)
	src := filepath.Join(t.TempDir(), "export.json")
	legacy := `{"mode": "b2b", "uopNet": "0",
		"b2b": {"zus": 1400, "taxRate": 12, "hourlyRate": 150, "invoices": [], "hourlyEntries": []},
		"expenses": {"recurring": [], "oneTime": [{"id": 7, "name": "Desk", "amount": "900", "month": "2025-06"}]}}`
	if err := os.WriteFile(src, []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	mustRun(t, state, "import", src, "--yes")
	rs := loadState(t, state)
	if rs.Mode != model.ModeSelfEmployed || rs.SelfEmployed.HourlyRate != 150 {
		t.Fatalf("imported = %+v", rs)
	}
	if len(rs.OneTime) != 1 || rs.OneTime[0].Amount != 900 {
		t.Fatalf("imported one-time = %+v", rs.OneTime)
	}

	mustRun(t, state, "reset", "--yes")
	rs = loadState(t, state)
	if rs.RecordCount() != ledger.Default(testNow).RecordCount() {
		t.Fatalf("records after reset = %d", rs.RecordCount())
	}
}

func TestDecodeImport_RejectsGarbage(t *testing.T) {
	if _, _, err := decodeImport([]byte(`{"hello": "world"}`), testNow); err == nil {
		t.Fatal("expected an error for an unrecognized document")
	}
	if _, _, err := decodeImport([]byte(`not json`), testNow); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

func TestDecodeImport_AcceptsExport(t *testing.T) {
	data, err := store.Encode(ledger.Default(testNow))
	if err != nil {
		t.Fatal(err)
	}
	rs, origin, err := decodeImport(data, testNow)
	if err != nil {
		t.Fatalf("decodeImport: %v", err)
	}
	if origin != "stored state" || rs.RecordCount() != ledger.Default(testNow).RecordCount() {
		t.Fatalf("origin=%q records=%d", origin, rs.RecordCount())
	}
}

func TestHoursShadowed(t *testing.T) {
	rs := model.RecordSet{HourlyEntries: []model.HourlyEntry{
		{ID: "a", Month: testNow, Hours: 10},
		{ID: "b", Month: testNow.AddMonths(1), Hours: 10},
	}}
	if hoursShadowed(rs, testNow) {
		t.Fatal("single entry reported as shadowed")
	}
	rs.HourlyEntries = append(rs.HourlyEntries, model.HourlyEntry{ID: "c", Month: testNow, Hours: 5})
	if !hoursShadowed(rs, testNow) {
		t.Fatal("second entry for the month not reported")
	}
}

func TestServeSettings_FlagsOverrideConfig(t *testing.T) {
	resetFlags()
	t.Cleanup(func() {
		flagServeAddr, flagServeInterval, flagServeEventsBuffer = "", 0, 0
	})

	cfg := config.DefaultConfig()
	addr, interval, buffer := serveSettings(cfg)
	if addr != cfg.Server.Addr || interval != 5*time.Second || buffer != cfg.Server.EventsBuffer {
		t.Fatalf("defaults = %s %s %d", addr, interval, buffer)
	}

	flagServeAddr, flagServeInterval, flagServeEventsBuffer = "127.0.0.1:9999", time.Minute, 10
	addr, interval, buffer = serveSettings(cfg)
	if addr != "127.0.0.1:9999" || interval != time.Minute || buffer != 10 {
		t.Fatalf("overrides = %s %s %d", addr, interval, buffer)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", "x", "--detach=true"})
	want := []string{"serve", "--addr", "x"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRuntimeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "finappd.json")
	if err := ensureNotRunning(path); err != nil {
		t.Fatalf("no runtime file: %v", err)
	}

	live := runtimeFile{PID: os.Getpid(), Addr: "127.0.0.1:1", StartedAt: time.Now()}
	if err := writeRuntime(path, live); err != nil {
		t.Fatal(err)
	}
	rt, alive, err := readRuntime(path)
	if err != nil || !alive || rt.Addr != live.Addr {
		t.Fatalf("readRuntime = %+v alive=%v err=%v", rt, alive, err)
	}
	if err := ensureNotRunning(path); err == nil {
		t.Fatal("live daemon not detected")
	}

	// A pid far above any pid_max is never alive; the stale file is cleared.
	if err := writeRuntime(path, runtimeFile{PID: 2147483000}); err != nil {
		t.Fatal(err)
	}
	if err := ensureNotRunning(path); err != nil {
		t.Fatalf("stale runtime file: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale runtime file kept: %v", err)
	}
}
