package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/daemon"
	"github.com/mwasalski/financial-app/internal/model"

	"github.com/spf13/cobra"
)

// runtimeFile is what a running daemon leaves on disk so `serve status` and
// `serve stop` can find it.
type runtimeFile struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	StatePath string    `json:"state_path"`
}

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeDetach       bool
	flagServeRuntime      string
	flagServeLogFile      string
	flagServeEventsBuffer int
	flagServeChild        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the projection daemon with HTTP/SSE endpoints",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	Args:  cobra.NoArgs,
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runServeStop,
}

func init() {
	defaultRuntime := filepath.Join(config.DataDir(), "finappd.json")
	defaultLog := filepath.Join(config.DataDir(), "finappd.log")

	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.PersistentFlags().DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	serveCmd.PersistentFlags().StringVar(&flagServeRuntime, "runtime-file", defaultRuntime, "Runtime file recording the daemon pid and address")
	serveCmd.PersistentFlags().StringVar(&flagServeLogFile, "log-file", defaultLog, "Log file path for detached mode")
	serveCmd.PersistentFlags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	serveCmd.Flags().BoolVar(&flagServeDetach, "detach", false, "Run daemon as a background process")
	serveCmd.Flags().BoolVar(&flagServeChild, "child", false, "Internal: mark detached child process")
	_ = serveCmd.Flags().MarkHidden("child")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

// serveSettings merges the serve flags over the [server] config section.
func serveSettings(cfg config.Config) (addr string, interval time.Duration, buffer int) {
	addr = cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	interval = time.Duration(cfg.Server.PollIntervalSec) * time.Second
	if flagServeInterval > 0 {
		interval = flagServeInterval
	}
	buffer = cfg.Server.EventsBuffer
	if flagServeEventsBuffer > 0 {
		buffer = flagServeEventsBuffer
	}
	return addr, interval, buffer
}

func runServe(_ *cobra.Command, _ []string) error {
	if flagServeDetach && flagServeChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagServeDetach {
		return startServeDetached()
	}

	return runServeForeground()
}

func startServeDetached() error {
	if err := ensureNotRunning(flagServeRuntime); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr, _, _ := serveSettings(cfg)

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagServeLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagServeLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  API: http://%s/v1/status\n", addr)
	fmt.Printf("  Log: %s\n", flagServeLogFile)
	return nil
}

func runServeForeground() error {
	if err := ensureNotRunning(flagServeRuntime); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	addr, interval, buffer := serveSettings(s.cfg)

	rt := runtimeFile{PID: os.Getpid(), Addr: addr, StartedAt: time.Now(), StatePath: s.st.Path()}
	if err := writeRuntime(flagServeRuntime, rt); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagServeRuntime) }()

	// An --as-of month pins the daemon; otherwise it follows the wall clock.
	now := model.CurrentMonth
	if flagAsOf != "" {
		now = func() model.MonthKey { return s.now }
	}

	svc := daemon.New(daemon.Config{
		Store:        s.st,
		Now:          now,
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: buffer,
		Logger:       newLogger(s.cfg, slog.LevelInfo),
	})

	fmt.Printf("  finapp daemon listening on http://%s\n", addr)
	fmt.Printf("  Polling every %s from %s\n", interval, s.st.Path())
	fmt.Printf("  Stop with: finapp serve stop --runtime-file %s\n", flagServeRuntime)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	rt, alive, err := readRuntime(flagServeRuntime)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Println("  Daemon: not running")
		return nil
	case err != nil:
		return err
	case !alive:
		fmt.Printf("  Daemon: not running (stale runtime file for pid %d)\n", rt.PID)
		return nil
	}

	addr := rt.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	fmt.Printf("  Daemon PID: %d (up %s)\n", rt.PID, time.Since(rt.StartedAt).Round(time.Second))
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status check
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  State: %s\n", st.StatePath)
	if st.SchemaVersion != 0 {
		fmt.Printf("  Schema: v%d\n", st.SchemaVersion)
	}

	snap := st.Summary
	cur := cli.DefaultCurrency
	if cfg, err := loadConfig(); err == nil && cfg.General.Currency != "" {
		cur = cfg.General.Currency
	}
	fmt.Printf("  Month: %s (%s)\n", cli.FormatMonth(snap.Month), snap.Mode.Label())
	fmt.Printf("  Records: %d  Months: %d\n", snap.Records, snap.Months)
	fmt.Printf("  To spend: %s\n", cli.FormatMoney(snap.Summary.ToSpend, cur))
	fmt.Printf("  Final balance: %s\n", cli.FormatMoney(snap.Totals.FinalBalance, cur))
	if st.LoadReason != "" {
		fmt.Printf("  Load note: %s (%s)\n", st.LoadReason, st.LoadSource)
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	rt, alive, err := readRuntime(flagServeRuntime)
	if err != nil || !alive {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(rt.PID)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(rt.PID) {
			_ = os.Remove(flagServeRuntime)
			fmt.Printf("  Stopped daemon (pid %d)\n", rt.PID)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", rt.PID)
}

// filterDetachArg drops --detach so the re-executed child runs in the
// foreground.
func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			out = append(out, a)
		}
	}
	return out
}

// ensureNotRunning fails when the runtime file names a live process and
// clears it when the process is gone.
func ensureNotRunning(path string) error {
	rt, alive, err := readRuntime(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case alive:
		return fmt.Errorf("daemon already running (pid %d, %s)", rt.PID, rt.Addr)
	}
	_ = os.Remove(path)
	return nil
}

func writeRuntime(path string, rt runtimeFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	data, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// readRuntime loads the runtime file and reports whether its process is
// still alive.
func readRuntime(path string) (runtimeFile, bool, error) {
	var rt runtimeFile
	//nolint:gosec // runtime path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return rt, false, err
	}
	if err := json.Unmarshal(data, &rt); err != nil || rt.PID <= 0 {
		return rt, false, fmt.Errorf("invalid runtime file %s", path)
	}
	return rt, processAlive(rt.PID), nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
