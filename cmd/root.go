package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/log"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagStatePath string
	flagBackend   string
	flagAsOf      string
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "finapp",
	Short: "Personal cash-flow projection",
	Long: "Project income, expenses and the balance carried from month to month.\n" +
		"Running finapp with no command prints the timeline.",
	SilenceUsage: true,
	RunE:         runTimeline,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStatePath, "state", "", "State file path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: file or sqlite")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Treat YYYY-MM as the current month")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress notices on stderr")
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagBackend != "" {
		cfg.General.Backend = flagBackend
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	if flagStatePath != "" {
		cfg.General.StatePath = flagStatePath
	}
	return cfg, nil
}

// currentMonth is the month every projection is anchored on.
func currentMonth() (model.MonthKey, error) {
	if flagAsOf == "" {
		return model.CurrentMonth(), nil
	}
	m, err := model.ParseMonthKey(flagAsOf)
	if err != nil {
		return m, fmt.Errorf("--as-of: %w", err)
	}
	return m, nil
}

func newLogger(cfg config.Config, fallback slog.Level) *log.Logger {
	lc := log.DefaultConfig()
	level, err := log.ParseLevel(cfg.General.LogLevel, fallback)
	lc.Level = level
	logger := log.New(lc)
	if err != nil {
		logger.Warn("ignoring log level", "error", err)
	}
	return logger
}

// session is the shared setup of every command that touches records.
type session struct {
	cfg config.Config
	st  store.Store
	now model.MonthKey
	log *log.Logger
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	now, err := currentMonth()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, slog.LevelWarn)

	st, err := store.Open(cfg, func() model.MonthKey { return now })
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}
	logger.WithComponent(log.ComponentStore).Debug("opened store",
		"backend", cfg.General.Backend, "path", st.Path())

	return &session{cfg: cfg, st: st, now: now, log: logger}, nil
}

func (s *session) Close() {
	if err := s.st.Close(); err != nil {
		s.log.Warn("closing store", "error", err)
	}
}

// load reads the snapshot, reporting on stderr when stored data was replaced
// or repaired.
func (s *session) load(ctx context.Context) (model.RecordSet, error) {
	rs, info, err := s.st.Load(ctx)
	if err != nil {
		return rs, fmt.Errorf("loading records: %w", err)
	}
	if info.Reason != "" {
		s.log.WithComponent(log.ComponentStore).Warn("state not used as stored",
			"source", info.Source, "reason", info.Reason, "path", s.st.Path(), "schema", info.Schema)
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  note: %s (%s)\n", info.Reason, info.Source)
		}
	}
	return rs, nil
}

// mutate applies one ledger command to the stored snapshot and saves the
// result. fn returns the confirmation printed on success.
func (s *session) mutate(ctx context.Context, fn func(model.RecordSet) (model.RecordSet, string, error)) error {
	rs, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, msg, err := fn(rs)
	if err != nil {
		return err
	}
	if err := s.st.Save(ctx, next); err != nil {
		return fmt.Errorf("saving records: %w", err)
	}
	s.log.Debug("saved records", "records", next.RecordCount())
	fmt.Printf("  %s\n", msg)
	return nil
}

// currency returns the configured currency suffix.
func (s *session) currency() string {
	if s.cfg.General.Currency == "" {
		return cli.DefaultCurrency
	}
	return s.cfg.General.Currency
}

// monthFlag parses a --month style value, defaulting to the current month.
func (s *session) monthFlag(name, v string) (model.MonthKey, error) {
	if v == "" {
		return s.now, nil
	}
	m, err := model.ParseMonthKey(v)
	if err != nil {
		return m, fmt.Errorf("--%s: %w", name, err)
	}
	return m, nil
}
