package cmd

import (
	"fmt"
	"log/slog"

	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/log"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"
	"github.com/mwasalski/financial-app/internal/tui"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	now, err := currentMonth()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	st, err := store.Open(cfg, func() model.MonthKey { return now })
	if err != nil {
		return fmt.Errorf("opening state: %w", err)
	}
	defer st.Close()

	logger := newLogger(cfg, slog.LevelWarn).WithComponent(log.ComponentTUI)
	firstRun := !config.Exists()
	logger.Debug("starting dashboard", "state", st.Path(), "month", now.String(), "first_run", firstRun)

	app := tui.NewApp(cfg, st, now, firstRun)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		logger.Error("dashboard exited", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
