package tui

import (
	"strings"

	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers of the first-run wizard.
type SetupValues struct {
	Backend  string
	Currency string
	Theme    string
}

// SetupValuesFrom pre-fills the wizard from an existing config.
func SetupValuesFrom(cfg config.Config) *SetupValues {
	return &SetupValues{
		Backend:  cfg.General.Backend,
		Currency: cfg.General.Currency,
		Theme:    cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run wizard. It is shown inside the TUI on
// first launch and run standalone by `finapp setup`.
func NewSetupForm(v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to finapp").
				Description("Plan month by month: income, expenses and the balance you carry forward.\n\nA few settings first."),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should records be stored?").
				Options(
					huh.NewOption("JSON file", config.BackendFile),
					huh.NewOption("SQLite database", config.BackendSQLite),
				).
				Value(&v.Backend),
			huh.NewInput().
				Title("Currency suffix").
				Placeholder(config.DefaultConfig().General.Currency).
				Value(&v.Currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithShowHelp(true)
}

// Apply copies the answers into cfg. Blank answers keep the current value.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	if b := strings.TrimSpace(v.Backend); b != "" {
		cfg.General.Backend = b
	}
	if c := strings.TrimSpace(v.Currency); c != "" {
		cfg.General.Currency = c
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	}
	return cfg
}
