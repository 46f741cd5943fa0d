package cmd

import (
	"errors"
	"fmt"

	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/tui"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file alone so environment overrides are not persisted.
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	cfg = vals.Apply(cfg)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	theme.SetActive(cfg.Appearance.Theme)

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Printf("  Records are kept in %s\n", cfg.StatePath())
	fmt.Println("  Run `finapp setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
