// Package cmd implements the finapp CLI commands.
package cmd

import (
	"fmt"

	"github.com/mwasalski/financial-app/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Backend:    %s\n", cfg.General.Backend)
	fmt.Printf("    State file: %s\n", cfg.StatePath())
	fmt.Printf("    Currency:   %s\n", cfg.General.Currency)
	if cfg.General.LogLevel != "" {
		fmt.Printf("    Log level:  %s\n", cfg.General.LogLevel)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll interval: %ds\n", cfg.Server.PollIntervalSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  Environment overrides: FINAPP_BACKEND, FINAPP_STATE_PATH, FINAPP_THEME,")
	fmt.Println("  FINAPP_ADDR, FINAPP_LOG_LEVEL (a .env file in the working directory is read too)")
	return nil
}
