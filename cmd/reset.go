package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/store"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace all records with the starter data",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a state document (web app export or finapp state)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the current state document as JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	resetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")
	importCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd, importCmd, exportCmd)
}

var errAborted = errors.New("aborted")

// confirm asks before overwriting the stored records unless --yes is set.
func confirm(title string) error {
	if flagYes {
		return nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description("Every stored record is replaced.").
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return fmt.Errorf("confirmation prompt: %w (pass --yes to skip it)", err)
	}
	if !ok {
		return errAborted
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := confirm("Reset all records to the starter data?"); err != nil {
		return err
	}
	return s.mutate(cmd.Context(), func(model.RecordSet) (model.RecordSet, string, error) {
		return ledger.Default(s.now), "Records reset to the starter data", nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	//nolint:gosec // import path is given by the local user
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	imported, origin, err := decodeImport(data, s.now)
	if err != nil {
		return err
	}
	if err := confirm(fmt.Sprintf("Import %d records from %s?", imported.RecordCount(), args[0])); err != nil {
		return err
	}
	return s.mutate(cmd.Context(), func(model.RecordSet) (model.RecordSet, string, error) {
		return imported, fmt.Sprintf("Imported %d records (%s, %s)",
			imported.RecordCount(), imported.Mode.Label(), origin), nil
	})
}

// decodeImport accepts the web app's storage blob or a finapp state file.
// Unlike loading, a document that cannot be used is an error here rather
// than a silent reset.
func decodeImport(data []byte, now model.MonthKey) (model.RecordSet, string, error) {
	rs, err := store.DecodeLegacy(data)
	switch {
	case err == nil:
		out, _, err := ledger.Normalize(rs)
		return out, "web app export", err
	case !errors.Is(err, store.ErrNotLegacy):
		return rs, "", err
	}

	rs, info := store.Decode(data, func() model.MonthKey { return now })
	if info.Source == store.SourceDefault {
		return rs, "", fmt.Errorf("unrecognized state document: %s", info.Reason)
	}
	return rs, string(info.Source) + " state", nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := s.load(cmd.Context())
	if err != nil {
		return err
	}
	data, err := store.Encode(rs)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	if err == nil && !flagQuiet {
		fmt.Fprintln(os.Stderr, cli.RenderMuted(fmt.Sprintf("%d records from %s", rs.RecordCount(), s.st.Path())))
	}
	return err
}
