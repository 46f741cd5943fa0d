package cmd

import (
	"fmt"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagMonth string
	flagLabel string
	flagFrom  string
	flagTo    string
)

// negativeAmountNote is appended to the help of commands taking a positional
// amount.
const negativeAmountNote = "Put negative amounts after \"--\" so they are not read as flags."

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Manage invoices (self-employed revenue)",
}

var invoiceAddCmd = &cobra.Command{
	Use:     "add <amount>",
	Short:   "Record an invoice in a month",
	Long:    "Record an invoice in a month.\n\n" + negativeAmountNote,
	Example: "  finapp invoice add 12000 --month 2025-04 --label \"Client A\"\n  finapp invoice add --month 2025-04 -- -1500",
	Args:    cobra.ExactArgs(1),
	RunE:    runInvoiceAdd,
}

var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Manage billed hours (self-employed revenue)",
}

var hoursAddCmd = &cobra.Command{
	Use:     "add <hours>",
	Short:   "Record billed hours in a month",
	Long:    "Record billed hours in a month.\n\n" + negativeAmountNote,
	Example: "  finapp hours add 160 --month 2025-04\n  finapp hours add --month 2025-04 -- -8",
	Args:    cobra.ExactArgs(1),
	RunE:    runHoursAdd,
}

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"expenses"},
	Short:   "Manage recurring and one-time expenses",
}

var expenseAddRecurringCmd = &cobra.Command{
	Use:     "add-recurring <name> <amount>",
	Short:   "Add an expense paid every month of a range",
	Long:    "Add an expense paid every month of a range.\n\n" + negativeAmountNote,
	Example: "  finapp expense add-recurring Rent 3200 --from 2025-01 --to 2025-12\n  finapp expense add-recurring Sublet --from 2025-01 --to 2025-06 -- -900",
	Args:    cobra.ExactArgs(2),
	RunE:    runExpenseAddRecurring,
}

var expenseAddOnceCmd = &cobra.Command{
	Use:     "add-once <name> <amount>",
	Short:   "Add an expense paid in a single month",
	Long:    "Add an expense paid in a single month.\n\n" + negativeAmountNote,
	Example: "  finapp expense add-once Laptop 4000 --month 2025-05\n  finapp expense add-once Refund --month 2025-05 -- -500",
	Args:    cobra.ExactArgs(2),
	RunE:    runExpenseAddOnce,
}

var expenseRmCmd = &cobra.Command{
	Use:   "rm [recurring|onetime] <id>",
	Short: "Remove an expense",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runExpenseRm,
}

func init() {
	invoiceAddCmd.Flags().StringVar(&flagMonth, "month", "", "Month YYYY-MM (default: current month)")
	invoiceAddCmd.Flags().StringVar(&flagLabel, "label", "", "Invoice description")
	hoursAddCmd.Flags().StringVar(&flagMonth, "month", "", "Month YYYY-MM (default: current month)")
	expenseAddOnceCmd.Flags().StringVar(&flagMonth, "month", "", "Month YYYY-MM (default: current month)")
	expenseAddRecurringCmd.Flags().StringVar(&flagFrom, "from", "", "First month YYYY-MM (default: current month)")
	expenseAddRecurringCmd.Flags().StringVar(&flagTo, "to", "", "Last month YYYY-MM (default: eleven months after --from)")

	invoiceCmd.AddCommand(invoiceAddCmd, rmCommand(ledger.KindInvoice), lsCommand(ledger.KindInvoice))
	hoursCmd.AddCommand(hoursAddCmd, rmCommand(ledger.KindHours), lsCommand(ledger.KindHours))
	expenseCmd.AddCommand(expenseAddRecurringCmd, expenseAddOnceCmd, expenseRmCmd,
		lsCommand(ledger.KindRecurring, ledger.KindOneTime))

	rootCmd.AddCommand(invoiceCmd, hoursCmd, expenseCmd)
}

func runInvoiceAdd(cmd *cobra.Command, args []string) error {
	amount, err := cli.ParseAmount(args[0])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	month, err := s.monthFlag("month", flagMonth)
	if err != nil {
		return err
	}
	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		out, id, err := ledger.AddInvoice(rs, flagLabel, amount, month)
		return out, fmt.Sprintf("Added invoice %s: %s in %s",
			cli.ShortID(id), cli.FormatMoney(amount, s.currency()), month), err
	})
}

func runHoursAdd(cmd *cobra.Command, args []string) error {
	hours, err := cli.ParseAmount(args[0])
	if err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	month, err := s.monthFlag("month", flagMonth)
	if err != nil {
		return err
	}
	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		out, id, err := ledger.AddHours(rs, hours, month)
		msg := fmt.Sprintf("Added hours %s: %s h in %s", cli.ShortID(id), cli.FormatAmount(hours), month)
		if err == nil && hoursShadowed(out, month) {
			msg += " (an earlier entry for this month is used in the projection)"
		}
		return out, msg, err
	})
}

// hoursShadowed reports whether more than one hourly entry exists for month.
// Only the first one counts toward income.
func hoursShadowed(rs model.RecordSet, month model.MonthKey) bool {
	n := 0
	for _, h := range rs.HourlyEntries {
		if h.Month == month {
			n++
		}
	}
	return n > 1
}

func runExpenseAddRecurring(cmd *cobra.Command, args []string) error {
	name := args[0]
	amount, err := cli.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := s.monthFlag("from", flagFrom)
	if err != nil {
		return err
	}
	end := start.AddMonths(11)
	if flagTo != "" {
		if end, err = s.monthFlag("to", flagTo); err != nil {
			return err
		}
	}
	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		out, id, err := ledger.AddRecurring(rs, name, amount, start, end)
		return out, fmt.Sprintf("Added recurring expense %s: %s %s/mo, %s",
			cli.ShortID(id), name, cli.FormatMoney(amount, s.currency()), cli.FormatRange(start, end)), err
	})
}

func runExpenseAddOnce(cmd *cobra.Command, args []string) error {
	name := args[0]
	amount, err := cli.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	month, err := s.monthFlag("month", flagMonth)
	if err != nil {
		return err
	}
	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		out, id, err := ledger.AddOneTime(rs, name, amount, month)
		return out, fmt.Sprintf("Added one-time expense %s: %s %s in %s",
			cli.ShortID(id), name, cli.FormatMoney(amount, s.currency()), month), err
	})
}

func runExpenseRm(cmd *cobra.Command, args []string) error {
	allowed := []ledger.Kind{ledger.KindRecurring, ledger.KindOneTime}
	if len(args) == 2 {
		kind, err := ledger.ParseKind(args[0])
		if err != nil {
			return err
		}
		if kind != ledger.KindRecurring && kind != ledger.KindOneTime {
			return fmt.Errorf("%w: %s is not an expense", ledger.ErrUnknownKind, kind)
		}
		allowed = []ledger.Kind{kind}
		args = args[1:]
	}
	return removeRecord(cmd, args[0], allowed...)
}

// rmCommand builds the `rm <id>` subcommand for one collection.
func rmCommand(kind ledger.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: fmt.Sprintf("Remove a %s record by id or id prefix", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeRecord(cmd, args[0], kind)
		},
	}
}

// removeRecord deletes the record whose id (or unambiguous prefix) is id,
// provided it belongs to one of kinds.
func removeRecord(cmd *cobra.Command, id string, kinds ...ledger.Kind) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		kind, full, err := ledger.FindKind(rs, id)
		if err != nil {
			return rs, "", err
		}
		if !kindIn(kind, kinds) {
			return rs, "", fmt.Errorf("%s is a %s record: %w", cli.ShortID(full), kind, ledger.ErrNotFound)
		}
		out, err := ledger.Remove(rs, kind, full)
		return out, fmt.Sprintf("Removed %s %s", kind, cli.ShortID(full)), err
	})
}

func kindIn(k ledger.Kind, kinds []ledger.Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

// lsCommand builds the `ls` subcommand listing the given collections.
func lsCommand(kinds ...ledger.Kind) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			rs, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println()
			for _, k := range kinds {
				fmt.Print(cli.RenderTable(recordTable(rs, k, s.currency())))
			}
			fmt.Println()
			return nil
		},
	}
}

// recordTable lists one collection. Tables for empty collections carry a
// single placeholder row.
func recordTable(rs model.RecordSet, kind ledger.Kind, cur string) cli.Table {
	var t cli.Table
	switch kind {
	case ledger.KindInvoice:
		t = cli.Table{Title: "Invoices", Headers: []string{"ID", "Month", "Amount", "Label"}}
		for _, r := range rs.Invoices {
			t.Rows = append(t.Rows, []string{cli.ShortID(r.ID), cli.FormatMonth(r.Month), cli.FormatMoney(r.Amount, cur), r.Label})
		}
	case ledger.KindHours:
		t = cli.Table{Title: "Billed hours", Headers: []string{"ID", "Month", "Hours", "Revenue"}}
		for _, r := range rs.HourlyEntries {
			t.Rows = append(t.Rows, []string{cli.ShortID(r.ID), cli.FormatMonth(r.Month), cli.FormatAmount(r.Hours),
				cli.FormatMoney(r.Hours*rs.SelfEmployed.HourlyRate, cur)})
		}
	case ledger.KindRecurring:
		t = cli.Table{Title: "Recurring expenses", Headers: []string{"ID", "Months", "Per month", "Name"}}
		for _, r := range rs.Recurring {
			t.Rows = append(t.Rows, []string{cli.ShortID(r.ID), cli.FormatRange(r.StartMonth, r.EndMonth), cli.FormatMoney(r.Amount, cur), r.Name})
		}
	case ledger.KindOneTime:
		t = cli.Table{Title: "One-time expenses", Headers: []string{"ID", "Month", "Amount", "Name"}}
		for _, r := range rs.OneTime {
			t.Rows = append(t.Rows, []string{cli.ShortID(r.ID), cli.FormatMonth(r.Month), cli.FormatMoney(r.Amount, cur), r.Name})
		}
	}
	if len(t.Rows) == 0 {
		t.Rows = [][]string{{"-", "none"}}
	}
	return t
}
