package cmd

import (
	"errors"
	"fmt"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"

	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:       "mode [employment|self-employed]",
	Short:     "Show or switch the income mode",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"employment", "self-employed"},
	RunE:      runMode,
}

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Show or edit income parameters",
	Args:  cobra.NoArgs,
	RunE:  runIncomeShow,
}

var incomeEmploymentCmd = &cobra.Command{
	Use:   "employment <net>",
	Short: "Set the monthly net salary",
	Long:  "Set the monthly net salary.\n\n" + negativeAmountNote,
	Args:  cobra.ExactArgs(1),
	RunE:  runIncomeEmployment,
}

var (
	flagZus  string
	flagTax  string
	flagRate string
)

var incomeSelfEmployedCmd = &cobra.Command{
	Use:   "self-employed",
	Short: "Set social contribution, tax rate and hourly rate",
	Args:  cobra.NoArgs,
	RunE:  runIncomeSelfEmployed,
}

func init() {
	incomeSelfEmployedCmd.Flags().StringVar(&flagZus, "zus", "", "Monthly social contribution")
	incomeSelfEmployedCmd.Flags().StringVar(&flagTax, "tax", "", "Income tax rate in percent")
	incomeSelfEmployedCmd.Flags().StringVar(&flagRate, "rate", "", "Hourly rate")

	incomeCmd.AddCommand(incomeEmploymentCmd, incomeSelfEmployedCmd)
	rootCmd.AddCommand(modeCmd, incomeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		rs, err := s.load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("  Income mode: %s\n", rs.Mode.Label())
		return nil
	}

	mode, err := model.ParseIncomeMode(args[0])
	if err != nil {
		return err
	}
	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		out, err := ledger.SetMode(rs, mode)
		return out, "Income mode set to " + mode.Label(), err
	})
}

func runIncomeShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := s.load(cmd.Context())
	if err != nil {
		return err
	}
	cur := s.currency()
	p := rs.SelfEmployed

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Income (" + rs.Mode.Label() + ")",
		Headers: []string{"Parameter", "Value"},
		Rows: [][]string{
			{"Net salary", cli.FormatMoney(rs.EmploymentNet, cur)},
			{"---"},
			{"Social contribution", cli.FormatMoney(p.Zus, cur)},
			{"Tax rate", cli.FormatPercent(p.TaxRate)},
			{"Hourly rate", cli.FormatMoney(p.HourlyRate, cur)},
		},
	}))
	fmt.Println()
	return nil
}

func runIncomeEmployment(cmd *cobra.Command, args []string) error {
	net, err := cli.ParseAmount(args[0])
	if err != nil {
		return fmt.Errorf("net salary: %w", err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		return ledger.SetEmploymentNet(rs, net),
			"Net salary set to " + cli.FormatMoney(net, s.currency()), nil
	})
}

func runIncomeSelfEmployed(cmd *cobra.Command, _ []string) error {
	type field struct {
		flag string
		in   string
		set  func(*model.SelfEmployedParams, float64)
	}
	fields := []field{
		{"zus", flagZus, func(p *model.SelfEmployedParams, v float64) { p.Zus = v }},
		{"tax", flagTax, func(p *model.SelfEmployedParams, v float64) { p.TaxRate = v }},
		{"rate", flagRate, func(p *model.SelfEmployedParams, v float64) { p.HourlyRate = v }},
	}

	var updates []func(*model.SelfEmployedParams)
	for _, f := range fields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, err := cli.ParseAmount(f.in)
		if err != nil {
			return fmt.Errorf("--%s: %w", f.flag, err)
		}
		set := f.set
		updates = append(updates, func(p *model.SelfEmployedParams) { set(p, v) })
	}
	if len(updates) == 0 {
		return errors.New("nothing to change: pass --zus, --tax or --rate")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.mutate(cmd.Context(), func(rs model.RecordSet) (model.RecordSet, string, error) {
		p := rs.SelfEmployed
		for _, u := range updates {
			u(&p)
		}
		cur := s.currency()
		return ledger.SetSelfEmployed(rs, p), fmt.Sprintf(
			"Self-employment set: contribution %s, tax %s, rate %s/h",
			cli.FormatMoney(p.Zus, cur), cli.FormatPercent(p.TaxRate), cli.FormatMoney(p.HourlyRate, cur)), nil
	})
}
