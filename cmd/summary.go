package cmd

import (
	"fmt"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/projection"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline figures for the current month",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := s.load(cmd.Context())
	if err != nil {
		return err
	}

	rows := projection.Timeline(rs, s.now)
	sum := projection.Summarize(rows, s.now)
	totals := projection.Sum(rows)
	cur := s.currency()

	fmt.Println()
	fmt.Println(cli.RenderTitle("CASH FLOW  " + cli.FormatMonthLong(s.now)))
	fmt.Println()

	table := cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Income mode", rs.Mode.Label()},
			{"Records", cli.FormatNumber(int64(rs.RecordCount()))},
			{"---"},
			{"Income", cli.FormatMoney(sum.Income, cur)},
			{"Expenses", cli.FormatMoney(sum.Expenses, cur)},
			{"To spend", cli.FormatMoney(sum.ToSpend, cur)},
			{"Carried forward", cli.FormatSignedMoney(sum.CarryOut, cur)},
			{"---"},
			{"Months projected", fmt.Sprintf("%d (%s)", len(rows), cli.FormatRange(rows[0].Month, rows[len(rows)-1].Month))},
			{"Final balance", cli.FormatSignedMoney(totals.FinalBalance, cur)},
			{"Lowest balance", fmt.Sprintf("%s in %s", cli.FormatSignedMoney(totals.LowestBalance, cur), cli.FormatMonth(totals.LowestMonth))},
		},
		Tones: [][]cli.Tone{
			nil, nil, nil,
			{cli.ToneNeutral, cli.TonePositive},
			{cli.ToneNeutral, cli.ToneNegative},
			{cli.ToneNeutral, cli.TonePositive},
			{cli.ToneNeutral, cli.BalanceTone(sum.CarryOut)},
			nil, nil,
			{cli.ToneNeutral, cli.BalanceTone(totals.FinalBalance)},
			{cli.ToneNeutral, cli.BalanceTone(totals.LowestBalance)},
		},
	}
	fmt.Print(cli.RenderTable(table))
	fmt.Println()
	return nil
}
