package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/projection"

	"github.com/spf13/cobra"
)

var flagTimelineJSON bool

var timelineCmd = &cobra.Command{
	Use:     "timeline",
	Aliases: []string{"tl"},
	Short:   "Month-by-month projection with carried balance",
	RunE:    runTimeline,
}

func init() {
	timelineCmd.Flags().BoolVar(&flagTimelineJSON, "json", false, "Print rows as JSON")
	rootCmd.AddCommand(timelineCmd)
}

// timelineJSON is the document printed by `timeline --json`.
type timelineJSON struct {
	Now     model.MonthKey   `json:"now"`
	Summary model.Summary    `json:"summary"`
	Totals  model.Totals     `json:"totals"`
	Rows    []model.MonthRow `json:"rows"`
}

func runTimeline(cmd *cobra.Command, _ []string) error {
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
	summary := projection.Summarize(rows, s.now)
	totals := projection.Sum(rows)

	if flagTimelineJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(timelineJSON{Now: s.now, Summary: summary, Totals: totals, Rows: rows})
	}

	cur := s.currency()
	first, last := rows[0].Month, rows[len(rows)-1].Month

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CASH FLOW  %s  %s", rs.Mode.Label(), cli.FormatRange(first, last))))
	fmt.Println()
	fmt.Print(cli.RenderSummary(summary, cur))
	fmt.Println()

	table := cli.TimelineTable(rows, s.now, cur)
	table.Rows = append(table.Rows,
		[]string{"---"},
		[]string{"Total", cli.FormatMoney(totals.Income, cur), cli.FormatMoney(totals.Expenses, cur), "", cli.FormatMoney(totals.FinalBalance, cur)},
	)
	table.Tones = append(table.Tones,
		nil,
		[]cli.Tone{cli.ToneNeutral, cli.TonePositive, cli.ToneNegative, cli.ToneNeutral, cli.BalanceTone(totals.FinalBalance)},
	)
	fmt.Print(cli.RenderTable(table))

	printBalanceTrend(rows)
	if !totals.LowestMonth.IsZero() && totals.LowestBalance < 0 {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("Balance goes negative: lowest %s in %s",
			cli.FormatMoney(totals.LowestBalance, cur), cli.FormatMonth(totals.LowestMonth))))
	}
	fmt.Println()
	return nil
}

func printBalanceTrend(rows []model.MonthRow) {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.CarryOut
	}
	fmt.Printf("\n%s %s\n", cli.RenderMuted("Carry-out trend"), cli.RenderSparkline(values))
}
