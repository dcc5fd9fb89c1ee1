package commands

import (
	"context"
	"sort"
	"time"

	"github.com/dyluth/frontdesk/internal/ledger"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	summaryDate    string
	summaryOutput  string
	summaryDetails bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the day's rooms, arrivals and takings",
	Long: `Show the dashboard for a day: room counts, expected arrivals, rent
collected by payment mode, expenses and the net.

Output Formats:
  default - Human-readable summary
  json    - The summary as a single JSON document

Examples:
  frontdesk summary
  frontdesk summary --date yesterday --details
  frontdesk summary --date 2024-03-01 -o json`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryDate, "date", "today", "Day to summarize (today, yesterday, YYYY-MM-DD)")
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "default", "Output format (default or json)")
	summaryCmd.Flags().BoolVar(&summaryDetails, "details", false, "Also list the day's payments and expenses")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	if summaryOutput != "default" && summaryOutput != "json" {
		return printer.Error("invalid output format", "Unknown format: "+summaryOutput, []string{"Valid formats: default, json"})
	}
	date, err := timespec.ParseDate(summaryDate, time.Now())
	if err != nil {
		return printer.Error("invalid --date", err.Error(), []string{"Use today, yesterday or YYYY-MM-DD"})
	}

	env, err := openDesk(context.Background(), "summary")
	if err != nil {
		return err
	}
	defer env.Close()

	sum, err := env.desk.Summary(env.ctx, date)
	if err != nil {
		return workflowError("failed to build summary", err)
	}

	if summaryOutput == "json" {
		return ledger.FormatSingleJSON(printer.Stdout(), sum)
	}

	printer.Printf("Summary for %s on %s\n\n", env.cfg.Hotel.Name, sum.Date)
	printer.Printf("  Rooms:    %d total, %d occupied, %d reserved, %d free\n", sum.Total, sum.Occupied, sum.Reserved, sum.Free)
	printer.Printf("  Rent:     %s\n", printer.Amount(sum.RentTotal))

	modes := make([]string, 0, len(sum.RentByMode))
	for m := range sum.RentByMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		printer.Printf("            %s %s\n", printer.Dim(m+":"), printer.Amount(sum.RentByMode[m]))
	}
	printer.Printf("  Expenses: %s\n", printer.Amount(sum.ExpenseTotal))
	printer.Printf("  Net:      %s\n", printer.Amount(sum.Net))

	if len(sum.Arrivals) > 0 {
		printer.Printf("\nArrivals:\n")
		for _, r := range sum.Arrivals {
			from := ""
			if r.Place != "" {
				from = " from " + r.Place
			}
			printer.Printf("  Room %d: %s%s\n", int(r.Room), r.Name, from)
		}
	}

	if !summaryDetails {
		return nil
	}

	opts := ledger.Options{Format: ledger.OutputFormatDefault}
	rent, err := env.desk.RentOn(env.ctx, date)
	if err != nil {
		return err
	}
	printer.Println()
	if err := ledger.WriteRent(printer.Stdout(), rent, env.cfg.Hotel.Name, opts); err != nil {
		return err
	}

	expenses, err := env.desk.ExpensesOn(env.ctx, date)
	if err != nil {
		return err
	}
	printer.Println()
	return ledger.WriteExpenses(printer.Stdout(), expenses, env.cfg.Hotel.Name, opts)
}
