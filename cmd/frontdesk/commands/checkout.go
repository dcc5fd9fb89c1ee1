package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/spf13/cobra"
)

var checkoutRoom int

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Check the guest out of a room",
	Long: `Close the stay in an occupied room and free it.

The days stayed, the rent due and the rent paid are totalled, and the stay is
marked tallied when the payments cover the rent.

Examples:
  frontdesk checkout --room 101`,
	RunE: runCheckout,
}

func init() {
	checkoutCmd.Flags().IntVar(&checkoutRoom, "room", 0, "Room number (required)")
	_ = checkoutCmd.MarkFlagRequired("room")
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "checkout")
	if err != nil {
		return err
	}
	defer env.Close()

	rec, err := env.desk.CheckOut(env.ctx, checkoutRoom)
	if err != nil {
		return workflowError(fmt.Sprintf("checkout of room %d failed", checkoutRoom), err)
	}

	printer.Success("Checked %s out of room %d\n", rec.Name, checkoutRoom)
	printer.Info("  stayed: %d day(s)\n", rec.DaysStayed)
	printer.Info("  rent:   %s\n", printer.Amount(rec.TotalRent.Float()))
	printer.Info("  paid:   %s\n", printer.Amount(rec.TotalPaid.Float()))
	if rec.PaymentTallyStatus == desk.TallyStatusTallied {
		printer.Success("Payments tallied\n")
	} else {
		printer.Warning("Payments not tallied: %s outstanding\n", printer.Amount(rec.TotalRent.Float()-rec.TotalPaid.Float()))
	}
	return nil
}
