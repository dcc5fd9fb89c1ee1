package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/timespec"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/spf13/cobra"
)

var (
	reserveName   string
	reservePlace  string
	reserveRoom   int
	reserveDate   string
	reserveCancel bool
)

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Reserve a room for a date, or cancel a reservation",
	Long: `Book a room for a guest on a date.

A room can hold one reservation per date. A room occupied today cannot be
reserved for today.

Examples:
  # Reserve room 302 for tomorrow
  frontdesk reserve --name "Ravi" --place Pune --room 302 --date tomorrow

  # Cancel it again
  frontdesk reserve --cancel --name "Ravi" --room 302 --date tomorrow`,
	RunE: runReserve,
}

func init() {
	reserveCmd.Flags().StringVar(&reserveName, "name", "", "Guest name (required)")
	reserveCmd.Flags().StringVar(&reservePlace, "place", "", "Where the guest is travelling from")
	reserveCmd.Flags().IntVar(&reserveRoom, "room", 0, "Room number (required)")
	reserveCmd.Flags().StringVar(&reserveDate, "date", "today", "Date of arrival (today, tomorrow, YYYY-MM-DD)")
	reserveCmd.Flags().BoolVar(&reserveCancel, "cancel", false, "Cancel the matching reservation instead of booking")
	_ = reserveCmd.MarkFlagRequired("name")
	_ = reserveCmd.MarkFlagRequired("room")
	rootCmd.AddCommand(reserveCmd)
}

func runReserve(cmd *cobra.Command, args []string) error {
	date, err := timespec.ParseDate(reserveDate, time.Now())
	if err != nil {
		return printer.Error("invalid --date", err.Error(), []string{"Use today, tomorrow or YYYY-MM-DD"})
	}

	env, err := openDesk(context.Background(), "reserve")
	if err != nil {
		return err
	}
	defer env.Close()

	if reserveCancel {
		if err := env.desk.CancelReservation(env.ctx, date, reserveRoom, reserveName); err != nil {
			return workflowError("cancel failed", err)
		}
		printer.Success("Cancelled reservation for %s in room %d on %s\n", reserveName, reserveRoom, date)
		return nil
	}

	r, err := env.desk.Reserve(env.ctx, desk.Reservation{
		Name:  reserveName,
		Place: reservePlace,
		Room:  desk.RoomNumber(reserveRoom),
		Date:  date,
	})
	if err != nil {
		return workflowError(fmt.Sprintf("reservation of room %d failed", reserveRoom), err)
	}

	printer.Success("Reserved room %d for %s on %s\n", int(r.Room), r.Name, r.Date)
	printer.Info("  id: %s\n", r.ID)
	return nil
}
