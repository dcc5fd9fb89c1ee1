package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/internal/hotel"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/timespec"
	"github.com/spf13/cobra"
)

var roomsDate string

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Show the room grid",
	Long: `Show every floor of the hotel with the status of each room.

Rooms are shown as free, occupied (with the guest) or reserved for the date.

Examples:
  # Today's grid
  frontdesk rooms

  # Who is reserved for tomorrow
  frontdesk rooms --date tomorrow`,
	RunE: runRooms,
}

func init() {
	roomsCmd.Flags().StringVar(&roomsDate, "date", "today", "Date for reservations (today, tomorrow, YYYY-MM-DD)")
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "rooms")
	if err != nil {
		return err
	}
	defer env.Close()

	date, err := timespec.ParseDate(roomsDate, time.Now())
	if err != nil {
		return printer.Error("invalid --date", err.Error(), []string{"Use today, tomorrow or YYYY-MM-DD"})
	}

	state, err := env.desk.State(env.ctx)
	if err != nil {
		return workflowError("failed to load state", err)
	}

	grid := hotel.Grid(state, date)
	floors := make([]int, 0, len(grid))
	for f := range grid {
		floors = append(floors, f)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(floors)))

	printer.Printf("Rooms for %s (%s)\n\n", env.cfg.Hotel.Name, date)
	occupied := 0
	total := 0
	for _, f := range floors {
		cells := make([]string, 0, len(grid[f]))
		for _, r := range grid[f] {
			cells = append(cells, printer.RoomCell(r))
			total++
			if r.Guest != nil {
				occupied++
			}
		}
		printer.Printf("%s  %s\n", printer.Dim(fmt.Sprintf("F%d", f)), strings.Join(cells, "  "))
	}
	printer.Printf("\n%d of %d rooms occupied\n", occupied, total)
	return nil
}
