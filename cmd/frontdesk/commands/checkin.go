package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/frontdesk/internal/hotel"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/spf13/cobra"
)

var (
	checkinName      string
	checkinContact   string
	checkinIDNumber  string
	checkinRoom      int
	checkinRate      float64
	checkinScan      string
	checkinReuseScan string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Check a guest into a room",
	Long: `Check a guest into a free or reserved room.

A reservation for the room today is consumed. With a folder tree attached the
check-in is written to Checkins/<date>/ and an identity scan can be filed
under ScannedDocuments/.

Examples:
  # Walk-in at the room's rate
  frontdesk checkin --name "Asha Rao" --contact 9876543210 --room 101

  # Negotiated rate with an identity scan
  frontdesk checkin --name "Asha Rao" --room 203 --rate 2000 --scan ./aadhaar.jpg

  # Reuse a scan from an earlier stay
  frontdesk checkin --name "Asha Rao" --room 203 --reuse-scan 2024/Mar/01/Asha_Rao_203_2024-03-01.jpg`,
	RunE: runCheckin,
}

func init() {
	checkinCmd.Flags().StringVar(&checkinName, "name", "", "Guest name (required)")
	checkinCmd.Flags().StringVar(&checkinContact, "contact", "", "Guest phone number")
	checkinCmd.Flags().StringVar(&checkinIDNumber, "id", "", "Identity document number")
	checkinCmd.Flags().IntVar(&checkinRoom, "room", 0, "Room number (required)")
	checkinCmd.Flags().Float64Var(&checkinRate, "rate", 0, "Rate per night (defaults to the room's rate)")
	checkinCmd.Flags().StringVar(&checkinScan, "scan", "", "Path to an identity scan to file with the stay")
	checkinCmd.Flags().StringVar(&checkinReuseScan, "reuse-scan", "", "Earlier scan to reuse, relative to ScannedDocuments")
	_ = checkinCmd.MarkFlagRequired("name")
	_ = checkinCmd.MarkFlagRequired("room")
	rootCmd.AddCommand(checkinCmd)
}

func runCheckin(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "checkin")
	if err != nil {
		return err
	}
	defer env.Close()

	req := hotel.CheckInRequest{
		Name:      checkinName,
		Contact:   checkinContact,
		IDNumber:  checkinIDNumber,
		Room:      checkinRoom,
		Rate:      checkinRate,
		ReuseScan: checkinReuseScan,
	}
	if checkinScan != "" {
		f, err := os.Open(checkinScan)
		if err != nil {
			return printer.Error("cannot read scan", err.Error(), []string{"Check the path passed to --scan"})
		}
		defer f.Close()
		req.Scan = f
		req.ScanExt = filepath.Ext(checkinScan)
	}

	res, err := env.desk.CheckIn(env.ctx, req)
	if err != nil {
		return workflowError(fmt.Sprintf("check-in to room %d failed", checkinRoom), err)
	}

	printer.Success("Checked %s into room %d at %s per night\n", res.Record.Name, checkinRoom, printer.Amount(res.Record.Rate.Float()))
	printer.Info("  entry: %s\n", res.Record.EntryID)
	if res.File != "" {
		printer.Info("  file:  %s\n", res.File)
	}
	if res.Scan != nil {
		printer.Info("  scan:  %s\n", res.Scan.Path)
	}
	return nil
}
