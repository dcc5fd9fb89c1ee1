package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/frontdesk/internal/ledger"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/resolver"
	"github.com/dyluth/frontdesk/internal/timespec"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/spf13/cobra"
)

var (
	rentName   string
	rentRoom   int
	rentDays   float64
	rentAmount float64
	rentMode   string
	rentNote   string

	rentPassword string

	listOutput   string
	listFrom     string
	listUntil    string
	listMode     string
	listQuery    string
	listPage     int
	listPageSize int
)

var rentCmd = &cobra.Command{
	Use:   "rent",
	Short: "Record and inspect rent payments",
	Long: `Record, list, edit and delete rent payments.

Editing and deleting a payment requires the admin password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a rent payment",
	Long: `Record a rent payment for a room.

Examples:
  frontdesk rent add --name "Asha Rao" --room 101 --days 2 --amount 5000 --mode GPay`,
	RunE: runRentAdd,
}

var rentListCmd = &cobra.Command{
	Use:   "list [ENTRY_ID]",
	Short: "List rent payments with filtering",
	Long: `List rent payments newest first, or show one payment in full.

List Mode (no ENTRY_ID):
  Displays payments matching filters as a table with totals, or as JSONL.

Get Mode (with ENTRY_ID):
  Displays the complete payment as pretty-printed JSON.
  Supports short IDs (e.g., "550e84" instead of the full id).

Examples:
  # Today's payments
  frontdesk rent list --from today

  # GPay payments in March as JSONL
  frontdesk rent list --from 2024-03-01 --until 2024-03-31 --mode gpay -o jsonl

  # Search by guest or room
  frontdesk rent list --query asha`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRentList,
}

var rentEditCmd = &cobra.Command{
	Use:   "edit ENTRY_ID",
	Short: "Correct the days, amount or mode of a payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runRentEdit,
}

var rentDeleteCmd = &cobra.Command{
	Use:   "delete ENTRY_ID",
	Short: "Delete a rent payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runRentDelete,
}

func init() {
	rentAddCmd.Flags().StringVar(&rentName, "name", "", "Guest name (required)")
	rentAddCmd.Flags().IntVar(&rentRoom, "room", 0, "Room number (required)")
	rentAddCmd.Flags().Float64Var(&rentDays, "days", 1, "Nights paid for")
	rentAddCmd.Flags().Float64Var(&rentAmount, "amount", 0, "Amount paid (required)")
	rentAddCmd.Flags().StringVar(&rentMode, "mode", "Cash", "Payment mode: Cash or GPay")
	rentAddCmd.Flags().StringVar(&rentNote, "note", "", "Free-text note")
	_ = rentAddCmd.MarkFlagRequired("name")
	_ = rentAddCmd.MarkFlagRequired("room")
	_ = rentAddCmd.MarkFlagRequired("amount")

	addListFlags(rentListCmd)
	rentListCmd.Flags().StringVar(&listMode, "mode", "", "Only payments made by this mode (Cash or GPay)")

	rentEditCmd.Flags().Float64Var(&rentDays, "days", 1, "Corrected nights paid for")
	rentEditCmd.Flags().Float64Var(&rentAmount, "amount", 0, "Corrected amount (required)")
	rentEditCmd.Flags().StringVar(&rentMode, "mode", "Cash", "Corrected payment mode")
	rentEditCmd.Flags().StringVar(&rentPassword, "password", "", "Admin password")
	_ = rentEditCmd.MarkFlagRequired("amount")

	rentDeleteCmd.Flags().StringVar(&rentPassword, "password", "", "Admin password")

	rentCmd.AddCommand(rentAddCmd, rentListCmd, rentEditCmd, rentDeleteCmd)
	rootCmd.AddCommand(rentCmd)
}

// addListFlags registers the filter and paging flags shared by ledger listings.
func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&listOutput, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	cmd.Flags().StringVar(&listFrom, "from", "", "First date to include (today, yesterday, YYYY-MM-DD, 24h)")
	cmd.Flags().StringVar(&listUntil, "until", "", "Last date to include")
	cmd.Flags().StringVarP(&listQuery, "query", "q", "", "Substring of name, room, date or amount")
	cmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	cmd.Flags().IntVar(&listPageSize, "page-size", 0, "Entries per page (0 shows all)")
}

// listOptions builds ledger options from the shared list flags.
func listOptions() (ledger.Options, error) {
	format, err := ledger.ParseOutputFormat(listOutput)
	if err != nil {
		return ledger.Options{}, printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl"})
	}
	from, to, err := timespec.ParseRange(listFrom, listUntil, time.Now())
	if err != nil {
		return ledger.Options{}, printer.Error("invalid time range", err.Error(), []string{
			"Use today, yesterday, YYYY-MM-DD, RFC3339 or a duration such as 48h",
		})
	}
	return ledger.Options{
		Format:   format,
		Filter:   &ledger.Filter{From: from, To: to, Mode: listMode, Query: listQuery},
		Page:     listPage,
		PageSize: listPageSize,
	}, nil
}

// resolveEntry expands a short id, printing resolver errors with suggestions.
// With fileOnly set, an id unknown to Redis is passed through unchanged so
// entries that only exist in the folder tree can still be edited.
func resolveEntry(env *deskEnv, coll desk.Collection, shortID string, fileOnly bool) (string, error) {
	id, err := resolver.ResolveEntryID(env.ctx, env.store, coll, shortID)
	if err == nil {
		return id, nil
	}
	if resolver.IsNotFoundError(err) && fileOnly && env.disk.Available() {
		return shortID, nil
	}
	if resolver.IsNotFoundError(err) {
		return "", printer.Error(
			fmt.Sprintf("%s entry with ID '%s' not found", coll, shortID),
			"No ledger entry has that id or id prefix.",
			[]string{fmt.Sprintf("List entries:\n  frontdesk %s list", ledgerCommand(coll))},
		)
	}
	if amb, ok := err.(*resolver.AmbiguousError); ok {
		return "", printer.Error("ambiguous short ID", resolver.FormatAmbiguousError(amb), nil)
	}
	return "", printer.Error("invalid entry ID", err.Error(), nil)
}

func ledgerCommand(coll desk.Collection) string {
	if coll == desk.CollectionExpenses {
		return "expense"
	}
	return "rent"
}

// getEntry prints one ledger entry as JSON.
func getEntry(env *deskEnv, coll desk.Collection, shortID string) error {
	id, err := resolveEntry(env, coll, shortID, false)
	if err != nil {
		return err
	}
	if err := ledger.GetEntry(env.ctx, env.store, coll, id, printer.Stdout()); err != nil {
		if ledger.IsNotFound(err) {
			return printer.Error(err.Error(), "The entry was removed while it was being read.", nil)
		}
		return err
	}
	return nil
}

func runRentAdd(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "rent")
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := env.desk.RecordRent(env.ctx, desk.RentPayment{
		Name:   rentName,
		Room:   desk.RoomNumber(rentRoom),
		Days:   desk.Number(rentDays),
		Amount: desk.Number(rentAmount),
		Mode:   desk.PaymentMode(rentMode),
		Note:   rentNote,
	})
	if err != nil {
		return workflowError("failed to record rent", err)
	}

	printer.Success("Recorded %s (%s) from %s for room %d\n", printer.Amount(p.Amount.Float()), p.Mode, p.Name, int(p.Room))
	printer.Info("  id: %s\n", p.ID)
	return nil
}

func runRentList(cmd *cobra.Command, args []string) error {
	var opts ledger.Options
	if len(args) == 0 {
		var err error
		if opts, err = listOptions(); err != nil {
			return err
		}
	}

	env, err := openDesk(context.Background(), "rent")
	if err != nil {
		return err
	}
	defer env.Close()

	if len(args) > 0 {
		return getEntry(env, desk.CollectionRentPayments, args[0])
	}
	return ledger.ListRent(env.ctx, env.store, opts, printer.Stdout())
}

func runRentEdit(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "rent")
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := resolveEntry(env, desk.CollectionRentPayments, args[0], true)
	if err != nil {
		return err
	}

	p, err := env.desk.EditRent(env.ctx, id, rentDays, rentAmount, rentMode, rentPassword)
	if err != nil {
		return workflowError("failed to edit rent payment", err)
	}

	printer.Success("Updated payment %s: %s (%s) for %s day(s)\n", p.ID, printer.Amount(p.Amount.Float()), p.Mode, printer.Amount(p.Days.Float()))
	return nil
}

func runRentDelete(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "rent")
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := resolveEntry(env, desk.CollectionRentPayments, args[0], true)
	if err != nil {
		return err
	}
	if err := env.desk.DeleteRent(env.ctx, id, rentPassword); err != nil {
		return workflowError("failed to delete rent payment", err)
	}

	printer.Success("Deleted rent payment %s\n", id)
	return nil
}
