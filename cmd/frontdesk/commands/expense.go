package commands

import (
	"context"

	"github.com/dyluth/frontdesk/internal/ledger"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/spf13/cobra"
)

var (
	expenseDescription string
	expenseCategory    string
	expenseAmount      float64
	expenseNote        string
	expensePassword    string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record and inspect expenses",
	Long: `Record, list and delete hotel expenses.

Deleting an expense requires the admin password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var expenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Long: `Record money spent by the hotel.

Examples:
  frontdesk expense add --description "Laundry" --category linen --amount 400`,
	RunE: runExpenseAdd,
}

var expenseListCmd = &cobra.Command{
	Use:   "list [ENTRY_ID]",
	Short: "List expenses with filtering",
	Long: `List expenses newest first, or show one expense in full.

Examples:
  # This week's expenses
  frontdesk expense list --from 168h

  # Search by description or category
  frontdesk expense list --query laundry

  # Show one expense by short ID
  frontdesk expense list 550e84`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExpenseList,
}

var expenseDeleteCmd = &cobra.Command{
	Use:   "delete ENTRY_ID",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseDelete,
}

func init() {
	expenseAddCmd.Flags().StringVar(&expenseDescription, "description", "", "What the money was spent on")
	expenseAddCmd.Flags().StringVar(&expenseCategory, "category", "", "Expense category")
	expenseAddCmd.Flags().Float64Var(&expenseAmount, "amount", 0, "Amount spent (required)")
	expenseAddCmd.Flags().StringVar(&expenseNote, "note", "", "Free-text note")
	_ = expenseAddCmd.MarkFlagRequired("amount")

	addListFlags(expenseListCmd)

	expenseDeleteCmd.Flags().StringVar(&expensePassword, "password", "", "Admin password")

	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd, expenseDeleteCmd)
	rootCmd.AddCommand(expenseCmd)
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "expense")
	if err != nil {
		return err
	}
	defer env.Close()

	e, err := env.desk.RecordExpense(env.ctx, desk.Expense{
		Description: expenseDescription,
		Category:    expenseCategory,
		Amount:      desk.Number(expenseAmount),
		Note:        expenseNote,
	})
	if err != nil {
		return workflowError("failed to record expense", err)
	}

	printer.Success("Recorded expense %s: %s\n", e.Label(), printer.Amount(e.Amount.Float()))
	printer.Info("  id: %s\n", e.ID)
	return nil
}

func runExpenseList(cmd *cobra.Command, args []string) error {
	var opts ledger.Options
	if len(args) == 0 {
		var err error
		if opts, err = listOptions(); err != nil {
			return err
		}
	}

	env, err := openDesk(context.Background(), "expense")
	if err != nil {
		return err
	}
	defer env.Close()

	if len(args) > 0 {
		return getEntry(env, desk.CollectionExpenses, args[0])
	}
	return ledger.ListExpenses(env.ctx, env.store, opts, printer.Stdout())
}

func runExpenseDelete(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "expense")
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := resolveEntry(env, desk.CollectionExpenses, args[0], true)
	if err != nil {
		return err
	}
	if err := env.desk.DeleteExpense(env.ctx, id, expensePassword); err != nil {
		return workflowError("failed to delete expense", err)
	}

	printer.Success("Deleted expense %s\n", id)
	return nil
}
