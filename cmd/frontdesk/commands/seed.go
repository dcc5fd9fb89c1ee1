package commands

import (
	"context"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/dyluth/frontdesk/internal/seed"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Import a state and ledger entries from a JSONC file",
	Long: `Import a front desk from a JSON file with comments.

The file may hold a "state" with the room grid and reservations, plus
"checkins", "checkouts", "reservations", "rentPayments" and "expenses"
arrays. Entries keep their ids. Every entry is written to Redis and, with a
storage folder attached, to the folder tree.

Examples:
  frontdesk seed ./backup.jsonc`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := seed.ReadFile(args[0])
	if err != nil {
		return printer.Error("cannot read seed file", err.Error(), []string{"Check the file is JSON; comments and trailing commas are allowed"})
	}

	env, err := openDesk(context.Background(), "seed")
	if err != nil {
		return err
	}
	defer env.Close()

	report, err := seed.Apply(env.ctx, seed.Target{Store: env.store, Disk: env.disk}, f)
	if err != nil {
		return printer.Error("seed failed", err.Error(), nil)
	}

	if report.State {
		state := reconcile.Normalize(f.State, env.desk.Layout())
		if err := env.desk.Commit(env.ctx, state); err != nil {
			return workflowError("failed to save seeded state", err)
		}
	}

	printer.Success("Seeded hotel '%s' from %s\n", env.cfg.Hotel.Name, args[0])
	if report.State {
		printer.Info("  state: room grid and reservations\n")
	}
	for _, coll := range desk.Collections {
		if n := report.Entries[coll]; n > 0 {
			printer.Info("  %-14s %d\n", string(coll)+":", n)
		}
	}
	if report.Files > 0 {
		printer.Info("  files written: %d\n", report.Files)
	}
	return nil
}
