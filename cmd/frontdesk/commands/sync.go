package commands

import (
	"context"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	syncPull  bool
	syncFlush bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the state between the folder tree, Redis and the remote API",
	Long: `Choose the authoritative state and push it everywhere once.

Without flags the state is taken from the folder tree, Redis or the remote
API, in that order, saved to Redis, written to the shared snapshot and pushed
to the remote API.

  --pull   take the remote state instead, keeping the local room rates
  --flush  retry the state queued after a failed remote push

Examples:
  frontdesk sync
  frontdesk sync --pull
  frontdesk sync --flush`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncPull, "pull", false, "Replace the local state with the remote one")
	syncCmd.Flags().BoolVar(&syncFlush, "flush", false, "Push the queued state to the remote API")
	rootCmd.AddCommand(syncCmd)
}

// resolveAndCommit picks the authoritative state at startup and saves it.
func resolveAndCommit(env *deskEnv) (*desk.State, reconcile.Source, error) {
	state, source := reconcile.Resolve(env.ctx, reconcile.Sources{
		Disk:   env.disk,
		Local:  env.store,
		Remote: remoteAPI(env.remote),
		Layout: env.desk.Layout(),
	})
	if err := env.desk.Commit(env.ctx, state); err != nil {
		return nil, source, workflowError("failed to save resolved state", err)
	}
	zerolog.Ctx(env.ctx).Info().Str("source", string(source)).Msg("state resolved")
	return state, source, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	env, err := openDesk(context.Background(), "sync")
	if err != nil {
		return err
	}
	defer env.Close()

	api := remoteAPI(env.remote)
	if (syncPull || syncFlush) && api == nil {
		return printer.Error(
			"no remote API configured",
			"--pull and --flush need a remote state API.",
			[]string{"Set remote.api_base in frontdesk.yml, or FRONTDESK_API_BASE"},
		)
	}

	switch {
	case syncFlush:
		sent, err := reconcile.NewFlusher(api, env.store, env.cfg.FlushEvery(), env.mirror.Accepted()).FlushOnce(env.ctx)
		if err != nil {
			return printer.Error("flush failed", err.Error(), []string{"Check that the remote API is reachable:\n  curl " + env.cfg.Remote.APIBase + "/ping"})
		}
		if sent {
			printer.Success("Queued state pushed to %s\n", env.cfg.Remote.APIBase)
		} else {
			printer.Info("Nothing queued for the remote API\n")
		}
		return nil

	case syncPull:
		remote, err := env.remote.LoadState(env.ctx)
		if err != nil {
			return printer.Error("pull failed", err.Error(), []string{"Check that the remote API is reachable:\n  curl " + env.cfg.Remote.APIBase + "/ping"})
		}
		if remote == nil {
			return printer.Error("pull failed", "The remote API has no state yet.", []string{"Push the local state first:\n  frontdesk sync"})
		}
		_, err = env.desk.Update(env.ctx, func(local *desk.State) (*desk.State, error) {
			return reconcile.Normalize(reconcile.MergeRemote(remote, local), env.desk.Layout()), nil
		})
		if err != nil {
			return workflowError("failed to save pulled state", err)
		}
		printer.Success("Pulled state from %s\n", env.cfg.Remote.APIBase)

	default:
		_, source, err := resolveAndCommit(env)
		if err != nil {
			return err
		}
		printer.Success("State resolved from %s and saved\n", source)
	}

	printSnapshotReport(env)
	return nil
}

// printSnapshotReport reads back the shared snapshot other devices see.
func printSnapshotReport(env *deskEnv) {
	if !env.disk.Available() {
		printer.Info("  snapshot: no storage folder attached\n")
		return
	}
	snap, err := env.disk.ReadSharedSnapshot()
	if err != nil {
		printer.Warning("Shared snapshot not readable: %v\n", err)
		return
	}
	printer.Info("  snapshot: updated %s\n", snap.UpdatedAt)
	printer.Info("            %d reservations, %d guests, %d check-ins, %d checkouts\n",
		len(snap.Reservations), len(snap.Guests), len(snap.Checkins), len(snap.Checkouts))
	printer.Info("            %d rent payments, %d expenses, %d scans\n",
		len(snap.RentPayments), len(snap.Expenses), len(snap.ScannedDocuments))
}
