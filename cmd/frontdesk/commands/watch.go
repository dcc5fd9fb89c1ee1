package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/watch"
	"github.com/spf13/cobra"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor front-desk activity in real time",
	Long: `Stream room changes and ledger activity as they happen on any device.

Output Formats:
  default - Human-readable output with emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch all activity
  frontdesk watch

  # Export events as JSON
  frontdesk watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	outputFormat, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, json"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openDesk(ctx, "watch")
	if err != nil {
		return err
	}
	defer env.Close()

	return watch.StreamActivity(env.ctx, env.store, env.cfg.Hotel.Name, outputFormat, printer.Stdout())
}
