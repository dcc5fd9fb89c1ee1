package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/frontdesk/internal/api"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveListen   string
	serveDebounce time.Duration
	serveNoWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the state API and keep every copy of the state in sync",
	Long: `Run the HTTP state API for the front-desk clients.

At startup the authoritative state is chosen from the folder tree, Redis and
the remote API, in that order, and saved. While running:
  • changes to the folder tree are re-read and broadcast
  • states that could not be pushed to the remote API are retried
  • /api/stream pushes every state change to connected browsers

Examples:
  frontdesk serve
  frontdesk serve --listen :8080 --no-watch`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides server.listen)")
	serveCmd.Flags().DurationVar(&serveDebounce, "debounce", 500*time.Millisecond, "Quiet period before folder changes are re-read")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not watch the folder tree for changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openDesk(ctx, "serve")
	if err != nil {
		return err
	}
	defer env.Close()

	logger := zerolog.Ctx(env.ctx)
	if _, _, err := resolveAndCommit(env); err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		Desk:        env.desk,
		Store:       env.store,
		Logger:      *logger,
		StorageBase: env.cfg.Storage.BaseDir,
		RemoteBase:  env.cfg.Remote.APIBase,
	})
	if err != nil {
		return err
	}

	listen := env.cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}

	g, gctx := errgroup.WithContext(env.ctx)

	if !serveNoWatch && env.disk.Available() {
		w, err := env.disk.NewWatcher(serveDebounce, func(ctx context.Context, paths []string) {
			rehydrate(ctx, env, paths)
		})
		if err != nil {
			return printer.Error("cannot watch storage folder", err.Error(), []string{"Run with --no-watch to serve without folder updates"})
		}
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}

	if remoteClient := remoteAPI(env.remote); remoteClient != nil {
		flusher := reconcile.NewFlusher(remoteClient, env.store, env.cfg.FlushEvery(), env.mirror.Accepted())
		g.Go(func() error {
			return flusher.Run(gctx)
		})
	}

	g.Go(func() error {
		return server.ListenAndServe(gctx, listen)
	})

	printer.Success("Serving hotel '%s' on %s\n", env.cfg.Hotel.Name, listen)
	logger.Info().Str("listen", listen).Msg("state API started")

	if err := g.Wait(); err != nil {
		return printer.Error("server stopped", err.Error(), []string{"Check that the listen address is free"})
	}
	logger.Info().Msg("state API stopped")
	return nil
}

// rehydrate rebuilds the grid from the folder tree after files changed on disk.
func rehydrate(ctx context.Context, env *deskEnv, paths []string) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Strs("paths", paths).Msg("folder tree changed")

	layout := env.desk.Layout()
	saved, err := env.desk.Update(ctx, func(current *desk.State) (*desk.State, error) {
		next, err := env.disk.Hydrate(ctx, current, layout)
		if err != nil || next == nil {
			return nil, err
		}
		next = reconcile.Normalize(next, layout)
		if reconcile.HashState(next) == reconcile.HashState(current) {
			return nil, nil
		}
		return next, nil
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to refresh state from folder tree")
		return
	}
	if !saved {
		return
	}
	logger.Info().Int("files", len(paths)).Msg("state refreshed from folder tree")
}
