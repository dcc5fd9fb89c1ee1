package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dyluth/frontdesk/internal/config"
	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/internal/hotel"
	"github.com/dyluth/frontdesk/internal/logging"
	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/dyluth/frontdesk/internal/remote"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// deskEnv is everything a command needs to run front-desk workflows.
type deskEnv struct {
	cfg    *config.Config
	ctx    context.Context
	logger zerolog.Logger
	store  *desk.Client
	disk   *disk.Store
	remote *remote.Client
	mirror *reconcile.Mirror
	desk   *hotel.Desk
}

// loadConfig reads --config, falling back to defaults when the file is missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			fmt.Sprintf("Could not load %s: %v", configPath, err),
			[]string{"Create a fresh configuration:\n  frontdesk init --force"},
		)
	}
	return cfg, nil
}

// openDesk loads configuration, connects to Redis and builds the desk.
// component tags every log line written through the returned context.
func openDesk(ctx context.Context, component string) (*deskEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(os.Stderr, level, cfg.Logging.Format)
	if err != nil {
		return nil, printer.Error("invalid log settings", err.Error(), []string{"Valid levels: debug, info, warn, error"})
	}
	ctx = logging.WithComponent(logger.WithContext(ctx), component, cfg.Hotel.Name)

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid Redis URL",
			fmt.Sprintf("Could not parse redis.url: %v", err),
			map[string]string{"url": cfg.Redis.URL},
			[]string{"Use the form redis://host:port/db"},
		)
	}

	store, err := desk.NewClient(redisOpts, cfg.Hotel.Name)
	if err != nil {
		return nil, errors.Errorf("failed to create state client: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.URL),
			map[string]string{"error": err.Error()},
			[]string{
				"Start Redis locally:\n  docker run -d -p 6379:6379 redis:7-alpine",
				"Point at another server:\n  FRONTDESK_REDIS_URL=redis://host:6379 frontdesk ...",
			},
		)
	}

	tree := disk.New(cfg.Storage.BaseDir)
	if cfg.Storage.BaseDir != "" && !tree.Available() {
		zerolog.Ctx(ctx).Warn().Str("base_dir", cfg.Storage.BaseDir).Msg("storage folder not found, running without folder tree")
	}

	api := remote.New(cfg.Remote.APIBase, &http.Client{Timeout: remote.DefaultTimeout})
	mirror := reconcile.NewMirror(tree, remoteAPI(api), store, cfg.Storage.SnapshotMaxItems)

	d, err := hotel.New(hotel.Options{
		Store:         store,
		Disk:          tree,
		Mirror:        mirror,
		Layout:        cfg.Layout(),
		AdminPassword: cfg.Admin.Password,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &deskEnv{
		cfg:    cfg,
		ctx:    ctx,
		logger: logger,
		store:  store,
		disk:   tree,
		remote: api,
		mirror: mirror,
		desk:   d,
	}, nil
}

// remoteAPI returns api as a reconcile.RemoteAPI, or nil when no remote is configured.
func remoteAPI(api *remote.Client) reconcile.RemoteAPI {
	if !api.Configured() {
		return nil
	}
	return api
}

func (e *deskEnv) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// workflowError turns a desk error into a printed, user-facing error.
func workflowError(title string, err error) error {
	var suggestions []string
	switch {
	case errors.Is(err, hotel.ErrRoomNotFound):
		suggestions = []string{"List rooms:\n  frontdesk rooms"}
	case errors.Is(err, hotel.ErrRoomOccupied):
		suggestions = []string{"Check the guest out first:\n  frontdesk checkout --room <room>"}
	case errors.Is(err, hotel.ErrRoomReserved):
		suggestions = []string{"Pick another room or date, or cancel the booking:\n  frontdesk reserve --cancel --room <room> --date <date> --name <guest>"}
	case errors.Is(err, hotel.ErrNoReservation):
		suggestions = []string{"Show today's arrivals:\n  frontdesk summary"}
	case errors.Is(err, hotel.ErrRoomNotOccupied):
		suggestions = []string{"List occupied rooms:\n  frontdesk rooms"}
	case errors.Is(err, hotel.ErrUnauthorized):
		suggestions = []string{"Pass the admin password with --password"}
	case errors.Is(err, hotel.ErrEntryNotFound):
		suggestions = []string{"List entries:\n  frontdesk rent list\n  frontdesk expense list"}
	case errors.Is(err, hotel.ErrStorageNotLinked):
		suggestions = []string{"Set storage.base_dir in frontdesk.yml, or FRONTDESK_BASE_DIR"}
	}
	return printer.Error(title, err.Error(), suggestions)
}
