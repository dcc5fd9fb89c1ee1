// Package api serves the front-desk state over HTTP: the state document,
// the aggregated full state, a server-sent-event stream of state changes,
// and one POST endpoint per front-desk workflow.
//
// The /api/state endpoints speak the same protocol internal/remote consumes,
// so one frontdesk server can act as the remote of another.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/frontdesk/internal/hotel"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/tozd/go/errors"
)

// DefaultKeepAlive is how often an idle event stream gets a comment line.
const DefaultKeepAlive = 25 * time.Second

// Config configures a Server.
type Config struct {
	Desk   *hotel.Desk
	Store  *desk.Client
	Logger zerolog.Logger

	// Shown by /api/debug.
	StorageBase string
	RemoteBase  string

	KeepAlive time.Duration
}

// Server is the HTTP front of a Desk.
type Server struct {
	desk      *hotel.Desk
	store     *desk.Client
	logger    zerolog.Logger
	storage   string
	remote    string
	keepAlive time.Duration

	handler http.Handler
	server  *http.Server
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Desk == nil || cfg.Store == nil {
		return nil, errors.New("api server requires a desk and a store")
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}

	s := &Server{
		desk:      cfg.Desk,
		store:     cfg.Store,
		logger:    cfg.Logger,
		storage:   cfg.StorageBase,
		remote:    cfg.RemoteBase,
		keepAlive: cfg.KeepAlive,
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)
	api.HandleFunc("/debug", s.handleDebug).Methods(http.MethodGet)

	api.Handle("/state", gzhttp.GzipHandler(http.HandlerFunc(s.handleGetState))).Methods(http.MethodGet)
	api.HandleFunc("/state", s.handlePostState).Methods(http.MethodPost)
	api.Handle("/fullstate", gzhttp.GzipHandler(http.HandlerFunc(s.handleFullState))).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	api.HandleFunc("/rooms", s.handleRooms).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/scans", s.handleScans).Methods(http.MethodGet)

	api.HandleFunc("/checkin", s.handleCheckIn).Methods(http.MethodPost)
	api.HandleFunc("/checkout", s.handleCheckOut).Methods(http.MethodPost)
	api.HandleFunc("/reservation", s.handleReserve).Methods(http.MethodPost)
	api.HandleFunc("/reservation", s.handleCancelReservation).Methods(http.MethodDelete)
	api.HandleFunc("/rent", s.handleRecordRent).Methods(http.MethodPost)
	api.HandleFunc("/rent/{id}", s.handleEditRent).Methods(http.MethodPut)
	api.HandleFunc("/rent/{id}", s.handleDeleteRent).Methods(http.MethodDelete)
	api.HandleFunc("/expense", s.handleRecordExpense).Methods(http.MethodPost)
	api.HandleFunc("/expense/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errors.WithDetails(errNotFound, "path", r.URL.Path))
	})

	var h http.Handler = r
	h = withCORS(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.NewHandler(s.logger)(h)
	return h
}

// Handler returns the full HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return errors.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	}
}

// withCORS allows any origin, like the browser clients of the state API expect.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+adminPasswordHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
