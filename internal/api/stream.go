package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// handleStream serves state changes as server-sent events until the client
// goes away or the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	rc := http.NewResponseController(w)

	sub, err := s.store.SubscribeStateEvents(ctx)
	if err != nil {
		writeError(w, r, errors.Errorf("failed to subscribe to state events: %w", err))
		return
	}
	defer sub.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		logger.Warn().Err(err).Msg("event stream cannot be flushed")
		return
	}
	logger.Debug().Str("event", "stream_opened").Msg("state stream client connected")

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	lastHash := ""
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("event", "stream_closed").Msg("state stream client disconnected")
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case err, ok := <-sub.Errors():
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("skipping undecodable state event")

		case state, ok := <-sub.Events():
			if !ok {
				return
			}
			hash := reconcile.HashState(state)
			if hash == lastHash {
				continue
			}
			payload, err := json.Marshal(stateEnvelope{State: state})
			if err != nil {
				logger.Warn().Err(err).Msg("failed to encode state event")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			lastHash = hash
		}
	}
}
