package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/internal/hotel"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// adminPasswordHeader carries the admin password for ledger edits.
const adminPasswordHeader = "X-Admin-Password"

// maxBodyBytes caps request bodies. A full state for a large hotel is well under this.
const maxBodyBytes = 4 << 20

var (
	errNotFound   = errors.Base("not found")
	errBadRequest = errors.Base("bad request")
)

type stateEnvelope struct {
	State *desk.State `json:"state"`
}

type okResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hotel.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, hotel.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, hotel.ErrRoomNotFound), errors.Is(err, hotel.ErrEntryNotFound),
		errors.Is(err, hotel.ErrNoReservation), errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, hotel.ErrRoomOccupied), errors.Is(err, hotel.ErrRoomNotOccupied),
		errors.Is(err, hotel.ErrRoomReserved):
		return http.StatusConflict
	case errors.Is(err, hotel.ErrStorageNotLinked):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{OK: false, Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Errorf("%w: invalid JSON body: %s", errBadRequest, err.Error())
	}
	return nil
}

// handleHealth handles GET /healthz.
// Returns 200 OK if Redis is accessible, 503 Service Unavailable otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Redis:  "disconnected",
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Redis: "connected"})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, r, errors.Errorf("store not reachable: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      s.store.Ping(r.Context()) == nil,
		"hotel":   s.store.Hotel(),
		"storage": s.storage,
		"remote":  s.remote,
		"layout":  s.desk.Layout(),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.LoadState(r.Context())
	if err != nil && !desk.IsNotFound(err) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateEnvelope{State: state})
}

func (s *Server) handlePostState(w http.ResponseWriter, r *http.Request) {
	var body stateEnvelope
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.State == nil {
		writeError(w, r, errors.Errorf("%w: state is required", errBadRequest))
		return
	}
	if err := s.desk.Commit(r.Context(), body.State); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.FullState(r.Context(), s.desk.Layout())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateEnvelope{State: state})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	state, err := s.desk.State(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	date := dateParam(r, s.desk.Today())
	writeJSON(w, http.StatusOK, map[string]any{
		"date":   date,
		"floors": hotel.Grid(state, date),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.desk.Summary(r.Context(), dateParam(r, s.desk.Today()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.desk.FindScans(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if scans == nil {
		scans = []disk.ScanFile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "scans": scans})
}

// dateParam returns the date query parameter, or fallback when it is absent.
func dateParam(r *http.Request, fallback string) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return fallback
}

type checkInBody struct {
	Name      string          `json:"name"`
	Contact   string          `json:"contact"`
	ID        string          `json:"id"`
	Room      desk.RoomNumber `json:"room"`
	Rate      desk.Number     `json:"rate"`
	ReuseScan string          `json:"reuseScan"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var body checkInBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.desk.CheckIn(r.Context(), hotel.CheckInRequest{
		Name:      body.Name,
		Contact:   body.Contact,
		IDNumber:  body.ID,
		Room:      int(body.Room),
		Rate:      body.Rate.Float(),
		ReuseScan: body.ReuseScan,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": res.Record.EntryID, "checkin": res.Record})
}

type checkOutBody struct {
	Room desk.RoomNumber `json:"room"`
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var body checkOutBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.desk.CheckOut(r.Context(), int(body.Room))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": out.EntryID, "checkout": out})
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var body desk.Reservation
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.desk.Reserve(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: res.ID})
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	var body desk.Reservation
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.desk.CancelReservation(r.Context(), body.Date, int(body.Room), body.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleRecordRent(w http.ResponseWriter, r *http.Request) {
	var body desk.RentPayment
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.desk.RecordRent(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: p.ID})
}

type editRentBody struct {
	Days   desk.Number `json:"days"`
	Amount desk.Number `json:"amount"`
	Mode   string      `json:"mode"`
}

func (s *Server) handleEditRent(w http.ResponseWriter, r *http.Request) {
	var body editRentBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	p, err := s.desk.EditRent(r.Context(), id, body.Days.Float(), body.Amount.Float(), body.Mode, r.Header.Get(adminPasswordHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": p.ID, "payment": p})
}

func (s *Server) handleDeleteRent(w http.ResponseWriter, r *http.Request) {
	if err := s.desk.DeleteRent(r.Context(), mux.Vars(r)["id"], r.Header.Get(adminPasswordHeader)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var body desk.Expense
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.desk.RecordExpense(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: e.ID})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.desk.DeleteExpense(r.Context(), mux.Vars(r)["id"], r.Header.Get(adminPasswordHeader)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
