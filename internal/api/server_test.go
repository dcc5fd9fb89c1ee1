package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/internal/hotel"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *Server
	store  *desk.Client
	mr     *miniredis.Miniredis
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := desk.NewClient(&redis.Options{Addr: mr.Addr()}, "test-hotel")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tree := disk.New(t.TempDir())
	require.NoError(t, tree.Init())

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d, err := hotel.New(hotel.Options{
		Store:         store,
		Disk:          tree,
		Layout:        desk.DefaultLayout(),
		AdminPassword: "1234",
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)

	srv, err := NewServer(Config{
		Desk:        d,
		Store:       store,
		Logger:      zerolog.New(zerolog.NewTestWriter(t)),
		StorageBase: tree.Base(),
		KeepAlive:   50 * time.Millisecond,
	})
	require.NoError(t, err)
	return &testServer{server: srv, store: store, mr: mr}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewServer_RequiresDeskAndStore(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Redis)

	ts.mr.Close()
	rec = ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unhealthy", health.Status)
	assert.NotEmpty(t, health.Error)
}

func TestCORS(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodOptions, "/api/state", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), adminPasswordHeader)

	rec = ts.do(t, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "not found")
}

func TestState(t *testing.T) {
	ts := setupServer(t)

	t.Run("empty store returns null state", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/state", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, decode(t, rec)["state"])
	})

	t.Run("post then get", func(t *testing.T) {
		s := desk.DefaultLayout().EmptyState()
		s.FindRoom(201).Status = desk.RoomStatusOccupied
		s.FindRoom(201).Guest = &desk.Guest{Name: "Ravi"}

		rec := ts.do(t, http.MethodPost, "/api/state", stateEnvelope{State: s})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, true, decode(t, rec)["ok"])

		rec = ts.do(t, http.MethodGet, "/api/state", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got stateEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.NotNil(t, got.State)
		assert.Equal(t, "Ravi", got.State.FindRoom(201).Guest.Name)
	})

	t.Run("missing state is rejected", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/state", map[string]any{"state": nil})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/state", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFullState_FillsLedgers(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rent", map[string]any{
		"name": "Asha", "room": 101, "days": 1, "amount": "2500", "mode": "cash",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/fullstate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got stateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.State)
	require.Len(t, got.State.RentPayments, 1)
	assert.Equal(t, "Asha", got.State.RentPayments[0].Name)
}

func TestCheckInAndOut(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/checkin", map[string]any{
		"name": "Asha Rao", "contact": "98450", "id": "ID-1", "room": "102", "rate": 2000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["id"])

	rec = ts.do(t, http.MethodPost, "/api/checkin", map[string]any{"name": "Other", "room": 102})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/checkin", map[string]any{"name": "Other", "room": 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/checkin", map[string]any{"name": " ", "room": 103})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Asha Rao")

	rec = ts.do(t, http.MethodPost, "/api/checkout", map[string]any{"room": 102})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	checkout, ok := body["checkout"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Asha Rao", checkout["name"])
	assert.EqualValues(t, 1, checkout["daysStayed"])

	rec = ts.do(t, http.MethodPost, "/api/checkout", map[string]any{"room": 102})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReservations(t *testing.T) {
	ts := setupServer(t)

	res := map[string]any{"name": "Meera", "room": 301, "date": "2024-03-05"}
	rec := ts.do(t, http.MethodPost, "/api/reservation", res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["id"])

	rec = ts.do(t, http.MethodPost, "/api/reservation", res)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/reservation", res)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/api/reservation", res)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRentLedger_RequiresPassword(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rent", map[string]any{
		"name": "Asha", "room": 101, "days": 1, "amount": 2500, "mode": "GPay",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id, _ := decode(t, rec)["id"].(string)
	require.NotEmpty(t, id)

	edit := map[string]any{"days": 2, "amount": 5000, "mode": "cash"}

	rec = ts.do(t, http.MethodPut, "/api/rent/"+id, edit)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/rent/"+id, edit, adminPasswordHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/rent/"+id, edit, adminPasswordHeader, "1234")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payment, ok := decode(t, rec)["payment"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 5000, payment["amount"])
	assert.Equal(t, "Cash", payment["mode"])

	rec = ts.do(t, http.MethodPut, "/api/rent/missing", edit, adminPasswordHeader, "1234")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/rent/"+id, nil, adminPasswordHeader, "1234")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	payments, err := ts.store.ListRentPayments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRent_InvalidInput(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rent", map[string]any{
		"name": "Asha", "room": 101, "days": 1, "amount": 0, "mode": "cash",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/rent", map[string]any{
		"name": "Asha", "room": 101, "days": 1, "amount": 100, "mode": "cheque",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseAndSummary(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodPost, "/api/rent", map[string]any{
		"name": "Asha", "room": 101, "days": 1, "amount": 2500, "mode": "cash",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/expense", map[string]any{"description": "Laundry", "amount": "400"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	expenseID, _ := decode(t, rec)["id"].(string)
	require.NotEmpty(t, expenseID)

	rec = ts.do(t, http.MethodGet, "/api/summary?date=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum hotel.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 20, sum.Total)
	assert.InDelta(t, 2500, sum.RentTotal, 0.001)
	assert.InDelta(t, 400, sum.ExpenseTotal, 0.001)
	assert.InDelta(t, 2100, sum.Net, 0.001)

	rec = ts.do(t, http.MethodDelete, "/api/expense/"+expenseID, nil, adminPasswordHeader, "1234")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScans_EmptyList(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(t, http.MethodGet, "/api/scans?q=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{}, decode(t, rec)["scans"])
}

func TestStream(t *testing.T) {
	ts := setupServer(t)
	httpSrv := httptest.NewServer(ts.server.Handler())
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	s := desk.DefaultLayout().EmptyState()
	s.FindRoom(304).Status = desk.RoomStatusOccupied
	s.FindRoom(304).Guest = &desk.Guest{Name: "Kiran"}
	require.NoError(t, ts.store.SaveState(ctx, s))

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	var got stateEnvelope
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	require.NotNil(t, got.State)
	assert.Equal(t, "Kiran", got.State.FindRoom(304).Guest.Name)
}

func TestStream_SkipsRepeatedState(t *testing.T) {
	ts := setupServer(t)
	httpSrv := httptest.NewServer(ts.server.Handler())
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	same := desk.DefaultLayout().EmptyState()
	same.FindRoom(101).Status = desk.RoomStatusOccupied
	same.FindRoom(101).Guest = &desk.Guest{Name: "Asha"}
	require.NoError(t, ts.store.SaveState(ctx, same))
	require.NoError(t, ts.store.SaveState(ctx, same.Clone()))

	last := same.Clone()
	last.FindRoom(102).Status = desk.RoomStatusOccupied
	last.FindRoom(102).Guest = &desk.Guest{Name: "Ravi"}
	require.NoError(t, ts.store.SaveState(ctx, last))

	var frames []stateEnvelope
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var got stateEnvelope
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &got))
		require.NotNil(t, got.State)
		frames = append(frames, got)
		if got.State.FindRoom(102).Guest != nil {
			break
		}
	}

	require.Len(t, frames, 2, "an unchanged state is sent once")
	assert.Equal(t, "Asha", frames[0].State.FindRoom(101).Guest.Name)
	assert.Equal(t, "Ravi", frames[1].State.FindRoom(102).Guest.Name)
}

func TestStream_KeepAlive(t *testing.T) {
	ts := setupServer(t)
	httpSrv := httptest.NewServer(ts.server.Handler())
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	found := false
	for i := 0; i < 10 && !found; i++ {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		found = line == ": ping\n"
	}
	assert.True(t, found, "expected a keep-alive comment")
}
