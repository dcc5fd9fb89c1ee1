package hotel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "1234"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingMirror struct {
	mu     sync.Mutex
	states []*desk.State
}

func (m *recordingMirror) Publish(ctx context.Context, s *desk.State) reconcile.MirrorReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s.Clone())
	return reconcile.MirrorReport{Snapshot: true}
}

func (m *recordingMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

type fixture struct {
	desk   *Desk
	store  *desk.Client
	disk   *disk.Store
	clock  *clock
	mirror *recordingMirror
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func setupTestClient(t *testing.T) *desk.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := desk.NewClient(&redis.Options{Addr: mr.Addr()}, "test-hotel")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// setupDesk builds a desk at 2024-03-01 10:00 UTC. withDisk attaches a folder tree.
func setupDesk(t *testing.T, withDisk bool) *fixture {
	t.Helper()
	f := &fixture{
		store:  setupTestClient(t),
		clock:  &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		mirror: &recordingMirror{},
	}
	if withDisk {
		f.disk = disk.New(t.TempDir())
		require.NoError(t, f.disk.Init())
	}

	d, err := New(Options{
		Store:         f.store,
		Disk:          f.disk,
		Mirror:        f.mirror,
		Layout:        desk.DefaultLayout(),
		AdminPassword: testPassword,
		Now:           f.clock.now,
	})
	require.NoError(t, err)
	f.desk = d
	return f
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestGrid(t *testing.T) {
	s := desk.DefaultLayout().EmptyState()
	s.FindRoom(101).Status = desk.RoomStatusOccupied
	s.FindRoom(101).Guest = &desk.Guest{Name: "A"}
	s.FindRoom(104).Status = desk.RoomStatusReserved // stale marker from another day
	s.Reservations = []desk.Reservation{
		{Name: "B", Room: 102, Date: "2024-03-01"},
		{Name: "C", Room: 103, Date: "2024-03-02"},
		{Name: "D", Room: 101, Date: "2024-03-01"},
	}

	grid := Grid(s, "2024-03-01")
	floor := grid[1]

	assert.Equal(t, desk.RoomStatusOccupied, floor[0].Status, "occupied wins over a reservation")
	assert.Nil(t, floor[0].ReservedFor)
	assert.Equal(t, desk.RoomStatusReserved, floor[1].Status)
	require.NotNil(t, floor[1].ReservedFor)
	assert.Equal(t, "B", floor[1].ReservedFor.Name)
	assert.Equal(t, desk.RoomStatusFree, floor[2].Status, "reservation for another day")
	assert.Equal(t, desk.RoomStatusFree, floor[3].Status)

	assert.Equal(t, desk.RoomStatusReserved, s.FindRoom(104).Status, "input is not modified")
}

func TestAuthorize(t *testing.T) {
	f := setupDesk(t, false)
	assert.NoError(t, f.desk.Authorize("1234"))
	assert.ErrorIs(t, f.desk.Authorize("nope"), ErrUnauthorized)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	d, err := New(Options{Store: f.store, AdminPassword: string(hash)})
	require.NoError(t, err)
	assert.NoError(t, d.Authorize("s3cret"))
	assert.ErrorIs(t, d.Authorize("1234"), ErrUnauthorized)

	d, err = New(Options{Store: f.store})
	require.NoError(t, err)
	assert.ErrorIs(t, d.Authorize(""), ErrUnauthorized, "no password configured denies everything")
}

func TestCheckIn(t *testing.T) {
	ctx := testContext(t)

	t.Run("rejects bad input", func(t *testing.T) {
		f := setupDesk(t, false)
		_, err := f.desk.CheckIn(ctx, CheckInRequest{Room: 101})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = f.desk.CheckIn(ctx, CheckInRequest{Name: "A", Room: 999})
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("rejects an occupied room", func(t *testing.T) {
		f := setupDesk(t, false)
		_, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "A", Room: 101})
		require.NoError(t, err)

		_, err = f.desk.CheckIn(ctx, CheckInRequest{Name: "B", Room: 101})
		assert.ErrorIs(t, err, ErrRoomOccupied)
	})

	t.Run("occupies the room and writes everywhere", func(t *testing.T) {
		f := setupDesk(t, true)
		res, err := f.desk.CheckIn(ctx, CheckInRequest{
			Name:     " Asha Rao ",
			Contact:  "98450",
			IDNumber: "ID-1",
			Room:     203,
			Scan:     strings.NewReader("scan-bytes"),
			ScanExt:  "png",
		})
		require.NoError(t, err)

		assert.Equal(t, "Asha Rao", res.Record.Name)
		assert.Equal(t, desk.Number(2500), res.Record.Rate, "room rate is the default")
		assert.Equal(t, "2024-03-01", res.Record.CheckInDate)
		assert.Equal(t, "Checkins/2024-03-01/checkin-Asha_Rao-203-2024-03-01.json", res.File)
		require.NotNil(t, res.Scan)
		assert.Equal(t, "2024/mar/01-03-2024/Asha_Rao-203-2024-03-01.png", res.Scan.Path)

		state, err := f.desk.State(ctx)
		require.NoError(t, err)
		room := state.FindRoom(203)
		assert.Equal(t, desk.RoomStatusOccupied, room.Status)
		require.NotNil(t, room.Guest)
		assert.Equal(t, "Asha Rao", room.Guest.Name)
		assert.Equal(t, "ID-1", room.Guest.ID)
		require.Len(t, state.Guests, 1)
		assert.Equal(t, 203, state.Guests[0].Room)

		checkins, err := f.store.ListCheckins(ctx)
		require.NoError(t, err)
		require.Len(t, checkins, 1)
		assert.Equal(t, res.Record.EntryID, checkins[0].EntryID)

		_, err = os.Stat(filepath.Join(f.disk.Base(), filepath.FromSlash(res.File)))
		assert.NoError(t, err)
		assert.Equal(t, 1, f.mirror.count())
	})

	t.Run("uses the requested rate", func(t *testing.T) {
		f := setupDesk(t, false)
		res, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "A", Room: 101, Rate: 1800})
		require.NoError(t, err)
		assert.Equal(t, desk.Number(1800), res.Record.Rate)
		assert.Empty(t, res.File, "no folder tree attached")
	})

	t.Run("consumes today's reservation", func(t *testing.T) {
		f := setupDesk(t, true)
		_, err := f.desk.Reserve(ctx, desk.Reservation{Name: "Ravi", Room: 302, Date: "2024-03-01"})
		require.NoError(t, err)
		_, err = f.desk.Reserve(ctx, desk.Reservation{Name: "Later", Room: 302, Date: "2024-03-05"})
		require.NoError(t, err)

		_, err = f.desk.CheckIn(ctx, CheckInRequest{Name: "Ravi", Room: 302})
		require.NoError(t, err)

		state, err := f.desk.State(ctx)
		require.NoError(t, err)
		require.Len(t, state.Reservations, 1)
		assert.Equal(t, "Later", state.Reservations[0].Name)

		onDisk, err := f.disk.ListReservations(ctx)
		require.NoError(t, err)
		require.Len(t, onDisk, 1)
		assert.Equal(t, "2024-03-05", onDisk[0].Data.Date)

		entries, err := f.store.ListReservations(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestCheckOut(t *testing.T) {
	ctx := testContext(t)

	t.Run("rejects a free room", func(t *testing.T) {
		f := setupDesk(t, false)
		_, err := f.desk.CheckOut(ctx, 101)
		assert.ErrorIs(t, err, ErrRoomNotOccupied)

		_, err = f.desk.CheckOut(ctx, 999)
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("moves the check-in file and tallies rent", func(t *testing.T) {
		f := setupDesk(t, true)
		_, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "Asha", Room: 101, Rate: 1000})
		require.NoError(t, err)

		f.clock.advance(24 * time.Hour)
		_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "asha", Room: 101, Days: 1, Amount: 1500, Mode: "cash"})
		require.NoError(t, err)
		_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "Other", Room: 101, Days: 1, Amount: 900, Mode: "Cash"})
		require.NoError(t, err)

		f.clock.advance(2 * time.Hour) // 26h stay bills two days
		out, err := f.desk.CheckOut(ctx, 101)
		require.NoError(t, err)

		assert.Equal(t, 2, out.DaysStayed)
		assert.Equal(t, desk.Number(2000), out.TotalRent)
		assert.Equal(t, desk.Number(1500), out.TotalPaid)
		assert.Equal(t, desk.TallyStatusNotTallied, out.PaymentTallyStatus)
		assert.Equal(t, "2024-03-02", out.CheckOutDate)

		checkinsOnDisk, err := f.disk.ListCheckins(ctx)
		require.NoError(t, err)
		assert.Empty(t, checkinsOnDisk)
		checkoutsOnDisk, err := f.disk.ListCheckouts(ctx)
		require.NoError(t, err)
		require.Len(t, checkoutsOnDisk, 1)
		assert.Equal(t, "2024-03-02", checkoutsOnDisk[0].DateFolder)

		state, err := f.desk.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, desk.RoomStatusFree, state.FindRoom(101).Status)
		assert.Nil(t, state.FindRoom(101).Guest)
		assert.Empty(t, state.Guests)

		entries, err := f.store.ListCheckouts(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, out.EntryID, entries[0].EntryID)

		open, err := f.store.ListCheckins(ctx)
		require.NoError(t, err)
		assert.Empty(t, open)
	})

	t.Run("tallies from the ledger without a folder tree", func(t *testing.T) {
		f := setupDesk(t, false)
		_, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "Asha", Room: 101, Rate: 1000})
		require.NoError(t, err)

		f.clock.advance(3 * time.Hour)
		_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "Asha", Room: 101, Days: 1, Amount: 1000, Mode: "GPay"})
		require.NoError(t, err)

		out, err := f.desk.CheckOut(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, 1, out.DaysStayed)
		assert.Equal(t, desk.Number(1000), out.TotalPaid)
		assert.Equal(t, desk.TallyStatusTallied, out.PaymentTallyStatus)
	})

	t.Run("falls back to the ledger when the file is missing", func(t *testing.T) {
		f := setupDesk(t, true)
		res, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "Asha", Room: 101})
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(f.disk.Base(), filepath.FromSlash(res.File))))

		out, err := f.desk.CheckOut(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, 1, out.DaysStayed)
	})
}

func TestReservations(t *testing.T) {
	ctx := testContext(t)
	f := setupDesk(t, true)

	_, err := f.desk.Reserve(ctx, desk.Reservation{Name: "", Room: 101, Date: "2024-03-02"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.desk.Reserve(ctx, desk.Reservation{Name: "Ravi", Room: 901, Date: "2024-03-02"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	r, err := f.desk.Reserve(ctx, desk.Reservation{Name: "Ravi", Place: "Pune", Room: 101, Date: "2024-03-02"})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	_, err = f.desk.Reserve(ctx, desk.Reservation{Name: "Someone", Room: 101, Date: "2024-03-02"})
	assert.ErrorIs(t, err, ErrRoomReserved)

	_, err = f.desk.CheckIn(ctx, CheckInRequest{Name: "Here", Room: 102})
	require.NoError(t, err)
	_, err = f.desk.Reserve(ctx, desk.Reservation{Name: "Walk-in", Room: 102, Date: "2024-03-01"})
	assert.ErrorIs(t, err, ErrRoomOccupied)

	err = f.desk.CancelReservation(ctx, "2024-03-02", 101, "nobody")
	assert.ErrorIs(t, err, ErrNoReservation)

	require.NoError(t, f.desk.CancelReservation(ctx, "2024-03-02", 101, "RAVI"))

	state, err := f.desk.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Reservations)

	onDisk, err := f.disk.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, onDisk)

	entries, err := f.store.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRentLedger(t *testing.T) {
	ctx := testContext(t)
	f := setupDesk(t, true)

	_, err := f.desk.RecordRent(ctx, desk.RentPayment{Name: "A", Room: 101, Days: 1, Amount: 100, Mode: "Card"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "A", Room: 101, Days: 0, Amount: 100, Mode: "Cash"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	sub, err := f.store.SubscribeStateEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	p, err := f.desk.RecordRent(ctx, desk.RentPayment{Name: "A", Room: 101, Days: 2, Amount: 5000, Mode: "gpay"})
	require.NoError(t, err)
	assert.Equal(t, desk.PaymentModeGPay, p.Mode)
	assert.Equal(t, "2024-03-01T10:00:00Z", p.Date)

	select {
	case s := <-sub.Events():
		require.Len(t, s.RentPayments, 1, "full state carries the ledger")
		assert.Equal(t, p.ID, s.RentPayments[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no state broadcast after recording rent")
	}

	_, err = f.desk.EditRent(ctx, p.ID, 3, 7500, "Cash", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.desk.EditRent(ctx, "missing", 3, 7500, "Cash", testPassword)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	edited, err := f.desk.EditRent(ctx, p.ID, 3, 7500, "Cash", testPassword)
	require.NoError(t, err)
	assert.Equal(t, desk.Number(7500), edited.Amount)
	assert.Equal(t, "A", edited.Name)

	rec, err := f.disk.FindRent(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, desk.Number(3), rec.Data.Days)
	assert.Equal(t, desk.PaymentModeCash, rec.Data.Mode)

	payments, err := f.store.ListRentPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, desk.Number(7500), payments[0].Amount)

	assert.ErrorIs(t, f.desk.DeleteRent(ctx, p.ID, "wrong"), ErrUnauthorized)
	require.NoError(t, f.desk.DeleteRent(ctx, p.ID, testPassword))

	payments, err = f.store.ListRentPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
	_, err = f.disk.FindRent(ctx, p.ID)
	assert.ErrorIs(t, err, disk.ErrNotFound)

	assert.ErrorIs(t, f.desk.DeleteRent(ctx, p.ID, testPassword), ErrEntryNotFound)
}

func TestExpenseLedger(t *testing.T) {
	ctx := testContext(t)
	f := setupDesk(t, true)

	_, err := f.desk.RecordExpense(ctx, desk.Expense{Description: " ", Amount: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.desk.RecordExpense(ctx, desk.Expense{Description: "Tea", Amount: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	e, err := f.desk.RecordExpense(ctx, desk.Expense{Description: "Tea leaves", Amount: 250})
	require.NoError(t, err)

	records, err := f.disk.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, strings.HasPrefix(records[0].File, "expense-Tea_leaves-"))

	assert.ErrorIs(t, f.desk.DeleteExpense(ctx, e.ID, "nope"), ErrUnauthorized)
	require.NoError(t, f.desk.DeleteExpense(ctx, e.ID, testPassword))
	assert.ErrorIs(t, f.desk.DeleteExpense(ctx, e.ID, testPassword), ErrEntryNotFound)

	records, err = f.disk.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummary(t *testing.T) {
	ctx := testContext(t)

	for _, withDisk := range []bool{true, false} {
		name := "ledger"
		if withDisk {
			name = "folder tree"
		}
		t.Run(name, func(t *testing.T) {
			f := setupDesk(t, withDisk)

			_, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "A", Room: 101})
			require.NoError(t, err)
			_, err = f.desk.Reserve(ctx, desk.Reservation{Name: "B", Room: 102, Date: "2024-03-01"})
			require.NoError(t, err)
			_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "A", Room: 101, Days: 1, Amount: 2500, Mode: "Cash"})
			require.NoError(t, err)
			_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "A", Room: 101, Days: 1, Amount: 500, Mode: "GPay"})
			require.NoError(t, err)
			_, err = f.desk.RecordExpense(ctx, desk.Expense{Description: "Laundry", Amount: 400})
			require.NoError(t, err)

			f.clock.advance(24 * time.Hour)
			_, err = f.desk.RecordRent(ctx, desk.RentPayment{Name: "A", Room: 101, Days: 1, Amount: 999, Mode: "Cash"})
			require.NoError(t, err)

			sum, err := f.desk.Summary(ctx, "2024-03-01")
			require.NoError(t, err)
			assert.Equal(t, 20, sum.Total)
			assert.Equal(t, 1, sum.Occupied)
			assert.Equal(t, 1, sum.Reserved)
			assert.Equal(t, 18, sum.Free)
			assert.Equal(t, 3000.0, sum.RentTotal)
			assert.Equal(t, map[string]float64{"Cash": 2500, "GPay": 500}, sum.RentByMode)
			assert.Equal(t, 400.0, sum.ExpenseTotal)
			assert.Equal(t, 2600.0, sum.Net)
			require.Len(t, sum.Arrivals, 1)
			assert.Equal(t, "B", sum.Arrivals[0].Name)
		})
	}
}

func TestTallyPayments(t *testing.T) {
	payments := []desk.RentPayment{
		{Name: "Asha", Room: 101, Amount: 1000, Date: "2024-03-01T10:00:00Z"},
		{Name: " ASHA ", Room: 101, Amount: 500, Date: "2024-03-03T10:00:00+05:30"},
		{Name: "Asha", Room: 102, Amount: 700, Date: "2024-03-02T10:00:00Z"},
		{Name: "Ravi", Room: 101, Amount: 300, Date: "2024-03-02T10:00:00Z"},
		{Name: "Asha", Room: 101, Amount: 200, Date: "2024-02-28T10:00:00Z"},
		{Name: "Asha", Room: 101, Amount: 50, Date: ""},
	}

	assert.Equal(t, 1500.0, TallyPayments(payments, "2024-03-01", "2024-03-03", 101, "asha"))
	assert.Equal(t, 1000.0, TallyPayments(payments, "2024-03-01", "2024-03-02", 101, "Asha"))
	assert.Equal(t, 0.0, TallyPayments(nil, "2024-03-01", "2024-03-02", 101, "Asha"))
}

func TestFindScans(t *testing.T) {
	ctx := testContext(t)

	f := setupDesk(t, false)
	_, err := f.desk.FindScans("asha")
	assert.ErrorIs(t, err, ErrStorageNotLinked)

	f = setupDesk(t, true)
	_, err = f.desk.CheckIn(ctx, CheckInRequest{Name: "Asha Rao", Room: 101, Scan: strings.NewReader("x"), ScanExt: "jpg"})
	require.NoError(t, err)
	_, err = f.desk.CheckOut(ctx, 101)
	require.NoError(t, err)

	scans, err := f.desk.FindScans("asha rao")
	require.NoError(t, err)
	require.Len(t, scans, 1)

	f.clock.advance(48 * time.Hour)
	res, err := f.desk.CheckIn(ctx, CheckInRequest{Name: "Asha Rao", Room: 102, ReuseScan: scans[0].Path})
	require.NoError(t, err)
	require.NotNil(t, res.Scan)
	assert.Equal(t, "2024/mar/03-03-2024/Asha_Rao-102-2024-03-03.jpg", res.Scan.Path)
}

func TestCheckIn_Concurrent(t *testing.T) {
	ctx := testContext(t)
	f := setupDesk(t, false)

	rooms := []int{101, 102, 103, 104, 201, 202, 203, 204}
	names := []string{"Asha", "Ravi", "Meera", "Kiran", "Divya", "Arjun", "Leela", "Nikhil"}

	var wg sync.WaitGroup
	errs := make([]error, len(rooms))
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.desk.CheckIn(ctx, CheckInRequest{Name: names[i], Room: rooms[i]})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "room %d", rooms[i])
	}

	state, err := f.desk.State(ctx)
	require.NoError(t, err)
	occupied := 0
	for _, r := range state.Rooms() {
		if r.Status == desk.RoomStatusOccupied {
			occupied++
		}
	}
	assert.Equal(t, len(rooms), occupied)
	assert.Len(t, state.Guests, len(rooms))
}

func TestUpdate(t *testing.T) {
	ctx := testContext(t)
	f := setupDesk(t, false)

	saved, err := f.desk.Update(ctx, func(current *desk.State) (*desk.State, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, f.mirror.count())

	saved, err = f.desk.Update(ctx, func(current *desk.State) (*desk.State, error) {
		current.FindRoom(301).Status = desk.RoomStatusOccupied
		current.FindRoom(301).Guest = &desk.Guest{Name: "Asha"}
		return current, nil
	})
	require.NoError(t, err)
	assert.True(t, saved)

	state, err := f.desk.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, desk.RoomStatusOccupied, state.FindRoom(301).Status)
	assert.Equal(t, 1, f.mirror.count())
}

func TestCheckIn_StoreFailureLeavesNoFile(t *testing.T) {
	ctx := testContext(t)

	mr := miniredis.RunT(t)
	store, err := desk.NewClient(&redis.Options{Addr: mr.Addr()}, "test-hotel")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tree := disk.New(t.TempDir())
	require.NoError(t, tree.Init())

	// Redis goes away after the state is loaded and before anything is saved.
	d, err := New(Options{
		Store:  store,
		Disk:   tree,
		Layout: desk.DefaultLayout(),
		Now: func() time.Time {
			mr.SetError("ERR server unavailable")
			return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		},
	})
	require.NoError(t, err)

	_, err = d.CheckIn(ctx, CheckInRequest{
		Name:    "Asha",
		Room:    101,
		Scan:    strings.NewReader("scan-bytes"),
		ScanExt: "png",
	})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(tree.Base(), "Checkins", "2024-03-01"))
	if !os.IsNotExist(err) {
		require.NoError(t, err)
	}
	assert.Empty(t, entries, "no check-in file for an unsaved stay")

	scans, err := tree.ListScans()
	require.NoError(t, err)
	assert.Empty(t, scans)
}
