package hotel

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// CheckInRequest is a guest arriving at a room.
type CheckInRequest struct {
	Name     string
	Contact  string
	IDNumber string
	Room     int

	// Rate per night. Zero uses the room's rate.
	Rate float64

	// Scan is a freshly scanned identity document, stored with ScanExt.
	Scan    io.Reader
	ScanExt string

	// ReuseScan is a scan from an earlier stay, relative to ScannedDocuments.
	// Ignored when Scan is set.
	ReuseScan string
}

// CheckInResult is what a check-in produced.
type CheckInResult struct {
	Record desk.CheckinRecord
	File   string         // relative to the folder tree, empty without one
	Scan   *disk.ScanFile // nil when no scan was stored
}

// CheckIn marks a room occupied by a guest. A reservation for the room today
// is consumed. The check-in is written to the folder tree and the ledger.
func (d *Desk) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("guest name is required")
	}
	if req.Rate < 0 {
		return nil, invalid("rate cannot be negative")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.State(ctx)
	if err != nil {
		return nil, err
	}

	room := state.FindRoom(req.Room)
	if room == nil {
		return nil, errors.WithDetails(ErrRoomNotFound, "room", req.Room)
	}
	if room.Status == desk.RoomStatusOccupied {
		return nil, errors.WithDetails(ErrRoomOccupied, "room", req.Room, "guest", guestName(room.Guest))
	}

	now := d.now()
	today := now.Format(desk.DateLayout)
	rate := desk.Number(req.Rate)
	if rate == 0 {
		rate = room.Rate
	}

	rec := desk.CheckinRecord{
		EntryID:     uuid.NewString(),
		Name:        name,
		Contact:     strings.TrimSpace(req.Contact),
		ID:          strings.TrimSpace(req.IDNumber),
		Rooms:       desk.RoomList{req.Room},
		CheckIn:     now.Format(time.RFC3339),
		CheckInDate: today,
		CheckInTime: now.Format("15:04:05"),
		Rate:        rate,
	}

	result := &CheckInResult{Record: rec}
	if d.diskAttached() {
		file, err := d.disk.WriteCheckin(&rec)
		if err != nil {
			return nil, errors.Errorf("failed to write check-in file: %w", err)
		}
		result.File = file
	}

	d.consumeReservation(ctx, state, req.Room, today)

	room.Status = desk.RoomStatusOccupied
	room.ReservedFor = nil
	room.Guest = &desk.Guest{
		Name:        rec.Name,
		Contact:     rec.Contact,
		ID:          rec.ID,
		CheckIn:     rec.CheckIn,
		CheckInDate: rec.CheckInDate,
		CheckInTime: rec.CheckInTime,
		Rate:        rec.Rate,
	}
	state.Guests = append(dropGuest(state.Guests, req.Room), desk.GuestEntry{
		Room:    req.Room,
		Name:    rec.Name,
		Contact: rec.Contact,
		ID:      rec.ID,
		CheckIn: rec.CheckIn,
	})

	if _, err := d.store.AppendEntry(ctx, desk.CollectionCheckins, rec.EntryID, &rec); err != nil {
		d.discardCheckinFile(ctx, result.File)
		return nil, err
	}
	if err := d.commit(ctx, state); err != nil {
		d.discardCheckinFile(ctx, result.File)
		return nil, err
	}
	if d.diskAttached() {
		result.Scan = d.storeScan(ctx, req, name, now)
	}

	zerolog.Ctx(ctx).Info().
		Str("event", "checked_in").
		Int("room", req.Room).
		Str("guest", rec.Name).
		Msg("guest checked in")

	return result, nil
}

// discardCheckinFile removes a check-in file written for a stay that was
// never saved.
func (d *Desk) discardCheckinFile(ctx context.Context, rel string) {
	if rel == "" {
		return
	}
	if err := d.disk.DeleteEntry(desk.CollectionCheckins, path.Base(path.Dir(rel)), path.Base(rel)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("file", rel).Msg("failed to remove unsaved check-in file")
	}
}

// storeScan files the identity document for a stay. Failures are logged:
// a missing scan never blocks a check-in.
func (d *Desk) storeScan(ctx context.Context, req CheckInRequest, name string, now time.Time) *disk.ScanFile {
	var (
		scan disk.ScanFile
		err  error
	)
	switch {
	case req.Scan != nil:
		scan, err = d.disk.SaveScan(name, req.Room, req.Scan, req.ScanExt, now)
	case req.ReuseScan != "":
		scan, err = d.disk.ReuseScan(disk.ScanFile{Path: req.ReuseScan, Name: path.Base(req.ReuseScan)}, name, req.Room, now)
	default:
		return nil
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("room", req.Room).Msg("failed to store identity scan")
		return nil
	}
	return &scan
}

// consumeReservation drops any reservation for room on date from the state,
// the folder tree and the ledger.
func (d *Desk) consumeReservation(ctx context.Context, state *desk.State, room int, date string) {
	logger := zerolog.Ctx(ctx)

	kept := state.Reservations[:0]
	for _, r := range state.Reservations {
		if int(r.Room) != room || r.Date != date {
			kept = append(kept, r)
			continue
		}
		if d.diskAttached() {
			if err := d.disk.DeleteReservation(r.Date, room, r.Name); err != nil && !errors.Is(err, disk.ErrNotFound) {
				logger.Warn().Err(err).Int("room", room).Msg("failed to delete reservation file")
			}
		}
		if r.ID != "" {
			if err := d.store.DeleteEntry(ctx, desk.CollectionReservations, r.ID); err != nil && !desk.IsNotFound(err) {
				logger.Warn().Err(err).Str("id", r.ID).Msg("failed to delete reservation entry")
			}
		}
		logger.Debug().Int("room", room).Str("guest", r.Name).Msg("reservation consumed by check-in")
	}
	state.Reservations = kept
}

// CheckOut closes the stay in a room. With a folder tree attached the
// check-in file moves to Checkouts with the stay totals; without one the
// totals come from the rent ledger.
func (d *Desk) CheckOut(ctx context.Context, roomNumber int) (*desk.CheckoutRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.State(ctx)
	if err != nil {
		return nil, err
	}

	room := state.FindRoom(roomNumber)
	if room == nil {
		return nil, errors.WithDetails(ErrRoomNotFound, "room", roomNumber)
	}
	if room.Status != desk.RoomStatusOccupied || room.Guest == nil {
		return nil, errors.WithDetails(ErrRoomNotOccupied, "room", roomNumber)
	}

	now := d.now()
	rec := checkinFromGuest(roomNumber, room.Guest, room.Rate)
	name := rec.Name
	checkInDate := rec.CheckinDate()
	if checkInDate == "" {
		checkInDate = now.Format(desk.DateLayout)
	}

	var out *desk.CheckoutRecord
	if d.diskAttached() {
		out, err = d.disk.MoveToCheckout(ctx, checkInDate, roomNumber, name, now)
		if errors.Is(err, disk.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Int("room", roomNumber).Str("guest", name).Msg("no check-in file found, closing stay from the ledger")
			out, err = nil, nil
		}
		if err != nil {
			return nil, errors.Errorf("failed to move check-in to checkouts: %w", err)
		}
	}
	if out == nil {
		payments, err := d.store.ListRentPayments(ctx)
		if err != nil {
			return nil, err
		}
		paid := TallyPayments(payments, checkInDate, now.Format(desk.DateLayout), roomNumber, name)
		closed := desk.CloseStay(rec, paid, now)
		out = &closed
	}

	out.EntryID = uuid.NewString()
	if _, err := d.store.AppendEntry(ctx, desk.CollectionCheckouts, out.EntryID, out); err != nil {
		return nil, err
	}
	d.dropCheckinEntries(ctx, roomNumber, name)

	room.Status = desk.RoomStatusFree
	room.Guest = nil
	state.Guests = dropGuest(state.Guests, roomNumber)

	if err := d.commit(ctx, state); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("event", "checked_out").
		Int("room", roomNumber).
		Str("guest", name).
		Int("days", out.DaysStayed).
		Str("tally", string(out.PaymentTallyStatus)).
		Msg("guest checked out")

	return out, nil
}

// dropCheckinEntries removes the open check-in entries for a guest in a room.
func (d *Desk) dropCheckinEntries(ctx context.Context, room int, name string) {
	logger := zerolog.Ctx(ctx)
	checkins, err := d.store.ListCheckins(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list check-in entries")
		return
	}
	for _, c := range checkins {
		if !c.Rooms.Contains(room) || !desk.SameGuest(c.Name, name) {
			continue
		}
		if err := d.store.DeleteEntry(ctx, desk.CollectionCheckins, c.EntryID); err != nil && !desk.IsNotFound(err) {
			logger.Warn().Err(err).Str("id", c.EntryID).Msg("failed to delete check-in entry")
		}
	}
}

// TallyPayments sums the payments made by a guest for a room with a payment
// date between from and to, inclusive. Names compare case-insensitively.
func TallyPayments(payments []desk.RentPayment, from, to string, room int, name string) float64 {
	var total float64
	for _, p := range payments {
		if int(p.Room) != room || !desk.SameGuest(p.Name, name) {
			continue
		}
		date := localDate(p.Date)
		if date == "" || date < from || date > to {
			continue
		}
		total += p.Amount.Float()
	}
	return total
}

func checkinFromGuest(room int, g *desk.Guest, roomRate desk.Number) desk.CheckinRecord {
	rate := g.Rate
	if rate == 0 {
		rate = roomRate
	}
	name := g.Name
	if name == "" {
		name = "Guest"
	}
	return desk.CheckinRecord{
		Name:        name,
		Contact:     g.Contact,
		ID:          g.ID,
		Rooms:       desk.RoomList{room},
		CheckIn:     g.CheckIn,
		CheckInDate: g.CheckInDate,
		CheckInTime: g.CheckInTime,
		Rate:        rate,
		Edited:      g.Edited,
	}
}

func dropGuest(guests []desk.GuestEntry, room int) []desk.GuestEntry {
	out := make([]desk.GuestEntry, 0, len(guests))
	for _, g := range guests {
		if g.Room != room {
			out = append(out, g)
		}
	}
	return out
}

func guestName(g *desk.Guest) string {
	if g == nil {
		return ""
	}
	return g.Name
}
