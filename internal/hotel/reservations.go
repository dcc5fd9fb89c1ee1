package hotel

import (
	"context"
	"strings"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Reserve books a room for a guest on a date.
func (d *Desk) Reserve(ctx context.Context, r desk.Reservation) (*desk.Reservation, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Place = strings.TrimSpace(r.Place)
	if err := r.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.State(ctx)
	if err != nil {
		return nil, err
	}

	room := state.FindRoom(int(r.Room))
	if room == nil {
		return nil, errors.WithDetails(ErrRoomNotFound, "room", int(r.Room))
	}
	if r.Date == d.Today() && room.Status == desk.RoomStatusOccupied {
		return nil, errors.WithDetails(ErrRoomOccupied, "room", int(r.Room), "guest", guestName(room.Guest))
	}
	for _, existing := range state.Reservations {
		if existing.Room == r.Room && existing.Date == r.Date {
			return nil, errors.WithDetails(ErrRoomReserved, "room", int(r.Room), "date", r.Date, "guest", existing.Name)
		}
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if d.diskAttached() {
		if _, err := d.disk.WriteReservation(&r); err != nil {
			return nil, errors.Errorf("failed to write reservation file: %w", err)
		}
	}
	if _, err := d.store.AppendEntry(ctx, desk.CollectionReservations, r.ID, &r); err != nil {
		return nil, err
	}

	state.Reservations = append(state.Reservations, r)
	if err := d.commit(ctx, state); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("event", "reserved").
		Int("room", int(r.Room)).
		Str("date", r.Date).
		Str("guest", r.Name).
		Msg("room reserved")

	return &r, nil
}

// CancelReservation removes the reservation for a guest, room and date.
func (d *Desk) CancelReservation(ctx context.Context, date string, room int, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.State(ctx)
	if err != nil {
		return err
	}

	var (
		found   *desk.Reservation
		kept    = make([]desk.Reservation, 0, len(state.Reservations))
		matches = func(r desk.Reservation) bool {
			return int(r.Room) == room && r.Date == date && desk.SameGuest(r.Name, name)
		}
	)
	for _, r := range state.Reservations {
		if found == nil && matches(r) {
			r := r
			found = &r
			continue
		}
		kept = append(kept, r)
	}

	diskRemoved := false
	if d.diskAttached() {
		fileName := name
		if found != nil {
			fileName = found.Name
		}
		err := d.disk.DeleteReservation(date, room, fileName)
		switch {
		case err == nil:
			diskRemoved = true
		case errors.Is(err, disk.ErrNotFound):
		default:
			return errors.Errorf("failed to delete reservation file: %w", err)
		}
	}

	if found == nil && !diskRemoved {
		return errors.WithDetails(ErrNoReservation, "room", room, "date", date, "guest", name)
	}

	if found != nil && found.ID != "" {
		if err := d.store.DeleteEntry(ctx, desk.CollectionReservations, found.ID); err != nil && !desk.IsNotFound(err) {
			return err
		}
	}

	state.Reservations = kept
	if err := d.commit(ctx, state); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("event", "reservation_cancelled").
		Int("room", room).
		Str("date", date).
		Str("guest", name).
		Msg("reservation cancelled")
	return nil
}
