package disk

import (
	"context"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
)

// Hydrate rebuilds the room grid from the folder tree.
// Every check-in file marks its rooms occupied and every reservation file is
// loaded. Room rates from current are kept. Returns (nil, nil) when the store
// is not available. The result depends only on the files, so hydrating an
// unchanged tree twice gives the same state.
func (s *Store) Hydrate(ctx context.Context, current *desk.State, layout desk.Layout) (*desk.State, error) {
	if !s.Available() {
		return nil, nil
	}
	logger := zerolog.Ctx(ctx)

	next := layout.EmptyState()

	checkins, err := s.ListCheckins(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read check-ins")
	}
	for _, rec := range checkins {
		data := rec.Data
		for _, number := range data.Rooms {
			room := next.FindRoom(number)
			if room == nil {
				logger.Debug().Int("room", number).Str("file", rec.File).Msg("check-in for room outside the grid")
				continue
			}

			guest := &desk.Guest{
				Name:        data.Name,
				Contact:     data.Contact,
				ID:          data.ID,
				CheckIn:     data.CheckIn,
				CheckInDate: data.CheckInDate,
				CheckInTime: data.CheckInTime,
				Rate:        data.Rate,
				Edited:      data.Edited,
			}
			if guest.Name == "" {
				guest.Name = "Guest"
			}
			if guest.CheckIn == "" {
				guest.CheckIn = checkinFallback(rec)
			}
			if guest.Rate == 0 {
				guest.Rate = room.Rate
			}

			room.Status = desk.RoomStatusOccupied
			room.Guest = guest

			next.Guests = append(next.Guests, desk.GuestEntry{
				Room:    number,
				Name:    data.Name,
				Contact: data.Contact,
				ID:      data.ID,
				CheckIn: data.CheckIn,
				Edited:  data.Edited,
			})
		}
	}

	reservations, err := s.ListReservations(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read reservations")
	}
	for _, rec := range reservations {
		next.Reservations = append(next.Reservations, rec.Data)
	}

	PreserveRates(next, current)
	return next, nil
}

// PreserveRates copies room rates from old into next for rooms present in both.
func PreserveRates(next, old *desk.State) {
	if old == nil || old.Floors == nil {
		return
	}
	for f, rooms := range next.Floors {
		for i := range rooms {
			if prev := old.FindRoom(rooms[i].Number); prev != nil && prev.Rate != 0 {
				next.Floors[f][i].Rate = prev.Rate
			}
		}
	}
}

// checkinFallback dates a check-in file that has no timestamp: midnight of
// its check-in date or date folder, else the file's modification time.
func checkinFallback(rec Record[desk.CheckinRecord]) string {
	date := rec.Data.CheckinDate()
	if date == "" {
		date = NormalizeFolderDate(rec.DateFolder)
	}
	if t, err := time.Parse(desk.DateLayout, date); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return rec.ModTime.UTC().Format(time.RFC3339)
}
