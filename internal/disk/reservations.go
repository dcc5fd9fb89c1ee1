package disk

import (
	"context"
	"os"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// WriteReservation writes Reservations/<date>/reservation-<room>-<name>.json.
func (s *Store) WriteReservation(r *desk.Reservation) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}
	if err := r.Validate(); err != nil {
		return "", err
	}

	path, err := writeJSON(s.path(desk.CollectionReservations.Folder(), r.Date), ReservationFileName(int(r.Room), r.Name), r)
	if err != nil {
		return "", err
	}
	return s.rel(path), nil
}

// DeleteReservation removes a reservation file. Returns ErrNotFound if there is none.
func (s *Store) DeleteReservation(date string, room int, name string) error {
	if err := s.ensure(); err != nil {
		return err
	}
	if err := checkSegment(date); err != nil {
		return err
	}

	err := os.Remove(s.path(desk.CollectionReservations.Folder(), date, ReservationFileName(room, name)))
	if errors.Is(err, os.ErrNotExist) {
		return errors.WithStack(ErrNotFound)
	}
	if err != nil {
		return errors.Errorf("failed to delete reservation: %w", err)
	}
	return nil
}

// ListReservations returns every reservation file. A missing date falls back to the folder name.
func (s *Store) ListReservations(ctx context.Context) ([]Record[desk.Reservation], error) {
	records, err := listRecords[desk.Reservation](ctx, s.path(desk.CollectionReservations.Folder()), nil)
	if err != nil {
		return nil, err
	}
	for i := range records {
		r := &records[i].Data
		if r.Date == "" {
			r.Date = records[i].DateFolder
		}
		if r.Name == "" {
			r.Name = "Guest"
		}
	}
	return records, nil
}
