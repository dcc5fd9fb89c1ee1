package disk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// WriteCheckin writes a check-in file into the record's check-in date folder
// and returns its path relative to the base.
func (s *Store) WriteCheckin(rec *desk.CheckinRecord) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	date := rec.CheckinDate()
	if date == "" {
		return "", errors.Errorf("check-in for %s has no date", rec.Name)
	}

	path, err := writeJSON(s.path(desk.CollectionCheckins.Folder(), date), CheckinFileName(rec.Name, rec.Rooms[0], date), rec)
	if err != nil {
		return "", err
	}
	return s.rel(path), nil
}

// FindCheckin locates the check-in file for a guest and room.
// It tries the exact file name in the check-in date folder, then scans that
// folder comparing normalized names, then scans the day before and the day after.
func (s *Store) FindCheckin(checkInDate string, room int, name string) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}

	root := s.path(desk.CollectionCheckins.Folder())
	want := NormalizeName(name)

	exact := filepath.Join(root, checkInDate, CheckinFileName(want, room, checkInDate))
	if fi, err := os.Stat(exact); err == nil && !fi.IsDir() {
		return exact, nil
	}

	folders := []string{checkInDate}
	if d, err := time.Parse(desk.DateLayout, checkInDate); err == nil {
		folders = append(folders, dateFolder(d.AddDate(0, 0, -1)), dateFolder(d.AddDate(0, 0, 1)))
	}

	for _, folder := range folders {
		if path, ok := scanCheckinFolder(filepath.Join(root, folder), folder, room, want); ok {
			return path, nil
		}
	}

	return "", errors.WithDetails(ErrNotFound, "room", room, "name", name, "date", checkInDate)
}

func scanCheckinFolder(dir, date string, room int, want string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, rooms, ok := parseCheckinFileName(e.Name(), date)
		if !ok || NormalizeName(name) != want {
			continue
		}
		for _, r := range rooms {
			if r == room {
				return filepath.Join(dir, e.Name()), true
			}
		}
	}
	return "", false
}

// ReadCheckin decodes the check-in file at path.
func (s *Store) ReadCheckin(path string) (*desk.CheckinRecord, error) {
	var rec desk.CheckinRecord
	if err := readJSON(path, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCheckins returns every check-in file.
func (s *Store) ListCheckins(ctx context.Context) ([]Record[desk.CheckinRecord], error) {
	return listRecords[desk.CheckinRecord](ctx, s.path(desk.CollectionCheckins.Folder()), nil)
}

// ListCheckouts returns every checkout file.
func (s *Store) ListCheckouts(ctx context.Context) ([]Record[desk.CheckoutRecord], error) {
	return listRecords[desk.CheckoutRecord](ctx, s.path(desk.CollectionCheckouts.Folder()), nil)
}

// TotalPayments sums the rent paid by a guest for a room between two dates, inclusive.
// Only date folders in YYYY-MM-DD form inside the range are read.
func (s *Store) TotalPayments(ctx context.Context, from, to string, room int, name string) (float64, error) {
	inRange := func(folder string) bool {
		d := NormalizeFolderDate(folder)
		return d != "" && d >= from && d <= to
	}

	records, err := listRecords[desk.RentPayment](ctx, s.path(desk.CollectionRentPayments.Folder()), inRange)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, r := range records {
		if int(r.Data.Room) == room && desk.SameGuest(r.Data.Name, name) {
			total += r.Data.Amount.Float()
		}
	}
	return total, nil
}

// MoveToCheckout closes a stay on disk. It reads the guest's check-in file,
// computes the stay totals from the rent files, writes the checkout file into
// today's Checkouts folder and removes the check-in file.
func (s *Store) MoveToCheckout(ctx context.Context, checkInDate string, room int, name string, now time.Time) (*desk.CheckoutRecord, error) {
	path, err := s.FindCheckin(checkInDate, room, name)
	if err != nil {
		return nil, err
	}

	rec, err := s.ReadCheckin(path)
	if err != nil {
		return nil, err
	}

	paid, err := s.TotalPayments(ctx, checkInDate, dateFolder(now), room, name)
	if err != nil {
		return nil, err
	}

	out := desk.CloseStay(*rec, paid, now)
	if _, err := writeJSON(s.path(desk.CollectionCheckouts.Folder(), dateFolder(now)), CheckoutFileName(name, room, checkInDate), &out); err != nil {
		return nil, err
	}

	if err := os.Remove(path); err != nil {
		return nil, errors.Errorf("failed to remove check-in file %s: %w", filepath.Base(path), err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("event", "checkout_moved").
		Int("room", room).
		Str("from", strings.TrimPrefix(s.rel(path), "./")).
		Msg("check-in moved to checkouts")

	return &out, nil
}
