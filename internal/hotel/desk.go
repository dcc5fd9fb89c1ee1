// Package hotel implements the front-desk workflows: check-in, checkout,
// reservations and the rent and expense ledgers. Every workflow updates the
// shared state in Redis, writes the matching file into the folder tree when
// one is attached, and mirrors the result.
package hotel

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/internal/reconcile"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrRoomNotFound     = errors.Base("room not found")
	ErrRoomOccupied     = errors.Base("room is occupied")
	ErrRoomReserved     = errors.Base("room is already reserved for that date")
	ErrRoomNotOccupied  = errors.Base("room is not occupied")
	ErrNoReservation    = errors.Base("reservation not found")
	ErrEntryNotFound    = errors.Base("ledger entry not found")
	ErrUnauthorized     = errors.Base("incorrect admin password")
	ErrInvalidInput     = errors.Base("invalid input")
	ErrStorageNotLinked = errors.Base("storage folder not connected")
)

// Mirror receives every state the desk saves.
type Mirror interface {
	Publish(ctx context.Context, s *desk.State) reconcile.MirrorReport
}

// Options configures a Desk.
type Options struct {
	Store  *desk.Client
	Disk   *disk.Store // optional
	Mirror Mirror      // optional
	Layout desk.Layout

	// AdminPassword guards ledger edits. A value starting with "$2" is
	// treated as a bcrypt hash.
	AdminPassword string

	Now func() time.Time
}

// Desk runs front-desk workflows against the shared state.
// Workflows that rewrite the state singleton are serialized.
type Desk struct {
	mu sync.Mutex

	store    *desk.Client
	disk     *disk.Store
	mirror   Mirror
	layout   desk.Layout
	password string
	now      func() time.Time
}

// New creates a Desk.
func New(opts Options) (*Desk, error) {
	if opts.Store == nil {
		return nil, errors.New("desk requires a state store")
	}
	if opts.Layout.Floors == 0 {
		opts.Layout = desk.DefaultLayout()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Desk{
		store:    opts.Store,
		disk:     opts.Disk,
		mirror:   opts.Mirror,
		layout:   opts.Layout,
		password: opts.AdminPassword,
		now:      opts.Now,
	}, nil
}

// Layout returns the grid layout.
func (d *Desk) Layout() desk.Layout {
	return d.layout
}

// Today returns the current date as YYYY-MM-DD.
func (d *Desk) Today() string {
	return d.now().Format(desk.DateLayout)
}

// State returns the current state, normalized to the layout.
// A store with no state yet yields an empty grid.
func (d *Desk) State(ctx context.Context) (*desk.State, error) {
	s, err := d.store.LoadState(ctx)
	if desk.IsNotFound(err) {
		return d.layout.EmptyState(), nil
	}
	if err != nil {
		return nil, err
	}
	return reconcile.Normalize(s, d.layout), nil
}

// Commit saves s as the current state, broadcasts it and mirrors it.
func (d *Desk) Commit(ctx context.Context, s *desk.State) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commit(ctx, s)
}

// Update loads the current state, passes it to fn and commits the result.
// A nil state from fn leaves the store untouched. No other workflow runs
// between the load and the save.
func (d *Desk) Update(ctx context.Context, fn func(current *desk.State) (*desk.State, error)) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.State(ctx)
	if err != nil {
		return false, err
	}
	next, err := fn(current)
	if err != nil || next == nil {
		return false, err
	}
	if err := d.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Desk) commit(ctx context.Context, s *desk.State) error {
	if err := d.store.SaveState(ctx, s); err != nil {
		return err
	}
	d.mirrorState(ctx, s)
	return nil
}

// publishFull broadcasts the aggregated state after a ledger write.
// The singleton itself does not change, so nothing is saved.
func (d *Desk) publishFull(ctx context.Context) {
	full, err := d.store.FullState(ctx, d.layout)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to build full state")
		return
	}
	if err := d.store.PublishState(ctx, full); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to publish full state")
	}
	d.mirrorState(ctx, full)
}

func (d *Desk) mirrorState(ctx context.Context, s *desk.State) {
	if d.mirror == nil {
		return
	}
	report := d.mirror.Publish(ctx, s)
	zerolog.Ctx(ctx).Debug().
		Bool("snapshot", report.Snapshot).
		Bool("remote", report.Remote).
		Bool("queued", report.Queued).
		Msg("state mirrored")
}

func (d *Desk) diskAttached() bool {
	return d.disk.Available()
}

// Authorize checks the admin password.
func (d *Desk) Authorize(password string) error {
	if d.password == "" {
		return errors.WithStack(ErrUnauthorized)
	}
	if strings.HasPrefix(d.password, "$2") {
		if bcrypt.CompareHashAndPassword([]byte(d.password), []byte(password)) != nil {
			return errors.WithStack(ErrUnauthorized)
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(d.password), []byte(password)) != 1 {
		return errors.WithStack(ErrUnauthorized)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// Grid returns the floors as shown on the room grid for today: a free room
// with a reservation for today is shown as reserved. s is not modified.
func Grid(s *desk.State, today string) map[int][]desk.Room {
	out := s.Clone().Floors
	for f, rooms := range out {
		for i := range rooms {
			r := &out[f][i]
			if r.Status == desk.RoomStatusOccupied {
				continue
			}
			r.Status = desk.RoomStatusFree
			r.ReservedFor = nil
			for _, res := range s.Reservations {
				if int(res.Room) == r.Number && res.Date == today {
					res := res
					r.Status = desk.RoomStatusReserved
					r.ReservedFor = &res
					break
				}
			}
		}
	}
	return out
}

// localDate returns the YYYY-MM-DD part of an RFC3339 timestamp in the offset it was written with.
func localDate(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.Format(desk.DateLayout)
	}
	if len(ts) >= len(desk.DateLayout) {
		return ts[:len(desk.DateLayout)]
	}
	return ""
}

// FindScans searches the identity scans from earlier stays by guest name.
func (d *Desk) FindScans(query string) ([]disk.ScanFile, error) {
	if !d.diskAttached() {
		return nil, errors.WithStack(ErrStorageNotLinked)
	}
	return d.disk.FindScans(query)
}
