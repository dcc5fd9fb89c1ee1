// Package reconcile decides which copy of the front-desk state wins at
// startup and keeps the secondary copies (the shared snapshot on disk and the
// remote API) up to date afterwards.
//
// Sources in order of precedence:
//
//	disk     the folder tree, hydrated into a grid
//	local    the Redis singleton
//	remote   the hosted state API
//	default  an empty grid
package reconcile

import (
	"context"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
)

// Source names where a resolved state came from.
type Source string

const (
	SourceDisk    Source = "disk"
	SourceLocal   Source = "local"
	SourceRemote  Source = "remote"
	SourceDefault Source = "default"
)

// RemoteAPI is the part of the remote client reconciliation needs.
type RemoteAPI interface {
	LoadState(ctx context.Context) (*desk.State, error)
	SaveState(ctx context.Context, s *desk.State) error
}

// LocalStore is the part of the Redis client reconciliation needs.
type LocalStore interface {
	LoadState(ctx context.Context) (*desk.State, error)
}

// Sources holds every place state can be loaded from. Any of Disk, Local and
// Remote may be nil.
type Sources struct {
	Disk   *disk.Store
	Local  LocalStore
	Remote RemoteAPI
	Layout desk.Layout
}

// Resolve returns the authoritative state and the source that supplied it.
// Failing sources are logged and skipped; the default grid always succeeds.
func Resolve(ctx context.Context, src Sources) (*desk.State, Source) {
	logger := zerolog.Ctx(ctx)

	var local *desk.State
	if src.Local != nil {
		s, err := src.Local.LoadState(ctx)
		switch {
		case err == nil:
			local = s
		case desk.IsNotFound(err):
		default:
			logger.Warn().Err(err).Str("source", string(SourceLocal)).Msg("failed to load state")
		}
	}

	if src.Disk.Available() {
		current := local
		if current == nil {
			current = src.Layout.EmptyState()
		}
		hydrated, err := src.Disk.Hydrate(ctx, current, src.Layout)
		if err != nil {
			logger.Warn().Err(err).Str("source", string(SourceDisk)).Msg("failed to hydrate state")
		} else if hydrated != nil {
			return Normalize(hydrated, src.Layout), SourceDisk
		}
	}

	if local != nil {
		return Normalize(local, src.Layout), SourceLocal
	}

	if src.Remote != nil {
		remote, err := src.Remote.LoadState(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("source", string(SourceRemote)).Msg("failed to load state")
		} else if remote != nil {
			return Normalize(remote, src.Layout), SourceRemote
		}
	}

	return src.Layout.EmptyState(), SourceDefault
}

// MergeRemote returns a copy of remote that keeps the room rates set locally.
// Returns nil when remote is nil.
func MergeRemote(remote, local *desk.State) *desk.State {
	if remote == nil {
		return nil
	}
	merged := remote.Clone()
	disk.PreserveRates(merged, local)
	return merged
}

// Normalize returns a copy of s with every floor of the layout present and no
// nil lists. Rooms without a status are derived from their guest.
func Normalize(s *desk.State, layout desk.Layout) *desk.State {
	if s == nil {
		return layout.EmptyState()
	}
	out := s.Clone()

	empty := layout.EmptyFloors()
	if out.Floors == nil {
		out.Floors = empty
	}
	for f, rooms := range empty {
		if len(out.Floors[f]) == 0 {
			out.Floors[f] = rooms
		}
	}

	for f, rooms := range out.Floors {
		for i := range rooms {
			r := &out.Floors[f][i]
			if r.Status.Validate() != nil {
				if r.Guest != nil {
					r.Status = desk.RoomStatusOccupied
				} else {
					r.Status = desk.RoomStatusFree
				}
			}
		}
	}

	if out.Guests == nil {
		out.Guests = []desk.GuestEntry{}
	}
	if out.Reservations == nil {
		out.Reservations = []desk.Reservation{}
	}
	if out.Checkouts == nil {
		out.Checkouts = []desk.CheckoutRecord{}
	}
	if out.RentPayments == nil {
		out.RentPayments = []desk.RentPayment{}
	}
	if out.Expenses == nil {
		out.Expenses = []desk.Expense{}
	}
	return out
}
