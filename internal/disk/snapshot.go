package disk

import (
	"context"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
)

// Snapshot is the read-only view written to Shared/sharedSnapshot.json for other devices.
type Snapshot struct {
	UpdatedAt        string              `json:"updatedAt"`
	Floors           map[int][]desk.Room `json:"floors"`
	Reservations     []desk.Reservation  `json:"reservations"`
	Guests           []desk.GuestEntry   `json:"guests"`
	Checkins         []SnapshotCheckin   `json:"checkins"`
	Checkouts        []SnapshotCheckout  `json:"checkouts"`
	RentPayments     []SnapshotRent      `json:"rentPayments"`
	Expenses         []SnapshotExpense   `json:"expenses"`
	ScannedDocuments []ScanFile          `json:"scannedDocuments"`
}

// SnapshotCheckin summarizes one check-in file.
type SnapshotCheckin struct {
	DateFolder string        `json:"dateFolder"`
	File       string        `json:"file"`
	Name       string        `json:"name"`
	Room       desk.RoomList `json:"room"`
	ID         string        `json:"id,omitempty"`
	Contact    string        `json:"contact,omitempty"`
	CheckIn    string        `json:"checkIn,omitempty"`
	Rate       desk.Number   `json:"rate"`
	Edited     bool          `json:"edited"`
}

// SnapshotCheckout summarizes one checkout file.
type SnapshotCheckout struct {
	DateFolder         string           `json:"dateFolder"`
	File               string           `json:"file"`
	Name               string           `json:"name"`
	Room               desk.RoomList    `json:"room"`
	TotalPaid          desk.Number      `json:"paid"`
	CheckOutDateTime   string           `json:"checkoutAt,omitempty"`
	PaymentTallyStatus desk.TallyStatus `json:"paymentTallyStatus,omitempty"`
	Notes              string           `json:"notes,omitempty"`
}

// SnapshotRent summarizes one rent file.
type SnapshotRent struct {
	DateFolder string          `json:"dateFolder"`
	File       string          `json:"file"`
	Name       string          `json:"name"`
	Room       desk.RoomNumber `json:"room"`
	Amount     desk.Number     `json:"amount"`
	Mode       string          `json:"mode,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// SnapshotExpense summarizes one expense file.
type SnapshotExpense struct {
	DateFolder  string      `json:"dateFolder"`
	File        string      `json:"file"`
	Description string      `json:"description"`
	Category    string      `json:"category,omitempty"`
	Amount      desk.Number `json:"amount"`
	Note        string      `json:"note,omitempty"`
}

func lastN[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	if items == nil {
		return []T{}
	}
	return items
}

// WriteSharedSnapshot writes the state and the latest max entries of each
// folder to Shared/sharedSnapshot.json. Unreadable folders yield empty lists.
func (s *Store) WriteSharedSnapshot(ctx context.Context, state *desk.State, max int, now time.Time) (*Snapshot, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	snap := &Snapshot{
		UpdatedAt:    now.UTC().Format(time.RFC3339),
		Floors:       state.Floors,
		Reservations: state.Reservations,
		Guests:       state.Guests,
	}

	if checkins, err := s.ListCheckins(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to read check-ins")
	} else {
		for _, r := range checkins {
			snap.Checkins = append(snap.Checkins, SnapshotCheckin{
				DateFolder: r.DateFolder, File: r.File,
				Name: r.Data.Name, Room: r.Data.Rooms, ID: r.Data.ID, Contact: r.Data.Contact,
				CheckIn: r.Data.CheckIn, Rate: r.Data.Rate, Edited: r.Data.Edited,
			})
		}
	}

	if checkouts, err := s.ListCheckouts(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to read checkouts")
	} else {
		for _, r := range checkouts {
			snap.Checkouts = append(snap.Checkouts, SnapshotCheckout{
				DateFolder: r.DateFolder, File: r.File,
				Name: r.Data.Name, Room: r.Data.Rooms, TotalPaid: r.Data.TotalPaid,
				CheckOutDateTime: r.Data.CheckOutDateTime, PaymentTallyStatus: r.Data.PaymentTallyStatus,
				Notes: r.Data.Notes,
			})
		}
	}

	if rent, err := s.ListRent(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to read rent collections")
	} else {
		for _, r := range rent {
			snap.RentPayments = append(snap.RentPayments, SnapshotRent{
				DateFolder: r.DateFolder, File: r.File,
				Name: r.Data.Name, Room: r.Data.Room, Amount: r.Data.Amount,
				Mode: string(r.Data.Mode), Note: r.Data.Note,
			})
		}
	}

	if expenses, err := s.ListExpenses(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to read expenses")
	} else {
		for _, r := range expenses {
			snap.Expenses = append(snap.Expenses, SnapshotExpense{
				DateFolder: r.DateFolder, File: r.File,
				Description: r.Data.Description, Category: r.Data.Category,
				Amount: r.Data.Amount, Note: r.Data.Note,
			})
		}
	}

	if scans, err := s.ListScans(); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to index scanned documents")
	} else {
		snap.ScannedDocuments = scans
	}

	snap.Checkins = lastN(snap.Checkins, max)
	snap.Checkouts = lastN(snap.Checkouts, max)
	snap.RentPayments = lastN(snap.RentPayments, max)
	snap.Expenses = lastN(snap.Expenses, max)
	snap.ScannedDocuments = lastN(snap.ScannedDocuments, max)

	if _, err := writeJSON(s.path(SharedFolder), SnapshotFile, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ReadSharedSnapshot reads Shared/sharedSnapshot.json.
func (s *Store) ReadSharedSnapshot() (*Snapshot, error) {
	var snap Snapshot
	if err := readJSON(s.path(SharedFolder, SnapshotFile), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
