// Package desk provides type-safe Go definitions and Redis schema patterns
// for the front-desk state store. The store is the shared state that the
// HTTP server, the CLI and every connected device read and write.
//
// All Redis keys and channels are namespaced by hotel name so several hotels
// can share a single Redis server.
package desk

import (
	"slices"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// DateLayout is the YYYY-MM-DD form used for date folders and reservation dates.
const DateLayout = "2006-01-02"

// RoomStatus is the state of a room on the grid.
type RoomStatus string

const (
	// RoomStatusFree is a room with no guest and no reservation for today
	RoomStatusFree RoomStatus = "free"

	// RoomStatusOccupied is a room with a checked-in guest
	RoomStatusOccupied RoomStatus = "occupied"

	// RoomStatusReserved is a free room with a reservation for today
	RoomStatusReserved RoomStatus = "reserved"
)

// Validate checks if the RoomStatus is a valid enum value.
func (s RoomStatus) Validate() error {
	switch s {
	case RoomStatusFree, RoomStatusOccupied, RoomStatusReserved:
		return nil
	default:
		return errors.Errorf("unknown room status: %q", s)
	}
}

// PaymentMode is how a rent payment was collected.
type PaymentMode string

const (
	PaymentModeCash PaymentMode = "Cash"
	PaymentModeGPay PaymentMode = "GPay"
)

// ParsePaymentMode matches a mode case-insensitively and returns its canonical form.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentModeCash, nil
	case "gpay":
		return PaymentModeGPay, nil
	default:
		return "", errors.Errorf("unknown payment mode: %q (must be 'Cash' or 'GPay')", s)
	}
}

// TallyStatus records whether the payments collected during a stay cover the rent.
type TallyStatus string

const (
	TallyStatusTallied    TallyStatus = "tallied"
	TallyStatusNotTallied TallyStatus = "not-tallied"
)

// Guest is the occupant of a room.
type Guest struct {
	Name        string `json:"name"`
	Contact     string `json:"contact,omitempty"`
	ID          string `json:"id,omitempty"`      // identity document number
	CheckIn     string `json:"checkIn,omitempty"` // RFC3339
	CheckInDate string `json:"checkInDate,omitempty"`
	CheckInTime string `json:"checkInTime,omitempty"`
	Rate        Number `json:"rate,omitempty"`
	Edited      bool   `json:"edited,omitempty"`
}

// Room is a single cell of the room grid.
type Room struct {
	Number      int          `json:"number"`
	Status      RoomStatus   `json:"status"`
	Rate        Number       `json:"rate"`
	Guest       *Guest       `json:"guest"`
	ReservedFor *Reservation `json:"reservedFor"`
}

// Floor returns the floor a room number belongs to (room 302 is on floor 3).
func Floor(roomNumber int) int {
	return roomNumber / 100
}

// Reservation books a room for a guest on a given date.
type Reservation struct {
	ID    string     `json:"id,omitempty"`
	Name  string     `json:"name"`
	Place string     `json:"place,omitempty"`
	Room  RoomNumber `json:"room"`
	Date  string     `json:"date"`
	From  string     `json:"from,omitempty"`
}

// Validate checks if the Reservation has valid field values.
func (r *Reservation) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("reservation name cannot be empty")
	}
	if r.Room <= 0 {
		return errors.Errorf("invalid reservation room: %d", r.Room)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return errors.Errorf("invalid reservation date %q: must be YYYY-MM-DD", r.Date)
	}
	return nil
}

// GuestEntry is the flat guest list kept alongside the floors.
type GuestEntry struct {
	Room    int    `json:"room"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	ID      string `json:"id,omitempty"`
	CheckIn string `json:"checkIn,omitempty"`
	Edited  bool   `json:"edited,omitempty"`
}

// CheckinRecord is the document written when a guest checks in.
// Legacy documents may carry a single room or a list of rooms.
type CheckinRecord struct {
	EntryID     string   `json:"entryId,omitempty"`
	Name        string   `json:"name"`
	Contact     string   `json:"contact,omitempty"`
	ID          string   `json:"id,omitempty"` // identity document number
	Rooms       RoomList `json:"room"`
	CheckIn     string   `json:"checkIn"`
	CheckInDate string   `json:"checkInDate,omitempty"`
	CheckInTime string   `json:"checkInTime,omitempty"`
	Rate        Number   `json:"rate"`
	Edited      bool     `json:"edited,omitempty"`
}

// Validate checks if the CheckinRecord has valid field values.
func (c *CheckinRecord) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("check-in name cannot be empty")
	}
	if len(c.Rooms) == 0 {
		return errors.New("check-in must name at least one room")
	}
	for i, room := range c.Rooms {
		if room <= 0 {
			return errors.Errorf("invalid check-in room at index %d: %d", i, room)
		}
	}
	return nil
}

// CheckoutRecord is a check-in document closed out with the stay's totals.
type CheckoutRecord struct {
	CheckinRecord

	CheckOutDate       string      `json:"checkOutDate,omitempty"`
	CheckOutTime       string      `json:"checkOutTime,omitempty"`
	CheckOutDateTime   string      `json:"checkOutDateTime"`
	DaysStayed         int         `json:"daysStayed"`
	TotalRent          Number      `json:"totalRent"`
	TotalPaid          Number      `json:"totalPaid"`
	PaymentTallyStatus TallyStatus `json:"paymentTallyStatus"`
	Notes              string      `json:"notes,omitempty"`
}

// RentPayment is one entry of the rent ledger.
type RentPayment struct {
	ID     string      `json:"id,omitempty"`
	Name   string      `json:"name"`
	Room   RoomNumber  `json:"room"`
	Days   Number      `json:"days"`
	Amount Number      `json:"amount"`
	Mode   PaymentMode `json:"mode"`
	Note   string      `json:"note,omitempty"`
	Date   string      `json:"date"` // RFC3339
}

// Validate checks if the RentPayment has valid field values.
func (p *RentPayment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("rent payment name cannot be empty")
	}
	if p.Room <= 0 {
		return errors.Errorf("invalid rent payment room: %d", p.Room)
	}
	if p.Days <= 0 {
		return errors.Errorf("invalid rent payment days: must be > 0, got %v", p.Days)
	}
	if p.Amount <= 0 {
		return errors.Errorf("invalid rent payment amount: must be > 0, got %v", p.Amount)
	}
	if _, err := ParsePaymentMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}

// Expense is one entry of the expense ledger.
type Expense struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Amount      Number `json:"amount"`
	Note        string `json:"note,omitempty"`
	Date        string `json:"date"` // RFC3339
}

// Label returns the text shown for an expense, falling back from description to category to note.
func (e *Expense) Label() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Category != "":
		return e.Category
	default:
		return e.Note
	}
}

// Validate checks if the Expense has valid field values.
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.Label()) == "" {
		return errors.New("expense description cannot be empty")
	}
	if e.Amount <= 0 {
		return errors.Errorf("invalid expense amount: must be > 0, got %v", e.Amount)
	}
	return nil
}

// State is the whole front-desk document shared between devices.
type State struct {
	Floors       map[int][]Room   `json:"floors"`
	Guests       []GuestEntry     `json:"guests"`
	Reservations []Reservation    `json:"reservations"`
	Checkins     []CheckinRecord  `json:"checkins,omitempty"`
	Checkouts    []CheckoutRecord `json:"checkouts"`
	RentPayments []RentPayment    `json:"rentPayments"`
	Expenses     []Expense        `json:"expenses"`
	UpdatedAt    string           `json:"updatedAt,omitempty"`
}

// FindRoom returns a pointer into the floors for the given room number, or nil.
func (s *State) FindRoom(number int) *Room {
	rooms := s.Floors[Floor(number)]
	for i := range rooms {
		if rooms[i].Number == number {
			return &rooms[i]
		}
	}
	return nil
}

// Rooms returns every room ordered by floor then position.
func (s *State) Rooms() []Room {
	var out []Room
	for f := 1; f <= maxFloor(s.Floors); f++ {
		out = append(out, s.Floors[f]...)
	}
	return out
}

// Clone returns a deep copy of the state so callers can mutate it freely.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		Floors:       make(map[int][]Room, len(s.Floors)),
		Guests:       slices.Clone(s.Guests),
		Reservations: slices.Clone(s.Reservations),
		Checkins:     slices.Clone(s.Checkins),
		Checkouts:    slices.Clone(s.Checkouts),
		RentPayments: slices.Clone(s.RentPayments),
		Expenses:     slices.Clone(s.Expenses),
		UpdatedAt:    s.UpdatedAt,
	}
	for f, rooms := range s.Floors {
		copied := make([]Room, len(rooms))
		for i, r := range rooms {
			if r.Guest != nil {
				g := *r.Guest
				r.Guest = &g
			}
			if r.ReservedFor != nil {
				res := *r.ReservedFor
				r.ReservedFor = &res
			}
			copied[i] = r
		}
		out.Floors[f] = copied
	}
	return out
}

func maxFloor(floors map[int][]Room) int {
	max := 0
	for f := range floors {
		if f > max {
			max = f
		}
	}
	return max
}

// Layout describes the shape of the room grid.
type Layout struct {
	Floors        int
	RoomsPerFloor int
	DefaultRate   float64
}

// DefaultLayout is five floors of four rooms at 2500 a night.
func DefaultLayout() Layout {
	return Layout{Floors: 5, RoomsPerFloor: 4, DefaultRate: 2500}
}

// EmptyFloors builds a grid of free rooms. Room numbers are floor*100 + position.
func (l Layout) EmptyFloors() map[int][]Room {
	floors := make(map[int][]Room, l.Floors)
	for f := 1; f <= l.Floors; f++ {
		rooms := make([]Room, 0, l.RoomsPerFloor)
		for r := 1; r <= l.RoomsPerFloor; r++ {
			rooms = append(rooms, Room{
				Number: f*100 + r,
				Status: RoomStatusFree,
				Rate:   Number(l.DefaultRate),
			})
		}
		floors[f] = rooms
	}
	return floors
}

// EmptyState returns a state with an empty grid and no ledgers.
func (l Layout) EmptyState() *State {
	return &State{
		Floors:       l.EmptyFloors(),
		Guests:       []GuestEntry{},
		Reservations: []Reservation{},
		Checkouts:    []CheckoutRecord{},
		RentPayments: []RentPayment{},
		Expenses:     []Expense{},
	}
}
