package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// eventFormatter renders watched events.
type eventFormatter interface {
	FormatState(prev, next *desk.State) error
	FormatLedger(ev *desk.LedgerEvent) error
	FormatError(err error) error
}

// RoomChange is one room whose status or guest differs between two states.
type RoomChange struct {
	Room   int             `json:"room"`
	From   desk.RoomStatus `json:"from,omitempty"`
	To     desk.RoomStatus `json:"to"`
	Guest  string          `json:"guest,omitempty"`
	Before string          `json:"before,omitempty"` // previous guest
}

// DiffRooms lists rooms that changed from prev to next, ordered by room number.
// A nil prev reports nothing: there is no baseline to compare against.
func DiffRooms(prev, next *desk.State) []RoomChange {
	if prev == nil || next == nil {
		return nil
	}

	old := make(map[int]desk.Room)
	for _, r := range prev.Rooms() {
		old[r.Number] = r
	}

	var changes []RoomChange
	for _, r := range next.Rooms() {
		before, existed := old[r.Number]
		guest, prevGuest := guestName(r.Guest), guestName(before.Guest)
		if existed && before.Status == r.Status && guest == prevGuest {
			continue
		}
		changes = append(changes, RoomChange{
			Room:   r.Number,
			From:   before.Status,
			To:     r.Status,
			Guest:  guest,
			Before: prevGuest,
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Room < changes[j].Room })
	return changes
}

func guestName(g *desk.Guest) string {
	if g == nil {
		return ""
	}
	return g.Name
}

// defaultFormatter renders events as human-readable lines.
type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatState(prev, next *desk.State) error {
	if prev == nil {
		occupied := 0
		rooms := next.Rooms()
		for _, r := range rooms {
			if r.Status == desk.RoomStatusOccupied {
				occupied++
			}
		}
		_, err := fmt.Fprintf(f.writer, "📋 State loaded: %d of %d rooms occupied\n", occupied, len(rooms))
		return err
	}

	for _, c := range DiffRooms(prev, next) {
		var line string
		switch {
		case c.To == desk.RoomStatusOccupied && c.Guest != "":
			line = fmt.Sprintf("🛏️  Room %d occupied: guest=%s", c.Room, c.Guest)
		case c.To == desk.RoomStatusReserved:
			line = fmt.Sprintf("📅 Room %d reserved", c.Room)
		case c.From == desk.RoomStatusOccupied:
			line = fmt.Sprintf("🧹 Room %d freed: guest=%s left", c.Room, c.Before)
		default:
			line = fmt.Sprintf("🔁 Room %d now %s", c.Room, c.To)
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *defaultFormatter) FormatLedger(ev *desk.LedgerEvent) error {
	if ev == nil || ev.Entry == nil {
		return nil
	}
	e := ev.Entry

	if ev.Op == desk.LedgerOpDeleted {
		_, err := fmt.Fprintf(f.writer, "🗑️  %s entry deleted: id=%s\n", e.Collection, e.ID)
		return err
	}

	verb := "recorded"
	if ev.Op == desk.LedgerOpUpdated {
		verb = "edited"
	}

	var line string
	switch e.Collection {
	case desk.CollectionRentPayments:
		var p desk.RentPayment
		if err := e.Decode(&p); err != nil {
			return f.FormatError(err)
		}
		line = fmt.Sprintf("💰 Rent %s: room=%d guest=%s amount=%s mode=%s",
			verb, int(p.Room), p.Name, amount(p.Amount), p.Mode)
	case desk.CollectionExpenses:
		var x desk.Expense
		if err := e.Decode(&x); err != nil {
			return f.FormatError(err)
		}
		line = fmt.Sprintf("🧾 Expense %s: %s amount=%s", verb, x.Label(), amount(x.Amount))
	case desk.CollectionCheckins:
		var c desk.CheckinRecord
		if err := e.Decode(&c); err != nil {
			return f.FormatError(err)
		}
		line = fmt.Sprintf("🔑 Checked in: guest=%s room=%s", c.Name, rooms(c.Rooms))
	case desk.CollectionCheckouts:
		var c desk.CheckoutRecord
		if err := e.Decode(&c); err != nil {
			return f.FormatError(err)
		}
		line = fmt.Sprintf("👋 Checked out: guest=%s room=%s days=%d rent=%s paid=%s (%s)",
			c.Name, rooms(c.Rooms), c.DaysStayed, amount(c.TotalRent), amount(c.TotalPaid), c.PaymentTallyStatus)
	case desk.CollectionReservations:
		var r desk.Reservation
		if err := e.Decode(&r); err != nil {
			return f.FormatError(err)
		}
		line = fmt.Sprintf("📅 Reservation %s: guest=%s room=%d date=%s", verb, r.Name, int(r.Room), r.Date)
	default:
		line = fmt.Sprintf("📝 %s entry %s: id=%s", e.Collection, verb, e.ID)
	}

	_, err := fmt.Fprintln(f.writer, line)
	return err
}

func (f *defaultFormatter) FormatError(err error) error {
	_, werr := fmt.Fprintf(f.writer, "⚠️  Skipped event: %v\n", err)
	return werr
}

// jsonFormatter renders one JSON object per line.
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

func (f *jsonFormatter) FormatState(prev, next *desk.State) error {
	if prev == nil {
		return f.write(map[string]any{"event": "state_loaded", "updated_at": next.UpdatedAt})
	}
	for _, c := range DiffRooms(prev, next) {
		if err := f.write(map[string]any{"event": "room_changed", "change": c}); err != nil {
			return err
		}
	}
	return nil
}

func (f *jsonFormatter) FormatLedger(ev *desk.LedgerEvent) error {
	if ev == nil || ev.Entry == nil {
		return nil
	}
	return f.write(map[string]any{
		"event":      "ledger_" + string(ev.Op),
		"collection": ev.Entry.Collection,
		"id":         ev.Entry.ID,
		"record":     ev.Entry.Payload,
	})
}

func (f *jsonFormatter) FormatError(err error) error {
	return f.write(map[string]any{"event": "error", "error": err.Error()})
}

func amount(n desk.Number) string {
	return strconv.FormatFloat(n.Float(), 'f', -1, 64)
}

func rooms(l desk.RoomList) string {
	if len(l) == 1 {
		return strconv.Itoa(l[0])
	}
	data, _ := json.Marshal(l)
	return string(data)
}
