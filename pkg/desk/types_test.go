package desk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStatus_Validate(t *testing.T) {
	for _, s := range []RoomStatus{RoomStatusFree, RoomStatusOccupied, RoomStatusReserved} {
		assert.NoError(t, s.Validate(), s)
	}
	assert.Error(t, RoomStatus("cleaning").Validate())
}

func TestParsePaymentMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PaymentMode
		wantErr bool
	}{
		{"Cash", PaymentModeCash, false},
		{"cash", PaymentModeCash, false},
		{" GPAY ", PaymentModeGPay, false},
		{"card", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePaymentMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayout_EmptyFloors(t *testing.T) {
	floors := DefaultLayout().EmptyFloors()

	require.Len(t, floors, 5)
	for f := 1; f <= 5; f++ {
		require.Len(t, floors[f], 4)
		for i, room := range floors[f] {
			assert.Equal(t, f*100+i+1, room.Number)
			assert.Equal(t, RoomStatusFree, room.Status)
			assert.Equal(t, Number(2500), room.Rate)
			assert.Nil(t, room.Guest)
		}
	}
}

func TestState_FindRoom(t *testing.T) {
	s := DefaultLayout().EmptyState()

	room := s.FindRoom(302)
	require.NotNil(t, room)
	assert.Equal(t, 302, room.Number)

	room.Status = RoomStatusOccupied
	assert.Equal(t, RoomStatusOccupied, s.Floors[3][1].Status, "FindRoom returns a pointer into the grid")

	assert.Nil(t, s.FindRoom(999))
	assert.Nil(t, s.FindRoom(105))
}

func TestState_Rooms(t *testing.T) {
	rooms := DefaultLayout().EmptyState().Rooms()
	require.Len(t, rooms, 20)
	assert.Equal(t, 101, rooms[0].Number)
	assert.Equal(t, 504, rooms[19].Number)
}

func TestState_Clone(t *testing.T) {
	s := DefaultLayout().EmptyState()
	s.FindRoom(101).Guest = &Guest{Name: "Asha"}
	s.Expenses = append(s.Expenses, Expense{Description: "Soap", Amount: 40})

	c := s.Clone()
	c.FindRoom(101).Guest.Name = "Ravi"
	c.FindRoom(102).Status = RoomStatusOccupied
	c.Expenses[0].Amount = 99

	assert.Equal(t, "Asha", s.FindRoom(101).Guest.Name)
	assert.Equal(t, RoomStatusFree, s.FindRoom(102).Status)
	assert.Equal(t, Number(40), s.Expenses[0].Amount)

	var nilState *State
	assert.Nil(t, nilState.Clone())
}

func TestState_JSONShape(t *testing.T) {
	s := DefaultLayout().EmptyState()
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"floors", "guests", "reservations", "checkouts", "rentPayments", "expenses"} {
		assert.Contains(t, raw, key)
	}

	var floors map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw["floors"], &floors))
	assert.Contains(t, floors, "1")
	assert.Equal(t, float64(101), floors["1"][0]["number"])
}

func TestRentPayment_Validate(t *testing.T) {
	valid := RentPayment{Name: "Asha", Room: 101, Days: 1, Amount: 2500, Mode: PaymentModeCash}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*RentPayment)
	}{
		{"empty name", func(p *RentPayment) { p.Name = "  " }},
		{"no room", func(p *RentPayment) { p.Room = 0 }},
		{"zero days", func(p *RentPayment) { p.Days = 0 }},
		{"negative amount", func(p *RentPayment) { p.Amount = -5 }},
		{"bad mode", func(p *RentPayment) { p.Mode = "Card" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestExpense_LabelAndValidate(t *testing.T) {
	assert.Equal(t, "Soap", (&Expense{Description: "Soap", Category: "Supplies"}).Label())
	assert.Equal(t, "Supplies", (&Expense{Category: "Supplies", Note: "x"}).Label())
	assert.Equal(t, "x", (&Expense{Note: "x"}).Label())

	assert.NoError(t, (&Expense{Category: "Laundry", Amount: 10}).Validate())
	assert.Error(t, (&Expense{Amount: 10}).Validate())
	assert.Error(t, (&Expense{Description: "Soap"}).Validate())
}

func TestReservation_Validate(t *testing.T) {
	assert.NoError(t, (&Reservation{Name: "Asha", Room: 201, Date: "2024-03-01"}).Validate())
	assert.Error(t, (&Reservation{Room: 201, Date: "2024-03-01"}).Validate())
	assert.Error(t, (&Reservation{Name: "Asha", Date: "2024-03-01"}).Validate())
	assert.Error(t, (&Reservation{Name: "Asha", Room: 201, Date: "01-03-2024"}).Validate())
}

func TestCheckinRecord_Validate(t *testing.T) {
	assert.NoError(t, (&CheckinRecord{Name: "Asha", Rooms: RoomList{101, 102}}).Validate())
	assert.Error(t, (&CheckinRecord{Name: "Asha"}).Validate())
	assert.Error(t, (&CheckinRecord{Rooms: RoomList{101}}).Validate())
	assert.Error(t, (&CheckinRecord{Name: "Asha", Rooms: RoomList{101, -1}}).Validate())
}

func TestState_CloneKeepsEmptyLists(t *testing.T) {
	s := DefaultLayout().EmptyState()
	s.Guests = []GuestEntry{}
	s.Expenses = []Expense{}

	orig, err := json.Marshal(s)
	require.NoError(t, err)
	cloned, err := json.Marshal(s.Clone())
	require.NoError(t, err)

	assert.JSONEq(t, string(orig), string(cloned))
	assert.Contains(t, string(cloned), `"guests":[]`)
	assert.NotNil(t, s.Clone().Expenses)
}
