package hotel

import (
	"context"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
)

// Summary is the day's overview shown on the dashboard.
type Summary struct {
	Date         string             `json:"date"`
	Total        int                `json:"total"`
	Occupied     int                `json:"occupied"`
	Free         int                `json:"free"`
	Reserved     int                `json:"reserved"`
	RentTotal    float64            `json:"rentTotal"`
	RentByMode   map[string]float64 `json:"rentByMode"`
	ExpenseTotal float64            `json:"expenseTotal"`
	Net          float64            `json:"net"`
	Arrivals     []desk.Reservation `json:"arrivals"`
}

// Summary counts rooms by grid status and totals the rent and expenses
// recorded on date.
func (d *Desk) Summary(ctx context.Context, date string) (*Summary, error) {
	state, err := d.State(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Date:       date,
		RentByMode: map[string]float64{},
		Arrivals:   []desk.Reservation{},
	}
	for _, rooms := range Grid(state, date) {
		for _, r := range rooms {
			sum.Total++
			switch r.Status {
			case desk.RoomStatusOccupied:
				sum.Occupied++
			case desk.RoomStatusReserved:
				sum.Reserved++
			default:
				sum.Free++
			}
		}
	}
	for _, r := range state.Reservations {
		if r.Date == date {
			sum.Arrivals = append(sum.Arrivals, r)
		}
	}

	rent, err := d.RentOn(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, p := range rent {
		sum.RentTotal += p.Amount.Float()
		sum.RentByMode[string(p.Mode)] += p.Amount.Float()
	}

	expenses, err := d.ExpensesOn(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		sum.ExpenseTotal += e.Amount.Float()
	}

	sum.Net = sum.RentTotal - sum.ExpenseTotal
	return sum, nil
}

// RentOn returns the payments recorded on date. The folder tree is read when
// attached, since it also holds payments written by other devices; otherwise
// the ledger is used.
func (d *Desk) RentOn(ctx context.Context, date string) ([]desk.RentPayment, error) {
	if d.diskAttached() {
		records, err := d.disk.ListRentOn(ctx, date)
		if err == nil {
			out := make([]desk.RentPayment, 0, len(records))
			for _, r := range records {
				out = append(out, r.Data)
			}
			return out, nil
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to read rent folder, using ledger")
	}

	all, err := d.store.ListRentPayments(ctx)
	if err != nil {
		return nil, err
	}
	var out []desk.RentPayment
	for _, p := range all {
		if localDate(p.Date) == date {
			out = append(out, p)
		}
	}
	return out, nil
}

// ExpensesOn returns the expenses recorded on date, preferring the folder tree like RentOn.
func (d *Desk) ExpensesOn(ctx context.Context, date string) ([]desk.Expense, error) {
	if d.diskAttached() {
		records, err := d.disk.ListExpensesOn(ctx, date)
		if err == nil {
			out := make([]desk.Expense, 0, len(records))
			for _, r := range records {
				out = append(out, r.Data)
			}
			return out, nil
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to read expense folder, using ledger")
	}

	all, err := d.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	var out []desk.Expense
	for _, e := range all {
		if localDate(e.Date) == date {
			out = append(out, e)
		}
	}
	return out, nil
}
