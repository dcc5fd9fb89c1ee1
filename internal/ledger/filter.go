// Package ledger lists, filters and formats the rent and expense ledgers for the CLI.
package ledger

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
)

// Filter defines filtering options for ledger listings.
// All filters are ANDed together.
type Filter struct {
	From  string // YYYY-MM-DD inclusive, empty = no filter
	To    string // YYYY-MM-DD inclusive, empty = no filter
	Mode  string // payment mode, case-insensitive, rent only
	Query string // substring of name, room, date or amount
}

// entryDate returns the calendar date of an RFC3339 ledger timestamp in its own offset.
// Anything that is not RFC3339 is returned cut to its first ten characters.
func entryDate(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.Format(desk.DateLayout)
	}
	if len(ts) > len(desk.DateLayout) {
		return ts[:len(desk.DateLayout)]
	}
	return ts
}

func (f *Filter) inRange(date string) bool {
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// MatchRent returns true if the payment matches all filter criteria.
func (f *Filter) MatchRent(p desk.RentPayment) bool {
	if f == nil {
		return true
	}
	date := entryDate(p.Date)
	if !f.inRange(date) {
		return false
	}
	if f.Mode != "" && !strings.EqualFold(strings.TrimSpace(f.Mode), string(p.Mode)) {
		return false
	}
	return containsFold([]string{
		p.Name,
		strconv.Itoa(int(p.Room)),
		date,
		formatAmount(p.Amount.Float()),
	}, f.Query)
}

// MatchExpense returns true if the expense matches all filter criteria.
// Mode does not apply to expenses.
func (f *Filter) MatchExpense(e desk.Expense) bool {
	if f == nil {
		return true
	}
	date := entryDate(e.Date)
	if !f.inRange(date) {
		return false
	}
	return containsFold([]string{
		e.Label(),
		e.Category,
		date,
		formatAmount(e.Amount.Float()),
	}, f.Query)
}

// FilterRent returns the matching payments, newest first.
func FilterRent(payments []desk.RentPayment, f *Filter) []desk.RentPayment {
	out := make([]desk.RentPayment, 0, len(payments))
	for _, p := range payments {
		if f.MatchRent(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return entryTime(out[i].Date).After(entryTime(out[j].Date))
	})
	return out
}

// FilterExpenses returns the matching expenses, newest first.
func FilterExpenses(expenses []desk.Expense, f *Filter) []desk.Expense {
	out := make([]desk.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.MatchExpense(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return entryTime(out[i].Date).After(entryTime(out[j].Date))
	})
	return out
}

// entryTime parses an RFC3339 or YYYY-MM-DD timestamp. Unparseable values sort last.
func entryTime(ts string) time.Time {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	if t, err := time.Parse(desk.DateLayout, entryDate(ts)); err == nil {
		return t
	}
	return time.Time{}
}

// Page returns page n (1-based) of items. A size of zero or less returns everything.
func Page[T any](items []T, n, size int) []T {
	if size <= 0 {
		return items
	}
	if n < 1 {
		n = 1
	}
	start := (n - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Totals sums a listing.
type Totals struct {
	Count  int                `json:"count"`
	Amount float64            `json:"amount"`
	ByMode map[string]float64 `json:"byMode,omitempty"`
}

// RentTotals sums payments overall and per mode.
func RentTotals(payments []desk.RentPayment) Totals {
	t := Totals{ByMode: map[string]float64{}}
	for _, p := range payments {
		t.Count++
		t.Amount += p.Amount.Float()
		t.ByMode[string(p.Mode)] += p.Amount.Float()
	}
	return t
}

// ExpenseTotals sums expenses.
func ExpenseTotals(expenses []desk.Expense) Totals {
	var t Totals
	for _, e := range expenses {
		t.Count++
		t.Amount += e.Amount.Float()
	}
	return t
}
