package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"
)

var header = color.New(color.Bold)

// FormatRentTable writes payments as a formatted table to the provided writer.
// The table includes columns: ID, DATE, ROOM, NAME, DAYS, MODE and AMOUNT,
// followed by the totals. Returns the number of payments formatted.
func FormatRentTable(w io.Writer, payments []desk.RentPayment, hotel string) int {
	if len(payments) == 0 {
		fmt.Fprintf(w, "No rent payments found for hotel '%s'\n", hotel)
		return 0
	}

	header.Fprintf(w, "Rent payments for hotel '%s':\n\n", hotel)

	fmt.Fprintf(w, "%-10s %-10s %-5s %-20s %-5s %-5s %10s\n",
		"ID", "DATE", "ROOM", "NAME", "DAYS", "MODE", "AMOUNT")
	fmt.Fprintf(w, "%-10s %-10s %-5s %-20s %-5s %-5s %10s\n",
		"----------", "----------", "-----", "--------------------", "-----", "-----", "----------")

	for _, p := range payments {
		fmt.Fprintf(w, "%-10s %-10s %-5d %-20s %-5s %-5s %10s\n",
			formatID(p.ID),
			entryDate(p.Date),
			int(p.Room),
			truncate(p.Name, 20),
			formatAmount(p.Days.Float()),
			string(p.Mode),
			formatAmount(p.Amount.Float()),
		)
	}

	totals := RentTotals(payments)
	fmt.Fprintf(w, "\n%s, total %s", plural(totals.Count, "payment"), formatAmount(totals.Amount))
	modes := make([]string, 0, len(totals.ByMode))
	for m := range totals.ByMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		fmt.Fprintf(w, " (%s %s)", m, formatAmount(totals.ByMode[m]))
	}
	fmt.Fprintln(w)

	return len(payments)
}

// FormatExpenseTable writes expenses as a formatted table to the provided writer.
// Returns the number of expenses formatted.
func FormatExpenseTable(w io.Writer, expenses []desk.Expense, hotel string) int {
	if len(expenses) == 0 {
		fmt.Fprintf(w, "No expenses found for hotel '%s'\n", hotel)
		return 0
	}

	header.Fprintf(w, "Expenses for hotel '%s':\n\n", hotel)

	fmt.Fprintf(w, "%-10s %-10s %-30s %10s\n", "ID", "DATE", "DESCRIPTION", "AMOUNT")
	fmt.Fprintf(w, "%-10s %-10s %-30s %10s\n",
		"----------", "----------", "------------------------------", "----------")

	for _, e := range expenses {
		fmt.Fprintf(w, "%-10s %-10s %-30s %10s\n",
			formatID(e.ID),
			entryDate(e.Date),
			truncate(e.Label(), 30),
			formatAmount(e.Amount.Float()),
		)
	}

	totals := ExpenseTotals(expenses)
	fmt.Fprintf(w, "\n%s, total %s\n", plural(totals.Count, "expense"), formatAmount(totals.Amount))

	return len(expenses)
}

// FormatJSONL writes records as line-delimited JSON (JSONL) to the provided writer.
// Each record is written as a single JSON object on its own line.
func FormatJSONL[T any](w io.Writer, records []T) error {
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return errors.Errorf("failed to marshal record to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return errors.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one record as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Errorf("failed to marshal record to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates ids to the first 8 characters for compact display.
func formatID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
