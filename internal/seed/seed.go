// Package seed imports a front desk from a JSONC file: an optional grid state
// plus ledger documents, written to Redis and mirrored into the folder tree.
//
// A seed file looks like:
//
//	{
//	  // grid and reservations
//	  "state": {"floors": {...}, "guests": [], "reservations": []},
//	  "rentPayments": [{"id": "p1", "name": "Asha", "room": 101, "amount": 2500, "mode": "Cash", "date": "2024-03-01T10:00:00+05:30"}],
//	  "expenses": [],
//	}
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
	"gitlab.com/tozd/go/errors"
)

// File is a parsed seed file.
type File struct {
	State        *desk.State      `json:"state,omitempty"`
	Checkins     []map[string]any `json:"checkins,omitempty"`
	Checkouts    []map[string]any `json:"checkouts,omitempty"`
	Reservations []map[string]any `json:"reservations,omitempty"`
	RentPayments []map[string]any `json:"rentPayments,omitempty"`
	Expenses     []map[string]any `json:"expenses,omitempty"`
}

// Documents returns the ledger documents grouped by collection.
func (f *File) Documents() map[desk.Collection][]map[string]any {
	return map[desk.Collection][]map[string]any{
		desk.CollectionCheckins:     f.Checkins,
		desk.CollectionCheckouts:    f.Checkouts,
		desk.CollectionReservations: f.Reservations,
		desk.CollectionRentPayments: f.RentPayments,
		desk.CollectionExpenses:     f.Expenses,
	}
}

// Parse strips JSONC comments and trailing commas, then decodes a seed file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return nil, errors.Errorf("parsing seed file: %w", err)
	}
	if f.State == nil && len(f.Checkins)+len(f.Checkouts)+len(f.Reservations)+len(f.RentPayments)+len(f.Expenses) == 0 {
		return nil, errors.New("seed file has no state and no ledger entries")
	}
	return &f, nil
}

// ReadFile reads and parses a seed file from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading seed file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Target is where a seed is written. Disk may be nil.
type Target struct {
	Store *desk.Client
	Disk  *disk.Store
	Now   func() time.Time
}

// Report counts what Apply wrote.
type Report struct {
	State   bool
	Entries map[desk.Collection]int
	Files   int
}

// Total is the number of ledger entries written.
func (r *Report) Total() int {
	n := 0
	for _, c := range r.Entries {
		n += c
	}
	return n
}

// Apply writes every ledger document and, when present, the state.
// Documents keep their id; those without one get a new uuid.
// The state is saved but not mirrored; callers commit it through the desk.
func Apply(ctx context.Context, t Target, f *File) (*Report, error) {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.Ctx(ctx)
	report := &Report{Entries: map[desk.Collection]int{}}

	docs := f.Documents()
	for _, coll := range desk.Collections {
		for i, doc := range docs[coll] {
			id := documentID(coll, doc)
			if id == "" {
				id = uuid.NewString()
				doc[idField(coll)] = id
			}
			if _, err := t.Store.AppendEntry(ctx, coll, id, doc); err != nil {
				return report, errors.Errorf("%s[%d]: %w", coll, i, err)
			}
			report.Entries[coll]++

			if t.Disk == nil || !t.Disk.Available() {
				continue
			}
			if _, err := mirror(t.Disk, coll, doc, now()); err != nil {
				logger.Warn().Err(err).Str("collection", string(coll)).Str("id", id).Msg("failed to mirror seed entry")
				continue
			}
			report.Files++
		}
	}

	if f.State != nil {
		if err := t.Store.SaveState(ctx, f.State); err != nil {
			return report, err
		}
		report.State = true
	}
	return report, nil
}

// mirror writes a document into the folder tree. Check-ins and reservations
// go through their typed writers so file names match what checkout and
// cancellation look up; everything else is upserted as-is.
func mirror(store *disk.Store, coll desk.Collection, doc map[string]any, now time.Time) (string, error) {
	switch coll {
	case desk.CollectionCheckins:
		var rec desk.CheckinRecord
		if err := convert(doc, &rec); err != nil {
			return "", err
		}
		return store.WriteCheckin(&rec)
	case desk.CollectionReservations:
		var r desk.Reservation
		if err := convert(doc, &r); err != nil {
			return "", err
		}
		return store.WriteReservation(&r)
	default:
		return store.Upsert(coll, doc, now)
	}
}

func convert(doc map[string]any, v any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// idField is the document field holding the ledger id. Check-in records use
// "id" for the identity document number.
func idField(coll desk.Collection) string {
	if coll == desk.CollectionCheckins || coll == desk.CollectionCheckouts {
		return "entryId"
	}
	return "id"
}

func documentID(coll desk.Collection, doc map[string]any) string {
	v, ok := doc[idField(coll)]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
