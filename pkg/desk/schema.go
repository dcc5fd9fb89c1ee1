package desk

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// Redis key pattern helpers
//
// Key pattern: frontdesk:{hotel}:{entity}[:{id}]
// Channel pattern: frontdesk:{hotel}:{event_type}_events

// Collection names a ledger stored in Redis and mirrored to a folder on disk.
type Collection string

const (
	CollectionCheckins     Collection = "checkins"
	CollectionCheckouts    Collection = "checkouts"
	CollectionReservations Collection = "reservations"
	CollectionRentPayments Collection = "rent_payments"
	CollectionExpenses     Collection = "expenses"
)

// Collections lists every ledger in display order.
var Collections = []Collection{
	CollectionCheckins,
	CollectionCheckouts,
	CollectionReservations,
	CollectionRentPayments,
	CollectionExpenses,
}

// Validate checks if the Collection is a known ledger.
func (c Collection) Validate() error {
	switch c {
	case CollectionCheckins, CollectionCheckouts, CollectionReservations,
		CollectionRentPayments, CollectionExpenses:
		return nil
	default:
		return errors.Errorf("unknown collection: %q", c)
	}
}

// Folder returns the top-level folder the collection is mirrored to on disk.
func (c Collection) Folder() string {
	switch c {
	case CollectionCheckins:
		return "Checkins"
	case CollectionCheckouts:
		return "Checkouts"
	case CollectionReservations:
		return "Reservations"
	case CollectionRentPayments:
		return "RentCollections"
	case CollectionExpenses:
		return "Expenses"
	default:
		return string(c)
	}
}

// ParseCollection accepts a collection name or its disk folder name.
func ParseCollection(s string) (Collection, error) {
	for _, c := range Collections {
		if s == string(c) || s == c.Folder() {
			return c, nil
		}
	}
	switch s {
	case "rentPayments", "rent":
		return CollectionRentPayments, nil
	case "expense":
		return CollectionExpenses, nil
	}
	return "", errors.Errorf("unknown collection: %q", s)
}

// StateKey returns the Redis key for the singleton state hash.
// Pattern: frontdesk:{hotel}:state
func StateKey(hotel string) string {
	return fmt.Sprintf("frontdesk:%s:state", hotel)
}

// OutboxKey returns the Redis key holding the latest state not yet pushed to the remote API.
// Pattern: frontdesk:{hotel}:outbox
func OutboxKey(hotel string) string {
	return fmt.Sprintf("frontdesk:%s:outbox", hotel)
}

// EntryKey returns the Redis key for a ledger entry hash.
// Pattern: frontdesk:{hotel}:{collection}:{id}
func EntryKey(hotel string, c Collection, id string) string {
	return fmt.Sprintf("frontdesk:%s:%s:%s", hotel, c, id)
}

// EntryIndexKey returns the Redis key for a collection's ZSET index, scored by creation time.
// Pattern: frontdesk:{hotel}:{collection}_index
func EntryIndexKey(hotel string, c Collection) string {
	return fmt.Sprintf("frontdesk:%s:%s_index", hotel, c)
}

// StateEventsChannel returns the Pub/Sub channel carrying full state broadcasts.
// Pattern: frontdesk:{hotel}:state_events
func StateEventsChannel(hotel string) string {
	return fmt.Sprintf("frontdesk:%s:state_events", hotel)
}

// LedgerEventsChannel returns the Pub/Sub channel carrying ledger writes.
// Pattern: frontdesk:{hotel}:ledger_events
func LedgerEventsChannel(hotel string) string {
	return fmt.Sprintf("frontdesk:%s:ledger_events", hotel)
}
