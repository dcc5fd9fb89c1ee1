package desk

import (
	"encoding/json"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Ledger entries are stored as hashes with a few queryable fields and the
// record itself JSON-encoded into a single payload field. The state singleton
// is stored the same way, one JSON document plus its update time.

// Entry is a ledger record as stored in Redis.
type Entry struct {
	ID          string          `json:"id"`
	Collection  Collection      `json:"collection"`
	CreatedAtMs int64           `json:"created_at_ms"`
	Payload     json.RawMessage `json:"payload"`
}

// Decode unmarshals the entry payload into v.
func (e *Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Errorf("failed to decode %s entry %s: %w", e.Collection, e.ID, err)
	}
	return nil
}

// LedgerOp is the kind of ledger write carried by a LedgerEvent.
type LedgerOp string

const (
	LedgerOpCreated LedgerOp = "created"
	LedgerOpUpdated LedgerOp = "updated"
	LedgerOpDeleted LedgerOp = "deleted"
)

// LedgerEvent is published on the ledger channel after every write.
type LedgerEvent struct {
	Op    LedgerOp `json:"op"`
	Entry *Entry   `json:"entry"`
}

// EntryToHash converts an Entry to a Redis hash.
func EntryToHash(e *Entry) map[string]interface{} {
	return map[string]interface{}{
		"id":            e.ID,
		"collection":    string(e.Collection),
		"created_at_ms": e.CreatedAtMs,
		"payload":       string(e.Payload),
	}
}

// HashToEntry converts a Redis hash to an Entry.
func HashToEntry(hash map[string]string) (*Entry, error) {
	createdAtMs, err := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	if err != nil {
		return nil, errors.Errorf("invalid created_at_ms field: %w", err)
	}

	payload := hash["payload"]
	if payload == "" {
		return nil, errors.New("entry payload is empty")
	}
	if !json.Valid([]byte(payload)) {
		return nil, errors.New("entry payload is not valid JSON")
	}

	return &Entry{
		ID:          hash["id"],
		Collection:  Collection(hash["collection"]),
		CreatedAtMs: createdAtMs,
		Payload:     json.RawMessage(payload),
	}, nil
}

// StateToHash converts a State to the singleton Redis hash.
func StateToHash(s *State, updatedAtMs int64) (map[string]interface{}, error) {
	stateJSON, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Errorf("failed to marshal state: %w", err)
	}
	return map[string]interface{}{
		"state":         string(stateJSON),
		"updated_at_ms": updatedAtMs,
	}, nil
}

// HashToState converts the singleton Redis hash back to a State.
// Returns (nil, nil) when the hash exists but holds no state, the same as a
// freshly initialized singleton document.
func HashToState(hash map[string]string) (*State, error) {
	raw := hash["state"]
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.Errorf("failed to unmarshal state: %w", err)
	}
	return &s, nil
}
