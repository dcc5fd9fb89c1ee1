package desk

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gitlab.com/tozd/go/errors"
)

// Client provides hotel-scoped Redis operations for the front-desk store.
// All keys and channels are automatically namespaced with the hotel name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb   *redis.Client
	hotel string
	now   func() time.Time
}

// NewClient creates a new store client for the specified hotel.
// Returns an error if hotel is empty.
func NewClient(redisOpts *redis.Options, hotel string) (*Client, error) {
	if hotel == "" {
		return nil, errors.New("hotel name cannot be empty")
	}

	return &Client{
		rdb:   redis.NewClient(redisOpts),
		hotel: hotel,
		now:   time.Now,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Hotel returns the namespace this client writes to.
func (c *Client) Hotel() string {
	return c.hotel
}

// RedisClient exposes the underlying connection for SCAN-style tooling.
func (c *Client) RedisClient() *redis.Client {
	return c.rdb
}

// SaveState replaces the singleton state document and broadcasts it.
// UpdatedAt is stamped with the current time before writing.
func (c *Client) SaveState(ctx context.Context, s *State) error {
	if s == nil {
		return errors.New("state cannot be nil")
	}

	now := c.now().UTC()
	s.UpdatedAt = now.Format(time.RFC3339)

	hash, err := StateToHash(s, now.UnixMilli())
	if err != nil {
		return err
	}

	if err := c.rdb.HSet(ctx, StateKey(c.hotel), hash).Err(); err != nil {
		return errors.Errorf("failed to write state to Redis: %w", err)
	}

	return c.PublishState(ctx, s)
}

// LoadState reads the singleton state document.
// Returns (nil, redis.Nil) if no state has been saved yet.
func (c *Client) LoadState(ctx context.Context) (*State, error) {
	hash, err := c.rdb.HGetAll(ctx, StateKey(c.hotel)).Result()
	if err != nil {
		return nil, errors.Errorf("failed to read state from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, redis.Nil
	}

	s, err := HashToState(hash)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, redis.Nil
	}
	return s, nil
}

// PublishState broadcasts a state to live subscribers without persisting it.
func (c *Client) PublishState(ctx context.Context, s *State) error {
	stateJSON, err := json.Marshal(s)
	if err != nil {
		return errors.Errorf("failed to marshal state for event: %w", err)
	}
	if err := c.rdb.Publish(ctx, StateEventsChannel(c.hotel), stateJSON).Err(); err != nil {
		return errors.Errorf("failed to publish state event: %w", err)
	}
	return nil
}

// AppendEntry writes a new ledger record and publishes a created event.
// The record is JSON-encoded into the entry payload. Writing the same id twice
// overwrites the payload but keeps the original position in the index.
func (c *Client) AppendEntry(ctx context.Context, coll Collection, id string, record any) (*Entry, error) {
	if err := coll.Validate(); err != nil {
		return nil, errors.Errorf("invalid entry: %w", err)
	}
	if id == "" {
		return nil, errors.New("invalid entry: id cannot be empty")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Errorf("failed to serialize %s entry: %w", coll, err)
	}

	entry := &Entry{
		ID:          id,
		Collection:  coll,
		CreatedAtMs: c.now().UnixMilli(),
		Payload:     payload,
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, EntryKey(c.hotel, coll, id), EntryToHash(entry))
		pipe.ZAddNX(ctx, EntryIndexKey(c.hotel, coll), redis.Z{
			Score:  float64(entry.CreatedAtMs),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("failed to write %s entry to Redis: %w", coll, err)
	}

	if err := c.publishLedger(ctx, LedgerOpCreated, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntry retrieves a ledger entry by id.
// Returns (nil, redis.Nil) if the entry doesn't exist.
func (c *Client) GetEntry(ctx context.Context, coll Collection, id string) (*Entry, error) {
	hash, err := c.rdb.HGetAll(ctx, EntryKey(c.hotel, coll, id)).Result()
	if err != nil {
		return nil, errors.Errorf("failed to read %s entry from Redis: %w", coll, err)
	}
	if len(hash) == 0 {
		return nil, redis.Nil
	}

	entry, err := HashToEntry(hash)
	if err != nil {
		return nil, errors.Errorf("failed to deserialize %s entry %s: %w", coll, id, err)
	}
	return entry, nil
}

// UpdateEntry replaces the payload of an existing entry and publishes an updated event.
// Returns redis.Nil if the entry doesn't exist.
func (c *Client) UpdateEntry(ctx context.Context, coll Collection, id string, record any) error {
	entry, err := c.GetEntry(ctx, coll, id)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Errorf("failed to serialize %s entry: %w", coll, err)
	}
	entry.Payload = payload

	if err := c.rdb.HSet(ctx, EntryKey(c.hotel, coll, id), "payload", string(payload)).Err(); err != nil {
		return errors.Errorf("failed to update %s entry in Redis: %w", coll, err)
	}

	return c.publishLedger(ctx, LedgerOpUpdated, entry)
}

// DeleteEntry removes an entry and its index member and publishes a deleted event.
// Returns redis.Nil if the entry doesn't exist.
func (c *Client) DeleteEntry(ctx context.Context, coll Collection, id string) error {
	var del *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, EntryKey(c.hotel, coll, id))
		pipe.ZRem(ctx, EntryIndexKey(c.hotel, coll), id)
		return nil
	})
	if err != nil {
		return errors.Errorf("failed to delete %s entry from Redis: %w", coll, err)
	}
	if del.Val() == 0 {
		return redis.Nil
	}

	return c.publishLedger(ctx, LedgerOpDeleted, &Entry{ID: id, Collection: coll, Payload: json.RawMessage("null")})
}

// ListEntries returns every entry of a collection, oldest first.
// Index members whose hash has gone missing are skipped.
func (c *Client) ListEntries(ctx context.Context, coll Collection) ([]*Entry, error) {
	if err := coll.Validate(); err != nil {
		return nil, err
	}

	ids, err := c.rdb.ZRange(ctx, EntryIndexKey(c.hotel, coll), 0, -1).Result()
	if err != nil {
		return nil, errors.Errorf("failed to read %s index: %w", coll, err)
	}

	entries := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := c.GetEntry(ctx, coll, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtMs < entries[j].CreatedAtMs
	})
	return entries, nil
}

// ListRentPayments decodes the rent ledger. Entry ids fill in missing record ids.
func (c *Client) ListRentPayments(ctx context.Context) ([]RentPayment, error) {
	return listDecoded(ctx, c, CollectionRentPayments, func(p *RentPayment, id string) {
		if p.ID == "" {
			p.ID = id
		}
	})
}

// ListExpenses decodes the expense ledger.
func (c *Client) ListExpenses(ctx context.Context) ([]Expense, error) {
	return listDecoded(ctx, c, CollectionExpenses, func(e *Expense, id string) {
		if e.ID == "" {
			e.ID = id
		}
	})
}

// ListCheckins decodes the check-in ledger.
func (c *Client) ListCheckins(ctx context.Context) ([]CheckinRecord, error) {
	return listDecoded(ctx, c, CollectionCheckins, func(r *CheckinRecord, id string) {
		if r.EntryID == "" {
			r.EntryID = id
		}
	})
}

// ListCheckouts decodes the checkout ledger.
func (c *Client) ListCheckouts(ctx context.Context) ([]CheckoutRecord, error) {
	return listDecoded(ctx, c, CollectionCheckouts, func(r *CheckoutRecord, id string) {
		if r.EntryID == "" {
			r.EntryID = id
		}
	})
}

// ListReservations decodes the reservation ledger.
func (c *Client) ListReservations(ctx context.Context) ([]Reservation, error) {
	return listDecoded(ctx, c, CollectionReservations, func(r *Reservation, id string) {
		if r.ID == "" {
			r.ID = id
		}
	})
}

func listDecoded[T any](ctx context.Context, c *Client, coll Collection, fill func(*T, string)) ([]T, error) {
	entries, err := c.ListEntries(ctx, coll)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		var v T
		if err := entry.Decode(&v); err != nil {
			return nil, err
		}
		if fill != nil {
			fill(&v, entry.ID)
		}
		out = append(out, v)
	}
	return out, nil
}

// FullState returns the singleton state with its ledgers filled in.
// Ledger lists the singleton leaves empty are read from the collections. When no
// singleton exists the state is assembled from the collections over an empty grid.
func (c *Client) FullState(ctx context.Context, layout Layout) (*State, error) {
	state, err := c.LoadState(ctx)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		state = layout.EmptyState()
	}
	if state.Floors == nil {
		state.Floors = layout.EmptyFloors()
	}

	if len(state.Checkins) == 0 {
		if state.Checkins, err = c.ListCheckins(ctx); err != nil {
			return nil, err
		}
	}
	if len(state.Checkouts) == 0 {
		if state.Checkouts, err = c.ListCheckouts(ctx); err != nil {
			return nil, err
		}
	}
	if len(state.Reservations) == 0 {
		if state.Reservations, err = c.ListReservations(ctx); err != nil {
			return nil, err
		}
	}
	if len(state.RentPayments) == 0 {
		if state.RentPayments, err = c.ListRentPayments(ctx); err != nil {
			return nil, err
		}
	}
	if len(state.Expenses) == 0 {
		if state.Expenses, err = c.ListExpenses(ctx); err != nil {
			return nil, err
		}
	}
	if state.Guests == nil {
		state.Guests = []GuestEntry{}
	}

	return state, nil
}

// OutboxItem is the latest state waiting to be pushed to the remote API.
type OutboxItem struct {
	State      *State
	Hash       string
	QueuedAtMs int64
}

// SetOutbox stores a state for a later remote push. Only the latest state is kept.
func (c *Client) SetOutbox(ctx context.Context, s *State, hash string) error {
	stateJSON, err := json.Marshal(s)
	if err != nil {
		return errors.Errorf("failed to marshal outbox state: %w", err)
	}
	err = c.rdb.HSet(ctx, OutboxKey(c.hotel), map[string]interface{}{
		"state":        string(stateJSON),
		"hash":         hash,
		"queued_at_ms": c.now().UnixMilli(),
	}).Err()
	if err != nil {
		return errors.Errorf("failed to write outbox: %w", err)
	}
	return nil
}

// GetOutbox reads the queued state.
// Returns (nil, redis.Nil) if the outbox is empty.
func (c *Client) GetOutbox(ctx context.Context) (*OutboxItem, error) {
	hash, err := c.rdb.HGetAll(ctx, OutboxKey(c.hotel)).Result()
	if err != nil {
		return nil, errors.Errorf("failed to read outbox: %w", err)
	}
	if len(hash) == 0 {
		return nil, redis.Nil
	}

	s, err := HashToState(hash)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, redis.Nil
	}

	item := &OutboxItem{State: s, Hash: hash["hash"]}
	if ms, err := strconv.ParseInt(hash["queued_at_ms"], 10, 64); err == nil {
		item.QueuedAtMs = ms
	}
	return item, nil
}

// ClearOutbox drops the queued state.
func (c *Client) ClearOutbox(ctx context.Context) error {
	if err := c.rdb.Del(ctx, OutboxKey(c.hotel)).Err(); err != nil {
		return errors.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}

func (c *Client) publishLedger(ctx context.Context, op LedgerOp, entry *Entry) error {
	eventJSON, err := json.Marshal(&LedgerEvent{Op: op, Entry: entry})
	if err != nil {
		return errors.Errorf("failed to marshal ledger event: %w", err)
	}
	if err := c.rdb.Publish(ctx, LedgerEventsChannel(c.hotel), eventJSON).Err(); err != nil {
		return errors.Errorf("failed to publish ledger event: %w", err)
	}
	return nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
