package desk

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"gitlab.com/tozd/go/errors"
)

// Subscription represents an active Pub/Sub subscription.
// Caller must call Close() when done to clean up resources.
type Subscription[T any] struct {
	events <-chan T
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of decoded events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription[T]) Events() <-chan T {
	return s.events
}

// Errors returns the channel of subscription errors.
// Undecodable messages are reported here and skipped.
func (s *Subscription[T]) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription[T]) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeStateEvents subscribes to full state broadcasts for this hotel.
//
// Events are delivered on a buffered channel (size 10).
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub (at-most-once delivery).
func (c *Client) SubscribeStateEvents(ctx context.Context) (*Subscription[*State], error) {
	return subscribe[State](ctx, c.rdb, StateEventsChannel(c.hotel), "state")
}

// SubscribeLedgerEvents subscribes to ledger writes for this hotel.
func (c *Client) SubscribeLedgerEvents(ctx context.Context) (*Subscription[*LedgerEvent], error) {
	return subscribe[LedgerEvent](ctx, c.rdb, LedgerEventsChannel(c.hotel), "ledger")
}

func subscribe[T any](ctx context.Context, rdb *redis.Client, channel, kind string) (*Subscription[*T], error) {
	pubsub := rdb.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so no publish after return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Errorf("failed to subscribe to %s events: %w", kind, err)
	}

	eventsChan := make(chan *T, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				v := new(T)
				if err := json.Unmarshal([]byte(msg.Payload), v); err != nil {
					select {
					case errorsChan <- errors.Errorf("failed to unmarshal %s event: %w", kind, err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- v:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription[*T]{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
