package reconcile

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/internal/remote"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Outbox holds the latest state the remote API has not accepted yet.
type Outbox interface {
	SetOutbox(ctx context.Context, s *desk.State, hash string) error
	GetOutbox(ctx context.Context) (*desk.OutboxItem, error)
	ClearOutbox(ctx context.Context) error
}

// HashState returns a hex blake3 digest of the state document.
// UpdatedAt is ignored so re-saving unchanged state hashes the same.
func HashState(s *desk.State) string {
	if s == nil {
		return ""
	}
	c := *s
	c.UpdatedAt = ""
	data, err := json.Marshal(&c)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MirrorReport describes what happened to each secondary copy.
type MirrorReport struct {
	Snapshot    bool
	SnapshotErr error
	Remote      bool
	RemoteErr   error
	Queued      bool
}

// Accepted tracks the hash of the last state the remote API accepted,
// whichever path sent it.
type Accepted struct {
	mu   sync.Mutex
	hash string
}

// Set records hash as the remote's current state.
func (a *Accepted) Set(hash string) {
	a.mu.Lock()
	a.hash = hash
	a.mu.Unlock()
}

// Is reports whether the remote already holds the state with hash.
func (a *Accepted) Is(hash string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hash != "" && hash == a.hash
}

// Mirror copies every saved state to the shared snapshot and the remote API.
type Mirror struct {
	disk     *disk.Store
	remote   RemoteAPI
	outbox   Outbox
	maxItems int
	now      func() time.Time
	accepted *Accepted
}

// NewMirror creates a mirror. disk and remote may be nil; outbox may be nil
// when failed remote pushes should simply be dropped.
func NewMirror(store *disk.Store, api RemoteAPI, outbox Outbox, maxItems int) *Mirror {
	return &Mirror{
		disk:     store,
		remote:   api,
		outbox:   outbox,
		maxItems: maxItems,
		now:      time.Now,
		accepted: &Accepted{},
	}
}

// Accepted returns the tracker shared with a Flusher for the same remote.
func (m *Mirror) Accepted() *Accepted {
	return m.accepted
}

// Publish writes the snapshot and pushes to the remote concurrently.
// Failures are logged and reported but never returned: mirroring is best-effort.
// A failed remote push leaves the state in the outbox for the Flusher.
func (m *Mirror) Publish(ctx context.Context, s *desk.State) MirrorReport {
	logger := zerolog.Ctx(ctx)
	var report MirrorReport
	var g errgroup.Group

	if m.disk.Available() {
		g.Go(func() error {
			if _, err := m.disk.WriteSharedSnapshot(ctx, s, m.maxItems, m.now()); err != nil {
				report.SnapshotErr = err
				logger.Warn().Err(err).Str("event", "mirror_snapshot_failed").Msg("failed to write shared snapshot")
				return nil
			}
			report.Snapshot = true
			return nil
		})
	}

	if m.remote != nil {
		g.Go(func() error {
			err := m.remote.SaveState(ctx, s)
			if errors.Is(err, remote.ErrNotConfigured) {
				return nil
			}
			if err != nil {
				report.RemoteErr = err
				logger.Warn().Err(err).Str("event", "mirror_remote_failed").Msg("remote push failed, queued for retry")
				report.Queued = m.queue(ctx, s)
				return nil
			}
			report.Remote = true
			m.accepted.Set(HashState(s))
			if m.outbox != nil {
				if err := m.outbox.ClearOutbox(ctx); err != nil {
					logger.Warn().Err(err).Msg("failed to clear outbox")
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	return report
}

func (m *Mirror) queue(ctx context.Context, s *desk.State) bool {
	if m.outbox == nil {
		return false
	}
	if err := m.outbox.SetOutbox(ctx, s, HashState(s)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to queue state in outbox")
		return false
	}
	return true
}

// Flusher retries the outbox against the remote API on a fixed interval.
type Flusher struct {
	remote   RemoteAPI
	outbox   Outbox
	interval time.Duration
	accepted *Accepted
}

// NewFlusher creates a flusher that runs every interval. accepted is shared
// with the Mirror pushing to the same remote; nil gives the flusher its own.
func NewFlusher(api RemoteAPI, outbox Outbox, interval time.Duration, accepted *Accepted) *Flusher {
	if accepted == nil {
		accepted = &Accepted{}
	}
	return &Flusher{remote: api, outbox: outbox, interval: interval, accepted: accepted}
}

// Run flushes the outbox every interval until ctx is cancelled.
func (f *Flusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := f.FlushOnce(ctx); err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("outbox flush failed, will retry")
			}
		}
	}
}

// FlushOnce pushes the queued state, if any. It returns true when a state was sent.
// A state the remote already accepted is dropped without a request.
func (f *Flusher) FlushOnce(ctx context.Context) (bool, error) {
	item, err := f.outbox.GetOutbox(ctx)
	if desk.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	hash := item.Hash
	if hash == "" {
		hash = HashState(item.State)
	}

	seen := f.accepted.Is(hash)

	if !seen {
		if err := f.remote.SaveState(ctx, item.State); err != nil {
			return false, err
		}
	}

	if err := f.outbox.ClearOutbox(ctx); err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	f.accepted.Set(hash)

	zerolog.Ctx(ctx).Info().Str("event", "outbox_flushed").Str("hash", shortHash(hash)).Msg("flushed outbox to remote")
	return true, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
