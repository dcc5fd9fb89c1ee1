package disk

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Watcher reports changes to JSON files anywhere in the folder tree.
// Bursts of events are debounced into a single callback.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	base        string
	debounceDur time.Duration
	pending     map[string]time.Time
	onChange    func(ctx context.Context, paths []string)
	doneCh      chan struct{}
}

// NewWatcher creates a watcher for every folder under the store's base.
// onChange receives the changed paths relative to the base.
func (s *Store) NewWatcher(debounce time.Duration, onChange func(ctx context.Context, paths []string)) (*Watcher, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:     fw,
		base:        s.base,
		debounceDur: debounce,
		pending:     make(map[string]time.Time),
		onChange:    onChange,
		doneCh:      make(chan struct{}),
	}

	if err := w.addTree(s.base); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every folder below it.
// Shared is skipped since snapshot writes would retrigger the watcher.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == SharedFolder && filepath.Dir(p) == w.base {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return errors.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

	logger := zerolog.Ctx(ctx)

	tick := w.debounceDur / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("file watcher error")

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// Done is closed once Run has returned.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to watch new folder")
			}
			return
		}
	}

	if !strings.HasSuffix(strings.ToLower(event.Name), ".json") {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".tmp-") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	// Wait for the whole burst to settle.
	now := time.Now()
	for _, at := range w.pending {
		if now.Sub(at) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		rel, err := filepath.Rel(w.base, p)
		if err != nil {
			rel = p
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	sort.Strings(paths)
	w.onChange(ctx, paths)
}
