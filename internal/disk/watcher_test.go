package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	s := setupStore(t)
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	changes := make(chan []string, 4)
	w, err := s.NewWatcher(50*time.Millisecond, func(_ context.Context, paths []string) {
		changes <- paths
	})
	require.NoError(t, err)
	go w.Run(ctx)

	t.Run("reports json writes in new date folders", func(t *testing.T) {
		dir := filepath.Join(s.Base(), "Expenses", "2024-03-01")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		// Give the watcher a moment to pick up the new folder.
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "expense-a.json"), []byte(`{}`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0o644))

		select {
		case paths := <-changes:
			assert.Equal(t, []string{"Expenses/2024-03-01/expense-a.json"}, paths)
		case <-time.After(3 * time.Second):
			t.Fatal("timeout waiting for change")
		}
	})

	t.Run("ignores the shared snapshot", func(t *testing.T) {
		_, err := s.WriteSharedSnapshot(ctx, emptyState(), 10, time.Now())
		require.NoError(t, err)

		select {
		case paths := <-changes:
			t.Fatalf("unexpected change: %v", paths)
		case <-time.After(300 * time.Millisecond):
		}
	})

	cancel()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcher_NoBase(t *testing.T) {
	_, err := New("").NewWatcher(time.Millisecond, func(context.Context, []string) {})
	assert.ErrorIs(t, err, ErrNoBase)
}
