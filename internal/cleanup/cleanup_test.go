package cleanup

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaahman/refreshment/internal/storage"
)

func newTestJanitor(t *testing.T, delay time.Duration) (*Janitor, storage.Storage) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:3001/media",
	}, logger)
	require.NoError(t, err)

	return NewJanitor(store, delay, logger), store
}

func stage(t *testing.T, store storage.Storage, key string) {
	t.Helper()
	err := store.Put(context.Background(), key, strings.NewReader("staged"), storage.PutOptions{})
	require.NoError(t, err)
}

func waitGone(t *testing.T, store storage.Storage, key string, within time.Duration) {
	t.Helper()

	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		exists, err := store.Exists(context.Background(), key)
		require.NoError(t, err)
		if !exists {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("key %q still exists after %v", key, within)
}

func TestJanitor_DeletesAfterDelay(t *testing.T) {
	janitor, store := newTestJanitor(t, 50*time.Millisecond)
	key := "attachments/delayed.pdf"
	stage(t, store, key)

	janitor.Schedule(key)

	// Still present before the delay elapses
	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)

	waitGone(t, store, key, 2*time.Second)
}

func TestJanitor_StopFlushesPending(t *testing.T) {
	janitor, store := newTestJanitor(t, time.Hour)
	key := "attachments/pending.pdf"
	stage(t, store, key)

	janitor.Schedule(key)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	janitor.Stop(ctx)

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists, "pending deletion must flush on stop")
}

func TestJanitor_DeleteNow(t *testing.T) {
	janitor, store := newTestJanitor(t, time.Hour)
	key := "attachments/immediate.pdf"
	stage(t, store, key)

	janitor.DeleteNow(context.Background(), key)

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJanitor_DeleteNowMissingKey(t *testing.T) {
	janitor, _ := newTestJanitor(t, time.Hour)

	// Local storage deletes are idempotent, so this must not panic or block
	janitor.DeleteNow(context.Background(), "attachments/never-staged.pdf")
}
