// Package cleanup removes staged attachments from storage after a fixed
// delay. Attachments exist only long enough to be mailed out; the janitor
// guarantees they do not accumulate.
package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yaahman/refreshment/internal/metrics"
	"github.com/yaahman/refreshment/internal/storage"
)

// DefaultDelay is how long a staged attachment survives after its booking
// has been processed.
const DefaultDelay = 30 * time.Second

// deleteTimeout bounds each storage delete during normal operation and
// during drain.
const deleteTimeout = 10 * time.Second

// Janitor schedules deferred deletion of staged attachments.
// Pending deletions are flushed immediately when the janitor is stopped,
// so staged files never outlive the process.
type Janitor struct {
	store  storage.Storage
	delay  time.Duration
	logger *slog.Logger

	// Synchronization
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewJanitor creates a Janitor deleting keys after the given delay.
// A non-positive delay falls back to DefaultDelay.
func NewJanitor(store storage.Storage, delay time.Duration, logger *slog.Logger) *Janitor {
	if delay <= 0 {
		delay = DefaultDelay
	}

	return &Janitor{
		store:  store,
		delay:  delay,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Schedule queues the key for deletion after the configured delay.
// Returns immediately; the deletion runs on its own goroutine.
func (j *Janitor) Schedule(key string) {
	j.wg.Add(1)

	go func() {
		defer j.wg.Done()

		timer := time.NewTimer(j.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-j.stopCh:
			// Shutting down, flush the pending deletion now
		}

		j.delete(key)
	}()

	j.logger.Debug("scheduled attachment cleanup", "key", key, "delay", j.delay)
}

// DeleteNow removes the key immediately, bypassing the delay.
// Used when request processing fails before dispatch completes.
func (j *Janitor) DeleteNow(ctx context.Context, key string) {
	if err := j.store.Delete(ctx, key); err != nil {
		j.logger.Error("failed to delete staged attachment", "key", key, "error", err)
		metrics.AttachmentsCleaned.WithLabelValues("failed").Inc()
		return
	}

	metrics.AttachmentsCleaned.WithLabelValues("deleted").Inc()
}

// Stop flushes all pending deletions and waits for them to finish.
// Returns early if the context expires first.
func (j *Janitor) Stop(ctx context.Context) {
	j.logger.Info("stopping attachment janitor...")
	close(j.stopCh)

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("attachment janitor stopped")
	case <-ctx.Done():
		j.logger.Warn("janitor shutdown timeout exceeded, some deletions may be pending")
	}
}

func (j *Janitor) delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := j.store.Delete(ctx, key); err != nil {
		j.logger.Error("failed to clean up staged attachment", "key", key, "error", err)
		metrics.AttachmentsCleaned.WithLabelValues("failed").Inc()
		return
	}

	j.logger.Debug("cleaned up staged attachment", "key", key)
	metrics.AttachmentsCleaned.WithLabelValues("deleted").Inc()
}
