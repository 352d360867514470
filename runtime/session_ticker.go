// Package runtime owns the timer layer of the engine: the live session ticker
// and the supervised periodic workers under runtime/workers.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionTicker drives the live clocked-in duration display. At most one tick
// loop exists per ticker instance: Start always cancels the previous loop
// before launching a new one, so two timers can never run against the same
// store.
type SessionTicker struct {
	mu       sync.Mutex
	log      *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSessionTicker(log *slog.Logger, interval time.Duration) *SessionTicker {
	return &SessionTicker{log: log, interval: interval}
}

// Start begins ticking fn every interval until Stop or ctx cancellation.
// fn runs once immediately so the display never shows a stale value for a
// full interval after clock-in.
func (t *SessionTicker) Start(ctx context.Context, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	tickCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	fn()

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	t.log.Debug("Session ticker started", "interval", t.interval)
}

// Stop halts the current loop, if any, and waits for it to exit.
func (t *SessionTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *SessionTicker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
	t.log.Debug("Session ticker stopped")
}

// Active reports whether a tick loop is currently running.
func (t *SessionTicker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
