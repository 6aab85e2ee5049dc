package terminal

import (
	"context"
	"sync"
	"time"
)

// Tracker records per-terminal completion and parks callers waiting for it.
//
// A terminal's completion entry moves Pending -> Resolved exactly once,
// resolved by whichever completion signal arrives first; later signals are
// no-ops so a less precise source (e.g. a close event with no exit code)
// can never overwrite a real exit status.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*trackerEntry
}

type trackerEntry struct {
	resolved bool
	status   *ExitStatus
	waiters  []*waiter
}

type waiter struct {
	ch    chan *ExitStatus
	timer *time.Timer
}

// NewTracker creates an empty completion tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*trackerEntry)}
}

// Register creates a pending entry for a terminal.
func (t *Tracker) Register(terminalID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[terminalID]; !ok {
		t.entries[terminalID] = &trackerEntry{}
	}
}

// Resolve marks a terminal complete with the given status. Only the first
// call takes effect; it resolves every pending waiter in registration order
// and cancels their timers. Reports whether this call performed the
// resolution.
func (t *Tracker) Resolve(terminalID string, status *ExitStatus) bool {
	t.mu.Lock()
	entry, ok := t.entries[terminalID]
	if !ok || entry.resolved {
		t.mu.Unlock()
		return false
	}
	entry.resolved = true
	entry.status = status.Clone()
	waiters := entry.waiters
	entry.waiters = nil
	t.mu.Unlock()

	for _, w := range waiters {
		if w.timer != nil {
			w.timer.Stop()
		}
		w.ch <- entry.status.Clone()
	}
	return true
}

// Status returns the stored exit status and whether the terminal has
// resolved. Unknown terminals report unresolved.
func (t *Tracker) Status(terminalID string) (*ExitStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[terminalID]
	if !ok || !entry.resolved {
		return nil, false
	}
	return entry.status.Clone(), true
}

// Wait blocks until the terminal resolves, the timeout fires, or ctx is
// cancelled. A fired timeout removes only this waiter and yields (nil, nil):
// timeout is a defined outcome, not an error, and never affects the
// terminal's own state or other waiters. timeout <= 0 waits indefinitely.
// Unknown terminals yield (nil, nil) immediately so a caller racing a
// release degrades gracefully.
func (t *Tracker) Wait(ctx context.Context, terminalID string, timeout time.Duration) (*ExitStatus, error) {
	t.mu.Lock()
	entry, ok := t.entries[terminalID]
	if !ok {
		t.mu.Unlock()
		return nil, nil
	}
	if entry.resolved {
		status := entry.status.Clone()
		t.mu.Unlock()
		return status, nil
	}

	w := &waiter{ch: make(chan *ExitStatus, 1)}
	entry.waiters = append(entry.waiters, w)
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() {
			t.expire(terminalID, w)
		})
	}
	t.mu.Unlock()

	select {
	case status := <-w.ch:
		return status, nil
	case <-ctx.Done():
		t.remove(terminalID, w)
		if w.timer != nil {
			w.timer.Stop()
		}
		return nil, ctx.Err()
	}
}

// expire removes a timed-out waiter and resolves it with no status.
func (t *Tracker) expire(terminalID string, w *waiter) {
	if t.remove(terminalID, w) {
		w.ch <- nil
	}
}

// remove detaches one waiter from a terminal's queue. Reports whether the
// waiter was still queued (false when Resolve or Dispose got there first).
func (t *Tracker) remove(terminalID string, target *waiter) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[terminalID]
	if !ok {
		return false
	}
	for i, w := range entry.waiters {
		if w == target {
			entry.waiters = append(entry.waiters[:i], entry.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Dispose drops a terminal's entry. Pending waiters resolve with no status
// so nothing is left suspended after a release.
func (t *Tracker) Dispose(terminalID string) {
	t.mu.Lock()
	entry, ok := t.entries[terminalID]
	if !ok {
		t.mu.Unlock()
		return
	}
	waiters := entry.waiters
	entry.waiters = nil
	delete(t.entries, terminalID)
	t.mu.Unlock()

	for _, w := range waiters {
		if w.timer != nil {
			w.timer.Stop()
		}
		w.ch <- nil
	}
}
