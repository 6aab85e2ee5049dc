package terminal

import (
	"context"
	"sync"
	"testing"
	"time"
)

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func status(code int) *ExitStatus { return &ExitStatus{ExitCode: intPtr(code)} }

func TestTrackerResolveIsIdempotent(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	if !tracker.Resolve("t1", status(0)) {
		t.Fatal("first resolve must take effect")
	}
	if tracker.Resolve("t1", status(1)) {
		t.Fatal("second resolve must be a no-op")
	}

	got, resolved := tracker.Status("t1")
	if !resolved {
		t.Fatal("expected resolved")
	}
	if got == nil || got.ExitCode == nil || *got.ExitCode != 0 {
		t.Errorf("first status must win, got %+v", got)
	}
}

func TestTrackerLaterNilStatusDoesNotOverwrite(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	tracker.Resolve("t1", status(3))
	// A later, less precise signal (e.g. terminal closed) carries no status.
	tracker.Resolve("t1", nil)

	got, _ := tracker.Status("t1")
	if got == nil || got.ExitCode == nil || *got.ExitCode != 3 {
		t.Errorf("real exit code was overwritten: %+v", got)
	}
}

func TestTrackerWaitReturnsImmediatelyWhenResolved(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")
	tracker.Resolve("t1", status(7))

	start := time.Now()
	got, err := tracker.Wait(context.Background(), "t1", 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Error("wait on a resolved terminal must not suspend")
	}
	if got == nil || *got.ExitCode != 7 {
		t.Errorf("got %+v", got)
	}
}

func TestTrackerWaitTimeout(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	start := time.Now()
	got, err := tracker.Wait(context.Background(), "t1", 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("timeout must yield no status, got %+v", got)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("returned too early: %v", elapsed)
	}

	// The terminal itself is unaffected.
	if _, resolved := tracker.Status("t1"); resolved {
		t.Error("timeout must not resolve the terminal")
	}
}

func TestTrackerTimeoutIsolation(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	results := make(chan *ExitStatus, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	// Waiter with a short timeout.
	go func() {
		defer wg.Done()
		got, _ := tracker.Wait(context.Background(), "t1", 30*time.Millisecond)
		results <- got
	}()
	// Waiter with no timeout.
	go func() {
		defer wg.Done()
		got, _ := tracker.Wait(context.Background(), "t1", 0)
		results <- got
	}()

	time.Sleep(100 * time.Millisecond) // let the first waiter expire
	tracker.Resolve("t1", status(9))
	wg.Wait()
	close(results)

	var timedOut, resolved int
	for got := range results {
		if got == nil {
			timedOut++
		} else if got.ExitCode != nil && *got.ExitCode == 9 {
			resolved++
		}
	}
	if timedOut != 1 || resolved != 1 {
		t.Errorf("expected one timeout and one resolution, got %d/%d", timedOut, resolved)
	}
}

func TestTrackerResolveWakesAllWaiters(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	const waiters = 5
	results := make(chan *ExitStatus, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := tracker.Wait(context.Background(), "t1", 5*time.Second)
			results <- got
		}()
	}

	time.Sleep(20 * time.Millisecond) // let waiters park
	tracker.Resolve("t1", status(2))
	wg.Wait()
	close(results)

	for got := range results {
		if got == nil || got.ExitCode == nil || *got.ExitCode != 2 {
			t.Errorf("waiter got %+v, want exit code 2", got)
		}
	}
}

func TestTrackerWaitersQueueInRegistrationOrder(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	const n = 4
	results := make([]chan *ExitStatus, n)
	var prev []*waiter
	for i := 0; i < n; i++ {
		results[i] = make(chan *ExitStatus, 1)
		go func(out chan *ExitStatus) {
			got, _ := tracker.Wait(context.Background(), "t1", 0)
			out <- got
		}(results[i])

		// Let this waiter park before starting the next, pinning the
		// registration order; earlier waiters must keep their queue slots.
		deadline := time.Now().Add(time.Second)
		for {
			tracker.mu.Lock()
			queued := append([]*waiter{}, tracker.entries["t1"].waiters...)
			tracker.mu.Unlock()
			if len(queued) == i+1 {
				for j, w := range prev {
					if queued[j] != w {
						t.Fatal("registering a waiter reordered earlier waiters")
					}
				}
				prev = queued
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("waiter %d never queued", i)
			}
			time.Sleep(time.Millisecond)
		}
	}

	tracker.Resolve("t1", status(5))
	for i, out := range results {
		select {
		case got := <-out:
			if got == nil || got.ExitCode == nil || *got.ExitCode != 5 {
				t.Errorf("waiter %d got %+v, want exit code 5", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("waiter %d not resolved", i)
		}
	}
}

func TestTrackerWaitUnknownTerminal(t *testing.T) {
	tracker := NewTracker()

	got, err := tracker.Wait(context.Background(), "ghost", 5*time.Second)
	if err != nil || got != nil {
		t.Errorf("unknown terminal must yield (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestTrackerWaitContextCancel(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := tracker.Wait(ctx, "t1", 0)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not observe cancellation")
	}
}

func TestTrackerDisposeResolvesWaitersWithNil(t *testing.T) {
	tracker := NewTracker()
	tracker.Register("t1")

	done := make(chan *ExitStatus, 1)
	go func() {
		got, _ := tracker.Wait(context.Background(), "t1", 0)
		done <- got
	}()

	time.Sleep(20 * time.Millisecond)
	tracker.Dispose("t1")

	select {
	case got := <-done:
		if got != nil {
			t.Errorf("disposed wait must yield nil, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter left suspended after dispose")
	}

	if _, resolved := tracker.Status("t1"); resolved {
		t.Error("disposed terminal must read as unknown")
	}
}
