package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestSession(t *testing.T, store *memStore, clock *fakeClock, opts ...DispatcherOption) *Session {
	t.Helper()
	s := NewSession(store, NewDispatcher(store, opts...), SessionConfig{Clock: clock.Now}, nil)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return s
}

func TestSessionSnoozeThenMissed(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	notifier := &recordingNotifier{}
	clock := &fakeClock{now: at(9, 50, 0)}
	s := newTestSession(t, store, clock, WithPatientName("Margaret"), WithNotifier(notifier))

	s.Step(ctx, clock.Now())
	clock.Set(at(9, 50, 1))
	s.Step(ctx, clock.Now())

	until, err := s.Snooze(ctx, 9)
	if err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	if !until.Equal(at(9, 59, 1)) {
		t.Fatalf("until = %v", until)
	}
	s.Wait()
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	for now := at(9, 50, 2); !now.After(at(10, 0, 1)); now = now.Add(time.Second) {
		clock.Set(now)
		p := s.Step(ctx, now)
		if now.Equal(at(9, 59, 1)) && (p == nil || p.Phase != PhaseFinalWarning || p.CountdownRemaining != 60) {
			t.Fatalf("at 09:59:01 presentation = %+v", p)
		}
	}
	s.Wait()

	if store.statusWrites != 1 {
		t.Fatalf("status writes = %d, want 1", store.statusWrites)
	}
	if store.status(1) != StatusCompleted {
		t.Fatalf("status = %s", store.status(1))
	}
	if store.eventCount(EventMissed) != 1 {
		t.Fatalf("missed logs = %d, want 1", store.eventCount(EventMissed))
	}
	if len(store.alerts) != 1 || len(store.activity) != 1 {
		t.Fatalf("alerts=%d activity=%d", len(store.alerts), len(store.activity))
	}
	if !strings.HasPrefix(store.activity[0].Description, "⚠️") {
		t.Fatalf("activity = %q", store.activity[0].Description)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("notified = %d", len(notifier.alerts))
	}
}

func TestSessionResponseTimeFromShowTime(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	clock := &fakeClock{now: at(9, 50, 0)}
	s := newTestSession(t, store, clock)

	for now := at(9, 50, 0); !now.After(at(9, 52, 0)); now = now.Add(time.Second) {
		clock.Set(now)
		s.Step(ctx, now)
	}

	pres, err := s.Confirm(ctx)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if pres.Occurrence.ID != 1 {
		t.Fatalf("confirmed %d", pres.Occurrence.ID)
	}
	if s.Current() != nil {
		t.Fatal("presentation still visible after confirm")
	}
	s.Wait()

	if len(store.completions) != 1 || store.completions[0].ResponseTimeSeconds != 120 {
		t.Fatalf("completions = %+v", store.completions)
	}
	if _, err := s.Confirm(ctx); !errors.Is(err, ErrNothingPresented) {
		t.Fatalf("second confirm err = %v", err)
	}
}

func TestSessionConfirmRacesCountdown(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	clock := &fakeClock{now: at(10, 0, 0)}
	s := newTestSession(t, store, clock)

	s.Step(ctx, at(10, 0, 0))
	clock.Set(at(10, 0, 59))
	s.Step(ctx, clock.Now())

	clock.Set(at(10, 1, 0))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = s.Confirm(ctx)
	}()
	go func() {
		defer wg.Done()
		s.Step(ctx, at(10, 1, 0))
	}()
	wg.Wait()
	s.Wait()

	if store.statusWrites != 1 {
		t.Fatalf("status writes = %d, want 1", store.statusWrites)
	}
	if n := store.eventCount(EventCompleted) + store.eventCount(EventMissed); n != 1 {
		t.Fatalf("terminal logs = %d, want 1", n)
	}
}

func TestSessionCaregiverViewDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	clock := &fakeClock{now: at(9, 55, 0)}
	s := newTestSession(t, store, clock)

	s.SetCaregiverView(true)
	for now := at(9, 55, 0); now.Before(at(10, 3, 0)); now = now.Add(time.Second) {
		if p := s.Step(ctx, now); p != nil {
			t.Fatalf("caregiver view presented at %s", now.Format(time.TimeOnly))
		}
	}
	s.Wait()
	if store.statusWrites != 0 || len(store.logs) != 0 {
		t.Fatalf("caregiver view mutated store: writes=%d logs=%d", store.statusWrites, len(store.logs))
	}
}

func TestSessionRefreshFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	clock := &fakeClock{now: at(9, 55, 0)}
	s := newTestSession(t, store, clock)

	store.mu.Lock()
	store.listErr = errInjected
	store.mu.Unlock()
	if err := s.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}
	if p := s.Step(ctx, at(9, 55, 0)); p == nil {
		t.Fatal("last snapshot dropped after refresh failure")
	}
}

func TestSessionStopCancelsLoops(t *testing.T) {
	store := newMemStore(occurrence(1, time.Now().Add(5*time.Minute)))
	s := NewSession(store, NewDispatcher(store), SessionConfig{
		TickInterval:    5 * time.Millisecond,
		RefreshInterval: 10 * time.Millisecond,
	}, nil)

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for s.Current() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Current() == nil {
		t.Fatal("session never presented the due reminder")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	// 停止后不再有 tick 改写状态
	store.mu.Lock()
	store.occurrences[1].Status = StatusCompleted
	store.mu.Unlock()
	before := s.Current()
	time.Sleep(30 * time.Millisecond)
	after := s.Current()
	if (before == nil) != (after == nil) {
		t.Fatal("state changed after Stop")
	}
	s.Stop()
}

func TestSessionSnoozeKeepsSubMinuteDefault(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	clock := &fakeClock{now: at(9, 50, 0)}
	timing := DefaultTiming()
	timing.DefaultSnooze = 90 * time.Second
	s := NewSession(store, NewDispatcher(store), SessionConfig{Timing: timing, Clock: clock.Now}, nil)
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	s.Step(ctx, clock.Now())

	until, err := s.Snooze(ctx, 0)
	if err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	s.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	if !until.Equal(at(9, 51, 30)) || !store.occurrences[1].NextDueTime.Equal(until) {
		t.Fatalf("until = %s, stored next due = %s", until.Format(time.TimeOnly), store.occurrences[1].NextDueTime.Format(time.TimeOnly))
	}
	if len(store.logs) != 1 || store.logs[0].Metadata["snoozeMinutes"] != 1.5 {
		t.Fatalf("logs = %+v", store.logs)
	}
}

func TestSessionRejectsActionsAfterStop(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(occurrence(1, at(10, 0, 0)))
	clock := &fakeClock{now: at(9, 55, 0)}
	s := newTestSession(t, store, clock)
	if p := s.Step(ctx, clock.Now()); p == nil {
		t.Fatal("expected presentation")
	}

	s.Stop()

	if _, err := s.Confirm(ctx); !errors.Is(err, ErrSessionStopped) {
		t.Fatalf("Confirm err = %v, want ErrSessionStopped", err)
	}
	if _, err := s.Snooze(ctx, 5); !errors.Is(err, ErrSessionStopped) {
		t.Fatalf("Snooze err = %v, want ErrSessionStopped", err)
	}
	// 越过宽限期也不再写入
	clock.Set(at(10, 2, 0))
	s.Step(ctx, clock.Now())
	s.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.statusWrites != 0 || len(store.logs) != 0 {
		t.Fatalf("writes after stop: status=%d logs=%d", store.statusWrites, len(store.logs))
	}
}

func TestSessionStopWhileConfirming(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx := context.Background()
		store := newMemStore(occurrence(1, at(10, 0, 0)))
		clock := &fakeClock{now: at(9, 55, 0)}
		s := newTestSession(t, store, clock)
		s.Step(ctx, clock.Now())

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.Confirm(ctx)
		}()
		s.Stop()

		store.mu.Lock()
		afterStop := store.statusWrites
		store.mu.Unlock()
		<-done
		s.Wait()

		store.mu.Lock()
		final := store.statusWrites
		store.mu.Unlock()
		if final != afterStop {
			t.Fatalf("run %d: status writes went from %d to %d after Stop returned", i, afterStop, final)
		}
	}
}
