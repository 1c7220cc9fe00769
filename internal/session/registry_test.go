package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type logoutHandlerRecorder struct {
	mu    sync.Mutex
	users []string
}

func (l *logoutHandlerRecorder) handle(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = append(l.users, username)
	return nil
}

func (l *logoutHandlerRecorder) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.users...)
}

func TestRegistry_StartAttachesOneMonitorPerUser(t *testing.T) {
	sched := newFakeScheduler()
	r := NewRegistry(10*time.Minute, sched, nil, nopLogger)

	m1 := r.Start("ana")
	m2 := r.Start("ana")

	if m1 != m2 {
		t.Error("second Start for the same user must reuse the monitor")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 attached monitor, got %d", r.Count())
	}

	r.Start("luis")
	if r.Count() != 2 {
		t.Errorf("expected 2 attached monitors, got %d", r.Count())
	}
}

func TestRegistry_StopTearsDown(t *testing.T) {
	sched := newFakeScheduler()
	lr := &logoutHandlerRecorder{}
	r := NewRegistry(10*time.Minute, sched, lr.handle, nopLogger)

	r.Start("ana")
	r.Stop("ana")

	if _, ok := r.Get("ana"); ok {
		t.Fatal("monitor still attached after Stop")
	}
	if got := sched.armedCount(); got != 0 {
		t.Errorf("timers leaked across session end: %d armed", got)
	}

	// Explicit stop is not an expiry: no external logout.
	sched.advance(30 * time.Minute)
	if len(lr.calls()) != 0 {
		t.Errorf("unexpected logout calls: %v", lr.calls())
	}
}

func TestRegistry_ExpiryLogsOutAndDetaches(t *testing.T) {
	sched := newFakeScheduler()
	lr := &logoutHandlerRecorder{}
	r := NewRegistry(10*time.Minute, sched, lr.handle, nopLogger)

	r.Start("ana")
	sched.advance(10 * time.Minute)

	calls := lr.calls()
	if len(calls) != 1 || calls[0] != "ana" {
		t.Fatalf("expected one logout for ana, got %v", calls)
	}
	if _, ok := r.Get("ana"); ok {
		t.Error("expired monitor must be detached")
	}
	if r.Count() != 0 {
		t.Errorf("expected 0 attached monitors, got %d", r.Count())
	}
}

func TestRegistry_ExpiryOnlyAffectsIdleUser(t *testing.T) {
	sched := newFakeScheduler()
	lr := &logoutHandlerRecorder{}
	r := NewRegistry(10*time.Minute, sched, lr.handle, nopLogger)

	r.Start("ana")
	r.Start("luis")

	sched.advance(5 * time.Minute)
	luis, _ := r.Get("luis")
	luis.OnActivity()

	sched.advance(5 * time.Minute)

	calls := lr.calls()
	if len(calls) != 1 || calls[0] != "ana" {
		t.Fatalf("only ana was idle for the full period, got logouts %v", calls)
	}
	if _, ok := r.Get("luis"); !ok {
		t.Error("active user's monitor must survive")
	}
}
