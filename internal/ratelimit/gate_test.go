package ratelimit

import (
	"errors"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic gate tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGatePermitsImmediateFirstExecution(t *testing.T) {
	clock := newFakeClock()
	g := NewWithClock(8*time.Second, clock.now)

	if !g.CanExecute() {
		t.Fatal("fresh gate should permit execution")
	}
	if g.Remaining() != 0 {
		t.Errorf("fresh gate remaining: got %v, want 0", g.Remaining())
	}

	calls := 0
	if err := g.Execute(func() error { calls++; return nil }); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestGateRejectsWithinCooldown(t *testing.T) {
	clock := newFakeClock()
	g := NewWithClock(8*time.Second, clock.now)

	calls := 0
	action := func() error { calls++; return nil }

	if err := g.Execute(action); err != nil {
		t.Fatalf("first execute: %v", err)
	}

	clock.advance(3 * time.Second)
	if err := g.Execute(action); !errors.Is(err, ErrCoolingDown) {
		t.Errorf("second execute: got %v, want ErrCoolingDown", err)
	}
	if calls != 1 {
		t.Errorf("calls after rejected execute: got %d, want 1", calls)
	}

	// After the window the gate reopens.
	clock.advance(5 * time.Second)
	if err := g.Execute(action); err != nil {
		t.Errorf("third execute: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestGateRecordsBeforeRunningAction(t *testing.T) {
	clock := newFakeClock()
	g := NewWithClock(8*time.Second, clock.now)

	// Re-entering Execute from inside a slow action must be rejected: the
	// timestamp is recorded before the action runs.
	var inner error
	err := g.Execute(func() error {
		inner = g.Execute(func() error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("outer execute: %v", err)
	}
	if !errors.Is(inner, ErrCoolingDown) {
		t.Errorf("inner execute: got %v, want ErrCoolingDown", inner)
	}
}

func TestGateActionErrorPropagates(t *testing.T) {
	clock := newFakeClock()
	g := NewWithClock(time.Second, clock.now)

	boom := errors.New("boom")
	if err := g.Execute(func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}

	// A failed action still consumes the window.
	if g.CanExecute() {
		t.Error("gate should be closed after failed action")
	}
}

func TestGateRemainingCountsDown(t *testing.T) {
	clock := newFakeClock()
	g := NewWithClock(8*time.Second, clock.now)

	if err := g.Execute(func() error { return nil }); err != nil {
		t.Fatal(err)
	}

	prev := g.Remaining()
	if prev != 8*time.Second {
		t.Errorf("remaining right after execute: got %v, want 8s", prev)
	}
	for i := 0; i < 8; i++ {
		clock.advance(time.Second)
		rem := g.Remaining()
		if rem > prev {
			t.Errorf("remaining increased: %v -> %v", prev, rem)
		}
		if rem < 0 {
			t.Errorf("remaining went negative: %v", rem)
		}
		prev = rem
	}
	if prev != 0 {
		t.Errorf("remaining after full window: got %v, want 0", prev)
	}

	// Polling Remaining must not consume the reopened window.
	if !g.CanExecute() {
		t.Error("gate should be open after window elapsed")
	}
}
