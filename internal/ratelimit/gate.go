// Package ratelimit provides a cooldown gate for sensitive one-shot actions
// (pump pulses, WiFi resets, invites). The gate is advisory and client-local:
// it stops one dashboard session from hammering a device, it is not a
// substitute for server-side idempotency.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrCoolingDown is returned by Execute when the cooldown window has not
// elapsed. The wrapped action is not invoked.
var ErrCoolingDown = errors.New("ratelimit: action is cooling down")

// Gate permits at most one execution per cooldown window.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	last     time.Time // zero = never executed
}

// New creates a Gate with the given cooldown. The zero last-execution time
// permits an immediate first execution.
func New(cooldown time.Duration) *Gate {
	return NewWithClock(cooldown, time.Now)
}

// NewWithClock creates a Gate with an injectable clock for tests.
func NewWithClock(cooldown time.Duration, now func() time.Time) *Gate {
	return &Gate{cooldown: cooldown, now: now}
}

// CanExecute reports whether Execute would currently accept an action.
// It does not mutate state.
func (g *Gate) CanExecute() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openLocked()
}

func (g *Gate) openLocked() bool {
	return g.last.IsZero() || g.now().Sub(g.last) >= g.cooldown
}

// Execute runs fn if the cooldown has elapsed, otherwise returns
// ErrCoolingDown without invoking it. The execution timestamp is recorded
// before fn runs, so overlapping calls during a slow action are still
// rejected.
func (g *Gate) Execute(fn func() error) error {
	g.mu.Lock()
	if !g.openLocked() {
		g.mu.Unlock()
		return ErrCoolingDown
	}
	g.last = g.now()
	g.mu.Unlock()

	return fn()
}

// Remaining returns how long until the gate reopens. Never negative; zero
// means an execution would be accepted now. Pollable for UI countdowns
// without mutating state.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last.IsZero() {
		return 0
	}
	rem := g.cooldown - g.now().Sub(g.last)
	if rem < 0 {
		rem = 0
	}
	return rem
}
