// Package monitor keeps per-device state fresh: it mirrors store pushes into
// a thread-safe tracker and re-evaluates the status classification on a
// periodic tick, so live → delayed → offline transitions happen even when no
// new readings arrive.
package monitor

import (
	"sync"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/store"
)

// Snapshot is a point-in-time view of one device's state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	DeviceID    string
	Reading     *logic.Reading
	Calibration logic.CalibrationBounds
	Schedule    *store.Schedule
	Target      *int
	Alert       *store.Alert
	Diagnostics *store.Diagnostics
	Status      logic.DeviceStatus
	ResetAt     int64 // pending reset request, 0 = none
	Now         int64
}

// SecondsAgo returns the reading's age. ok is false when the timestamp is
// absent or untrusted — render as unknown, never "0s ago".
func (s Snapshot) SecondsAgo() (int64, bool) {
	return logic.SecondsAgo(s.Reading, s.Now)
}

// Gauge returns the soil wetness fraction for the circular gauge.
func (s Snapshot) Gauge() (float64, bool) {
	if s.Reading == nil || s.Reading.SoilRaw == nil {
		return 0, false
	}
	return logic.GaugeFraction(*s.Reading.SoilRaw, s.Calibration), true
}

// SoilLevel returns the discrete soil classification.
func (s Snapshot) SoilLevel() (logic.SoilLevel, bool) {
	if s.Reading == nil || s.Reading.SoilRaw == nil {
		return "", false
	}
	return logic.SoilLevelFor(*s.Reading.SoilRaw), true
}

// Tracker holds one device's mutable state behind an RWMutex. Store watcher
// callbacks write into it; the tick loop and HTTP handlers read from it.
type Tracker struct {
	mu       sync.RWMutex
	deviceID string

	reading *logic.Reading
	cal     logic.CalibrationBounds
	sched   *store.Schedule
	target  *int
	alert   *store.Alert
	diag    *store.Diagnostics

	reset logic.ResetRequest
	// syncedAt is when the classifier first reported live while a reset was
	// pending; the reset flag is held for a short confirmation window after.
	syncedAt int64
}

// NewTracker creates a tracker for the given device.
func NewTracker(deviceID string) *Tracker {
	return &Tracker{deviceID: deviceID}
}

// SetReading replaces the reading snapshot. nil clears it.
func (t *Tracker) SetReading(r *logic.Reading) {
	t.mu.Lock()
	t.reading = r
	t.mu.Unlock()
}

// SetCalibration replaces the calibration bounds.
func (t *Tracker) SetCalibration(cal logic.CalibrationBounds) {
	t.mu.Lock()
	t.cal = cal
	t.mu.Unlock()
}

// SetSchedule replaces the watering schedule.
func (t *Tracker) SetSchedule(s store.Schedule) {
	t.mu.Lock()
	t.sched = &s
	t.mu.Unlock()
}

// SetTarget replaces the target moisture value.
func (t *Tracker) SetTarget(target int) {
	t.mu.Lock()
	t.target = &target
	t.mu.Unlock()
}

// SetAlert replaces the last-alert record. nil clears it.
func (t *Tracker) SetAlert(a *store.Alert) {
	t.mu.Lock()
	t.alert = a
	t.mu.Unlock()
}

// SetDiagnostics replaces the diagnostics block.
func (t *Tracker) SetDiagnostics(d *store.Diagnostics) {
	t.mu.Lock()
	t.diag = d
	t.mu.Unlock()
}

// MarkReset records a reset request and optimistically clears the local
// reading (the store clears the remote snapshot in the same action).
func (t *Tracker) MarkReset(nowSec int64) {
	t.mu.Lock()
	t.reset.Mark(nowSec)
	t.syncedAt = 0
	t.reading = nil
	t.mu.Unlock()
}

// ResetPending reports whether a reset request is outstanding.
func (t *Tracker) ResetPending() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reset.Pending()
}

// Reevaluate advances the reset lifecycle and returns the current status.
// Called from the tick loop (~2s) and after control actions:
//   - a pending reset older than its expiry is dropped so the UI cannot
//     stay stuck on "syncing" forever;
//   - once the device is live again, the reset flag is held for a short
//     "synced" confirmation window and then cleared.
func (t *Tracker) Reevaluate(nowSec int64) logic.DeviceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reset.IsExpired(nowSec) {
		t.reset.Clear()
		t.syncedAt = 0
	}

	st := logic.Classify(t.reading, nowSec, t.reset.RequestedAt)

	if st == logic.StatusLive && t.reset.Pending() {
		if t.syncedAt == 0 {
			t.syncedAt = nowSec
		}
		if nowSec-t.syncedAt >= logic.SyncedConfirmSec {
			t.reset.Clear()
			t.syncedAt = 0
		}
	}

	return st
}

// Snapshot returns a point-in-time copy with the status computed for
// nowSec. Pure read — lifecycle transitions happen only in Reevaluate.
func (t *Tracker) Snapshot(nowSec int64) Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		DeviceID:    t.deviceID,
		Reading:     t.reading,
		Calibration: t.cal,
		Schedule:    t.sched,
		Target:      t.target,
		Alert:       t.alert,
		Diagnostics: t.diag,
		Status:      logic.Classify(t.reading, nowSec, t.reset.RequestedAt),
		ResetAt:     t.reset.RequestedAt,
		Now:         nowSec,
	}
}
