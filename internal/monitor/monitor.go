package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/store"
)

// DefaultTickInterval drives the freshness re-evaluation clock.
const DefaultTickInterval = 2 * time.Second

// Monitor owns the trackers for all watched devices and the tick loop that
// keeps their classifications current.
type Monitor struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// New creates a Monitor over the given store.
func New(st store.Store, log zerolog.Logger) *Monitor {
	return &Monitor{
		store:    st,
		log:      log,
		now:      time.Now,
		trackers: make(map[string]*Tracker),
	}
}

// SetClock replaces the wall clock. Tests only.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// Track starts watching a device, wiring store pushes into a new tracker.
// Idempotent: tracking an already-tracked device returns its tracker.
func (m *Monitor) Track(deviceID string) (*Tracker, error) {
	m.mu.Lock()
	if t, ok := m.trackers[deviceID]; ok {
		m.mu.Unlock()
		return t, nil
	}
	t := NewTracker(deviceID)
	m.trackers[deviceID] = t
	m.mu.Unlock()

	err := m.store.WatchDevice(deviceID, store.DeviceWatcher{
		OnReading: func(r *logic.Reading) {
			t.SetReading(r)
			readingsReceived.WithLabelValues(deviceID).Inc()
			if r != nil && r.Timestamp > logic.TimestampEpochFloor {
				lastReadingTimestamp.WithLabelValues(deviceID).Set(float64(r.Timestamp))
			}
		},
		OnCalibration: t.SetCalibration,
		OnSchedule:    t.SetSchedule,
		OnTarget:      t.SetTarget,
		OnAlert:       t.SetAlert,
		OnDiagnostics: t.SetDiagnostics,
	})
	if err != nil {
		m.mu.Lock()
		delete(m.trackers, deviceID)
		m.mu.Unlock()
		return nil, err
	}

	m.log.Info().Str("device", deviceID).Msg("tracking device")
	return t, nil
}

// Tracker returns the tracker for a device, if tracked.
func (m *Monitor) Tracker(deviceID string) (*Tracker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trackers[deviceID]
	return t, ok
}

// RequestPump asks the store to pulse the pump. The device clears the flag
// itself once it has run.
func (m *Monitor) RequestPump(deviceID string) error {
	if err := m.store.RequestPump(deviceID); err != nil {
		return err
	}
	pumpRequests.WithLabelValues(deviceID).Inc()
	m.log.Info().Str("device", deviceID).Msg("pump requested")
	return nil
}

// RequestReset initiates a WiFi reset: the store flag is set and readings
// cleared, and the tracker starts its reset lifecycle so the device shows
// syncing until genuinely post-reboot data arrives.
func (m *Monitor) RequestReset(deviceID string) error {
	t, ok := m.Tracker(deviceID)
	if !ok {
		var err error
		if t, err = m.Track(deviceID); err != nil {
			return err
		}
	}
	if err := m.store.RequestReset(deviceID); err != nil {
		return err
	}
	t.MarkReset(m.now().Unix())
	resetRequests.WithLabelValues(deviceID).Inc()
	m.log.Info().Str("device", deviceID).Msg("wifi reset requested")
	return nil
}

// Run re-evaluates every tracker on the given interval until ctx is
// cancelled. Status transitions are logged and exported as metrics.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := make(map[string]logic.DeviceStatus)

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("monitor stopped")
			return
		case <-ticker.C:
			nowSec := m.now().Unix()
			m.mu.RLock()
			trackers := make(map[string]*Tracker, len(m.trackers))
			for id, t := range m.trackers {
				trackers[id] = t
			}
			m.mu.RUnlock()

			for id, t := range trackers {
				st := t.Reevaluate(nowSec)
				recordStatus(id, st)
				if st != prev[id] {
					m.log.Info().
						Str("device", id).
						Str("from", string(prev[id])).
						Str("to", string(st)).
						Msg("device status changed")
					prev[id] = st
				}
			}
		}
	}
}
