package store

import (
	"sync"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/device"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
)

// Fake is an in-memory Store for tests. It records control writes for
// assertions and lets tests push device-plane updates to watchers.
type Fake struct {
	mu       sync.Mutex
	watchers map[string][]DeviceWatcher

	cals      map[string]logic.CalibrationBounds
	schedules map[string]Schedule
	targets   map[string]int
	waterlogs map[string][]WaterLogEntry

	devices  map[string]map[string]DeviceMeta   // userID -> deviceID -> meta
	profiles map[string]map[string]StoredProfile
	links    map[string]map[string]string
	invites  map[string]map[string]Invite

	// PumpRequests, ResetRequests and AckedAlerts record control actions in
	// call order.
	PumpRequests  []string
	ResetRequests []string
	AckedAlerts   map[string]int64

	// ClaimErr, if set, is returned by ClaimDevice. The claim flow is the
	// one write that surfaces store errors.
	ClaimErr error

	Closed bool
}

// NewFake creates an empty fake store.
func NewFake() *Fake {
	return &Fake{
		watchers:    make(map[string][]DeviceWatcher),
		cals:        make(map[string]logic.CalibrationBounds),
		schedules:   make(map[string]Schedule),
		targets:     make(map[string]int),
		waterlogs:   make(map[string][]WaterLogEntry),
		devices:     make(map[string]map[string]DeviceMeta),
		profiles:    make(map[string]map[string]StoredProfile),
		links:       make(map[string]map[string]string),
		invites:     make(map[string]map[string]Invite),
		AckedAlerts: make(map[string]int64),
	}
}

func (f *Fake) WatchDevice(deviceID string, w DeviceWatcher) error {
	f.mu.Lock()
	f.watchers[deviceID] = append(f.watchers[deviceID], w)
	f.mu.Unlock()
	return nil
}

// PushReading delivers a reading snapshot to all watchers, as the realtime
// store would on a device write. nil clears the snapshot.
func (f *Fake) PushReading(deviceID string, r *logic.Reading) {
	for _, w := range f.watchersFor(deviceID) {
		if w.OnReading != nil {
			w.OnReading(r)
		}
	}
}

// PushSchedule delivers a schedule update to all watchers.
func (f *Fake) PushSchedule(deviceID string, s Schedule) {
	for _, w := range f.watchersFor(deviceID) {
		if w.OnSchedule != nil {
			w.OnSchedule(s)
		}
	}
}

// PushAlert delivers an alert update to all watchers.
func (f *Fake) PushAlert(deviceID string, a *Alert) {
	for _, w := range f.watchersFor(deviceID) {
		if w.OnAlert != nil {
			w.OnAlert(a)
		}
	}
}

// PushDiagnostics delivers a diagnostics update to all watchers.
func (f *Fake) PushDiagnostics(deviceID string, d *Diagnostics) {
	for _, w := range f.watchersFor(deviceID) {
		if w.OnDiagnostics != nil {
			w.OnDiagnostics(d)
		}
	}
}

// AppendWaterLog appends an entry and notifies watchers.
func (f *Fake) AppendWaterLog(deviceID string, e WaterLogEntry) {
	f.mu.Lock()
	f.waterlogs[deviceID] = append(f.waterlogs[deviceID], e)
	f.mu.Unlock()
	for _, w := range f.watchersFor(deviceID) {
		if w.OnWaterLog != nil {
			w.OnWaterLog(e)
		}
	}
}

func (f *Fake) watchersFor(deviceID string) []DeviceWatcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]DeviceWatcher, len(f.watchers[deviceID]))
	copy(out, f.watchers[deviceID])
	return out
}

func (f *Fake) SetTargetMoisture(deviceID string, target int) error {
	f.mu.Lock()
	f.targets[deviceID] = target
	f.mu.Unlock()
	return nil
}

// Target returns the last written target moisture.
func (f *Fake) Target(deviceID string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.targets[deviceID]
	return t, ok
}

func (f *Fake) SetSchedule(deviceID string, s Schedule) error {
	f.mu.Lock()
	f.schedules[deviceID] = s.Clamped()
	f.mu.Unlock()
	return nil
}

// ScheduleFor returns the last written schedule.
func (f *Fake) ScheduleFor(deviceID string) (Schedule, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[deviceID]
	return s, ok
}

func (f *Fake) MarkCalibration(deviceID string, mark CalibrationMark, raw int) error {
	f.mu.Lock()
	cal := f.cals[deviceID]
	if mark == MarkDry {
		cal.BoneDry = &raw
	} else {
		cal.Submerged = &raw
	}
	f.cals[deviceID] = cal
	f.mu.Unlock()

	for _, w := range f.watchersFor(deviceID) {
		if w.OnCalibration != nil {
			w.OnCalibration(cal)
		}
	}
	return nil
}

// Calibration returns the current calibration bounds.
func (f *Fake) Calibration(deviceID string) logic.CalibrationBounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cals[deviceID]
}

func (f *Fake) RequestPump(deviceID string) error {
	f.mu.Lock()
	f.PumpRequests = append(f.PumpRequests, deviceID)
	f.mu.Unlock()
	return nil
}

func (f *Fake) RequestReset(deviceID string) error {
	f.mu.Lock()
	f.ResetRequests = append(f.ResetRequests, deviceID)
	f.mu.Unlock()
	// Reset initiation clears the reading snapshot.
	f.PushReading(deviceID, nil)
	return nil
}

func (f *Fake) AckAlert(deviceID string, ackAt int64) error {
	f.mu.Lock()
	f.AckedAlerts[deviceID] = ackAt
	f.mu.Unlock()
	return nil
}

func (f *Fake) LastWaterLog(deviceID string, n int) []WaterLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	wl := f.waterlogs[deviceID]
	if n <= 0 || n > len(wl) {
		n = len(wl)
	}
	out := make([]WaterLogEntry, n)
	copy(out, wl[len(wl)-n:])
	return out
}

func (f *Fake) ClaimDevice(userID, deviceID string, meta DeviceMeta) error {
	if f.ClaimErr != nil {
		return f.ClaimErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devices[userID] == nil {
		f.devices[userID] = make(map[string]DeviceMeta)
	}
	f.devices[userID][deviceID] = meta
	return nil
}

func (f *Fake) ReleaseDevice(userID, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.devices[userID], deviceID)
	return nil
}

func (f *Fake) Devices(userID string) ([]ClaimedDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ClaimedDevice
	for id, meta := range f.devices[userID] {
		out = append(out, ClaimedDevice{ID: id, Meta: meta})
	}
	return out, nil
}

func (f *Fake) SetDeviceMeta(userID, deviceID string, meta DeviceMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devices[userID] == nil {
		f.devices[userID] = make(map[string]DeviceMeta)
	}
	f.devices[userID][deviceID] = meta
	return nil
}

func (f *Fake) SaveProfile(userID string, p StoredProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profiles[userID] == nil {
		f.profiles[userID] = make(map[string]StoredProfile)
	}
	f.profiles[userID][p.ID] = p
	return nil
}

func (f *Fake) DeleteProfile(userID, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles[userID], profileID)
	return nil
}

func (f *Fake) Profiles(userID string) ([]StoredProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []StoredProfile
	for _, p := range f.profiles[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) Profile(userID, profileID string) (StoredProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID][profileID]; ok {
		return p, nil
	}
	return StoredProfile{}, ErrNotFound
}

func (f *Fake) LinkProfile(userID, deviceID, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.links[userID] == nil {
		f.links[userID] = make(map[string]string)
	}
	f.links[userID][deviceID] = profileID
	return nil
}

func (f *Fake) UnlinkProfile(userID, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.links[userID], deviceID)
	return nil
}

func (f *Fake) LinkedProfile(userID, deviceID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.links[userID][deviceID]
	return id, ok
}

func (f *Fake) CreateInvite(userID string, inv Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invites[userID] == nil {
		f.invites[userID] = make(map[string]Invite)
	}
	f.invites[userID][device.SanitizeEmailKey(inv.Email)] = inv
	return nil
}

// Invites returns the recorded invites for a user, keyed by sanitized email.
func (f *Fake) Invites(userID string) map[string]Invite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Invite, len(f.invites[userID]))
	for k, v := range f.invites[userID] {
		out[k] = v
	}
	return out
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
