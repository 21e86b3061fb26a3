// Package store is the boundary to the realtime document store that devices
// and dashboard clients share. Payloads are decoded into typed domain values
// at this boundary (see codec.go); nothing partially-trusted flows further in.
//
// Latest-value push semantics (a device overwrites its reading snapshot in
// place) map onto MQTT retained topics; the water log is the one append-only
// stream. Reads of device-reported state are eventually consistent and may
// be stale.
package store

import (
	"errors"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
)

var (
	// ErrMalformedPayload wraps decode failures at the store boundary.
	ErrMalformedPayload = errors.New("store: malformed payload")
	// ErrNotFound is returned for reads of absent records.
	ErrNotFound = errors.New("store: not found")
	// ErrDisconnected is returned by writes that cannot be buffered
	// (currently only the claim flow, which surfaces errors to the user).
	ErrDisconnected = errors.New("store: disconnected")
)

// CalibrationMark names which calibration reference point to record.
type CalibrationMark string

const (
	MarkDry CalibrationMark = "dry"
	MarkWet CalibrationMark = "wet"
)

// Watering reasons recorded in the water log.
const (
	ReasonManual   = "manual"
	ReasonSchedule = "schedule"
)

// Schedule is the device watering schedule. Hour/minute pick the daily slot;
// hysteresis widens the target band; maxSecondsPerDay and cooldownMinutes
// bound how much the device may water. Day, TodaySeconds and LastWateredAt
// are device-reported progress, never written by the dashboard.
type Schedule struct {
	Enabled          bool   `json:"enabled"`
	Hour             int    `json:"hour"`
	Minute           int    `json:"minute"`
	Hysteresis       int    `json:"hysteresis"`
	MaxSecondsPerDay int    `json:"maxSecondsPerDay"`
	CooldownMinutes  int    `json:"cooldownMinutes"`
	Day              string `json:"day,omitempty"`
	TodaySeconds     int    `json:"todaySeconds,omitempty"`
	LastWateredAt    int64  `json:"lastWateredAt,omitempty"`
}

// Clamped returns a copy with every user-settable field forced into its
// valid range. Applied before every schedule write.
func (s Schedule) Clamped() Schedule {
	s.Hour = clampInt(s.Hour, 0, 23)
	s.Minute = clampInt(s.Minute, 0, 59)
	s.Hysteresis = clampInt(s.Hysteresis, 0, 2000)
	s.MaxSecondsPerDay = clampInt(s.MaxSecondsPerDay, 10, 600)
	s.CooldownMinutes = clampInt(s.CooldownMinutes, 5, 1440)
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WaterLogEntry is one append-only watering record.
type WaterLogEntry struct {
	Epoch      int64  `json:"epoch"`
	Reason     string `json:"reason"`
	DurationMs int    `json:"durationMs"`
	SoilBefore int    `json:"soilBefore"`
	SoilAfter  int    `json:"soilAfter"`
}

// Alert is the device's last-alert record.
type Alert struct {
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	AckAt     int64  `json:"ackAt,omitempty"`
}

// Diagnostics is the device-reported health block. All fields optional;
// zero means unreported.
type Diagnostics struct {
	UptimeSec        int64 `json:"uptimeSec,omitempty"`
	LastSyncAt       int64 `json:"lastSyncAt,omitempty"`
	SyncSuccessCount int64 `json:"syncSuccessCount,omitempty"`
	SyncFailCount    int64 `json:"syncFailCount,omitempty"`
	WifiRSSI         int   `json:"wifiRSSI,omitempty"`
}

// DeviceMeta is user-assigned metadata for a claimed device.
type DeviceMeta struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// ClaimedDevice pairs a device id with its user metadata.
type ClaimedDevice struct {
	ID   string     `json:"id"`
	Meta DeviceMeta `json:"meta"`
}

// StoredProfile is a plant profile with its store identity.
type StoredProfile struct {
	ID string
	logic.Profile
}

// Invite is a pending-invite record, keyed in the store by sanitized email.
type Invite struct {
	Email     string `json:"email"`
	InvitedBy string `json:"invitedBy"`
	CreatedAt int64  `json:"createdAt"`
}

// DeviceWatcher receives decoded device-plane updates. Any callback may be
// nil; updates for it are dropped. Callbacks run on the store's delivery
// goroutine and must not block.
type DeviceWatcher struct {
	OnReading     func(*logic.Reading)
	OnCalibration func(logic.CalibrationBounds)
	OnSchedule    func(Schedule)
	OnTarget      func(int)
	OnAlert       func(*Alert)
	OnDiagnostics func(*Diagnostics)
	OnWaterLog    func(WaterLogEntry)
}

// Store is the read/write surface of the realtime store.
//
// Writes are optimistic: implementations log failures and keep going rather
// than rolling anything back, except ClaimDevice which surfaces its error
// (the user is told their claim did not stick).
type Store interface {
	// WatchDevice subscribes to a device's data and control plane.
	WatchDevice(deviceID string, w DeviceWatcher) error

	SetTargetMoisture(deviceID string, target int) error
	SetSchedule(deviceID string, s Schedule) error
	MarkCalibration(deviceID string, mark CalibrationMark, raw int) error
	// RequestPump sets the pump-request flag; the device clears it after
	// pulsing.
	RequestPump(deviceID string) error
	// RequestReset sets the WiFi-reset flag and clears the reading snapshot.
	RequestReset(deviceID string) error
	AckAlert(deviceID string, ackAt int64) error
	// LastWaterLog returns up to n most recent entries, newest last.
	LastWaterLog(deviceID string, n int) []WaterLogEntry

	ClaimDevice(userID, deviceID string, meta DeviceMeta) error
	ReleaseDevice(userID, deviceID string) error
	Devices(userID string) ([]ClaimedDevice, error)
	SetDeviceMeta(userID, deviceID string, meta DeviceMeta) error

	SaveProfile(userID string, p StoredProfile) error
	DeleteProfile(userID, profileID string) error
	Profiles(userID string) ([]StoredProfile, error)
	Profile(userID, profileID string) (StoredProfile, error)
	LinkProfile(userID, deviceID, profileID string) error
	UnlinkProfile(userID, deviceID string) error
	LinkedProfile(userID, deviceID string) (string, bool)

	CreateInvite(userID string, inv Invite) error

	Close() error
}
