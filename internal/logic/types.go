// Package logic contains pure business logic for device status classification,
// soil gauge mapping, and plant profile tips. This package has NO external
// dependencies (no MQTT, HTTP, OS, or time.Sleep). Time is always injectable
// via epoch-second parameters.
package logic

// DeviceStatus is the freshness/connectivity classification of a device.
// Exactly one value holds for a given (reading, now, resetRequestedAt) triple.
type DeviceStatus string

const (
	StatusLive          DeviceStatus = "live"
	StatusDelayed       DeviceStatus = "delayed"
	StatusOffline       DeviceStatus = "offline"
	StatusSyncing       DeviceStatus = "syncing"
	StatusWifiConnected DeviceStatus = "wifi_connected"
	StatusNoData        DeviceStatus = "no_data"
)

// SoilLevel is the discrete soil moisture classification. It uses fixed raw
// thresholds and is deliberately independent of user calibration.
type SoilLevel string

const (
	SoilSoggy   SoilLevel = "soggy"
	SoilIdeal   SoilLevel = "ideal"
	SoilDry     SoilLevel = "dry"
	SoilVeryDry SoilLevel = "very_dry"
)

// Reading is the latest sensor snapshot reported by a device. The device
// overwrites it in place; there is no history here. All sensor fields are
// optional — a device may report any subset depending on attached hardware.
type Reading struct {
	// Temperature in °C.
	Temperature *float64
	// SoilRaw is the raw ADC soil value. Higher = drier.
	SoilRaw *int
	// Pressure in pascals.
	Pressure *float64
	// Humidity in percent.
	Humidity *float64
	// LightBright is true when the light sensor reads bright, false when dim.
	// nil means unknown.
	LightBright *bool
	// PumpRunning reports whether the pump relay is currently on.
	PumpRunning *bool
	// Health is a free-form status word from the device. "ok" (any case) is
	// the only recognized positive value.
	Health *string
	// Timestamp is epoch seconds. Trusted only if > TimestampEpochFloor.
	Timestamp int64
	// WifiSSID and WifiRSSI are connectivity metadata.
	WifiSSID *string
	WifiRSSI *int
}

// HealthOK reports whether the device self-reports a healthy sensor loop.
func (r *Reading) HealthOK() bool {
	if r == nil || r.Health == nil {
		return false
	}
	return equalFold(*r.Health, "ok")
}

// PressureHPa converts the reported pascal value to hectopascals for display.
// Returns (0, false) if pressure is absent.
func (r *Reading) PressureHPa() (float64, bool) {
	if r == nil || r.Pressure == nil {
		return 0, false
	}
	return *r.Pressure / 100.0, true
}

// equalFold is an ASCII-only case-insensitive comparison, enough for the
// single-word health values devices report.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// CalibrationBounds holds the two raw ADC reference points a user records by
// marking the probe as bone dry and fully submerged. Order-independent — the
// gauge takes min/max dynamically.
type CalibrationBounds struct {
	BoneDry   *int
	Submerged *int
}

// LightPreference describes the light a profile's plant prefers.
type LightPreference string

const (
	LightBright LightPreference = "bright"
	LightDim    LightPreference = "dim"
	LightAny    LightPreference = "any"
)

// Profile is a user-defined plant record with optional ideal-condition
// ranges. A range is only evaluated when both its min and max are set.
type Profile struct {
	Name      string
	Type      string
	CreatedAt int64

	SoilMin *int
	SoilMax *int

	TempMin *float64
	TempMax *float64

	HumidityMin *float64
	HumidityMax *float64

	LightPreference LightPreference
}

// TipSeverity grades a tip for display.
type TipSeverity string

const (
	SeverityInfo    TipSeverity = "info"
	SeverityWarning TipSeverity = "warning"
	SeverityOK      TipSeverity = "ok"
)

// Tip is an advisory message produced by comparing a reading against a
// profile's ideal ranges.
type Tip struct {
	ID       string
	Message  string
	Severity TipSeverity
}
