package web

import (
	"encoding/json"
	"net/http"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/monitor"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/store"
)

// DeviceJSON is the dashboard view of one device.
type DeviceJSON struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	SecondsAgo   *int64             `json:"seconds_ago,omitempty"` // absent when the timestamp is untrusted
	ResetPending bool               `json:"reset_pending"`
	Reading      *ReadingJSON       `json:"reading,omitempty"`
	Gauge        *float64           `json:"gauge,omitempty"`
	SoilLevel    string             `json:"soil_level,omitempty"`
	Target       *int               `json:"target,omitempty"`
	Schedule     *store.Schedule    `json:"schedule,omitempty"`
	Alert        *store.Alert       `json:"alert,omitempty"`
	Diagnostics  *store.Diagnostics `json:"diagnostics,omitempty"`
	Tips         []TipJSON          `json:"tips"`
}

// ReadingJSON is the wire form of a sensor snapshot for the UI.
type ReadingJSON struct {
	Temperature *float64 `json:"temperature,omitempty"`
	SoilRaw     *int     `json:"soil_raw,omitempty"`
	PressureHPa *float64 `json:"pressure_hpa,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	LightBright *bool    `json:"light_bright,omitempty"`
	PumpRunning *bool    `json:"pump_running,omitempty"`
	HealthOK    bool     `json:"health_ok"`
	WifiSSID    *string  `json:"wifi_ssid,omitempty"`
	WifiRSSI    *int     `json:"wifi_rssi,omitempty"`
}

// TipJSON is the wire form of an advisory tip.
type TipJSON struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ProfileJSON is the wire form of a plant profile.
type ProfileJSON struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	CreatedAt       int64    `json:"created_at,omitempty"`
	SoilMin         *int     `json:"soil_min,omitempty"`
	SoilMax         *int     `json:"soil_max,omitempty"`
	TempMin         *float64 `json:"temp_min,omitempty"`
	TempMax         *float64 `json:"temp_max,omitempty"`
	HumidityMin     *float64 `json:"humidity_min,omitempty"`
	HumidityMax     *float64 `json:"humidity_max,omitempty"`
	LightPreference string   `json:"light_preference,omitempty"`
}

func (p ProfileJSON) domain() logic.Profile {
	return logic.Profile{
		Name:            p.Name,
		Type:            p.Type,
		CreatedAt:       p.CreatedAt,
		SoilMin:         p.SoilMin,
		SoilMax:         p.SoilMax,
		TempMin:         p.TempMin,
		TempMax:         p.TempMax,
		HumidityMin:     p.HumidityMin,
		HumidityMax:     p.HumidityMax,
		LightPreference: logic.LightPreference(p.LightPreference),
	}
}

func profileJSON(p store.StoredProfile) ProfileJSON {
	return ProfileJSON{
		ID:              p.ID,
		Name:            p.Name,
		Type:            p.Type,
		CreatedAt:       p.CreatedAt,
		SoilMin:         p.SoilMin,
		SoilMax:         p.SoilMax,
		TempMin:         p.TempMin,
		TempMax:         p.TempMax,
		HumidityMin:     p.HumidityMin,
		HumidityMax:     p.HumidityMax,
		LightPreference: string(p.LightPreference),
	}
}

// buildDeviceJSON renders a tracker snapshot plus the linked profile's tips.
func buildDeviceJSON(snap monitor.Snapshot, profile *logic.Profile) DeviceJSON {
	d := DeviceJSON{
		ID:           snap.DeviceID,
		Status:       string(snap.Status),
		ResetPending: snap.ResetAt > 0,
		Target:       snap.Target,
		Schedule:     snap.Schedule,
		Alert:        snap.Alert,
		Diagnostics:  snap.Diagnostics,
		Tips:         []TipJSON{},
	}

	if age, ok := snap.SecondsAgo(); ok {
		d.SecondsAgo = &age
	}
	if g, ok := snap.Gauge(); ok {
		d.Gauge = &g
	}
	if level, ok := snap.SoilLevel(); ok {
		d.SoilLevel = string(level)
	}

	if r := snap.Reading; r != nil {
		rj := &ReadingJSON{
			Temperature: r.Temperature,
			SoilRaw:     r.SoilRaw,
			Humidity:    r.Humidity,
			LightBright: r.LightBright,
			PumpRunning: r.PumpRunning,
			HealthOK:    r.HealthOK(),
			WifiSSID:    r.WifiSSID,
			WifiRSSI:    r.WifiRSSI,
		}
		if hpa, ok := r.PressureHPa(); ok {
			rj.PressureHPa = &hpa
		}
		d.Reading = rj
	}

	for _, tip := range logic.EvaluateTips(snap.Reading, profile) {
		d.Tips = append(d.Tips, TipJSON{ID: tip.ID, Message: tip.Message, Severity: string(tip.Severity)})
	}

	return d
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
