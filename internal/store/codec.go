package store

import (
	"encoding/json"
	"fmt"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/logic"
)

// DecodeReading turns a reading payload into a typed snapshot. Devices in
// the field ship firmware of assorted vintages, so this decoder is
// best-effort: a field of the wrong type decodes as absent instead of
// failing the whole snapshot. Only unparseable JSON is an error. An empty
// payload is a cleared snapshot (nil, nil).
func DecodeReading(payload []byte) (*logic.Reading, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: reading: %v", ErrMalformedPayload, err)
	}

	r := &logic.Reading{}
	if v, ok := numField(raw, "temperature"); ok {
		r.Temperature = &v
	}
	if v, ok := numField(raw, "soilRaw"); ok {
		n := int(v)
		r.SoilRaw = &n
	}
	if v, ok := numField(raw, "pressure"); ok {
		r.Pressure = &v
	}
	if v, ok := numField(raw, "humidity"); ok {
		r.Humidity = &v
	}
	if v, ok := boolField(raw, "lightBright"); ok {
		r.LightBright = &v
	}
	if v, ok := boolField(raw, "pumpRunning"); ok {
		r.PumpRunning = &v
	}
	if v, ok := strField(raw, "health"); ok {
		r.Health = &v
	}
	if v, ok := numField(raw, "timestamp"); ok {
		r.Timestamp = int64(v)
	}
	if v, ok := strField(raw, "wifiSSID"); ok {
		r.WifiSSID = &v
	}
	if v, ok := numField(raw, "wifiRSSI"); ok {
		n := int(v)
		r.WifiRSSI = &n
	}
	return r, nil
}

// EncodeReading is the inverse of DecodeReading. Used by tests and by reset
// initiation (which never calls it — clearing publishes an empty payload).
func EncodeReading(r *logic.Reading) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	doc := map[string]any{}
	if r.Temperature != nil {
		doc["temperature"] = *r.Temperature
	}
	if r.SoilRaw != nil {
		doc["soilRaw"] = *r.SoilRaw
	}
	if r.Pressure != nil {
		doc["pressure"] = *r.Pressure
	}
	if r.Humidity != nil {
		doc["humidity"] = *r.Humidity
	}
	if r.LightBright != nil {
		doc["lightBright"] = *r.LightBright
	}
	if r.PumpRunning != nil {
		doc["pumpRunning"] = *r.PumpRunning
	}
	if r.Health != nil {
		doc["health"] = *r.Health
	}
	if r.Timestamp != 0 {
		doc["timestamp"] = r.Timestamp
	}
	if r.WifiSSID != nil {
		doc["wifiSSID"] = *r.WifiSSID
	}
	if r.WifiRSSI != nil {
		doc["wifiRSSI"] = *r.WifiRSSI
	}
	return json.Marshal(doc)
}

func numField(raw map[string]any, key string) (float64, bool) {
	v, ok := raw[key].(float64)
	return v, ok
}

func boolField(raw map[string]any, key string) (bool, bool) {
	v, ok := raw[key].(bool)
	return v, ok
}

func strField(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key].(string)
	return v, ok
}

// Control-plane payloads come from our own writes, so they decode strictly:
// anything that does not parse is ErrMalformedPayload.

func DecodeSchedule(payload []byte) (Schedule, error) {
	var s Schedule
	if err := json.Unmarshal(payload, &s); err != nil {
		return Schedule{}, fmt.Errorf("%w: schedule: %v", ErrMalformedPayload, err)
	}
	return s, nil
}

func DecodeCalibration(payload []byte) (logic.CalibrationBounds, error) {
	var doc struct {
		BoneDry   *int `json:"boneDry"`
		Submerged *int `json:"submerged"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return logic.CalibrationBounds{}, fmt.Errorf("%w: calibration: %v", ErrMalformedPayload, err)
	}
	return logic.CalibrationBounds{BoneDry: doc.BoneDry, Submerged: doc.Submerged}, nil
}

func EncodeCalibration(cal logic.CalibrationBounds) ([]byte, error) {
	doc := struct {
		BoneDry   *int `json:"boneDry"`
		Submerged *int `json:"submerged"`
	}{cal.BoneDry, cal.Submerged}
	return json.Marshal(doc)
}

func DecodeAlert(payload []byte) (*Alert, error) {
	var a Alert
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("%w: alert: %v", ErrMalformedPayload, err)
	}
	return &a, nil
}

func DecodeDiagnostics(payload []byte) (*Diagnostics, error) {
	var d Diagnostics
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("%w: diagnostics: %v", ErrMalformedPayload, err)
	}
	return &d, nil
}

func DecodeWaterLogEntry(payload []byte) (WaterLogEntry, error) {
	var e WaterLogEntry
	if err := json.Unmarshal(payload, &e); err != nil {
		return WaterLogEntry{}, fmt.Errorf("%w: waterlog: %v", ErrMalformedPayload, err)
	}
	return e, nil
}

// profileDoc is the wire form of a plant profile. The domain type carries no
// JSON tags; the mapping lives here at the boundary.
type profileDoc struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	CreatedAt       int64    `json:"createdAt"`
	SoilMin         *int     `json:"soilMin,omitempty"`
	SoilMax         *int     `json:"soilMax,omitempty"`
	TempMin         *float64 `json:"tempMin,omitempty"`
	TempMax         *float64 `json:"tempMax,omitempty"`
	HumidityMin     *float64 `json:"humidityMin,omitempty"`
	HumidityMax     *float64 `json:"humidityMax,omitempty"`
	LightPreference string   `json:"lightPreference,omitempty"`
}

func EncodeProfile(p logic.Profile) ([]byte, error) {
	return json.Marshal(profileDoc{
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
	})
}

func DecodeProfile(payload []byte) (logic.Profile, error) {
	var doc profileDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return logic.Profile{}, fmt.Errorf("%w: profile: %v", ErrMalformedPayload, err)
	}
	return logic.Profile{
		Name:            doc.Name,
		Type:            doc.Type,
		CreatedAt:       doc.CreatedAt,
		SoilMin:         doc.SoilMin,
		SoilMax:         doc.SoilMax,
		TempMin:         doc.TempMin,
		TempMax:         doc.TempMax,
		HumidityMin:     doc.HumidityMin,
		HumidityMax:     doc.HumidityMax,
		LightPreference: logic.LightPreference(doc.LightPreference),
	}, nil
}

func DecodeDeviceMeta(payload []byte) (DeviceMeta, error) {
	var m DeviceMeta
	if err := json.Unmarshal(payload, &m); err != nil {
		return DeviceMeta{}, fmt.Errorf("%w: device meta: %v", ErrMalformedPayload, err)
	}
	return m, nil
}

// DecodeTarget parses a bare JSON number target-moisture payload.
func DecodeTarget(payload []byte) (int, error) {
	var t int
	if err := json.Unmarshal(payload, &t); err != nil {
		return 0, fmt.Errorf("%w: target: %v", ErrMalformedPayload, err)
	}
	return t, nil
}
