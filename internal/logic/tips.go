package logic

import (
	"fmt"
	"math"
)

// EvaluateTips compares the current reading against a profile's ideal ranges
// and returns advisory tips in a fixed relative order: soil, temperature,
// humidity, light. Each rule is evaluated independently; a call may emit
// zero to four tips. Returns nil if either input is absent.
//
// Humidity is asymmetric on purpose: an in-range humidity produces no tip at
// all, where in-range soil and temperature produce an explicit ok tip.
// Humidity is advisory-only in this product.
func EvaluateTips(r *Reading, p *Profile) []Tip {
	if r == nil || p == nil {
		return nil
	}

	var tips []Tip

	if p.SoilMin != nil && p.SoilMax != nil && *p.SoilMin != *p.SoilMax && r.SoilRaw != nil {
		min, max := *p.SoilMin, *p.SoilMax
		if min > max {
			min, max = max, min
		}
		raw := *r.SoilRaw
		switch {
		case raw < min:
			tips = append(tips, Tip{
				ID:       "soil-wet",
				Message:  fmt.Sprintf("Soil is wetter than ideal for %s — hold off on watering.", p.Name),
				Severity: SeverityInfo,
			})
		case raw > max:
			tips = append(tips, Tip{
				ID:       "soil-dry",
				Message:  fmt.Sprintf("Soil is drier than %s likes — consider watering.", p.Name),
				Severity: SeverityWarning,
			})
		default:
			tips = append(tips, Tip{
				ID:       "soil-ok",
				Message:  fmt.Sprintf("Soil moisture is in the ideal range for %s.", p.Name),
				Severity: SeverityOK,
			})
		}
	}

	if p.TempMin != nil && p.TempMax != nil && r.Temperature != nil && !math.IsNaN(*r.Temperature) {
		t := *r.Temperature
		switch {
		case t < *p.TempMin:
			tips = append(tips, Tip{
				ID:       "temp-low",
				Message:  fmt.Sprintf("%.1f°C is below the %g–%g°C range %s prefers.", t, *p.TempMin, *p.TempMax, p.Name),
				Severity: SeverityWarning,
			})
		case t > *p.TempMax:
			tips = append(tips, Tip{
				ID:       "temp-high",
				Message:  fmt.Sprintf("%.1f°C is above the %g–%g°C range %s prefers.", t, *p.TempMin, *p.TempMax, p.Name),
				Severity: SeverityWarning,
			})
		default:
			tips = append(tips, Tip{
				ID:       "temp-ok",
				Message:  fmt.Sprintf("%.1f°C is within the %g–%g°C range %s prefers.", t, *p.TempMin, *p.TempMax, p.Name),
				Severity: SeverityOK,
			})
		}
	}

	if p.HumidityMin != nil && p.HumidityMax != nil && r.Humidity != nil && !math.IsNaN(*r.Humidity) {
		h := *r.Humidity
		switch {
		case h < *p.HumidityMin:
			tips = append(tips, Tip{
				ID:       "hum-low",
				Message:  fmt.Sprintf("Air is drier than %s prefers (%.0f%% humidity).", p.Name, h),
				Severity: SeverityInfo,
			})
		case h > *p.HumidityMax:
			tips = append(tips, Tip{
				ID:       "hum-high",
				Message:  fmt.Sprintf("Air is more humid than %s prefers (%.0f%% humidity).", p.Name, h),
				Severity: SeverityInfo,
			})
		}
		// In-range humidity: no tip.
	}

	if (p.LightPreference == LightBright || p.LightPreference == LightDim) && r.LightBright != nil {
		bright := *r.LightBright
		if p.LightPreference == LightBright && !bright {
			tips = append(tips, Tip{
				ID:       "light-dim",
				Message:  fmt.Sprintf("%s prefers bright light, but the spot looks dim right now.", p.Name),
				Severity: SeverityInfo,
			})
		} else if p.LightPreference == LightDim && bright {
			tips = append(tips, Tip{
				ID:       "light-bright",
				Message:  fmt.Sprintf("%s prefers dim light, but the spot looks bright right now.", p.Name),
				Severity: SeverityInfo,
			})
		}
		// Matching light: no tip.
	}

	return tips
}
