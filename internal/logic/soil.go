package logic

// Default gauge range in raw ADC units, from empirical probe behavior
// (~1200 fully wet, ~3800 bone dry on a 12-bit ADC).
const (
	DefaultGaugeMin = 1200
	DefaultGaugeMax = 3800
)

// Fixed thresholds for the discrete soil classification.
const (
	soilSoggyMax = 1800
	soilIdealMax = 2500
	soilDryMax   = 3200
)

// GaugeFraction maps a raw ADC soil value to a normalized wetness fraction
// in [0,1]. The raw value rises as soil dries, so the mapping is inverted:
// lower raw → higher fraction.
//
// When both calibration bounds are set and unequal they replace the default
// range (order-independent; min/max taken dynamically). Equal bounds fall
// back to the default range so the mapping never divides by zero.
func GaugeFraction(raw int, cal CalibrationBounds) float64 {
	lo, hi := DefaultGaugeMin, DefaultGaugeMax
	if cal.BoneDry != nil && cal.Submerged != nil && *cal.BoneDry != *cal.Submerged {
		lo, hi = *cal.Submerged, *cal.BoneDry
		if lo > hi {
			lo, hi = hi, lo
		}
	}

	clamped := raw
	if clamped < lo {
		clamped = lo
	}
	if clamped > hi {
		clamped = hi
	}

	return 1 - float64(clamped-lo)/float64(hi-lo)
}

// SoilLevelFor classifies a raw soil value against fixed thresholds.
// Calibration intentionally does not apply here: user calibration only
// rescales the visual gauge, never the semantic label.
func SoilLevelFor(raw int) SoilLevel {
	switch {
	case raw <= soilSoggyMax:
		return SoilSoggy
	case raw <= soilIdealMax:
		return SoilIdeal
	case raw <= soilDryMax:
		return SoilDry
	default:
		return SoilVeryDry
	}
}
