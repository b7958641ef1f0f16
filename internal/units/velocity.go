package units

import "math"

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, MPH, KMPH, KPH}

// IsValidSpeed checks if the given unit is in the list of valid speed units
func IsValidSpeed(unit string) bool {
	for _, u := range ValidSpeedUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// SpeedMPS returns the straight-line speed in m/s between two positions in
// meters observed dt seconds apart. Non-positive dt yields 0.
func SpeedMPS(x1, y1, x2, y2, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return math.Hypot(x2-x1, y2-y1) / dt
}
