// Package units provides shared constants and conversion for pitch
// coordinate and speed units.
package units

import "math"

// Length unit constants
const (
	Centimeters = "cm"
	Meters      = "m"
	Millimeters = "mm"
)

// CentimetersPerMeter is the default recorded-units-to-meters divisor.
// Tracking feeds record pitch coordinates in centimeters.
const CentimetersPerMeter = 100.0

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Centimeters, Meters, Millimeters}

// IsValidLength checks if the given unit is a known length unit
func IsValidLength(unit string) bool {
	for _, u := range ValidLengthUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// PerMeter returns how many of the given unit make one meter.
// Unknown units are treated as meters.
func PerMeter(unit string) float64 {
	switch unit {
	case Centimeters:
		return CentimetersPerMeter
	case Millimeters:
		return 1000
	default:
		return 1
	}
}

// ToMeters converts a coordinate in recorded units to meters using a divisor.
// A non-positive or non-finite scale leaves the value unchanged.
func ToMeters(v, scale float64) float64 {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return v
	}
	return v / scale
}
