// Package units provides shared constants and validation for bar speed units
package units

// Unit constants
const (
	MPS  = "mps"
	CMPS = "cmps"
	FPS  = "fps"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, CMPS, FPS}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, cmps, fps"
}

// ConvertSpeed converts a bar speed from meters per second to the target units.
// The engine and the session store always work in m/s; conversion happens only
// at the display boundary.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case CMPS:
		return speedMPS * 100 // m/s to cm/s
	case FPS:
		return speedMPS * 3.28084 // m/s to ft/s
	case MPS:
		return speedMPS // no conversion needed
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// Label returns the display suffix for the given unit.
func Label(unit string) string {
	switch unit {
	case CMPS:
		return "cm/s"
	case FPS:
		return "ft/s"
	default:
		return "m/s"
	}
}
