// Package units provides shared constants and validation for the speed
// and distance units exposed by the API and report layers. Tracking data
// is stored in metres and metres per second; conversion happens only here.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

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
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from metres per second to the target units.
// The tracking feed and the database store speeds in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694 // m/s to mph
	case KMPH, KPH:
		return speedMPS * 3.6 // m/s to km/h
	case MPS:
		return speedMPS // no conversion needed
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// ConvertDistance converts a distance in metres to the length unit paired
// with the given speed unit: miles for mph, kilometres for kmph/kph,
// metres otherwise. Distance metrics are stored in metres.
func ConvertDistance(distanceM float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return distanceM / 1609.344
	case KMPH, KPH:
		return distanceM / 1000.0
	default:
		return distanceM
	}
}
