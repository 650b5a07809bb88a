package model

// MaxOdometer is the exclusive upper bound of a plausible odometer reading.
const MaxOdometer = 2_000_000

// ValidOdometer reports whether km is a plausible odometer reading.
func ValidOdometer(km int) bool {
	return km >= 0 && km < MaxOdometer
}
