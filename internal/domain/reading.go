package domain

import (
	"math"
	"time"
)

// Reading is one sensor's complete set of measured fields for a single poll.
// A reading is produced atomically: either every field the sensor reports is
// present, or no reading is produced at all.
type Reading struct {
	SensorID  string
	Timestamp time.Time
	Fields    map[string]float64
}

// FieldSpec declares one measured field and the gauge it publishes to.
// Convert, when set, is applied to the raw field value before publication
// (e.g. Celsius to Fahrenheit).
type FieldSpec struct {
	Field   string
	Metric  string
	Help    string
	Convert func(float64) float64
}

// CelsiusToFahrenheit converts a temperature in Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*(9.0/5.0) + 32.0
}

// ValidValue reports whether v is a domain-valid measurement. Real sensor
// output for these physical quantities is always positive and finite;
// non-positive values mean the sensor has not produced a legitimate reading
// yet and must not overwrite a previously published gauge.
func ValidValue(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
