package airqual

import (
	"github.com/NSchrading/air-qual-sensors/internal/domain"
	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// Aliases for the core ports so embedders can provide their own sensors,
// sinks, or supervision without importing internal packages.
type (
	Reading       = domain.Reading
	FieldSpec     = domain.FieldSpec
	Field         = ports.Field
	SensorSource  = ports.SensorSource
	MetricSink    = ports.MetricSink
	Supervisor    = ports.Supervisor
	Prober        = ports.Prober
	Observability = ports.Observability
)

// CelsiusToFahrenheit re-exports the temperature conversion applied before
// publication.
func CelsiusToFahrenheit(c float64) float64 {
	return domain.CelsiusToFahrenheit(c)
}
