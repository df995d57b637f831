package airqual

import (
	base "github.com/NSchrading/air-qual-sensors/pkg/airqual"
)

// Type aliases so consumers can import the module root directly.
type (
	Config         = base.Config
	BusConfig      = base.BusConfig
	SCD30Config    = base.SCD30Config
	BackendConfig  = base.BackendConfig
	ExporterConfig = base.ExporterConfig
	SamplingConfig = base.SamplingConfig
	MonitorConfig  = base.MonitorConfig
	LogConfig      = base.LogConfig

	Runtime = base.Runtime
	Option  = base.Option

	Reading       = base.Reading
	FieldSpec     = base.FieldSpec
	Field         = base.Field
	SensorSource  = base.SensorSource
	MetricSink    = base.MetricSink
	Supervisor    = base.Supervisor
	Prober        = base.Prober
	Observability = base.Observability
)

// Re-exported constructors and options.
var (
	LoadConfig        = base.LoadConfig
	New               = base.New
	WithSensors       = base.WithSensors
	WithSink          = base.WithSink
	WithSupervisor    = base.WithSupervisor
	WithProber        = base.WithProber
	WithObservability = base.WithObservability
)

// CelsiusToFahrenheit re-exports the temperature conversion.
func CelsiusToFahrenheit(c float64) float64 {
	return base.CelsiusToFahrenheit(c)
}
