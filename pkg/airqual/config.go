package airqual

import (
	"github.com/NSchrading/air-qual-sensors/internal/adapters/sensor"
	"github.com/NSchrading/air-qual-sensors/internal/adapters/supervisor"
	"github.com/NSchrading/air-qual-sensors/internal/app/config"
)

// Config re-exports the root configuration struct so callers can construct
// or modify it programmatically.
type Config = config.Config

type (
	// BusConfig selects and clocks the I2C bus.
	BusConfig = config.BusConfig
	// SCD30Config holds the CO2 sensor calibration settings.
	SCD30Config = sensor.SCD30Config
	// BackendConfig describes the supervised metrics backend process.
	BackendConfig = supervisor.Config
	// ExporterConfig configures the local exporter endpoint.
	ExporterConfig = config.ExporterConfig
	// SamplingConfig sets the sensor polling cadence.
	SamplingConfig = config.SamplingConfig
	// MonitorConfig sets the health-check cadence and probe timeout.
	MonitorConfig = config.MonitorConfig
	// LogConfig points at the debug log file.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
