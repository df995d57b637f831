package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NSchrading/air-qual-sensors/internal/adapters/sensor"
	"github.com/NSchrading/air-qual-sensors/internal/adapters/supervisor"
)

type Config struct {
	Bus      BusConfig          `yaml:"bus"`
	SCD30    sensor.SCD30Config `yaml:"scd30"`
	Backend  supervisor.Config  `yaml:"backend"`
	Exporter ExporterConfig     `yaml:"exporter"`
	Sampling SamplingConfig     `yaml:"sampling"`
	Monitor  MonitorConfig      `yaml:"monitor"`
	Log      LogConfig          `yaml:"log"`
}

type BusConfig struct {
	Name        string `yaml:"name"`
	FrequencyHz int64  `yaml:"frequency_hz"`
}

type ExporterConfig struct {
	Addr          string `yaml:"addr"`
	URL           string `yaml:"url"`
	StrictMetrics bool   `yaml:"strict_metrics"`
}

type SamplingConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

type LogConfig struct {
	File string `yaml:"file"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Bus.FrequencyHz == 0 {
		// The SCD30 stops acknowledging above roughly this clock rate.
		c.Bus.FrequencyHz = 4450
	}
	if c.SCD30.TemperatureOffsetC == 0 {
		c.SCD30.TemperatureOffsetC = 3
	}
	if c.SCD30.AmbientPressureMbar == 0 {
		c.SCD30.AmbientPressureMbar = 1012
	}
	if c.SCD30.AltitudeM == 0 {
		c.SCD30.AltitudeM = 32
	}
	if c.SCD30.MeasureIntervalS == 0 {
		c.SCD30.MeasureIntervalS = 2
	}
	if c.Backend.Binary == "" {
		c.Backend.Binary = "prometheus"
	}
	if c.Backend.ConfigFile == "" {
		c.Backend.ConfigFile = "prometheus.yml"
	}
	if c.Backend.Retention == "" {
		c.Backend.Retention = "60d"
	}
	if c.Backend.StatusURL == "" {
		c.Backend.StatusURL = "http://localhost:9090/status"
	}
	c.Backend.ApplyDefaults()
	if c.Exporter.Addr == "" {
		c.Exporter.Addr = ":8090"
	}
	if c.Exporter.URL == "" {
		c.Exporter.URL = "http://localhost:8090/"
	}
	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = time.Second
	}
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = 30 * time.Second
	}
	if c.Monitor.ProbeTimeout == 0 {
		c.Monitor.ProbeTimeout = 5 * time.Second
	}
	if c.Log.File == "" {
		c.Log.File = "air_qual_measure.log"
	}
}

func (c *Config) validate() error {
	if c.Backend.Binary == "" {
		return fmt.Errorf("backend.binary is required")
	}
	if c.Backend.StatusURL == "" {
		return fmt.Errorf("backend.status_url is required")
	}
	if c.Exporter.Addr == "" {
		return fmt.Errorf("exporter.addr is required")
	}
	if c.Sampling.Interval <= 0 {
		return fmt.Errorf("sampling.interval must be positive")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	return nil
}
