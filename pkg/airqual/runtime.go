package airqual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/NSchrading/air-qual-sensors/internal/adapters/exporter"
	"github.com/NSchrading/air-qual-sensors/internal/adapters/metrics"
	"github.com/NSchrading/air-qual-sensors/internal/adapters/observability"
	"github.com/NSchrading/air-qual-sensors/internal/adapters/sensor"
	"github.com/NSchrading/air-qual-sensors/internal/adapters/supervisor"
	"github.com/NSchrading/air-qual-sensors/internal/app/monitor"
	"github.com/NSchrading/air-qual-sensors/internal/app/sampling"
	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// Option customizes the dependencies used by Runtime.
type Option func(*runtimeOverrides)

type runtimeOverrides struct {
	sources       []ports.SensorSource
	sink          ports.MetricSink
	supervisor    ports.Supervisor
	prober        ports.Prober
	observability ports.Observability
	exporter      *exporter.Server
}

// WithSensors replaces the default hardware sensors (simulators, additional
// devices, and so on).
func WithSensors(sources ...ports.SensorSource) Option {
	return func(o *runtimeOverrides) {
		o.sources = sources
	}
}

// WithSink injects a custom metric sink.
func WithSink(s ports.MetricSink) Option {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithSupervisor injects a custom backend supervisor.
func WithSupervisor(s ports.Supervisor) Option {
	return func(o *runtimeOverrides) {
		o.supervisor = s
	}
}

// WithProber injects a custom liveness prober.
func WithProber(p ports.Prober) Option {
	return func(o *runtimeOverrides) {
		o.prober = p
	}
}

// WithObservability plugs in a custom logging backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithExporter injects a pre-built exporter server, mainly for tests that
// bind ephemeral ports.
func WithExporter(e *exporter.Server) Option {
	return func(o *runtimeOverrides) {
		o.exporter = e
	}
}

// Runtime wires the sampling loop, the exporter endpoint, and the backend
// supervision together and exposes simple lifecycle hooks for embedding the
// agent inside any Go service.
type Runtime struct {
	cfg      *Config
	obs      ports.Observability
	zapObs   *observability.ZapObs
	sink     ports.MetricSink
	sources  []ports.SensorSource
	sup      ports.Supervisor
	prober   ports.Prober
	exporter *exporter.Server
	mon      *monitor.Monitor
	bus      i2c.BusCloser
}

// New bootstraps the default adapters: periph.io I2C sensors, a
// prometheus-backed gauge set with its exporter server, and the supervised
// metrics backend. Options override any dependency.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	var zapObs *observability.ZapObs
	if obs == nil {
		var err error
		zapObs, err = observability.New(cfg.Log.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		obs = zapObs
	}

	snk := overrides.sink
	if snk == nil {
		snk = metrics.NewPromSink(cfg.Exporter.StrictMetrics, obs)
	}

	exp := overrides.exporter
	if exp == nil {
		prom, ok := snk.(*metrics.PromSink)
		if !ok {
			return nil, fmt.Errorf("custom sinks require WithExporter")
		}
		exp = exporter.New(cfg.Exporter.Addr, prom.Registry(), obs)
	}

	sup := overrides.supervisor
	if sup == nil {
		sup = supervisor.New(cfg.Backend, obs)
	}

	prober := overrides.prober
	if prober == nil {
		prober = supervisor.NewHTTPProber(cfg.Monitor.ProbeTimeout, obs)
	}

	sources := overrides.sources
	var bus i2c.BusCloser
	if sources == nil {
		var err error
		bus, err = sensor.OpenBus(cfg.Bus.Name, physic.Frequency(cfg.Bus.FrequencyHz)*physic.Hertz)
		if err != nil {
			return nil, fmt.Errorf("initialize sensor bus: %w", err)
		}
		scd, err := sensor.NewSCD30(bus, cfg.SCD30, obs)
		if err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("initialize scd30: %w", err)
		}
		sources = []ports.SensorSource{scd, sensor.NewPMSA003(bus, obs)}
	}

	if err := sampling.RegisterAll(snk, sources); err != nil {
		return nil, err
	}

	mon := monitor.New(sup, prober, cfg.Backend.StatusURL, cfg.Exporter.URL, exp.Start, obs)

	return &Runtime{
		cfg:      cfg,
		obs:      obs,
		zapObs:   zapObs,
		sink:     snk,
		sources:  sources,
		sup:      sup,
		prober:   prober,
		exporter: exp,
		mon:      mon,
		bus:      bus,
	}, nil
}

// Run starts everything and blocks until the context is cancelled, then
// attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sampling.Run(gctx, r.cfg.Sampling.Interval, r.sources, r.sink, r.obs)
	})
	g.Go(func() error {
		return r.mon.Run(gctx, r.cfg.Monitor.Interval)
	})
	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.Backend.TerminateTimeout+5*time.Second)
	defer cancel()
	return errors.Join(err, r.Shutdown(shutdownCtx))
}

// Start performs the boot sequence: spawn our own backend only when no
// healthy one is already reachable, then bring up the exporter endpoint.
// Both failure modes here are unrecoverable configuration errors.
func (r *Runtime) Start(ctx context.Context) error {
	r.obs.LogInfo("starting air quality measurement agent")

	// Probed silently: an absent backend at boot is the normal case, not a
	// fault worth an error-level entry.
	if !r.prober.Probe(ctx, r.cfg.Backend.StatusURL, false) {
		if err := r.sup.Start(); err != nil {
			return fmt.Errorf("start metrics backend: %w", err)
		}
	}

	if err := r.exporter.Start(); err != nil {
		return fmt.Errorf("start exporter: %w", err)
	}
	return nil
}

// Shutdown drains and stops everything: exporter first so the scraper stops
// seeing partial state, then the supervised backend, then the sensor bus.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.exporter != nil {
		if err := r.exporter.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.sup != nil {
		if err := r.sup.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.zapObs != nil {
		_ = r.zapObs.Sync()
	}

	return errors.Join(errs...)
}
