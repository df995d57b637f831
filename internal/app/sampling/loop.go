package sampling

import (
	"context"
	"time"

	"github.com/NSchrading/air-qual-sensors/internal/domain"
	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// RegisterAll pre-registers every gauge the given sources publish to.
// Registration happens exactly once, before the first sample is taken.
func RegisterAll(sink ports.MetricSink, sources []ports.SensorSource) error {
	for _, src := range sources {
		for _, spec := range src.Fields() {
			if err := sink.Register(spec.Metric, spec.Help); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run polls every source on a fixed cadence and publishes domain-valid field
// values to the sink until the context is cancelled. An absent reading skips
// that sensor's gauges for the iteration; the previously published values
// stand, with no expiry.
func Run(ctx context.Context, interval time.Duration, sources []ports.SensorSource, sink ports.MetricSink, obs ports.Observability) error {
	log := obs.Component("sampling")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.LogInfo("entering main loop to read sensor data")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sampleAll(ctx, sources, sink, log)
		}
	}
}

// sampleAll runs one iteration. A fault reading one sensor never blocks or
// delays the others; the source adapters have already converted transport
// errors into absent readings.
func sampleAll(ctx context.Context, sources []ports.SensorSource, sink ports.MetricSink, log ports.Observability) {
	for _, src := range sources {
		reading, ok := src.Read(ctx)
		if !ok {
			continue
		}
		publish(reading, src.Fields(), sink, log)
	}
}

func publish(reading *domain.Reading, specs []domain.FieldSpec, sink ports.MetricSink, log ports.Observability) {
	for _, spec := range specs {
		v, present := reading.Fields[spec.Field]
		if !present {
			continue
		}
		if !domain.ValidValue(v) {
			log.LogDebug("suppressing sensor-invalid value",
				ports.Field{Key: "sensor", Value: reading.SensorID},
				ports.Field{Key: "field", Value: spec.Field},
				ports.Field{Key: "value", Value: v})
			continue
		}
		if spec.Convert != nil {
			v = spec.Convert(v)
		}
		sink.Set(spec.Metric, v)
	}
}
