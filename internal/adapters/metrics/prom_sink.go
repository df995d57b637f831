package metrics

import (
	"fmt"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// PromSink is the gauge set backing the exporter endpoint. All metric names
// are registered up front; Set is a last-write-wins overwrite and each
// prometheus.Gauge is internally atomic, so the scraping agent always sees a
// consistent per-metric snapshot.
type PromSink struct {
	mu       sync.RWMutex
	registry *prometheus.Registry
	gauges   map[string]prometheus.Gauge
	strict   bool
	obs      ports.Observability
}

// NewPromSink builds an empty sink over its own registry. In strict mode a
// Set on an unregistered name panics instead of being dropped.
func NewPromSink(strict bool, obs ports.Observability) *PromSink {
	return &PromSink{
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]prometheus.Gauge),
		strict:   strict,
		obs:      obs,
	}
}

// Registry exposes the underlying registry so the exporter server can serve
// the gauge set.
func (p *PromSink) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PromSink) Register(name, help string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.gauges[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := p.registry.Register(g); err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	p.gauges[name] = g
	return nil
}

func (p *PromSink) Set(name string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		p.obs.LogError("dropping non-finite gauge value", nil,
			ports.Field{Key: "metric", Value: name})
		return
	}

	p.mu.RLock()
	g, ok := p.gauges[name]
	p.mu.RUnlock()

	if !ok {
		if p.strict {
			panic(fmt.Sprintf("metrics: set on unregistered gauge %q", name))
		}
		p.obs.LogError("set on unregistered gauge", nil,
			ports.Field{Key: "metric", Value: name})
		return
	}
	g.Set(value)
}

// Gauge returns the registered gauge for tests.
func (p *PromSink) Gauge(name string) (prometheus.Gauge, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.gauges[name]
	return g, ok
}

var _ ports.MetricSink = (*PromSink)(nil)
