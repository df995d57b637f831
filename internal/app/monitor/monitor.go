package monitor

import (
	"context"
	"time"

	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// Monitor periodically evaluates two independent liveness conditions: the
// supervised metrics backend and the local exporter endpoint. Both checks run
// every tick regardless of each other's outcome, and ticks never overlap.
type Monitor struct {
	sup            ports.Supervisor
	prober         ports.Prober
	backendURL     string
	exporterURL    string
	restartExports func() error
	obs            ports.Observability
}

func New(sup ports.Supervisor, prober ports.Prober, backendURL, exporterURL string, restartExports func() error, obs ports.Observability) *Monitor {
	return &Monitor{
		sup:            sup,
		prober:         prober,
		backendURL:     backendURL,
		exporterURL:    exporterURL,
		restartExports: restartExports,
		obs:            obs.Component("monitor"),
	}
}

// Run ticks on the given interval until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one round of health checks.
func (m *Monitor) Tick(ctx context.Context) {
	m.checkBackend(ctx)
	m.checkExporter(ctx)
}

func (m *Monitor) checkBackend(ctx context.Context) {
	healthy := m.prober.Probe(ctx, m.backendURL, true)

	switch {
	case !m.sup.Owned():
		if healthy {
			return
		}
		m.obs.LogError("backend appears to have died, but we didn't start it originally; starting our own", nil)
		if err := m.sup.Start(); err != nil {
			m.obs.LogError("backend start failed", err)
		}

	case m.sup.IsAlive():
		if healthy {
			return
		}
		m.obs.LogError("backend returned a bad response but is still running; terminating and restarting", nil)
		if err := m.sup.Restart(); err != nil {
			m.obs.LogError("backend restart failed", err)
		}

	default:
		// Owned but exited, regardless of what the probe said.
		m.obs.LogError("backend died, restarting", nil)
		if err := m.sup.Restart(); err != nil {
			m.obs.LogError("backend restart failed", err)
		}
	}
}

func (m *Monitor) checkExporter(ctx context.Context) {
	if m.prober.Probe(ctx, m.exporterURL, true) {
		return
	}
	m.obs.LogError("exporter endpoint unresponsive, re-invoking startup", nil)
	if err := m.restartExports(); err != nil {
		m.obs.LogError("exporter restart failed", err)
	}
}
