package monitor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/NSchrading/air-qual-sensors/internal/adapters/observability"
	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

type fakeSupervisor struct {
	owned    bool
	alive    bool
	starts   int
	restarts int
}

func (f *fakeSupervisor) Start() error {
	f.starts++
	f.owned = true
	f.alive = true
	return nil
}

func (f *fakeSupervisor) Restart() error {
	f.restarts++
	f.alive = true
	return nil
}

func (f *fakeSupervisor) IsAlive() bool                  { return f.alive }
func (f *fakeSupervisor) Owned() bool                    { return f.owned }
func (f *fakeSupervisor) Stop(ctx context.Context) error { return nil }

// fakeProber answers per-URL.
type fakeProber struct {
	healthy map[string]bool
}

func (f *fakeProber) Probe(ctx context.Context, url string, logFailure bool) bool {
	return f.healthy[url]
}

const (
	backendURL  = "http://localhost:9090/status"
	exporterURL = "http://localhost:8090/"
)

func newTestMonitor(sup *fakeSupervisor, prober *fakeProber, exporterRestarts *int) *Monitor {
	return New(sup, prober, backendURL, exporterURL, func() error {
		*exporterRestarts++
		return nil
	}, observability.FromLogger(zap.NewNop()))
}

func TestBackendDeadNotOurs(t *testing.T) {
	sup := &fakeSupervisor{}
	prober := &fakeProber{healthy: map[string]bool{backendURL: false, exporterURL: true}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if sup.starts != 1 || sup.restarts != 0 {
		t.Fatalf("expected exactly one start and no restart, got starts=%d restarts=%d", sup.starts, sup.restarts)
	}
}

func TestBackendUnresponsiveButRunning(t *testing.T) {
	sup := &fakeSupervisor{owned: true, alive: true}
	prober := &fakeProber{healthy: map[string]bool{backendURL: false, exporterURL: true}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if sup.restarts != 1 || sup.starts != 0 {
		t.Fatalf("expected exactly one restart and no start, got starts=%d restarts=%d", sup.starts, sup.restarts)
	}
}

func TestBackendHealthyNoAction(t *testing.T) {
	sup := &fakeSupervisor{owned: true, alive: true}
	prober := &fakeProber{healthy: map[string]bool{backendURL: true, exporterURL: true}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if sup.starts != 0 || sup.restarts != 0 {
		t.Fatalf("expected no supervisor action, got starts=%d restarts=%d", sup.starts, sup.restarts)
	}
	if exp != 0 {
		t.Fatalf("expected no exporter restart, got %d", exp)
	}
}

func TestBackendExitedRestartsEvenWhenProbeHealthy(t *testing.T) {
	// A stale healthy response must not mask a dead process.
	sup := &fakeSupervisor{owned: true, alive: false}
	prober := &fakeProber{healthy: map[string]bool{backendURL: true, exporterURL: true}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if sup.restarts != 1 {
		t.Fatalf("expected restart of exited process, got %d", sup.restarts)
	}
}

func TestBackendNotOursButHealthy(t *testing.T) {
	sup := &fakeSupervisor{}
	prober := &fakeProber{healthy: map[string]bool{backendURL: true, exporterURL: true}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if sup.starts != 0 || sup.restarts != 0 {
		t.Fatalf("healthy external backend must be left alone, got starts=%d restarts=%d", sup.starts, sup.restarts)
	}
}

func TestExporterRestart(t *testing.T) {
	sup := &fakeSupervisor{owned: true, alive: true}
	prober := &fakeProber{healthy: map[string]bool{backendURL: true, exporterURL: false}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if exp != 1 {
		t.Fatalf("expected exporter restart, got %d", exp)
	}
}

func TestBothChecksRunEveryTick(t *testing.T) {
	// Backend and exporter are independent fault domains: a backend
	// failure must not short-circuit the exporter check.
	sup := &fakeSupervisor{owned: true, alive: false}
	prober := &fakeProber{healthy: map[string]bool{backendURL: false, exporterURL: false}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	m.Tick(context.Background())

	if sup.restarts != 1 {
		t.Fatalf("expected backend restart, got %d", sup.restarts)
	}
	if exp != 1 {
		t.Fatalf("expected exporter restart, got %d", exp)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	sup := &fakeSupervisor{owned: true, alive: true}
	prober := &fakeProber{healthy: map[string]bool{backendURL: true, exporterURL: true}}
	var exp int
	m := newTestMonitor(sup, prober, &exp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error on cancel: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("monitor did not stop after cancel")
	}
}

var _ ports.Supervisor = (*fakeSupervisor)(nil)
var _ ports.Prober = (*fakeProber)(nil)
