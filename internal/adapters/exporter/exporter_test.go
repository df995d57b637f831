package exporter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/NSchrading/air-qual-sensors/internal/adapters/observability"
)

func TestServeGaugeSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sensor_co2_ppm",
		Help: "CO2 PPM at a point in time.",
	})
	reg.MustRegister(g)
	g.Set(450)

	srv := New("127.0.0.1:0", reg, observability.FromLogger(zap.NewNop()))
	if err := srv.Start(); err != nil {
		t.Fatalf("start exporter: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", srv.Addr()))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "sensor_co2_ppm 450") {
		t.Fatalf("expected sensor_co2_ppm 450 in exposition, got:\n%s", body)
	}
}

func TestProbeRootEndpoint(t *testing.T) {
	srv := New("127.0.0.1:0", prometheus.NewRegistry(), observability.FromLogger(zap.NewNop()))
	if err := srv.Start(); err != nil {
		t.Fatalf("start exporter: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	resp, err := http.Get("http://" + srv.Addr())
	if err != nil {
		t.Fatalf("probe root: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from probe endpoint, got %d", resp.StatusCode)
	}
}

func TestRestartWhileStillBound(t *testing.T) {
	srv := New("127.0.0.1:0", prometheus.NewRegistry(), observability.FromLogger(zap.NewNop()))
	if err := srv.Start(); err != nil {
		t.Fatalf("start exporter: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	// Re-invoking startup against our own live port must not error: the
	// health monitor calls Start unconditionally when the probe fails.
	if err := srv.Start(); err != nil {
		t.Fatalf("expected idempotent restart, got %v", err)
	}
}
