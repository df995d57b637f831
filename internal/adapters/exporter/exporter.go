package exporter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// Server serves the gauge set in the text exposition format on a fixed local
// port, for the scraping agent to pull.
type Server struct {
	addr string
	reg  *prometheus.Registry
	obs  ports.Observability

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

func New(addr string, reg *prometheus.Registry, obs ports.Observability) *Server {
	return &Server{addr: addr, reg: reg, obs: obs.Component("exporter")}
}

// Start binds the exporter port and serves in the background. Start is safe
// to re-invoke from the health monitor: if the port is already bound by our
// own live server the call is a logged no-op. Any other bind failure
// propagates; at startup that is fatal.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) && s.srv != nil {
			s.obs.LogInfo("exporter port still bound, server assumed running",
				ports.Field{Key: "addr", Value: s.addr})
			return nil
		}
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Handler: mux}
	s.srv = srv
	s.ln = ln
	// Pin the concrete address so a later re-invocation contends for the
	// same port instead of binding a fresh ephemeral one.
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.obs.LogError("exporter server exited", err)
		}
	}()

	s.obs.LogInfo("exporter server started", ports.Field{Key: "addr", Value: ln.Addr().String()})
	return nil
}

// Addr returns the bound listener address, or the configured address if the
// server has not started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
