package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// Config describes how to spawn and supervise the metrics backend process.
type Config struct {
	Binary     string `yaml:"binary"`
	ConfigFile string `yaml:"config_file"`
	Retention  string `yaml:"retention"`
	StatusURL  string `yaml:"status_url"`

	// SpawnCheck is how long a freshly spawned process must stay up before
	// Start considers the spawn successful.
	SpawnCheck time.Duration `yaml:"spawn_check"`
	// TerminateTimeout bounds the graceful-terminate wait during Restart.
	TerminateTimeout time.Duration `yaml:"terminate_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.SpawnCheck <= 0 {
		c.SpawnCheck = 500 * time.Millisecond
	}
	if c.TerminateTimeout <= 0 {
		c.TerminateTimeout = 30 * time.Second
	}
}

// PrometheusProc supervises one externally-spawned metrics backend. It is the
// sole owner of the process handle; the health monitor drives it exclusively
// through Start, Restart, IsAlive and Owned.
type PrometheusProc struct {
	cfg     Config
	obs     ports.Observability
	procObs ports.Observability

	mu      sync.Mutex
	proc    *procHandle
	started time.Time
}

// procHandle bundles one spawned process with its wait state. waitErr is
// written once by the wait goroutine before done is closed and only read
// after done is observed closed.
type procHandle struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

func (h *procHandle) alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func New(cfg Config, obs ports.Observability) *PrometheusProc {
	cfg.ApplyDefaults()
	return &PrometheusProc{
		cfg: cfg,
		obs: obs.Component("supervisor"),
		// Forwarded backend output is tagged with its own component so it
		// is distinguishable from our own diagnostics.
		procObs: obs.Component("prometheus"),
	}
}

// Start spawns the backend with its fixed argument set. A process that exits
// within the spawn-check window indicates unrecoverable misconfiguration and
// is reported as an error rather than retried here. Starting over a live
// owned process is refused; Restart replaces it.
func (s *PrometheusProc) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *PrometheusProc) startLocked() error {
	if s.aliveLocked() {
		return fmt.Errorf("backend already running (pid %d), use Restart", s.proc.cmd.Process.Pid)
	}

	cmd := exec.Command(s.cfg.Binary,
		"--config.file="+s.cfg.ConfigFile,
		"--storage.tsdb.retention.time="+s.cfg.Retention,
	)

	// Merge stdout and stderr into one pipe. The parent closes its write
	// end right after the spawn, so the drain goroutine reads until the
	// child exits and then ends naturally; no reader outlives the process.
	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("spawn %s: %w", s.cfg.Binary, err)
	}
	pw.Close()

	h := &procHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	go s.drain(pr)

	select {
	case <-h.done:
		return fmt.Errorf("backend exited immediately after spawn: %v", h.waitErr)
	case <-time.After(s.cfg.SpawnCheck):
	}

	s.proc = h
	s.started = time.Now()
	s.obs.LogInfo("backend started",
		ports.Field{Key: "pid", Value: cmd.Process.Pid},
		ports.Field{Key: "binary", Value: s.cfg.Binary})
	return nil
}

// drain forwards backend output line by line until the pipe reaches EOF,
// which happens when the child exits and the kernel drops its write end.
// ReadString accumulates lines of any length, so a verbose backend can never
// starve the pipe of its only reader.
func (s *PrometheusProc) drain(pr *os.File) {
	defer pr.Close()
	r := bufio.NewReader(pr)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\n"); line != "" {
			s.procObs.LogDebug(line)
		}
		if err != nil {
			return
		}
	}
}

// IsAlive reports whether the current process handle is still running.
func (s *PrometheusProc) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aliveLocked()
}

func (s *PrometheusProc) aliveLocked() bool {
	return s.proc != nil && s.proc.alive()
}

// Owned reports whether this supervisor holds a process handle.
func (s *PrometheusProc) Owned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// StartedAt returns when the current process was spawned, or the zero time
// when no process is owned.
func (s *PrometheusProc) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return time.Time{}
	}
	return s.started
}

// Restart terminates the current process when it is still alive, waiting up
// to the configured timeout before escalating to a kill, then spawns a fresh
// one.
func (s *PrometheusProc) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.terminateLocked(s.cfg.TerminateTimeout)
	return s.startLocked()
}

// Stop terminates the supervised process without starting a replacement.
func (s *PrometheusProc) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timeout := s.cfg.TerminateTimeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	s.terminateLocked(timeout)
	return nil
}

func (s *PrometheusProc) terminateLocked(timeout time.Duration) {
	if s.proc == nil {
		return
	}
	if s.proc.alive() {
		_ = s.proc.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-s.proc.done:
		case <-time.After(timeout):
			s.obs.LogError("backend ignored terminate signal, killing", nil,
				ports.Field{Key: "pid", Value: s.proc.cmd.Process.Pid})
			_ = s.proc.cmd.Process.Kill()
			<-s.proc.done
		}
	}
	s.proc = nil
}

var _ ports.Supervisor = (*PrometheusProc)(nil)
