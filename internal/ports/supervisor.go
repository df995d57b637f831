package ports

import "context"

// Supervisor owns the lifecycle of one externally-spawned long-running
// process. No other component may terminate or read from that process
// directly; everything goes through these operations.
type Supervisor interface {
	// Start spawns a fresh process. It fails when the process exits within
	// the immediate post-spawn check, which indicates unrecoverable
	// misconfiguration.
	Start() error
	// Restart terminates the current process if it is still alive (graceful
	// signal, bounded wait) and then unconditionally calls Start.
	Restart() error
	// IsAlive reports whether the process handle reports still-running.
	IsAlive() bool
	// Owned reports whether we currently hold a process handle at all.
	Owned() bool
	// Stop terminates the supervised process without starting a new one.
	Stop(ctx context.Context) error
}

// Prober issues a bounded-timeout liveness request against an HTTP status
// endpoint. Any transport failure counts as not-alive; logFailure controls
// whether the failure is logged.
type Prober interface {
	Probe(ctx context.Context, url string, logFailure bool) bool
}
