package ports

// MetricSink exposes named gauges to the scraping agent. Every metric name is
// registered once at startup; Set is an unconditional last-write-wins
// overwrite, atomic per metric. Setting an unregistered name is a programming
// error: fatal in strict mode, logged and dropped otherwise.
type MetricSink interface {
	Register(name, help string) error
	Set(name string, value float64)
}
