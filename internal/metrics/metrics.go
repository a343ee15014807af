// Package metrics keeps per-process Prometheus counters for the MCP server.
// There is no listener; the registry is written to a node_exporter textfile
// on shutdown.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeNotice = "notification"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	Requests     *prometheus.CounterVec
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	BytesWritten prometheus.Counter
	Uptime       prometheus.GaugeFunc

	registry *prometheus.Registry
	textfile string
}

// New registers all collectors. textfile may be empty, in which case Flush
// does nothing.
func New(textfile string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	start := time.Now()

	return &Metrics{
		registry: reg,
		textfile: textfile,

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rexterm_requests_total",
				Help: "JSON-RPC messages handled, by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rexterm_tool_calls_total",
				Help: "Tool invocations, by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rexterm_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"tool"},
		),
		BytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rexterm_pty_bytes_written_total",
				Help: "Bytes written to the terminal by tool calls",
			},
		),
		Uptime: factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "rexterm_uptime_seconds",
				Help: "Seconds since the server started",
			},
			func() float64 { return time.Since(start).Seconds() },
		),
	}
}

func (m *Metrics) ObserveRequest(method, outcome string) {
	m.Requests.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveToolCall(tool string, isError bool, d time.Duration) {
	outcome := OutcomeOK
	if isError {
		outcome = OutcomeError
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// AddBytesWritten matches tools.WithWriteObserver.
func (m *Metrics) AddBytesWritten(n int) {
	if n > 0 {
		m.BytesWritten.Add(float64(n))
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Flush writes the registry to the configured textfile atomically.
func (m *Metrics) Flush() error {
	if m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}
