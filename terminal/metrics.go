package terminal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the subsystem's Prometheus metrics. A Registerer is
// injected so independent Manager instances (e.g. in tests) never collide
// on metric registration.
type Metrics struct {
	TerminalsCreated prometheus.Counter
	TerminalsActive  prometheus.Gauge
	OutputBytes      prometheus.Counter
	Truncations      prometheus.Counter
	Kills            prometheus.Counter
	Releases         prometheus.Counter
	WaitTimeouts     prometheus.Counter
}

// NewMetrics creates and registers the subsystem metrics. A nil registerer
// gets a private registry, keeping the metrics live but unexported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		TerminalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentbridge_terminals_created_total",
			Help: "Total number of terminals created",
		}),
		TerminalsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentbridge_terminals_active",
			Help: "Number of terminals currently registered",
		}),
		OutputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentbridge_terminal_output_bytes_total",
			Help: "Total bytes of terminal output received from the host",
		}),
		Truncations: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentbridge_terminal_truncations_total",
			Help: "Number of terminals whose output was truncated",
		}),
		Kills: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentbridge_terminal_kills_total",
			Help: "Number of soft-kill requests delivered",
		}),
		Releases: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentbridge_terminal_releases_total",
			Help: "Number of terminals released",
		}),
		WaitTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentbridge_terminal_wait_timeouts_total",
			Help: "Number of wait_for_exit calls that timed out",
		}),
	}
}
