// Package metrics records run and step counters in Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_browser_use"

var _ output.RunMetrics = (*Prometheus)(nil)

type Prometheus struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsRejected  prometheus.Counter
	runsActive    prometheus.Gauge
	runsFinished  *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	steps         prometheus.Counter
	actions       prometheus.Counter
	actionFailure *prometheus.CounterVec
}

// New registers the collectors on a private registry, together with the
// Go runtime and process collectors.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	m := &Prometheus{
		registry: reg,
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_started_total",
			Help: "Agent runs admitted.",
		}),
		runsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_rejected_total",
			Help: "Agent runs rejected because another run was active.",
		}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "runs_active",
			Help: "Agent runs in progress.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_finished_total",
			Help: "Agent runs finished, by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of agent runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"outcome"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "steps_total",
			Help: "Agent steps completed.",
		}),
		actions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "actions_total",
			Help: "Actions executed by completed steps.",
		}),
		actionFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "action_failures_total",
			Help: "Actions that returned an error, by action name.",
		}, []string{"action"}),
	}

	reg.MustRegister(
		m.runsStarted, m.runsRejected, m.runsActive, m.runsFinished,
		m.runDuration, m.steps, m.actions, m.actionFailure,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Prometheus) RunStarted() {
	m.runsStarted.Inc()
	m.runsActive.Inc()
}

func (m *Prometheus) RunFinished(outcome string, d time.Duration) {
	m.runsActive.Dec()
	m.runsFinished.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Prometheus) RunRejected() {
	m.runsRejected.Inc()
}

func (m *Prometheus) StepCompleted(actions int) {
	m.steps.Inc()
	m.actions.Add(float64(actions))
}

func (m *Prometheus) ActionFailed(name string) {
	m.actionFailure.WithLabelValues(name).Inc()
}
