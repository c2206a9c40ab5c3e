// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "provisioner"

type Metrics struct {
	registry *prometheus.Registry

	BootMode        *prometheus.GaugeVec
	OTASessions     *prometheus.CounterVec
	OTABytes        prometheus.Counter
	Commands        *prometheus.CounterVec
	Broadcasts      prometheus.Counter
	Listeners       prometheus.Gauge
	StatusSkipped   prometheus.Counter
	LoopJobFailures prometheus.Counter
}

// New builds a fresh registry so several devices can live in one test binary.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		BootMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "1 for the connection state reached at boot.",
		}, []string{"state"}),
		OTASessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ota_sessions_total",
			Help:      "Firmware upload sessions by final phase.",
		}, []string{"phase"}),
		OTABytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ota_bytes_written_total",
			Help:      "Firmware bytes written to the update slot.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_commands_total",
			Help:      "Control channel frames by outcome.",
		}, []string{"outcome"}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_lines_total",
			Help:      "Lines broadcast on the control channel.",
		}),
		Listeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control_listeners",
			Help:      "Connected control channel listeners.",
		}),
		StatusSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_ticks_unchanged_total",
			Help:      "Status evaluations that crossed no threshold.",
		}),
		LoopJobFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_job_panics_total",
			Help:      "Run loop jobs that panicked and were recovered.",
		}),
	}
	reg.MustRegister(
		m.BootMode, m.OTASessions, m.OTABytes, m.Commands,
		m.Broadcasts, m.Listeners, m.StatusSkipped, m.LoopJobFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
