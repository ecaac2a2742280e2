// Package metrics exposes Prometheus collectors for the plugin host.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Stage metrics
	ActiveStages prometheus.Gauge
	StagesOpened *prometheus.CounterVec
	StagesClosed *prometheus.CounterVec

	// Frame metrics
	FramesIn      *prometheus.CounterVec
	FramesOut     *prometheus.CounterVec
	FramesFlushed *prometheus.CounterVec

	// Plugin behaviour
	ArityWarnings  *prometheus.CounterVec
	PluginFaults   *prometheus.CounterVec
	ProcessLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActiveStages: f.NewGauge(prometheus.GaugeOpts{
			Name: "framehost_active_stages",
			Help: "Number of stages that are open and not yet closed",
		}),
		StagesOpened: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_stages_opened_total",
				Help: "Total number of stages that reached ready",
			},
			[]string{"plugin"},
		),
		StagesClosed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_stages_closed_total",
				Help: "Total number of stages closed",
			},
			[]string{"plugin", "reason"}, // reason: eos, abort, fault
		),

		FramesIn: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_frames_in_total",
				Help: "Total number of frames handed to plugins",
			},
			[]string{"plugin"},
		),
		FramesOut: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_frames_out_total",
				Help: "Total number of frames forwarded downstream",
			},
			[]string{"plugin"},
		),
		FramesFlushed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_frames_flushed_total",
				Help: "Total number of frames released by plugin flushes",
			},
			[]string{"plugin"},
		),

		ArityWarnings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_arity_warnings_total",
				Help: "Total number of one_to_one calls that did not return exactly one frame",
			},
			[]string{"plugin"},
		),
		PluginFaults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framehost_plugin_faults_total",
				Help: "Total number of plugin faults",
			},
			[]string{"plugin", "phase"},
		),
		ProcessLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framehost_process_duration_seconds",
				Help:    "Duration of plugin process_frame calls",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us to ~1.6s
			},
			[]string{"plugin"},
		),
	}
}

// RecordStageOpen records a stage reaching ready.
func (m *Metrics) RecordStageOpen(plugin string) {
	if m == nil {
		return
	}
	m.ActiveStages.Inc()
	m.StagesOpened.WithLabelValues(plugin).Inc()
}

// RecordStageClose records a stage closing. wasOpen tells whether the
// stage had been counted as active.
func (m *Metrics) RecordStageClose(plugin, reason string, wasOpen bool) {
	if m == nil {
		return
	}
	if wasOpen {
		m.ActiveStages.Dec()
	}
	m.StagesClosed.WithLabelValues(plugin, reason).Inc()
}

// RecordProcess records one process_frame call.
func (m *Metrics) RecordProcess(plugin string, d time.Duration) {
	if m == nil {
		return
	}
	m.FramesIn.WithLabelValues(plugin).Inc()
	m.ProcessLatency.WithLabelValues(plugin).Observe(d.Seconds())
}

// RecordForward records frames forwarded downstream.
func (m *Metrics) RecordForward(plugin string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.FramesOut.WithLabelValues(plugin).Add(float64(n))
}

// RecordFlush records the frames a flush released.
func (m *Metrics) RecordFlush(plugin string, n int) {
	if m == nil {
		return
	}
	m.FramesFlushed.WithLabelValues(plugin).Add(float64(n))
}

// RecordArityWarning records a one_to_one violation.
func (m *Metrics) RecordArityWarning(plugin string) {
	if m == nil {
		return
	}
	m.ArityWarnings.WithLabelValues(plugin).Inc()
}

// RecordFault records a plugin fault.
func (m *Metrics) RecordFault(plugin, phase string) {
	if m == nil {
		return
	}
	m.PluginFaults.WithLabelValues(plugin, phase).Inc()
}
