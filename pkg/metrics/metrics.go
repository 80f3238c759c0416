// Package metrics exposes Prometheus instrumentation for a running
// Secure Channel: per-direction record and byte counters, the number
// of channels currently open, and mode-transition counts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hap"

// Registry is the metrics registry all hap collectors register into.
// A dedicated registry (rather than prometheus.DefaultRegisterer)
// keeps hapd's /metrics output free of the Go runtime collectors a
// library consumer may not want.
var Registry = prometheus.NewRegistry()

var (
	// RecordsTotal counts encrypted-mode records processed per
	// direction and outcome. Passthrough traffic is not counted.
	RecordsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "records_total",
			Help:      "Total number of records processed by the secure channel",
		},
		[]string{"direction", "result"},
	)

	// BytesTotal counts plaintext bytes moved in encrypted records per
	// direction.
	BytesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "bytes_total",
			Help:      "Total plaintext bytes moved through the secure channel",
		},
		[]string{"direction"},
	)

	// Active is the number of secure channels currently running.
	Active = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "active",
			Help:      "Number of secure channels currently open",
		},
	)

	// ModeTransitionsTotal counts Passthrough→Encrypted transitions.
	ModeTransitionsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "mode_transitions_total",
			Help:      "Total number of passthrough-to-encrypted transitions",
		},
	)
)

// Handler returns the HTTP handler hapd mounts at /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Collector implements channel.Metrics against the package-level
// Prometheus series above. It is stateless, so the zero value is
// ready to use.
type Collector struct{}

func (Collector) RecordProcessed(direction, result string) {
	RecordsTotal.WithLabelValues(direction, result).Inc()
}

func (Collector) BytesTransferred(direction string, n int) {
	BytesTotal.WithLabelValues(direction).Add(float64(n))
}

func (Collector) ActiveChannels(delta int) {
	Active.Add(float64(delta))
}

func (Collector) ModeTransition() {
	ModeTransitionsTotal.Inc()
}
