package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReindexMetrics tracks index rebuilds triggered through the reindex queue.
type ReindexMetrics struct {
	service string

	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runsInFlight prometheus.Gauge
}

func NewReindexMetrics(service string, registerer prometheus.Registerer) *ReindexMetrics {
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reindex_total",
			Help:      "Total reindex runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reindex_duration_seconds",
			Help:      "Reindex duration in seconds by status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reindex_in_flight",
			Help:      "Number of reindex runs in progress.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	registerer.MustRegister(runsTotal, runDuration, runsInFlight)

	return &ReindexMetrics{
		service:      service,
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		runsInFlight: runsInFlight,
	}
}

func (m *ReindexMetrics) StartReindex() {
	m.runsInFlight.Inc()
}

func (m *ReindexMetrics) FinishReindex(duration time.Duration, err error) {
	m.runsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.runsTotal.WithLabelValues(m.service, status).Inc()
	m.runDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}
