package metrics

import (
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records per-variant query outcomes, stage latency and degraded paths.
type PipelineMetrics struct {
	queriesTotal  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	fallbackTotal *prometheus.CounterVec
	contextChunks *prometheus.HistogramVec
}

func NewPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Total pipeline queries by variant and status.",
		},
		[]string{"variant", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent reaching each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"variant", "stage"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fallback_total",
			Help:      "Total degraded-path activations by component and reason.",
		},
		[]string{"component", "reason"},
	)
	contextChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "context_chunks",
			Help:      "Distribution of context blocks handed to generation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"variant"},
	)

	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	registerer.MustRegister(queriesTotal, stageDuration, fallbackTotal, contextChunks)

	return &PipelineMetrics{
		queriesTotal:  queriesTotal,
		stageDuration: stageDuration,
		fallbackTotal: fallbackTotal,
		contextChunks: contextChunks,
	}
}

func (m *PipelineMetrics) ObserveStage(variant domain.Variant, stage domain.PipelineState, duration time.Duration) {
	m.stageDuration.WithLabelValues(string(variant), string(stage)).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveQuery(variant domain.Variant, contextBlocks int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queriesTotal.WithLabelValues(string(variant), status).Inc()
	if err == nil {
		m.contextChunks.WithLabelValues(string(variant)).Observe(float64(contextBlocks))
	}
}

func (m *PipelineMetrics) RecordFallback(component, reason string) {
	if component == "" {
		component = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.fallbackTotal.WithLabelValues(component, reason).Inc()
}
