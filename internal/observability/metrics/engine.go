package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineMetrics exposes the analyzer's operational counters on a dedicated
// registry, so the default registry's process collectors never leak in.
type EngineMetrics struct {
	registry *prometheus.Registry

	analysisTotal     *prometheus.CounterVec
	analysisDuration  *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	embeddingsSkipped *prometheus.CounterVec
	vectorizerReady   prometheus.Gauge
	vocabularySize    prometheus.Gauge
}

func NewEngineMetrics(service string) *EngineMetrics {
	registry := prometheus.NewRegistry()

	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mie",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total market analyses by segmentation mode and status.",
		},
		[]string{"service", "mode", "status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mie",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Market analysis duration in seconds by segmentation mode.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mie",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by scope and outcome.",
		},
		[]string{"service", "scope", "result"},
	)
	embeddingsSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mie",
			Subsystem: "vectorizer",
			Name:      "embeddings_skipped_total",
			Help:      "Companies skipped because no usable vector was produced.",
		},
		[]string{"service"},
	)
	vectorizerReady := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mie",
			Subsystem: "vectorizer",
			Name:      "ready",
			Help:      "Whether the one-time model fit has completed (0 or 1).",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	vocabularySize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mie",
			Subsystem: "vectorizer",
			Name:      "vocabulary_size",
			Help:      "Number of terms in the fitted vocabulary.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		analysisTotal,
		analysisDuration,
		cacheLookups,
		embeddingsSkipped,
		vectorizerReady,
		vocabularySize,
	)

	return &EngineMetrics{
		registry:          registry,
		analysisTotal:     analysisTotal,
		analysisDuration:  analysisDuration,
		cacheLookups:      cacheLookups,
		embeddingsSkipped: embeddingsSkipped,
		vectorizerReady:   vectorizerReady,
		vocabularySize:    vocabularySize,
	}
}

func (m *EngineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *EngineMetrics) RecordAnalysis(service, mode string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.analysisTotal.WithLabelValues(service, mode, status).Inc()
	m.analysisDuration.WithLabelValues(service, mode).Observe(duration.Seconds())
}

func (m *EngineMetrics) RecordCacheLookup(service, scope string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(service, scope, result).Inc()
}

func (m *EngineMetrics) RecordEmbeddingsSkipped(service string, skipped int) {
	if skipped <= 0 {
		return
	}
	m.embeddingsSkipped.WithLabelValues(service).Add(float64(skipped))
}

func (m *EngineMetrics) SetVectorizerReady(vocabularySize int) {
	m.vectorizerReady.Set(1)
	m.vocabularySize.Set(float64(vocabularySize))
}
