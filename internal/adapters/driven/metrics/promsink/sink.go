// Package promsink exports service metrics to Prometheus.
package promsink

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// Namespace prefixes every exported metric.
const Namespace = "policyhelper"

// Ensure Sink implements the interface.
var _ driven.MetricsSink = (*Sink)(nil)

// Sink records observations into a private Prometheus registry.
type Sink struct {
	registry *prometheus.Registry

	docsIngested   prometheus.Counter
	chunksIngested prometheus.Counter
	queries        *prometheus.CounterVec
	retrieval      prometheus.Histogram
	generation     *prometheus.HistogramVec
}

// New creates a sink with its own registry, including Go and process collectors.
func New() *Sink {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Sink{
		registry: reg,
		docsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents processed by ingestion runs.",
		}),
		chunksIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chunks_ingested_total",
			Help:      "Chunks produced by ingestion runs.",
		}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Answered questions by LLM provider and degradation.",
		}, []string{"provider", "degraded"}),
		retrieval: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent embedding the query and ranking chunks.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		}),
		generation: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent producing the answer text.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 20},
		}, []string{"provider"}),
	}
}

// ObserveIngestion records one ingestion run.
func (s *Sink) ObserveIngestion(docs, chunks int) {
	s.docsIngested.Add(float64(docs))
	s.chunksIngested.Add(float64(chunks))
}

// ObserveQuery records one answered question.
func (s *Sink) ObserveQuery(retrieval, generation time.Duration, degraded bool, provider string) {
	s.queries.WithLabelValues(provider, strconv.FormatBool(degraded)).Inc()
	s.retrieval.Observe(retrieval.Seconds())
	s.generation.WithLabelValues(provider).Observe(generation.Seconds())
}

// Registry returns the underlying registry.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus text format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}
