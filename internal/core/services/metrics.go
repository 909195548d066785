package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// MetricsRecorder keeps process-lifetime counters and running latency averages.
// Every observation is also forwarded to the optional sink.
type MetricsRecorder struct {
	mu   sync.Mutex
	snap domain.MetricsSnapshot
	sink driven.MetricsSink
}

// NewMetricsRecorder creates a recorder. sink may be nil.
func NewMetricsRecorder(sink driven.MetricsSink) *MetricsRecorder {
	return &MetricsRecorder{sink: sink}
}

// RecordIngestion counts one ingestion run.
func (m *MetricsRecorder) RecordIngestion(docs, chunks int) {
	m.mu.Lock()
	m.snap.DocumentsIndexed += int64(docs)
	m.snap.ChunksIndexed += int64(chunks)
	m.snap.IngestionRuns++
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.ObserveIngestion(docs, chunks)
	}
}

// RecordQuery counts one answered question and returns the snapshot that
// includes it.
func (m *MetricsRecorder) RecordQuery(retrieval, generation time.Duration, degraded bool, provider string) domain.MetricsSnapshot {
	m.mu.Lock()
	m.snap.QueriesServed++
	if degraded {
		m.snap.DegradedResponses++
	}
	n := float64(m.snap.QueriesServed)
	m.snap.AvgRetrievalLatencyMs += (millis(retrieval) - m.snap.AvgRetrievalLatencyMs) / n
	m.snap.AvgGenerationLatencyMs += (millis(generation) - m.snap.AvgGenerationLatencyMs) / n
	snap := m.snap
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.ObserveQuery(retrieval, generation, degraded, provider)
	}
	return snap
}

// Snapshot returns a consistent copy of the counters.
func (m *MetricsRecorder) Snapshot() domain.MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
