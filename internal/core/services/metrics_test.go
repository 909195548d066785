package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	mu        sync.Mutex
	ingests   int
	queries   int
	providers []string
}

func (s *recordingSink) ObserveIngestion(int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingests++
}

func (s *recordingSink) ObserveQuery(_, _ time.Duration, _ bool, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	s.providers = append(s.providers, provider)
}

func TestMetricsRecorder_Ingestion(t *testing.T) {
	sink := &recordingSink{}
	m := NewMetricsRecorder(sink)

	m.RecordIngestion(6, 20)
	m.RecordIngestion(6, 20)

	snap := m.Snapshot()
	assert.Equal(t, int64(12), snap.DocumentsIndexed)
	assert.Equal(t, int64(40), snap.ChunksIndexed)
	assert.Equal(t, int64(2), snap.IngestionRuns)
	assert.Equal(t, 2, sink.ingests)
}

func TestMetricsRecorder_RunningAverages(t *testing.T) {
	m := NewMetricsRecorder(nil)

	m.RecordQuery(10*time.Millisecond, 100*time.Millisecond, false, "stub")
	snap := m.RecordQuery(30*time.Millisecond, 300*time.Millisecond, true, "stub")

	assert.Equal(t, int64(2), snap.QueriesServed)
	assert.Equal(t, int64(1), snap.DegradedResponses)
	assert.InDelta(t, 20.0, snap.AvgRetrievalLatencyMs, 1e-9)
	assert.InDelta(t, 200.0, snap.AvgGenerationLatencyMs, 1e-9)
	assert.Equal(t, snap, m.Snapshot())
}

func TestMetricsRecorder_Concurrent(t *testing.T) {
	sink := &recordingSink{}
	m := NewMetricsRecorder(sink)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery(5*time.Millisecond, 5*time.Millisecond, false, "openai")
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(100), snap.QueriesServed)
	assert.InDelta(t, 5.0, snap.AvgRetrievalLatencyMs, 1e-9)
	assert.Equal(t, 100, sink.queries)
}
