package promsink

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_ObserveIngestion(t *testing.T) {
	s := New()

	s.ObserveIngestion(6, 14)
	s.ObserveIngestion(1, 2)

	assert.Equal(t, 7.0, testutil.ToFloat64(s.docsIngested))
	assert.Equal(t, 16.0, testutil.ToFloat64(s.chunksIngested))
}

func TestSink_ObserveQuery(t *testing.T) {
	s := New()

	s.ObserveQuery(10*time.Millisecond, 200*time.Millisecond, false, "openai")
	s.ObserveQuery(5*time.Millisecond, time.Millisecond, true, "stub")
	s.ObserveQuery(5*time.Millisecond, time.Millisecond, true, "stub")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.queries.WithLabelValues("openai", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.queries.WithLabelValues("stub", "true")))
	assert.Equal(t, 2, testutil.CollectAndCount(s.generation))
}

func TestSink_Handler(t *testing.T) {
	s := New()
	s.ObserveIngestion(1, 3)
	s.ObserveQuery(time.Millisecond, time.Millisecond, false, "stub")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "policyhelper_documents_ingested_total 1")
	assert.Contains(t, text, "policyhelper_chunks_ingested_total 3")
	assert.Contains(t, text, `policyhelper_queries_total{degraded="false",provider="stub"} 1`)
	assert.Contains(t, text, "policyhelper_retrieval_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}

func TestSink_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveIngestion(2, 2)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.docsIngested))
	assert.NotSame(t, a.Registry(), b.Registry())
}
