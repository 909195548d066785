package driven

import "time"

// MetricsSink receives every observation made by the metrics recorder.
// Implementations must be safe for concurrent use.
type MetricsSink interface {
	ObserveIngestion(docs, chunks int)
	ObserveQuery(retrieval, generation time.Duration, degraded bool, provider string)
}
