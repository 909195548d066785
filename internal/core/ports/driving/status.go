package driving

import (
	"context"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// StatusService reports service health and metrics.
type StatusService interface {
	// Health returns the active backends and degradation state.
	Health(ctx context.Context) domain.Health

	// Metrics returns the metrics snapshot plus corpus totals.
	Metrics(ctx context.Context) domain.ServiceMetrics
}
