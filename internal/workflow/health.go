package workflow

import (
	"context"

	"recipeforge/internal/stage"
)

// HealthCheck reports the readiness of every configured stage in pipeline
// order. Missing handlers are reported as unhealthy.
func (m *Manager) HealthCheck(ctx context.Context) []stage.Health {
	results := make([]stage.Health, 0, len(m.stages))
	for _, st := range m.stages {
		if st.handler == nil {
			results = append(results, stage.Unhealthy(st.name, "handler not configured"))
			continue
		}
		results = append(results, st.handler.HealthCheck(ctx))
	}
	return results
}

// Ready reports whether every stage is healthy.
func (m *Manager) Ready(ctx context.Context) bool {
	for _, health := range m.HealthCheck(ctx) {
		if !health.Ready {
			return false
		}
	}
	return true
}
