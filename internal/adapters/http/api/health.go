package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/vigil/pkg/metrics"
)

// StatsProvider reports queue, worker and store statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// HealthHandler serves the Prometheus exposition of the service registry.
type HealthHandler struct {
	exposition http.Handler
}

// NewHealthHandler builds the exposition handler once.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{exposition: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.exposition.ServeHTTP(w, r)
}

// StatsHandler serves the JSON statistics of a StatsProvider.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
