package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/observability"
)

type MetricsHandler struct {
	metrics *observability.Metrics
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// ServeMetrics exposes the registry in the Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
