package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/observability"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.uber.org/zap"
)

// unmatchedRoute labels requests no route matched, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

type MetricsMiddleware struct {
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics *observability.Metrics
}

func NewMetricsMiddleware(logger *zap.Logger, tele *telemetry.Telemetry, metrics *observability.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		logger:  logger,
		tele:    tele,
		metrics: metrics,
	}
}

func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.metrics.HTTPActiveRequests.Inc()
		defer m.metrics.HTTPActiveRequests.Dec()

		c.Next()

		duration := time.Since(start).Seconds()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.metrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
		m.metrics.HTTPDuration.WithLabelValues(method, route).Observe(duration)

		if m.tele.IsEnabled() {
			m.logger.Debug("HTTP metrics recorded",
				zap.String("method", method),
				zap.String("route", route),
				zap.Int("status", c.Writer.Status()),
				zap.Float64("duration", duration))
		}
	}
}
