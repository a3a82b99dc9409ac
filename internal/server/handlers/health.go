package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// CacheStatser reports the state of the response cache.
type CacheStatser interface {
	CacheStats() map[string]interface{}
}

type HealthHandler struct {
	logger    *zap.Logger
	clock     clockwork.Clock
	cache     CacheStatser
	startTime time.Time
}

func NewHealthHandler(logger *zap.Logger, clock clockwork.Clock, cache CacheStatser) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		clock:     clock,
		cache:     cache,
		startTime: clock.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: h.uptime(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: h.uptime(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    h.uptime(),
		Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
	}
	if h.cache != nil {
		resp.Cache = h.cache.CacheStats()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) uptime() string {
	return h.clock.Since(h.startTime).String()
}
