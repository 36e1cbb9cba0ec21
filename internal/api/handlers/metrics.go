package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/services"
	"github.com/publicvector/courtsearch/internal/worker"
)

// MetricsHandler exposes process and subsystem statistics
type MetricsHandler struct {
	container *services.Container
	pool      *worker.Pool
	logger    *logrus.Logger
	started   time.Time
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(container *services.Container, pool *worker.Pool, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		container: container,
		pool:      pool,
		logger:    logger,
		started:   time.Now(),
	}
}

// GetMetrics returns process, worker pool and cache statistics
// @Summary Application metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	requestID := c.GetString("request_id")
	h.logger.WithField("request_id", requestID).Debug("Collecting metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cacheStats, err := h.container.CacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Failed to collect cache stats")
		cacheStats = map[string]interface{}{"error": err.Error()}
	}

	c.JSON(http.StatusOK, gin.H{
		"system": gin.H{
			"uptime_seconds":  int64(time.Since(h.started).Seconds()),
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": float64(m.Alloc) / 1024 / 1024,
			"gc_cycles":       m.NumGC,
		},
		"workers":   h.pool.GetStats(),
		"cache":     cacheStats,
		"timestamp": time.Now(),
	})
}
