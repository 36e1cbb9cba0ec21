package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/worker"
)

// WorkerHandler exposes worker pool statistics
type WorkerHandler struct {
	pool   *worker.Pool
	logger *logrus.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(pool *worker.Pool, logger *logrus.Logger) *WorkerHandler {
	return &WorkerHandler{
		pool:   pool,
		logger: logger,
	}
}

// GetStats returns worker pool statistics
// @Summary Worker pool statistics
// @Tags Workers
// @Produce json
// @Success 200 {object} worker.Stats
// @Router /workers/stats [get]
func (h *WorkerHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.pool.GetStats())
}
