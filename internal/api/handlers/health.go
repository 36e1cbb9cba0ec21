package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/services"
)

const apiVersion = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	container *services.Container
	logger    *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *services.Container, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		container: container,
		logger:    logger,
	}
}

// GetHealth returns overall service health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	health := h.container.Health()

	status := "healthy"
	httpStatus := http.StatusOK
	if redis, ok := health["redis"].(map[string]interface{}); ok {
		if redis["status"] == "unhealthy" {
			status = "degraded"
		}
	}

	c.JSON(httpStatus, models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   apiVersion,
		Services:  health,
	})
}

// GetReadiness reports whether the service can accept traffic
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// GetLiveness reports whether the process is alive
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}
