package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/services"
)

// CacheHandler handles cache management requests
type CacheHandler struct {
	cache  services.CacheServiceInterface
	logger *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cache services.CacheServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		logger: logger,
	}
}

// GetStats returns cache statistics
// @Summary Cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	stats, err := h.cache.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Failed to read cache stats",
			Message:   err.Error(),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Clear removes all cached search results
// @Summary Clear cache
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Failed to clear cache",
			Message:   err.Error(),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}
	h.logger.WithField("request_id", c.GetString("request_id")).Info("Cache cleared via API")
	c.JSON(http.StatusOK, gin.H{
		"message":   "cache cleared",
		"timestamp": time.Now(),
	})
}

// Delete removes one cached entry by key
// @Summary Delete cache entry
// @Tags Cache
// @Produce json
// @Param key path string true "Cache key"
// @Success 200 {object} map[string]interface{}
// @Router /cache/{key} [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	if err := h.cache.Delete(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Failed to delete cache entry",
			Message:   err.Error(),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "cache entry deleted",
		"key":       key,
		"timestamp": time.Now(),
	})
}
