package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

// PortalHandler exposes the registered portal profiles
type PortalHandler struct {
	registry *profile.Registry
	logger   *logrus.Logger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(registry *profile.Registry, logger *logrus.Logger) *PortalHandler {
	return &PortalHandler{
		registry: registry,
		logger:   logger,
	}
}

// List returns the names of all registered portals
// @Summary List portals
// @Description List the registered portal profiles
// @Tags Portals
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /portals [get]
func (h *PortalHandler) List(c *gin.Context) {
	names := h.registry.Names()
	c.JSON(http.StatusOK, gin.H{
		"portals": names,
		"count":   len(names),
	})
}

// Get returns one portal profile
// @Summary Get portal profile
// @Description Fetch one registered portal profile by name
// @Tags Portals
// @Produce json
// @Param name path string true "Portal name" example(oklahoma-oscn)
// @Success 200 {object} profile.PortalProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /portals/{name} [get]
func (h *PortalHandler) Get(c *gin.Context) {
	name := c.Param("name")
	p, err := h.registry.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "Unknown portal",
			Message:   err.Error(),
			Code:      "UNKNOWN_PORTAL",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}
	c.JSON(http.StatusOK, p)
}
