package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/services"
)

// DocketHandler serves per-case docket reports
type DocketHandler struct {
	service services.SearchServiceInterface
	logger  *logrus.Logger
}

// NewDocketHandler creates a new docket handler
func NewDocketHandler(service services.SearchServiceInterface, logger *logrus.Logger) *DocketHandler {
	return &DocketHandler{
		service: service,
		logger:  logger,
	}
}

// Get fetches one case's docket report
// @Summary Get case docket
// @Description Fetch and parse the docket report for one case number
// @Tags Docket
// @Produce json
// @Param portal path string true "Portal name" example(oklahoma-oscn)
// @Param case query string true "Case number" example(CJ-2024-1234)
// @Success 200 {object} models.DocketReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /dockets/{portal} [get]
func (h *DocketHandler) Get(c *gin.Context) {
	portal := c.Param("portal")
	caseNumber := c.Query("case")
	if caseNumber == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Missing case number",
			Message:   "the case query parameter is required",
			Code:      "MISSING_CASE",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"portal":     portal,
		"case":       caseNumber,
	}).Info("Processing docket request")

	report, err := h.service.Docket(c.Request.Context(), portal, caseNumber)
	if err != nil {
		status := http.StatusBadGateway
		code := "DOCKET_FAILED"
		if containsAny(err.Error(), "unknown portal", "does not expose docket pages") {
			status = http.StatusNotFound
			code = "UNKNOWN_PORTAL"
		}
		c.JSON(status, models.ErrorResponse{
			Error:     "Docket fetch failed",
			Message:   err.Error(),
			Code:      code,
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}
	c.JSON(http.StatusOK, report)
}
