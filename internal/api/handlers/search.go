package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/worker"
)

// SearchHandler handles search requests
type SearchHandler struct {
	pool   *worker.Pool
	logger *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(pool *worker.Pool, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		pool:   pool,
		logger: logger,
	}
}

// Search handles a single court case search
// @Summary Search court cases
// @Description Run one case search against a registered portal
// @Tags Search
// @Accept json
// @Produce json
// @Param request body models.SearchRequest true "Search request"
// @Success 200 {object} models.SearchResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	requestID := c.GetString("request_id")

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request body",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}
	if err := req.Query.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid query",
			Message:   err.Error(),
			Code:      "INVALID_QUERY",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"portal":     req.Portal,
	}).Info("Processing search request")

	outcome := h.pool.Submit(req)
	if !outcome.Success {
		h.writeSearchError(c, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome.Result)
}

// SearchBatch handles a batch of searches
// @Summary Batch search court cases
// @Description Run up to 50 searches with bounded concurrency
// @Tags Search
// @Accept json
// @Produce json
// @Param request body models.BatchSearchRequest true "Batch search request"
// @Success 200 {object} models.BatchSearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /search/batch [post]
func (h *SearchHandler) SearchBatch(c *gin.Context) {
	var req models.BatchSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request body",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"searches":   len(req.Searches),
	}).Info("Processing batch search request")

	response := h.pool.SubmitBatch(req.Searches)
	c.JSON(http.StatusOK, response)
}

func (h *SearchHandler) writeSearchError(c *gin.Context, outcome models.BatchResult) {
	status := http.StatusInternalServerError
	code := "SEARCH_FAILED"

	switch {
	case outcome.Error == models.ErrInvalidQuery.Error():
		status = http.StatusBadRequest
		code = "INVALID_QUERY"
	case containsAny(outcome.Error, "unknown portal"):
		status = http.StatusNotFound
		code = "UNKNOWN_PORTAL"
	case containsAny(outcome.Error, "session launch_failed", "session unreachable"):
		status = http.StatusBadGateway
		code = "PORTAL_UNAVAILABLE"
	case containsAny(outcome.Error, "timeout"):
		status = http.StatusGatewayTimeout
		code = "TIMEOUT"
	}

	c.JSON(status, models.ErrorResponse{
		Error:     "Search failed",
		Message:   outcome.Error,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
