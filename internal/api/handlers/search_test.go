package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/worker"
)

type stubSearchService struct {
	search func(req *models.SearchRequest) (*models.SearchResult, error)
}

func (s *stubSearchService) Search(_ context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	return s.search(req)
}

func (s *stubSearchService) SearchBatch(_ context.Context, _ []models.SearchRequest) []models.BatchResult {
	return nil
}

func (s *stubSearchService) Docket(_ context.Context, _, _ string) (*models.DocketReport, error) {
	return nil, errors.New("not implemented")
}

func (s *stubSearchService) Portals() []string { return nil }

func (s *stubSearchService) Health() map[string]interface{} { return nil }

func (s *stubSearchService) Close() error { return nil }

func searchRouter(t *testing.T, search func(req *models.SearchRequest) (*models.SearchResult, error)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	pool := worker.NewPool(2, 10, &stubSearchService{search: search}, logger)
	pool.Start()
	t.Cleanup(pool.Stop)

	handler := NewSearchHandler(pool, logger)
	router := gin.New()
	router.POST("/search", handler.Search)
	router.POST("/search/batch", handler.SearchBatch)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	router := searchRouter(t, func(req *models.SearchRequest) (*models.SearchResult, error) {
		return &models.SearchResult{
			Portal: req.Portal,
			Status: models.StatusReady,
			Records: []models.CaseRecord{
				{CaseNumber: "CJ-2024-1", PartyName: "SMITH, JOHN"},
			},
		}, nil
	})

	rec := postJSON(t, router, "/search", models.SearchRequest{
		Portal: "oklahoma-oscn",
		Query:  models.SearchQuery{LastName: "Smith"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, models.StatusReady, result.Status)
	require.Len(t, result.Records, 1)
}

func TestSearchEndpointRejectsBadQuery(t *testing.T) {
	router := searchRouter(t, func(_ *models.SearchRequest) (*models.SearchResult, error) {
		t.Fatal("service must not be reached for an invalid query")
		return nil, nil
	})

	rec := postJSON(t, router, "/search", models.SearchRequest{
		Portal: "oklahoma-oscn",
		Query:  models.SearchQuery{County: "Tulsa"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_QUERY", resp.Code)
}

func TestSearchEndpointUnknownPortal(t *testing.T) {
	router := searchRouter(t, func(req *models.SearchRequest) (*models.SearchResult, error) {
		return nil, errors.New(`unknown portal "nowhere"`)
	})

	rec := postJSON(t, router, "/search", models.SearchRequest{
		Portal: "nowhere",
		Query:  models.SearchQuery{LastName: "Smith"},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "UNKNOWN_PORTAL", resp.Code)
}

func TestSearchEndpointPortalUnavailable(t *testing.T) {
	router := searchRouter(t, func(_ *models.SearchRequest) (*models.SearchResult, error) {
		return nil, &models.SessionError{
			Kind: models.SessionLaunchFailed,
			Err:  errors.New("chrome did not start"),
		}
	})

	rec := postJSON(t, router, "/search", models.SearchRequest{
		Portal: "montana-district",
		Query:  models.SearchQuery{LastName: "Smith"},
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearchBatchEndpoint(t *testing.T) {
	router := searchRouter(t, func(req *models.SearchRequest) (*models.SearchResult, error) {
		if req.Portal == "broken" {
			return nil, errors.New("boom")
		}
		return &models.SearchResult{Portal: req.Portal, Status: models.StatusReady}, nil
	})

	rec := postJSON(t, router, "/search/batch", models.BatchSearchRequest{
		Searches: []models.SearchRequest{
			{Portal: "a", Query: models.SearchQuery{LastName: "Smith"}},
			{Portal: "broken", Query: models.SearchQuery{LastName: "Smith"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.BatchSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	require.Equal(t, 2, resp.Stats.Total)
	require.Equal(t, 1, resp.Stats.Ready)
	require.Equal(t, 1, resp.Stats.Failed)
}
