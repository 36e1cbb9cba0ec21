package services

import (
	"context"

	"github.com/publicvector/courtsearch/internal/models"
)

// SearchServiceInterface defines the interface for the court search service
type SearchServiceInterface interface {
	// Search runs one search against a portal
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error)

	// SearchBatch runs multiple searches with bounded concurrency
	SearchBatch(ctx context.Context, reqs []models.SearchRequest) []models.BatchResult

	// Docket fetches and parses one case's docket report
	Docket(ctx context.Context, portal, caseNumber string) (*models.DocketReport, error)

	// Portals lists the names of the registered portal profiles
	Portals() []string

	// Health returns service health status
	Health() map[string]interface{}

	// Close closes the service and releases resources
	Close() error
}

// CacheServiceInterface defines the interface for the search result cache
type CacheServiceInterface interface {
	// GetResult retrieves a cached search result
	GetResult(ctx context.Context, key string) (*models.SearchResult, bool)

	// SetResult stores a search result
	SetResult(ctx context.Context, key string, result *models.SearchResult) error

	// Delete removes one cached entry
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache health status
	Health() map[string]interface{}
}
