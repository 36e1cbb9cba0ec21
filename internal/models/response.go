package models

import "time"

// SearchRequest is the body of a single-search API request.
type SearchRequest struct {
	Portal  string      `json:"portal" binding:"required" example:"oklahoma-oscn"`
	Query   SearchQuery `json:"query" binding:"required"`
	Limit   int         `json:"limit,omitempty" example:"50"`
	NoCache bool        `json:"no_cache,omitempty" example:"false"`
}

// BatchSearchRequest fans one query out across several portals, or several
// queries across one portal.
type BatchSearchRequest struct {
	Searches []SearchRequest `json:"searches" binding:"required,min=1,max=50"`
}

// BatchResult is the outcome of one search within a batch.
type BatchResult struct {
	Portal     string        `json:"portal" example:"oklahoma-oscn"`
	Success    bool          `json:"success" example:"true"`
	Result     *SearchResult `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	DurationMs int64         `json:"duration_ms" example:"2150"`
}

// BatchSearchResponse aggregates batch results with per-batch statistics.
type BatchSearchResponse struct {
	Results []BatchResult `json:"results"`
	Stats   BatchStats    `json:"stats"`
}

// BatchStats summarizes one batch run.
type BatchStats struct {
	Total     int           `json:"total" example:"3"`
	Ready     int           `json:"ready" example:"2"`
	Empty     int           `json:"empty" example:"0"`
	Blocked   int           `json:"blocked" example:"1"`
	Failed    int           `json:"failed" example:"0"`
	Cached    int           `json:"cached" example:"0"`
	Duration  time.Duration `json:"duration_ms" swaggertype:"integer"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error     string    `json:"error" example:"Invalid query"`
	Message   string    `json:"message" example:"at least one identifying field is required"`
	Code      string    `json:"code,omitempty" example:"INVALID_QUERY"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/search"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"2.0.0"`
	Services  map[string]interface{} `json:"services,omitempty"`
}
